package models

import (
	"fmt"
	"time"
)

// ReportReason is the fixed set of moderation reasons a user may pick.
type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonHarassment    ReportReason = "harassment"
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonOther         ReportReason = "other"
)

// ReportReasons lists every valid reason in display order.
var ReportReasons = []ReportReason{ReasonSpam, ReasonHarassment, ReasonInappropriate, ReasonOther}

// Valid reports whether r is one of the known reasons.
func (r ReportReason) Valid() bool {
	for _, known := range ReportReasons {
		if r == known {
			return true
		}
	}
	return false
}

// ParseReportReason converts user input into a ReportReason.
func ParseReportReason(s string) (ReportReason, error) {
	r := ReportReason(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown report reason %q", s)
	}
	return r, nil
}

// DeliveryState tracks a report from submission to resolution.
type DeliveryState string

const (
	DeliveryPending   DeliveryState = "pending"
	DeliverySucceeded DeliveryState = "succeeded"
	DeliveryFailed    DeliveryState = "failed"
)

// ReportRequest is a moderation action on one message. It lives only as long
// as the action itself.
type ReportRequest struct {
	MessageID   string        `json:"messageId"`
	Reason      ReportReason  `json:"reason"`
	Description string        `json:"description,omitempty"`
	State       DeliveryState `json:"-"`
}

// Report is the persisted form of a report on the chat server side.
type Report struct {
	ReportID    string    `gorm:"primaryKey" json:"reportId"`
	StreamID    string    `gorm:"index" json:"streamId"`
	ReporterID  string    `gorm:"index" json:"reporterId"`
	MessageID   string    `json:"messageId"`
	Reason      string    `json:"reason"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"` // "new", "resolved"
	CreatedAt   time.Time `json:"createdAt"`
}

const (
	ReportStatusNew      = "new"
	ReportStatusResolved = "resolved"
)
