// Package streamstatus derives display state from stream records. Everything
// here is pure: no I/O, no clocks except the "now" passed in by the caller.
package streamstatus

import (
	"strings"

	"streamchat/internal/models"
)

// Label is the display status of a stream.
type Label string

const (
	Live      Label = "LIVE"
	Upcoming  Label = "UPCOMING"
	Recorded  Label = "RECORDED"
	Scheduled Label = "SCHEDULED"
)

// Status is the classifier result: a label plus the colours used to render it.
type Status struct {
	Label        Label  `json:"label"`
	DisplayColor string `json:"displayColor"`
	BadgeColor   string `json:"badgeColor"`
}

var palette = map[Label]Status{
	Live:      {Label: Live, DisplayColor: "#EF4444", BadgeColor: "#FEE2E2"},
	Upcoming:  {Label: Upcoming, DisplayColor: "#F59E0B", BadgeColor: "#FEF3C7"},
	Recorded:  {Label: Recorded, DisplayColor: "#6B7280", BadgeColor: "#F3F4F6"},
	Scheduled: {Label: Scheduled, DisplayColor: "#3B82F6", BadgeColor: "#DBEAFE"},
}

// Rule is one row of the precedence table.
type Rule struct {
	Name  string
	Match func(s *models.StreamRecord) bool
	Label Label
}

// Rules is evaluated top to bottom; the first match wins. Order matters: the
// vendor DISCONNECTED state must be looked at before any other signal.
var Rules = []Rule{
	{
		Name: "vendor disconnected after start",
		Match: func(s *models.StreamRecord) bool {
			return vendor(s) == "DISCONNECTED" && hasActualStart(s)
		},
		Label: Live,
	},
	{
		Name:  "vendor disconnected before start",
		Match: func(s *models.StreamRecord) bool { return vendor(s) == "DISCONNECTED" },
		Label: Upcoming,
	},
	{
		Name: "streaming",
		Match: func(s *models.StreamRecord) bool {
			v := vendor(s)
			return v == "STREAMING" || v == "STARTED" || app(s) == "live" || s.IsServerStarted
		},
		Label: Live,
	},
	{
		Name: "not started",
		Match: func(s *models.StreamRecord) bool {
			a := app(s)
			return vendor(s) == "NOT_STARTED" || a == "scheduled" || a == "upcoming"
		},
		Label: Upcoming,
	},
	{
		Name: "finished",
		Match: func(s *models.StreamRecord) bool {
			v, a := vendor(s), app(s)
			return v == "COMPLETED" || v == "STOPPED" || a == "completed" || a == "ended"
		},
		Label: Recorded,
	},
}

// Classify returns the display status of stream. It never panics; a nil or
// empty record is SCHEDULED.
func Classify(stream *models.StreamRecord) Status {
	return palette[ClassifyLabel(stream)]
}

// ClassifyLabel is Classify without the colours.
func ClassifyLabel(stream *models.StreamRecord) Label {
	if stream == nil {
		return Scheduled
	}
	for _, r := range Rules {
		if r.Match(stream) {
			return r.Label
		}
	}
	return Scheduled
}

// StatusFor returns the palette entry for a label, defaulting to SCHEDULED.
func StatusFor(l Label) Status {
	if s, ok := palette[l]; ok {
		return s
	}
	return palette[Scheduled]
}

func vendor(s *models.StreamRecord) string {
	return strings.ToUpper(strings.TrimSpace(s.TPStatus))
}

func app(s *models.StreamRecord) string {
	return strings.ToLower(strings.TrimSpace(s.Status))
}

func hasActualStart(s *models.StreamRecord) bool {
	return s.ActualStartTime != nil && strings.TrimSpace(*s.ActualStartTime) != ""
}
