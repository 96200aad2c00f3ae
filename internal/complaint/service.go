// Package complaint handles moderation on the chat server: filing reports
// against messages and the moderator actions that change a room.
package complaint

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"streamchat/internal/analysis"
	"streamchat/internal/config"
	"streamchat/internal/models"
	"streamchat/internal/storage"
)

var (
	ErrInvalidReason      = errors.New("invalid report reason")
	ErrDescriptionTooLong = errors.New("report description is too long")
	ErrSelfReport         = errors.New("you cannot report your own message")
	ErrInvalidSettings    = errors.New("invalid chat settings")
)

// Service handles the business logic for reports and room moderation.
type Service struct {
	Storage storage.Storage
}

// NewService creates a new complaint service.
func NewService(s storage.Storage) *Service {
	return &Service{Storage: s}
}

// FileReport validates and stores a report from reporter. Once the open
// reports against a message weigh AutoHideWeight or more it is deleted.
func (s *Service) FileReport(streamID string, reporter models.User, req models.ReportRequest) (*models.Report, error) {
	if !req.Reason.Valid() {
		return nil, ErrInvalidReason
	}
	if utf8.RuneCountInString(req.Description) > config.MaxReportDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	msg, err := s.Storage.FindMessage(streamID, req.MessageID)
	if err != nil {
		return nil, err
	}
	if msg.UserID == reporter.ID {
		return nil, ErrSelfReport
	}

	report := &models.Report{
		StreamID:    streamID,
		ReporterID:  reporter.ID,
		MessageID:   req.MessageID,
		Reason:      string(req.Reason),
		Description: req.Description,
	}
	if err := s.Storage.SaveReport(report); err != nil {
		return nil, err
	}

	reports, err := s.Storage.ReportsForMessage(streamID, req.MessageID)
	if err != nil {
		log.Printf("WARNING: could not score reports for message %s: %v", req.MessageID, err)
		return report, nil
	}
	if analysis.OpenWeight(reports) >= config.AutoHideWeight {
		log.Printf("Message %s in stream %s hidden after reports", req.MessageID, streamID)
		if err := s.DeleteMessage(streamID, req.MessageID); err != nil {
			log.Printf("ERROR: auto-hide of message %s failed: %v", req.MessageID, err)
		}
	}
	return report, nil
}

func (s *Service) ListReports(status string) ([]models.Report, error) {
	return s.Storage.ListReports(status)
}

func (s *Service) ResolveReport(reportID string) error {
	return s.Storage.ResolveReport(reportID)
}

// DeleteMessage removes a message and tells the room. A pinned copy is
// unpinned as well.
func (s *Service) DeleteMessage(streamID, messageID string) error {
	if err := s.Storage.DeleteMessage(streamID, messageID); err != nil {
		return err
	}
	pinned, err := s.Storage.GetPinned(streamID)
	if err == nil && pinned != nil && pinned.ID == messageID {
		if err := s.Storage.SetPinned(streamID, nil); err != nil {
			log.Printf("WARNING: could not unpin deleted message %s: %v", messageID, err)
		}
	}
	return s.publish(streamID, models.EventMessageDeleted, models.MessageDeletedPayload{
		MessageID: messageID,
		StreamID:  streamID,
	})
}

func (s *Service) Pin(streamID, messageID string) error {
	msg, err := s.Storage.FindMessage(streamID, messageID)
	if err != nil {
		return err
	}
	if err := s.Storage.SetPinned(streamID, msg); err != nil {
		return err
	}
	return s.publish(streamID, models.EventMessagePinned, models.MessagePinnedPayload{
		StreamID:      streamID,
		PinnedMessage: msg,
	})
}

func (s *Service) Unpin(streamID string) error {
	if err := s.Storage.SetPinned(streamID, nil); err != nil {
		return err
	}
	return s.publish(streamID, models.EventMessageUnpinned, models.StreamRef{StreamID: streamID})
}

// UpdateSettings replaces the settings of a room.
func (s *Service) UpdateSettings(streamID string, settings models.ChatSettings) error {
	if settings.MaxMessageLength <= 0 || settings.RateLimit < 0 {
		return ErrInvalidSettings
	}
	if err := s.Storage.SaveSettings(streamID, settings); err != nil {
		return err
	}
	return s.publish(streamID, models.EventSettingsUpdated, models.SettingsUpdatedPayload{
		StreamID: streamID,
		Settings: settings,
	})
}

func (s *Service) publish(streamID, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := s.Storage.PublishRoomEvent(models.RoomEvent{StreamID: streamID, Event: event, Data: data}); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}
