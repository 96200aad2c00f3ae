package storage

import (
	"errors"
	"log"
	"time"

	"streamchat/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaveUser upserts user in PostgreSQL.
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

func (s *Service) GetUser(id string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveMessage stores msg for streamID and fills in its ID and timestamp.
func (s *Service) SaveMessage(streamID string, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	history := models.ChatHistory{
		MessageID: msg.ID,
		StreamID:  streamID,
		UserID:    msg.UserID,
		UserName:  msg.UserName,
		Content:   msg.Message,
		IsAdmin:   msg.IsAdmin,
		ReplyTo:   msg.ReplyTo,
	}
	if err := s.DB.Create(&history).Error; err != nil {
		log.Printf("ERROR: Failed to save message for stream %s: %v", streamID, err)
		return err
	}
	msg.Timestamp = history.CreatedAt
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return nil
}

func (s *Service) FindMessage(streamID, messageID string) (*models.ChatMessage, error) {
	var history models.ChatHistory
	err := s.DB.Where("stream_id = ? AND message_id = ?", streamID, messageID).First(&history).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	msg := history.ToChatMessage()
	return &msg, nil
}

// DeleteMessage soft-deletes a message so it no longer appears in history.
func (s *Service) DeleteMessage(streamID, messageID string) error {
	res := s.DB.Where("stream_id = ? AND message_id = ?", streamID, messageID).Delete(&models.ChatHistory{})
	if res.Error != nil {
		log.Printf("ERROR: Failed to delete message %s in stream %s: %v", messageID, streamID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// RecentMessages returns the last limit messages of a stream, oldest first.
func (s *Service) RecentMessages(streamID string, limit int) ([]models.ChatMessage, error) {
	var rows []models.ChatHistory
	if err := s.DB.Where("stream_id = ?", streamID).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		log.Printf("ERROR: Failed to get chat history for stream %s: %v", streamID, err)
		return nil, err
	}
	out := make([]models.ChatMessage, len(rows))
	for i, row := range rows {
		out[len(rows)-1-i] = row.ToChatMessage()
	}
	return out, nil
}

func (s *Service) SaveReport(report *models.Report) error {
	if report.ReportID == "" {
		report.ReportID = uuid.New().String()
	}
	if report.Status == "" {
		report.Status = models.ReportStatusNew
	}
	if err := s.DB.Create(report).Error; err != nil {
		log.Printf("ERROR: Failed to save report for stream %s: %v", report.StreamID, err)
		return err
	}
	return nil
}

// ListReports returns reports newest first; an empty status lists all.
func (s *Service) ListReports(status string) ([]models.Report, error) {
	var reports []models.Report
	q := s.DB.Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Service) ReportsForMessage(streamID, messageID string) ([]models.Report, error) {
	var reports []models.Report
	if err := s.DB.Where("stream_id = ? AND message_id = ?", streamID, messageID).Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Service) ResolveReport(reportID string) error {
	res := s.DB.Model(&models.Report{}).
		Where("report_id = ?", reportID).
		Update("status", models.ReportStatusResolved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}
