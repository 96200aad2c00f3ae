package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"streamchat/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RoomEventsChannel carries models.RoomEvent values between admin tooling and
// running chat servers.
const RoomEventsChannel = "chat:room-events"

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrReportNotFound  = errors.New("report not found")
)

// Storage is everything the chat hub and the HTTP handlers persist.
type Storage interface {
	SaveUser(user *models.User) error
	GetUser(id string) (*models.User, error)

	SaveMessage(streamID string, msg *models.ChatMessage) error
	FindMessage(streamID, messageID string) (*models.ChatMessage, error)
	DeleteMessage(streamID, messageID string) error
	RecentMessages(streamID string, limit int) ([]models.ChatMessage, error)

	SaveReport(report *models.Report) error
	ListReports(status string) ([]models.Report, error)
	ReportsForMessage(streamID, messageID string) ([]models.Report, error)
	ResolveReport(reportID string) error

	GetSettings(streamID string) (models.ChatSettings, error)
	SaveSettings(streamID string, settings models.ChatSettings) error
	GetPinned(streamID string) (*models.ChatMessage, error)
	SetPinned(streamID string, msg *models.ChatMessage) error

	PublishRoomEvent(ev models.RoomEvent) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

func settingsKey(streamID string) string { return "chat:settings:" + streamID }
func pinnedKey(streamID string) string   { return "chat:pinned:" + streamID }
func streamKey(streamID string) string   { return "stream:" + streamID }

var ErrStreamNotFound = errors.New("stream not found")

// GetStream returns the stream record stored for id.
func (s *Service) GetStream(id string) (*models.StreamRecord, error) {
	raw, err := s.Redis.Get(s.Ctx, streamKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStreamNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec models.StreamRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode stream %s: %w", id, err)
	}
	return &rec, nil
}

// SaveStream stores rec under its id, replacing any previous record.
func (s *Service) SaveStream(rec *models.StreamRecord) error {
	if rec.ID == "" {
		return errors.New("stream id is required")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.Redis.Set(s.Ctx, streamKey(rec.ID), b, 0).Err()
}

// GetSettings returns the room settings, or the defaults for a room that was
// never configured.
func (s *Service) GetSettings(streamID string) (models.ChatSettings, error) {
	raw, err := s.Redis.Get(s.Ctx, settingsKey(streamID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.DefaultChatSettings(), nil
	}
	if err != nil {
		return models.ChatSettings{}, err
	}
	var settings models.ChatSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		log.Printf("WARNING: corrupt settings for stream %s, using defaults: %v", streamID, err)
		return models.DefaultChatSettings(), nil
	}
	return settings, nil
}

func (s *Service) SaveSettings(streamID string, settings models.ChatSettings) error {
	b, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.Redis.Set(s.Ctx, settingsKey(streamID), b, 0).Err()
}

// GetPinned returns the pinned message of a room, nil when none.
func (s *Service) GetPinned(streamID string) (*models.ChatMessage, error) {
	raw, err := s.Redis.Get(s.Ctx, pinnedKey(streamID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var msg models.ChatMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, fmt.Errorf("decode pinned message: %w", err)
	}
	return &msg, nil
}

// SetPinned pins msg; a nil msg unpins.
func (s *Service) SetPinned(streamID string, msg *models.ChatMessage) error {
	if msg == nil {
		return s.Redis.Del(s.Ctx, pinnedKey(streamID)).Err()
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Redis.Set(s.Ctx, pinnedKey(streamID), b, 0).Err()
}

// PublishRoomEvent publishes ev on RoomEventsChannel.
func (s *Service) PublishRoomEvent(ev models.RoomEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, RoomEventsChannel, string(b)).Err()
}

func (s *Service) SubscribeRoomEvents(ctx context.Context) *redis.PubSub {
	return s.Redis.Subscribe(ctx, RoomEventsChannel)
}
