// Package storagetest provides a testify mock of storage.Storage.
package storagetest

import (
	"streamchat/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) GetUser(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SaveMessage(streamID string, msg *models.ChatMessage) error {
	args := m.Called(streamID, msg)
	return args.Error(0)
}

func (m *MockStorage) FindMessage(streamID, messageID string) (*models.ChatMessage, error) {
	args := m.Called(streamID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}

func (m *MockStorage) DeleteMessage(streamID, messageID string) error {
	args := m.Called(streamID, messageID)
	return args.Error(0)
}

func (m *MockStorage) RecentMessages(streamID string, limit int) ([]models.ChatMessage, error) {
	args := m.Called(streamID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockStorage) SaveReport(report *models.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

func (m *MockStorage) ListReports(status string) ([]models.Report, error) {
	args := m.Called(status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockStorage) ReportsForMessage(streamID, messageID string) ([]models.Report, error) {
	args := m.Called(streamID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockStorage) ResolveReport(reportID string) error {
	args := m.Called(reportID)
	return args.Error(0)
}

func (m *MockStorage) GetSettings(streamID string) (models.ChatSettings, error) {
	args := m.Called(streamID)
	return args.Get(0).(models.ChatSettings), args.Error(1)
}

func (m *MockStorage) SaveSettings(streamID string, settings models.ChatSettings) error {
	args := m.Called(streamID, settings)
	return args.Error(0)
}

func (m *MockStorage) GetPinned(streamID string) (*models.ChatMessage, error) {
	args := m.Called(streamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}

func (m *MockStorage) SetPinned(streamID string, msg *models.ChatMessage) error {
	args := m.Called(streamID, msg)
	return args.Error(0)
}

func (m *MockStorage) PublishRoomEvent(ev models.RoomEvent) error {
	args := m.Called(ev)
	return args.Error(0)
}
