// Package chathub is the server side of the stream chat protocol: it keeps
// the members of every stream room and fans events out to them.
package chathub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"streamchat/internal/complaint"
	"streamchat/internal/config"
	"streamchat/internal/metrics"
	"streamchat/internal/models"
	"streamchat/internal/storage"

	"github.com/google/uuid"
)

// ManagerService owns room membership. State changes happen on the Run
// goroutine; readers take the lock.
type ManagerService struct {
	// ID tags the room events this hub publishes so it can skip their echo.
	ID string

	IncomingCh   chan Inbound
	RegisterCh   chan Client
	UnregisterCh chan Client
	PubSubCh     chan models.RoomEvent

	Storage    storage.Storage
	Complaints *complaint.Service
	Events     RoomEventSource

	done chan struct{}

	mu      sync.RWMutex
	clients map[Client]map[string]bool
	rooms   map[string]map[Client]bool
}

func NewManagerService(s storage.Storage) *ManagerService {
	return &ManagerService{
		ID:           uuid.New().String(),
		IncomingCh:   make(chan Inbound),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		PubSubCh:     make(chan models.RoomEvent),
		Storage:      s,
		Complaints:   complaint.NewService(s),
		done:         make(chan struct{}),
		clients:      make(map[Client]map[string]bool),
		rooms:        make(map[string]map[Client]bool),
	}
}

// Run processes hub traffic until ctx is cancelled, then closes every client.
func (m *ManagerService) Run(ctx context.Context) {
	if m.Events != nil {
		m.StartPubSubListener(ctx)
	}
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			for c := range m.clients {
				c.Close()
			}
			metrics.HubConnections.Sub(float64(len(m.clients)))
			m.clients = make(map[Client]map[string]bool)
			m.rooms = make(map[string]map[Client]bool)
			m.mu.Unlock()
			return
		case c := <-m.RegisterCh:
			m.register(c)
		case c := <-m.UnregisterCh:
			m.unregister(c)
		case in := <-m.IncomingCh:
			m.handleIncoming(in)
		case ev := <-m.PubSubCh:
			m.broadcast(ev.StreamID, models.Envelope{Event: ev.Event, Data: ev.Data})
		}
	}
}

// Register attaches c. It returns false once the hub has stopped.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

// Unregister detaches c and closes it.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// Incoming hands an inbound event to the hub. It returns false once the hub
// has stopped.
func (m *ManagerService) Incoming(in Inbound) bool {
	select {
	case m.IncomingCh <- in:
		return true
	case <-m.done:
		return false
	}
}

// OnlineCount is the number of clients joined to streamID.
func (m *ManagerService) OnlineCount(streamID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[streamID])
}

// ClientCount is the number of attached clients.
func (m *ManagerService) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *ManagerService) register(c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c]; ok {
		return
	}
	m.clients[c] = make(map[string]bool)
	metrics.HubConnections.Inc()
}

func (m *ManagerService) unregister(c Client) {
	m.mu.Lock()
	rooms, ok := m.clients[c]
	if !ok {
		m.mu.Unlock()
		return
	}
	for streamID := range rooms {
		m.removeMemberLocked(streamID, c)
	}
	delete(m.clients, c)
	m.mu.Unlock()

	metrics.HubConnections.Dec()
	c.Close()
}

func (m *ManagerService) removeMemberLocked(streamID string, c Client) {
	members := m.rooms[streamID]
	delete(members, c)
	delete(m.clients[c], streamID)
	if len(members) == 0 {
		delete(m.rooms, streamID)
		metrics.HubRoomMembers.DeleteLabelValues(streamID)
		return
	}
	metrics.HubRoomMembers.WithLabelValues(streamID).Set(float64(len(members)))
}

func (m *ManagerService) handleIncoming(in Inbound) {
	m.mu.RLock()
	_, known := m.clients[in.Client]
	m.mu.RUnlock()
	if !known {
		return
	}

	env := in.Envelope
	switch env.Event {
	case models.EventJoinStream:
		var p models.StreamRef
		if decode(env.Data, &p) != nil || p.StreamID == "" {
			m.sendError(in.Client, "streamId is required", "bad_request")
			return
		}
		m.join(in.Client, p.StreamID)
	case models.EventLeaveStream:
		var p models.StreamRef
		if decode(env.Data, &p) != nil {
			return
		}
		m.leave(in.Client, p.StreamID)
	case models.EventSendMessage:
		var p models.SendMessagePayload
		if decode(env.Data, &p) != nil {
			m.sendError(in.Client, "malformed message", "bad_request")
			return
		}
		m.handleSend(in.Client, p)
	case models.EventReportMessage:
		var p models.ReportMessagePayload
		if decode(env.Data, &p) != nil {
			m.sendTo(in.Client, models.EventReportError, models.ReportErrorPayload{Message: "Malformed report"})
			return
		}
		m.handleReport(in.Client, p)
	case models.EventTypingStart, models.EventTypingStop:
		// Accepted; typing indicators are not relayed.
	default:
		m.sendError(in.Client, "unknown event "+env.Event, "unknown_event")
	}
}

func (m *ManagerService) join(c Client, streamID string) {
	m.mu.Lock()
	members, ok := m.rooms[streamID]
	if !ok {
		members = make(map[Client]bool)
		m.rooms[streamID] = members
	}
	members[c] = true
	m.clients[c][streamID] = true
	online := len(members)
	m.mu.Unlock()
	metrics.HubRoomMembers.WithLabelValues(streamID).Set(float64(online))

	settings, err := m.Storage.GetSettings(streamID)
	if err != nil {
		log.Printf("WARNING: settings for stream %s unavailable: %v", streamID, err)
		settings = models.DefaultChatSettings()
	}
	recent, err := m.Storage.RecentMessages(streamID, config.RecentMessagesLimit)
	if err != nil {
		log.Printf("WARNING: history for stream %s unavailable: %v", streamID, err)
		recent = []models.ChatMessage{}
	}
	pinned, err := m.Storage.GetPinned(streamID)
	if err != nil {
		log.Printf("WARNING: pinned message for stream %s unavailable: %v", streamID, err)
	}

	user := c.GetUser()
	m.sendTo(c, models.EventJoinedRoom, models.JoinedRoomPayload{
		StreamID:       streamID,
		Settings:       settings,
		RecentMessages: recent,
		PinnedMessage:  pinned,
		OnlineCount:    online,
		UserName:       user.Name,
		IsAdmin:        user.IsAdmin,
	})
}

func (m *ManagerService) leave(c Client, streamID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.clients[c][streamID] {
		return
	}
	m.removeMemberLocked(streamID, c)
}

func (m *ManagerService) handleSend(c Client, p models.SendMessagePayload) {
	m.mu.RLock()
	joined := m.clients[c][p.StreamID]
	m.mu.RUnlock()
	if !joined {
		m.sendError(c, "join the stream before sending messages", "not_joined")
		return
	}

	text := strings.TrimSpace(p.Message)
	if text == "" {
		m.sendError(c, "message is empty", "empty_message")
		return
	}
	settings, err := m.Storage.GetSettings(p.StreamID)
	if err != nil {
		log.Printf("WARNING: settings for stream %s unavailable: %v", p.StreamID, err)
		settings = models.DefaultChatSettings()
	}
	if !settings.IsChatEnabled {
		m.sendError(c, "chat is disabled for this stream", "chat_disabled")
		return
	}
	if settings.MaxMessageLength > 0 && utf8.RuneCountInString(text) > settings.MaxMessageLength {
		m.sendError(c, "message is too long", "message_too_long")
		return
	}

	user := c.GetUser()
	msg := models.ChatMessage{
		UserID:   user.ID,
		UserName: user.Name,
		Message:  text,
		IsAdmin:  user.IsAdmin,
	}
	if err := m.Storage.SaveMessage(p.StreamID, &msg); err != nil {
		m.sendError(c, "failed to save message", "internal")
		return
	}
	metrics.HubMessages.Inc()

	data, _ := json.Marshal(msg)
	m.broadcast(p.StreamID, models.Envelope{Event: models.EventMessageReceived, Data: data})
	ev := models.RoomEvent{StreamID: p.StreamID, Event: models.EventMessageReceived, Data: data, Origin: m.ID}
	if err := m.Storage.PublishRoomEvent(ev); err != nil {
		log.Printf("WARNING: could not publish message %s to other hubs: %v", msg.ID, err)
	}
}

func (m *ManagerService) handleReport(c Client, p models.ReportMessagePayload) {
	req := models.ReportRequest{MessageID: p.MessageID, Reason: p.Reason, Description: p.Description}
	report, err := m.Complaints.FileReport(p.StreamID, c.GetUser(), req)
	if err != nil {
		msg := "Failed to submit report"
		switch {
		case errors.Is(err, complaint.ErrInvalidReason),
			errors.Is(err, complaint.ErrDescriptionTooLong),
			errors.Is(err, complaint.ErrSelfReport),
			errors.Is(err, storage.ErrMessageNotFound):
			msg = err.Error()
		default:
			log.Printf("ERROR: report on message %s failed: %v", p.MessageID, err)
		}
		m.sendTo(c, models.EventReportError, models.ReportErrorPayload{Message: msg})
		return
	}
	m.sendTo(c, models.EventReportSuccess, models.ReportSuccessPayload{
		ReportID: report.ReportID,
		Message:  "Report submitted successfully",
	})
}

func (m *ManagerService) sendError(c Client, message, code string) {
	m.sendTo(c, models.EventError, models.ErrorPayload{Message: message, Code: code})
}

func (m *ManagerService) sendTo(c Client, event string, payload any) {
	env, err := models.NewEnvelope(event, payload)
	if err != nil {
		log.Printf("ERROR: encode %s: %v", event, err)
		return
	}
	m.deliver(c, env)
}

// broadcast sends env to every member of streamID.
func (m *ManagerService) broadcast(streamID string, env models.Envelope) {
	m.mu.RLock()
	members := make([]Client, 0, len(m.rooms[streamID]))
	for c := range m.rooms[streamID] {
		members = append(members, c)
	}
	m.mu.RUnlock()

	for _, c := range members {
		m.deliver(c, env)
	}
}

// deliver drops a client whose send buffer is full.
func (m *ManagerService) deliver(c Client, env models.Envelope) {
	select {
	case c.GetSendChannel() <- env:
	default:
		log.Printf("WARNING: client %s is too slow, disconnecting", c.GetUser().ID)
		m.unregister(c)
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(raw, v)
}
