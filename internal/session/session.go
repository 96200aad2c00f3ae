// Package session binds a chat connection to one stream room and keeps the
// state a chat panel renders: messages, settings, pinned message and the
// report flow.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"streamchat/internal/chatclient"
	"streamchat/internal/config"
	"streamchat/internal/metrics"
	"streamchat/internal/models"
	"streamchat/internal/report"
)

var (
	ErrNotAuthenticated   = errors.New("please login to join the chat")
	ErrNotMounted         = errors.New("session is not mounted")
	ErrDisposed           = errors.New("session is unmounted")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrMessageTooLong     = errors.New("message is too long")
	ErrChatDisabled       = errors.New("chat is disabled for this stream")
	ErrUnknownMessage     = errors.New("message not found")
	ErrSelfReport         = errors.New("you cannot report your own message")
	ErrInvalidReason      = errors.New("invalid report reason")
	ErrDescriptionTooLong = errors.New("report description is too long")
	ErrReportInFlight     = errors.New("a report is already being submitted")
)

// Connection is the part of chatclient.Manager a session drives.
type Connection interface {
	Initialize(ctx context.Context, token string) error
	Disconnect()
	Status() chatclient.Status
	On(event string, h chatclient.Handler)
	Off(event string)
	JoinStream(streamID string) error
	LeaveStream(streamID string) error
	SendMessage(streamID, text string) error
	ReportMessage(streamID, messageID string, reason models.ReportReason, description string) error
}

// ReportSender delivers a report over HTTP when the socket stays silent.
type ReportSender interface {
	Submit(ctx context.Context, token, streamID string, req models.ReportRequest) (*report.Result, error)
}

// Notifier shows a short message to the user.
type Notifier interface {
	Alert(title, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string)

func (f NotifierFunc) Alert(title, message string) { f(title, message) }

type Options struct {
	// ReportTimeout is how long a socket report may stay unanswered before
	// the HTTP fallback is used.
	ReportTimeout time.Duration
	// OnChange receives a fresh View after every state change.
	OnChange func(View)
}

// View is a point-in-time copy of the session state.
type View struct {
	StreamID       string
	Status         chatclient.Status
	Messages       []models.ChatMessage
	Settings       models.ChatSettings
	Pinned         *models.ChatMessage
	OnlineCount    int
	Input          string
	InputEnabled   bool
	LoginRequired  bool
	IsAdmin        bool
	ReportInFlight bool
}

// sessionEvents are the connection events a mounted session subscribes to.
var sessionEvents = []string{
	models.EventConnected,
	models.EventDisconnected,
	models.EventReconnecting,
	models.EventConnectFailed,
	models.EventJoinedRoom,
	models.EventMessageReceived,
	models.EventMessageDeleted,
	models.EventMessagePinned,
	models.EventMessageUnpinned,
	models.EventSettingsUpdated,
	models.EventError,
}

type Session struct {
	conn     Connection
	reporter ReportSender
	notify   Notifier
	opts     Options

	mu            sync.Mutex
	ctx           context.Context
	cancel        context.CancelFunc
	mounted       bool
	disposed      bool
	streamID      string
	token         string
	user          models.User
	status        chatclient.Status
	messages      []models.ChatMessage
	settings      models.ChatSettings
	pinned        *models.ChatMessage
	onlineCount   int
	isAdmin       bool
	input         string
	loginRequired bool
	pending       *PendingReport
	// cancelReport aborts the HTTP fallback of pending once it settles.
	cancelReport context.CancelFunc
}

func New(conn Connection, reporter ReportSender, notify Notifier, opts Options) *Session {
	if opts.ReportTimeout <= 0 {
		opts.ReportTimeout = config.ReportFallbackTimeout
	}
	if notify == nil {
		notify = NotifierFunc(func(title, message string) {
			log.Printf("%s: %s", title, message)
		})
	}
	return &Session{
		conn:     conn,
		reporter: reporter,
		notify:   notify,
		opts:     opts,
		status:   chatclient.StatusDisconnected,
		settings: models.DefaultChatSettings(),
	}
}

// Mount connects with token and joins streamID. Without a token nothing is
// dialed and the session stays in the login-required state.
func (s *Session) Mount(ctx context.Context, streamID, token string, user models.User) error {
	if streamID == "" {
		return chatclient.ErrEmptyStreamID
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.mounted {
		s.mu.Unlock()
		return fmt.Errorf("session already mounted on stream %s", s.streamID)
	}
	s.mounted = true
	s.streamID = streamID
	s.token = token
	s.user = user
	if token == "" {
		s.loginRequired = true
		v := s.viewLocked()
		s.mu.Unlock()
		s.notify.Alert("Login required", "Please login to join the chat.")
		s.changed(v)
		return ErrNotAuthenticated
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.status = chatclient.StatusConnecting
	v := s.viewLocked()
	s.mu.Unlock()
	s.changed(v)

	// Unmount may run at any point below; each step re-checks disposed.
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.subscribe()
	s.mu.Unlock()

	if err := s.conn.Initialize(ctx, token); err != nil {
		// The manager keeps retrying in the background; the join below is
		// queued and sent once a link is up.
		log.Printf("WARNING: chat connect for stream %s: %v", streamID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		// Unmount tore down before Initialize opened this connection.
		s.unsubscribeLocked()
		s.conn.Disconnect()
		return ErrDisposed
	}
	if err := s.conn.JoinStream(streamID); err != nil {
		log.Printf("WARNING: join stream %s: %v", streamID, err)
	}
	return nil
}

func (s *Session) unsubscribeLocked() {
	for _, ev := range sessionEvents {
		s.conn.Off(ev)
	}
	s.conn.Off(models.EventReportSuccess)
	s.conn.Off(models.EventReportError)
}

func (s *Session) subscribe() {
	s.conn.On(models.EventConnected, func(json.RawMessage) {
		// joined-room marks the session connected once the room is re-entered.
		s.update(func() {
			if s.status != chatclient.StatusConnected {
				s.status = chatclient.StatusConnecting
			}
		})
	})
	s.conn.On(models.EventDisconnected, func(json.RawMessage) {
		s.update(func() { s.status = chatclient.StatusDisconnected })
	})
	s.conn.On(models.EventReconnecting, func(json.RawMessage) {
		s.update(func() { s.status = chatclient.StatusReconnecting })
	})
	s.conn.On(models.EventConnectFailed, func(json.RawMessage) {
		s.update(func() { s.status = chatclient.StatusDisconnected })
		if !s.isDisposed() {
			s.notify.Alert("Connection lost", "Could not reconnect to chat.")
		}
	})
	chatclient.Subscribe(s.conn, models.EventJoinedRoom, s.onJoinedRoom)
	chatclient.Subscribe(s.conn, models.EventMessageReceived, func(m models.ChatMessage) {
		s.update(func() { s.upsertLocked(m) })
	})
	chatclient.Subscribe(s.conn, models.EventMessageDeleted, func(p models.MessageDeletedPayload) {
		s.update(func() {
			if !s.inRoomLocked(p.StreamID) {
				return
			}
			s.removeLocked(p.MessageID)
		})
	})
	chatclient.Subscribe(s.conn, models.EventMessagePinned, func(p models.MessagePinnedPayload) {
		s.update(func() {
			if s.inRoomLocked(p.StreamID) {
				s.pinned = p.PinnedMessage
			}
		})
	})
	chatclient.Subscribe(s.conn, models.EventMessageUnpinned, func(p models.StreamRef) {
		s.update(func() {
			if s.inRoomLocked(p.StreamID) {
				s.pinned = nil
			}
		})
	})
	chatclient.Subscribe(s.conn, models.EventSettingsUpdated, func(p models.SettingsUpdatedPayload) {
		s.update(func() {
			if s.inRoomLocked(p.StreamID) {
				s.settings = p.Settings
			}
		})
	})
	chatclient.Subscribe(s.conn, models.EventError, func(p models.ErrorPayload) {
		if s.isDisposed() {
			return
		}
		log.Printf("ERROR: chat server: %s", p.Message)
	})
}

func (s *Session) onJoinedRoom(p models.JoinedRoomPayload) {
	s.update(func() {
		if !s.inRoomLocked(p.StreamID) {
			return
		}
		s.settings = p.Settings
		s.pinned = p.PinnedMessage
		s.onlineCount = p.OnlineCount
		s.isAdmin = p.IsAdmin
		for _, m := range p.RecentMessages {
			s.upsertLocked(m)
		}
		s.status = chatclient.StatusConnected
	})
}

// update runs fn under the lock unless the session has been unmounted.
func (s *Session) update(fn func()) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	fn()
	v := s.viewLocked()
	s.mu.Unlock()
	s.changed(v)
}

func (s *Session) changed(v View) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(v)
	}
}

func (s *Session) isDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// inRoomLocked accepts payloads for the mounted stream and payloads that
// carry no stream id.
func (s *Session) inRoomLocked(streamID string) bool {
	return streamID == "" || streamID == s.streamID
}

func (s *Session) upsertLocked(m models.ChatMessage) {
	if m.ID != "" {
		for i := range s.messages {
			if s.messages[i].ID == m.ID {
				s.messages[i] = m
				return
			}
		}
	}
	s.messages = append(s.messages, m)
}

func (s *Session) removeLocked(id string) {
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	if s.pinned != nil && s.pinned.ID == id {
		s.pinned = nil
	}
}

func (s *Session) findLocked(id string) (models.ChatMessage, bool) {
	for _, m := range s.messages {
		if m.ID == id {
			return m, true
		}
	}
	return models.ChatMessage{}, false
}

// SetInput replaces the composer text.
func (s *Session) SetInput(text string) {
	s.update(func() { s.input = text })
}

func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Submit sends the current composer text.
func (s *Session) Submit() error {
	return s.Send(s.Input())
}

// Send emits text to the room and clears the composer. Messages appear only
// when the server echoes them back.
func (s *Session) Send(text string) error {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	switch {
	case s.disposed:
		s.mu.Unlock()
		return ErrDisposed
	case s.loginRequired:
		s.mu.Unlock()
		return ErrNotAuthenticated
	case !s.mounted:
		s.mu.Unlock()
		return ErrNotMounted
	case text == "":
		s.mu.Unlock()
		s.notify.Alert("Empty message", "Type a message before sending.")
		return ErrEmptyMessage
	case !s.settings.IsChatEnabled:
		s.mu.Unlock()
		s.notify.Alert("Chat disabled", "Chat is disabled for this stream.")
		return ErrChatDisabled
	}
	if limit := s.settings.MaxMessageLength; limit > 0 && utf8.RuneCountInString(text) > limit {
		s.mu.Unlock()
		s.notify.Alert("Message too long", fmt.Sprintf("Messages are limited to %d characters.", limit))
		return ErrMessageTooLong
	}
	streamID := s.streamID
	s.input = ""
	v := s.viewLocked()
	s.mu.Unlock()
	s.changed(v)

	if err := s.conn.SendMessage(streamID, text); err != nil {
		log.Printf("WARNING: send message to %s dropped: %v", streamID, err)
		s.notify.Alert("Message not sent", "You are offline. Try again once the chat reconnects.")
		return err
	}
	return nil
}

// Report flags a message for moderation. It is sent over the socket first and
// falls back to HTTP when no answer arrives within ReportTimeout.
func (s *Session) Report(messageID string, reason models.ReportReason, description string) error {
	description = strings.TrimSpace(description)

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if !s.mounted || s.loginRequired {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	msg, ok := s.findLocked(messageID)
	if !ok {
		s.mu.Unlock()
		return ErrUnknownMessage
	}
	if msg.UserID != "" && msg.UserID == s.user.ID {
		s.mu.Unlock()
		s.notify.Alert("Report", "You cannot report your own message.")
		return ErrSelfReport
	}
	if !reason.Valid() {
		s.mu.Unlock()
		return ErrInvalidReason
	}
	if utf8.RuneCountInString(description) > config.MaxReportDescriptionLength {
		s.mu.Unlock()
		return ErrDescriptionTooLong
	}
	if s.pending != nil {
		s.mu.Unlock()
		return ErrReportInFlight
	}

	req := models.ReportRequest{MessageID: messageID, Reason: reason, Description: description}
	streamID, token := s.streamID, s.token
	ctx, cancel := context.WithCancel(s.ctx)
	fallback := func(p *PendingReport) { go s.submitHTTP(ctx, p, token, streamID) }
	p := NewPendingReport(req, s.opts.ReportTimeout, fallback, s.finishReport)
	s.pending = p
	s.cancelReport = cancel
	chatclient.Subscribe(s.conn, models.EventReportSuccess, func(r models.ReportSuccessPayload) {
		msg := r.Message
		if msg == "" {
			msg = "Report submitted successfully."
		}
		p.Resolve(Outcome{State: models.DeliverySucceeded, Path: PathSocket, ReportID: r.ReportID, Message: msg})
	})
	chatclient.Subscribe(s.conn, models.EventReportError, func(r models.ReportErrorPayload) {
		msg := r.Message
		if msg == "" {
			msg = "Failed to submit report."
		}
		p.Resolve(Outcome{State: models.DeliveryFailed, Path: PathSocket, Message: msg})
	})
	v := s.viewLocked()
	s.mu.Unlock()
	s.changed(v)

	if err := s.conn.ReportMessage(streamID, messageID, reason, description); err != nil {
		log.Printf("WARNING: socket report for %s failed, using HTTP: %v", messageID, err)
		p.FallBackNow(fallback)
	}
	return nil
}

func (s *Session) submitHTTP(ctx context.Context, p *PendingReport, token, streamID string) {
	if s.reporter == nil {
		p.Resolve(Outcome{State: models.DeliveryFailed, Path: PathHTTP, Message: "Failed to submit report."})
		return
	}
	res, err := s.reporter.Submit(ctx, token, streamID, p.Request)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		msg := "Failed to submit report."
		var apiErr *report.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		log.Printf("ERROR: report fallback for %s: %v", p.Request.MessageID, err)
		p.Resolve(Outcome{State: models.DeliveryFailed, Path: PathHTTP, Message: msg})
		return
	}
	msg := res.Message
	if msg == "" {
		msg = "Report submitted successfully."
	}
	p.Resolve(Outcome{State: models.DeliverySucceeded, Path: PathHTTP, ReportID: res.ReportID, Message: msg})
}

func (s *Session) finishReport(p *PendingReport, o Outcome) {
	s.mu.Lock()
	if s.pending != p {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	if s.cancelReport != nil {
		s.cancelReport()
		s.cancelReport = nil
	}
	s.conn.Off(models.EventReportSuccess)
	s.conn.Off(models.EventReportError)
	disposed := s.disposed
	v := s.viewLocked()
	s.mu.Unlock()

	result := "success"
	if o.State != models.DeliverySucceeded {
		result = "error"
	}
	metrics.ReportOutcomes.WithLabelValues(o.Path, result).Inc()
	if disposed {
		return
	}
	if o.State == models.DeliverySucceeded {
		s.notify.Alert("Report submitted", o.Message)
	} else {
		s.notify.Alert("Report failed", o.Message)
	}
	s.changed(v)
}

// Pending returns the in-flight report, if any.
func (s *Session) Pending() *PendingReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Unmount cancels any pending report, leaves the room and disconnects.
// Events that arrive afterwards are ignored.
func (s *Session) Unmount() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	mounted, loginRequired := s.mounted, s.loginRequired
	streamID := s.streamID
	p := s.pending
	s.pending = nil
	s.cancelReport = nil
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if p != nil {
		p.Cancel()
	}
	if !mounted || loginRequired {
		return
	}
	s.mu.Lock()
	s.unsubscribeLocked()
	s.mu.Unlock()
	if err := s.conn.LeaveStream(streamID); err != nil && !errors.Is(err, chatclient.ErrNotConnected) {
		log.Printf("WARNING: leave stream %s: %v", streamID, err)
	}
	s.conn.Disconnect()
}

// View returns a copy of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		StreamID:       s.streamID,
		Status:         s.status,
		Messages:       append([]models.ChatMessage(nil), s.messages...),
		Settings:       s.settings,
		OnlineCount:    s.onlineCount,
		Input:          s.input,
		LoginRequired:  s.loginRequired,
		IsAdmin:        s.isAdmin,
		ReportInFlight: s.pending != nil,
	}
	if s.pinned != nil {
		pinned := *s.pinned
		v.Pinned = &pinned
	}
	v.InputEnabled = !s.loginRequired && !s.disposed &&
		s.status == chatclient.StatusConnected && s.settings.IsChatEnabled
	return v
}
