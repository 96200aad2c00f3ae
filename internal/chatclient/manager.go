package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"streamchat/internal/config"
	"streamchat/internal/metrics"
	"streamchat/internal/models"
)

var (
	// ErrNotConnected is returned when an operation needs a live connection
	// and there is none. The operation is dropped.
	ErrNotConnected = errors.New("chatclient: not connected")
	// ErrSendBufferFull is returned when the outbound queue is saturated.
	ErrSendBufferFull = errors.New("chatclient: send buffer full")
	// ErrEmptyStreamID rejects room operations without a stream id.
	ErrEmptyStreamID = errors.New("chatclient: empty stream id")
)

// Options tune reconnection and buffering.
type Options struct {
	// ReconnectAttempts is how many times a lost or failed connection is
	// redialed before the manager gives up.
	ReconnectAttempts int
	// ReconnectDelay is the fixed pause before every redial.
	ReconnectDelay time.Duration
	// SendBuffer is the capacity of the outbound queue per connection.
	SendBuffer int
}

// DefaultOptions mirrors the chat service's client defaults.
func DefaultOptions() Options {
	return Options{
		ReconnectAttempts: config.DefaultReconnectAttempts,
		ReconnectDelay:    config.DefaultReconnectDelay,
		SendBuffer:        256,
	}
}

// Manager owns at most one transport connection at a time. Initializing it
// again tears the previous connection down first.
//
// Handlers run on the connection's read goroutine, one at a time, in the
// order events arrive.
type Manager struct {
	dialer Dialer
	opts   Options

	mu       sync.Mutex
	handlers map[string]Handler
	status   Status
	rooms    []string
	link     *link
	gen      uint64
	cancel   context.CancelFunc
}

// link is one attached connection plus its outbound queue.
type link struct {
	conn   Conn
	send   chan models.Envelope
	closed chan struct{}
	once   sync.Once
}

func (l *link) close() {
	l.once.Do(func() {
		close(l.closed)
		l.conn.Close()
	})
}

// NewManager creates a disconnected Manager.
func NewManager(d Dialer, opts Options) *Manager {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultOptions().SendBuffer
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = config.DefaultReconnectDelay
	}
	if opts.ReconnectAttempts < 0 {
		opts.ReconnectAttempts = 0
	}
	return &Manager{
		dialer:   d,
		opts:     opts,
		handlers: make(map[string]Handler),
		status:   StatusDisconnected,
	}
}

// Initialize connects with token, replacing any existing connection. It waits
// for the first dial attempt and returns its error; on failure the manager
// keeps retrying in the background until the attempts run out. If ctx ends
// first, Initialize returns ctx.Err() and the connection attempt continues.
func (m *Manager) Initialize(ctx context.Context, token string) error {
	m.Disconnect()

	sessCtx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.cancel = cancel
	m.status = StatusConnecting
	m.mu.Unlock()

	go m.run(sessCtx, gen, token, first)

	select {
	case err := <-first:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect tears the connection down and forgets joined rooms. Later
// operations return ErrNotConnected until Initialize is called again.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	cancel, l := m.cancel, m.link
	m.cancel = nil
	m.link = nil
	m.rooms = nil
	m.status = StatusDisconnected
	m.gen++
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if l != nil {
		l.close()
	}
}

// Status reports the current connection state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Connected reports whether a connection is attached right now.
func (m *Manager) Connected() bool {
	return m.Status() == StatusConnected
}

// Rooms returns the stream ids this manager has joined.
func (m *Manager) Rooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.rooms...)
}

// On registers h as the only handler for event, replacing any previous one.
func (m *Manager) On(event string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h == nil {
		delete(m.handlers, event)
		return
	}
	m.handlers[event] = h
}

// Off removes the handler for event.
func (m *Manager) Off(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, event)
}

// JoinStream asks to join the room of streamID. While the manager is still
// connecting the join is sent as soon as the connection is up; it is also
// re-sent after every reconnect. The result arrives as "joined-room" or "error".
func (m *Manager) JoinStream(streamID string) error {
	if streamID == "" {
		return ErrEmptyStreamID
	}
	env, err := models.NewEnvelope(models.EventJoinStream, models.StreamRef{StreamID: streamID})
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return ErrNotConnected
	}
	if !containsRoom(m.rooms, streamID) {
		m.rooms = append(m.rooms, streamID)
	}
	if m.link == nil {
		return nil
	}
	return m.enqueueLocked(env)
}

// LeaveStream leaves the room of streamID.
func (m *Manager) LeaveStream(streamID string) error {
	if streamID == "" {
		return ErrEmptyStreamID
	}
	m.mu.Lock()
	m.rooms = removeRoom(m.rooms, streamID)
	m.mu.Unlock()
	return m.emit(models.EventLeaveStream, models.StreamRef{StreamID: streamID})
}

// SendMessage emits a chat message. Delivery is best effort: the message shows
// up only when the server echoes it back as "message-received".
func (m *Manager) SendMessage(streamID, text string) error {
	if streamID == "" {
		return ErrEmptyStreamID
	}
	return m.emit(models.EventSendMessage, models.SendMessagePayload{StreamID: streamID, Message: text})
}

// ReportMessage emits a moderation report. The outcome arrives as
// "report-success" or "report-error"; falling back to HTTP on silence is the
// caller's job.
func (m *Manager) ReportMessage(streamID, messageID string, reason models.ReportReason, description string) error {
	if streamID == "" {
		return ErrEmptyStreamID
	}
	return m.emit(models.EventReportMessage, models.ReportMessagePayload{
		StreamID:    streamID,
		MessageID:   messageID,
		Reason:      reason,
		Description: description,
	})
}

// StartTyping tells the room the user is typing.
func (m *Manager) StartTyping(streamID string) error {
	return m.emit(models.EventTypingStart, models.StreamRef{StreamID: streamID})
}

// StopTyping tells the room the user stopped typing.
func (m *Manager) StopTyping(streamID string) error {
	return m.emit(models.EventTypingStop, models.StreamRef{StreamID: streamID})
}

func (m *Manager) emit(event string, data any) error {
	env, err := models.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enqueueLocked(env)
}

func (m *Manager) enqueueLocked(env models.Envelope) error {
	if m.link == nil {
		metrics.ClientFramesDropped.WithLabelValues(env.Event, "not_connected").Inc()
		return ErrNotConnected
	}
	select {
	case m.link.send <- env:
		return nil
	default:
		metrics.ClientFramesDropped.WithLabelValues(env.Event, "buffer_full").Inc()
		return ErrSendBufferFull
	}
}

// run dials, serves and redials until the session is cancelled or the
// attempts are used up. first receives the outcome of the first dial.
func (m *Manager) run(ctx context.Context, gen uint64, token string, first chan<- error) {
	notify := func(err error) {
		if first != nil {
			first <- err
			first = nil
		}
	}

	attempts := 0
	for {
		conn, err := m.dialer.Dial(ctx, token)
		if err == nil {
			l := m.attach(gen, conn)
			if l == nil {
				conn.Close()
				notify(ErrNotConnected)
				return
			}
			attempts = 0
			notify(nil)
			m.dispatch(ctx, models.EventConnected, nil)

			err = m.serve(ctx, l)
			m.detach(gen, l)
			if ctx.Err() != nil {
				return
			}
			log.Printf("WARNING: chat connection lost: %v", err)
			m.dispatch(ctx, models.EventDisconnected, encode(models.ErrorPayload{Message: err.Error()}))
		} else {
			if ctx.Err() != nil {
				notify(ctx.Err())
				return
			}
			log.Printf("ERROR: chat connect failed: %v", err)
			notify(err)
		}

		if attempts >= m.opts.ReconnectAttempts {
			m.giveUp(ctx, gen, err)
			return
		}
		attempts++
		metrics.ClientReconnectAttempts.Inc()
		if !m.setStatus(gen, StatusReconnecting) {
			return
		}
		m.dispatch(ctx, models.EventReconnecting, encode(ReconnectPayload{
			Attempt:     attempts,
			MaxAttempts: m.opts.ReconnectAttempts,
		}))

		timer := time.NewTimer(m.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// attach publishes conn as the live link and queues joins for every known
// room, all under one lock so a concurrent JoinStream is never sent twice.
func (m *Manager) attach(gen uint64, conn Conn) *link {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return nil
	}
	l := &link{
		conn:   conn,
		send:   make(chan models.Envelope, m.opts.SendBuffer),
		closed: make(chan struct{}),
	}
	m.link = l
	m.status = StatusConnected
	for _, room := range m.rooms {
		env, err := models.NewEnvelope(models.EventJoinStream, models.StreamRef{StreamID: room})
		if err != nil {
			continue
		}
		m.enqueueLocked(env)
	}
	return l
}

func (m *Manager) detach(gen uint64, l *link) {
	l.close()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen == gen && m.link == l {
		m.link = nil
		m.status = StatusDisconnected
	}
}

func (m *Manager) setStatus(gen uint64, s Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false
	}
	m.status = s
	return true
}

func (m *Manager) giveUp(ctx context.Context, gen uint64, cause error) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.cancel = nil
	m.rooms = nil
	m.status = StatusDisconnected
	m.mu.Unlock()

	msg := "unable to reach chat service"
	if cause != nil {
		msg = cause.Error()
	}
	log.Printf("ERROR: giving up on chat connection after %d attempts: %s", m.opts.ReconnectAttempts, msg)
	m.dispatch(ctx, models.EventConnectFailed, encode(models.ErrorPayload{Message: msg}))
	if cancel != nil {
		cancel()
	}
}

// serve reads until the connection fails, dispatching every event.
func (m *Manager) serve(ctx context.Context, l *link) error {
	go m.writePump(l)
	for {
		env, err := l.conn.ReadEnvelope()
		if err != nil {
			l.close()
			return err
		}
		metrics.ClientEventsReceived.WithLabelValues(env.Event).Inc()
		m.dispatch(ctx, env.Event, env.Data)
	}
}

func (m *Manager) writePump(l *link) {
	for {
		select {
		case env := <-l.send:
			if err := l.conn.WriteEnvelope(env); err != nil {
				log.Printf("ERROR: writing %s to chat service: %v", env.Event, err)
				l.close()
				return
			}
		case <-l.closed:
			return
		}
	}
}

func (m *Manager) dispatch(ctx context.Context, event string, data json.RawMessage) {
	if ctx.Err() != nil {
		return
	}
	if event == models.EventError {
		log.Printf("ERROR: chat service reported: %s", string(data))
	}
	m.mu.Lock()
	h := m.handlers[event]
	m.mu.Unlock()
	if h != nil {
		h(data)
	}
}

func encode(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

func containsRoom(rooms []string, id string) bool {
	for _, r := range rooms {
		if r == id {
			return true
		}
	}
	return false
}

func removeRoom(rooms []string, id string) []string {
	out := rooms[:0]
	for _, r := range rooms {
		if r != id {
			out = append(out, r)
		}
	}
	return out
}
