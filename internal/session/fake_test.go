package session_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"streamchat/internal/chatclient"
	"streamchat/internal/models"
	"streamchat/internal/report"

	"github.com/stretchr/testify/mock"
)

// fakeConnection records emitted events and lets tests fire server events
// synchronously.
type fakeConnection struct {
	mu           sync.Mutex
	handlers     map[string]chatclient.Handler
	status       chatclient.Status
	tokens       []string
	emitted      []models.Envelope
	reportErr    error
	sendErr      error
	disconnected bool
	// beforeInit runs at the start of Initialize, before the link is up.
	beforeInit func()
}

func newFakeConnection() *fakeConnection {
	return &fakeConnection{
		handlers: make(map[string]chatclient.Handler),
		status:   chatclient.StatusDisconnected,
	}
}

func (f *fakeConnection) Initialize(ctx context.Context, token string) error {
	f.mu.Lock()
	hook := f.beforeInit
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	f.status = chatclient.StatusConnected
	return nil
}

func (f *fakeConnection) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
	f.status = chatclient.StatusDisconnected
}

func (f *fakeConnection) handlerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

func (f *fakeConnection) initCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

func (f *fakeConnection) Status() chatclient.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeConnection) On(event string, h chatclient.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = h
}

func (f *fakeConnection) Off(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, event)
}

func (f *fakeConnection) record(event string, data any) {
	env, _ := models.NewEnvelope(event, data)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitted = append(f.emitted, env)
}

func (f *fakeConnection) JoinStream(streamID string) error {
	f.record(models.EventJoinStream, models.StreamRef{StreamID: streamID})
	return nil
}

func (f *fakeConnection) LeaveStream(streamID string) error {
	f.record(models.EventLeaveStream, models.StreamRef{StreamID: streamID})
	return nil
}

func (f *fakeConnection) SendMessage(streamID, text string) error {
	f.mu.Lock()
	err := f.sendErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.record(models.EventSendMessage, models.SendMessagePayload{StreamID: streamID, Message: text})
	return nil
}

func (f *fakeConnection) ReportMessage(streamID, messageID string, reason models.ReportReason, description string) error {
	f.mu.Lock()
	err := f.reportErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.record(models.EventReportMessage, models.ReportMessagePayload{
		StreamID: streamID, MessageID: messageID, Reason: reason, Description: description,
	})
	return nil
}

// fire delivers a server event to the registered handler.
func (f *fakeConnection) fire(event string, data any) {
	raw, _ := json.Marshal(data)
	f.mu.Lock()
	h := f.handlers[event]
	f.mu.Unlock()
	if h != nil {
		h(raw)
	}
}

func (f *fakeConnection) hasHandler(event string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[event]
	return ok
}

func (f *fakeConnection) events(name string) []models.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Envelope
	for _, env := range f.emitted {
		if env.Event == name {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeConnection) wasDisconnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnected
}

type mockReporter struct {
	mock.Mock
	count atomic.Int32
}

func (m *mockReporter) Submit(ctx context.Context, token, streamID string, req models.ReportRequest) (*report.Result, error) {
	m.count.Add(1)
	args := m.Called(ctx, token, streamID, req)
	res, _ := args.Get(0).(*report.Result)
	return res, args.Error(1)
}

type alert struct {
	title   string
	message string
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []alert
}

func (n *recordingNotifier) Alert(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert{title, message})
}

func (n *recordingNotifier) all() []alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]alert(nil), n.alerts...)
}
