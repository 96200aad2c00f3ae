package chathub_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"streamchat/internal/models"
)

type MockClient struct {
	user   models.User
	send   chan models.Envelope
	mu     sync.Mutex
	closed bool
}

func newMockClient(id string) *MockClient {
	return &MockClient{
		user: models.User{ID: id, Name: "name-" + id},
		send: make(chan models.Envelope, 16),
	}
}

func (c *MockClient) GetUser() models.User                   { return c.user }
func (c *MockClient) GetSendChannel() chan<- models.Envelope { return c.send }
func (c *MockClient) Run()                                   {}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// expect waits for the next envelope and checks its event name.
func (c *MockClient) expect(t *testing.T, event string) models.Envelope {
	t.Helper()
	select {
	case env := <-c.send:
		if env.Event != event {
			t.Fatalf("client %s got %q, want %q (%s)", c.user.ID, env.Event, event, env.Data)
		}
		return env
	case <-time.After(time.Second):
		t.Fatalf("client %s got no %q", c.user.ID, event)
		return models.Envelope{}
	}
}

func (c *MockClient) expectNothing(t *testing.T) {
	t.Helper()
	select {
	case env := <-c.send:
		t.Fatalf("client %s got unexpected %q", c.user.ID, env.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func envelope(t *testing.T, event string, data any) models.Envelope {
	t.Helper()
	env, err := models.NewEnvelope(event, data)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func decodeData[T any](t *testing.T, env models.Envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatal(err)
	}
	return v
}
