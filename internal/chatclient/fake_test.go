package chatclient_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"streamchat/internal/chatclient"
	"streamchat/internal/models"
)

// fakeConn is an in-memory Conn. The test plays the server through in/out.
type fakeConn struct {
	in     chan models.Envelope
	out    chan models.Envelope
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan models.Envelope, 16),
		out:    make(chan models.Envelope, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadEnvelope() (models.Envelope, error) {
	select {
	case env := <-c.in:
		return env, nil
	case <-c.closed:
		return models.Envelope{}, io.EOF
	}
}

func (c *fakeConn) WriteEnvelope(env models.Envelope) error {
	select {
	case c.out <- env:
		return nil
	case <-c.closed:
		return io.ErrClosedPipe
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// push simulates the server sending event.
func (c *fakeConn) push(event string, data any) {
	env, err := models.NewEnvelope(event, data)
	if err != nil {
		panic(err)
	}
	c.in <- env
}

var errDialRefused = errors.New("connection refused")

// fakeDialer fails the first `failures` dials (all of them if negative) and
// hands every successful connection to the test over conns.
type fakeDialer struct {
	mu       sync.Mutex
	failures int
	dials    int
	tokens   []string
	conns    chan *fakeConn
}

func newFakeDialer(failures int) *fakeDialer {
	return &fakeDialer{failures: failures, conns: make(chan *fakeConn, 8)}
}

func (d *fakeDialer) Dial(ctx context.Context, token string) (chatclient.Conn, error) {
	d.mu.Lock()
	d.dials++
	d.tokens = append(d.tokens, token)
	fail := d.failures < 0 || d.dials <= d.failures
	d.mu.Unlock()
	if fail {
		return nil, errDialRefused
	}
	c := newFakeConn()
	d.conns <- c
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}
