package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"streamchat/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// WebSocketDialer dials the chat service over gorilla/websocket. The token is
// sent both as a bearer header and as a "token" query parameter.
type WebSocketDialer struct {
	URL    string
	Dialer *websocket.Dialer
	Header http.Header
}

// NewWebSocketDialer returns a dialer for the given ws:// or wss:// URL.
func NewWebSocketDialer(rawURL string) *WebSocketDialer {
	return &WebSocketDialer{
		URL: rawURL,
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func (d *WebSocketDialer) Dial(ctx context.Context, token string) (Conn, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("parse socket url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	header := http.Header{}
	for k, v := range d.Header {
		header[k] = v
	}
	header.Set("Authorization", "Bearer "+token)

	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, resp, err := dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", u.Host, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}
	return newWSConn(ws), nil
}

// wsConn adapts a gorilla connection to Conn and keeps it alive with pings.
type wsConn struct {
	ws        *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(ws *websocket.Conn) *wsConn {
	c := &wsConn{ws: ws, done: make(chan struct{})}
	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go c.keepAlive()
	return c
}

// keepAlive uses WriteControl, which gorilla allows concurrently with the
// regular writer.
func (c *wsConn) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) ReadEnvelope() (models.Envelope, error) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			return models.Envelope{}, err
		}
		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			log.Printf("Skipping malformed frame from chat service: %v", err)
			continue
		}
		return env, nil
	}
}

func (c *wsConn) WriteEnvelope(env models.Envelope) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(env)
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}
