package handler

import (
	"log"
	"net/http"

	"streamchat/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Any origin is accepted; this server is for local development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket authenticates the caller and upgrades to a hub client.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization token missing"})
		return
	}
	user, err := h.Issuer.Validate(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token or expired"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WARNING: websocket upgrade for %s failed: %v", user.ID, err)
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, user)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	client.Run()
}
