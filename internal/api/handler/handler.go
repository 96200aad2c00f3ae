// Package handler exposes the dev chat server over HTTP with gin.
package handler

import (
	"net/http"
	"strings"

	"streamchat/internal/auth"
	"streamchat/internal/chathub"
	"streamchat/internal/complaint"
	"streamchat/internal/models"
	"streamchat/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StreamStore reads and writes stream records.
type StreamStore interface {
	GetStream(id string) (*models.StreamRecord, error)
	SaveStream(rec *models.StreamRecord) error
}

// Handler holds what the HTTP routes need.
type Handler struct {
	Hub        *chathub.ManagerService
	Storage    storage.Storage
	Streams    StreamStore
	Complaints *complaint.Service
	Issuer     *auth.Issuer
}

func NewHandler(hub *chathub.ManagerService, s storage.Storage, streams StreamStore, issuer *auth.Issuer) *Handler {
	return &Handler{
		Hub:        hub,
		Storage:    s,
		Streams:    streams,
		Complaints: hub.Complaints,
		Issuer:     issuer,
	}
}

// Router registers every route on a new gin engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/token", h.IssueToken)
	r.GET("/ws", h.ServeWebSocket)

	api := r.Group("/api/v1")
	api.GET("/streams/:id", h.GetStream)
	api.PUT("/streams/:id", h.RequireAuth(), h.RequireAdmin(), h.PutStream)
	api.POST("/chat/report/:streamId", h.RequireAuth(), h.SubmitReport)
	return r
}

// bearerToken reads the token from the Authorization header, falling back to
// the token query parameter used by websocket clients.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return c.Query("token")
}

const userKey = "user"

// RequireAuth validates the bearer token and stores the user on the context.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
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
		c.Set(userKey, user)
		c.Next()
	}
}

func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) models.User {
	v, _ := c.Get(userKey)
	user, _ := v.(models.User)
	return user
}
