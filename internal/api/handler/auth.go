package handler

import (
	"log"
	"net/http"
	"strings"

	"streamchat/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IssueToken creates a user for the given display name and returns a token.
// It exists for local development only.
func (h *Handler) IssueToken(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name is required"})
		return
	}
	user := models.User{
		ID:      uuid.New().String(),
		Name:    name,
		IsAdmin: c.Query("admin") == "true",
	}
	if err := h.Storage.SaveUser(&user); err != nil {
		log.Printf("ERROR: save user %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user"})
		return
	}

	token, err := h.Issuer.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
