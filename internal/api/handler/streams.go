package handler

import (
	"errors"
	"net/http"

	"streamchat/internal/models"
	"streamchat/internal/storage"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetStream(c *gin.Context) {
	rec, err := h.Streams.GetStream(c.Param("id"))
	if errors.Is(err, storage.ErrStreamNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Stream not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load stream"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

// PutStream replaces a stream record. Admin only.
func (h *Handler) PutStream(c *gin.Context) {
	var rec models.StreamRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid stream record"})
		return
	}
	rec.ID = c.Param("id")
	if err := h.Streams.SaveStream(&rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save stream"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}
