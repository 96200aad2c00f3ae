package handler

import (
	"errors"
	"log"
	"net/http"

	"streamchat/internal/complaint"
	"streamchat/internal/models"
	"streamchat/internal/storage"

	"github.com/gin-gonic/gin"
)

// SubmitReport is the HTTP path for reports, used when the socket does not
// answer in time.
func (h *Handler) SubmitReport(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MessageID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "messageId and reason are required"})
		return
	}

	report, err := h.Complaints.FileReport(c.Param("streamId"), currentUser(c), req)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	case errors.Is(err, complaint.ErrInvalidReason),
		errors.Is(err, complaint.ErrDescriptionTooLong),
		errors.Is(err, complaint.ErrSelfReport):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	default:
		log.Printf("ERROR: report on message %s: %v", req.MessageID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to submit report"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reportId": report.ReportID,
		"message":  "Report submitted successfully",
	})
}
