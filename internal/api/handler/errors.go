package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smartpothole/backend/internal/classifier"
	"smartpothole/backend/internal/complaint"
	"smartpothole/backend/internal/storage"
)

// writeError maps a service error onto a status code and an {error} body.
func (h *Handler) writeError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, storage.ErrStoreNotFound):
		status, msg = http.StatusNotFound, "No complaints found"
	case errors.Is(err, storage.ErrComplaintNotFound):
		status, msg = http.StatusNotFound, "Complaint not found"
	case errors.Is(err, complaint.ErrImageNotFound):
		status, msg = http.StatusNotFound, "Image not found"
	case errors.Is(err, complaint.ErrInvalidStatus):
		status, msg = http.StatusBadRequest, "Invalid status value"
	case errors.Is(err, complaint.ErrInvalidAssignee):
		status, msg = http.StatusBadRequest, "Invalid assignee"
	case errors.Is(err, complaint.ErrMissingField), errors.Is(err, complaint.ErrInvalidLocation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, classifier.ErrDecodeFailed):
		status, msg = http.StatusBadRequest, "Uploaded file is not a readable image"
	case errors.Is(err, classifier.ErrNotConfigured):
		status, msg = http.StatusServiceUnavailable, "Classifier is not configured"
	case errors.Is(err, classifier.ErrScoring):
		status, msg = http.StatusBadGateway, "Model server unavailable"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request error",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}
