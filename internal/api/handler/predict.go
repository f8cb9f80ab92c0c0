package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Predict scores an uploaded photo with the pothole classifier.
func (h *Handler) Predict(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	data, err := readUpload(fh)
	if err != nil {
		h.uploadError(c, err)
		return
	}

	confidence, err := h.Classifier.Classify(c.Request.Context(), data)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"confidence": confidence,
		"is_pothole": h.Classifier.IsPothole(confidence),
	})
}
