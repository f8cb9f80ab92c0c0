package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartpothole/backend/internal/config"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   config.FormatTime(h.now()),
	})
}
