package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smartpothole/backend/internal/export"
)

// ExportComplaints downloads every complaint as an XLSX workbook.
func (h *Handler) ExportComplaints(c *gin.Context) {
	all, err := h.Complaints.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	data, err := export.ComplaintsXLSX(all)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info("complaints exported", zap.String("authority_id", actor(c)), zap.Int("rows", len(all)))
	filename := fmt.Sprintf("complaints-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentTypeXLSX, data)
}
