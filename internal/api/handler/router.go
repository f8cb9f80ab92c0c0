package handler

import (
	"github.com/gin-gonic/gin"
)

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(h.logger), gin.Recovery(), CORS())

	r.GET("/health", h.Health)
	r.POST("/predict", h.Predict)

	authority := r.Group("/authority")
	authority.POST("/login", h.Login)
	authority.POST("/complaint", h.CreateComplaint)

	if h.ImageRequireAuth {
		authority.GET("/complaint/:id/image", h.AuthMiddleware(false), h.GetComplaintImage)
	} else {
		authority.GET("/complaint/:id/image", h.GetComplaintImage)
	}

	// Browsers cannot set headers on a WebSocket handshake, so the feed also
	// accepts the token as a query parameter.
	authority.GET("/complaints/ws", h.AuthMiddleware(true), h.ServeWebSocket)

	staff := authority.Group("", h.AuthMiddleware(false))
	staff.GET("/authority-test", h.AuthorityTest)
	staff.GET("/complaints", h.ListComplaints)
	staff.GET("/complaints/export", h.ExportComplaints)
	staff.GET("/complaint/:id", h.GetComplaint)
	staff.PATCH("/complaint/:id", h.UpdateComplaint)

	return r
}
