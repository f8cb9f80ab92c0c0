// Package handler exposes the complaint backend over HTTP.
package handler

import (
	"time"

	"go.uber.org/zap"

	"smartpothole/backend/internal/auth"
	"smartpothole/backend/internal/classifier"
	"smartpothole/backend/internal/complaint"
	"smartpothole/backend/internal/feed"
)

// Handler holds the services the HTTP routes delegate to.
type Handler struct {
	Complaints  *complaint.Service
	Credentials *auth.CredentialStore
	Tokens      *auth.TokenService
	Classifier  *classifier.Adapter
	Hub         *feed.Hub

	// ImageRequireAuth puts the complaint image route behind the bearer check.
	ImageRequireAuth bool

	logger *zap.Logger
	now    func() time.Time
}

// NewHandler wires the handler. classifier and hub may be nil; the routes
// that need them answer 503 until configured.
func NewHandler(
	complaints *complaint.Service,
	credentials *auth.CredentialStore,
	tokens *auth.TokenService,
	clf *classifier.Adapter,
	hub *feed.Hub,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Complaints:  complaints,
		Credentials: credentials,
		Tokens:      tokens,
		Classifier:  clf,
		Hub:         hub,
		logger:      logger.Named("http"),
		now:         time.Now,
	}
}

// SetClock replaces the time source used by the health check.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}
