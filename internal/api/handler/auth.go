package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smartpothole/backend/internal/auth"
	"smartpothole/backend/internal/models"
)

const actorKey = "authority_id"

// Login exchanges authority credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authority_id and password are required"})
		return
	}

	identity, err := h.Credentials.Authenticate(req.AuthorityID, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authority credentials"})
		return
	}

	token, err := h.Tokens.Issue(identity.AuthorityID, identity.Role)
	if err != nil {
		h.logger.Error("failed to issue token", zap.String("authority_id", identity.AuthorityID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{AccessToken: token, TokenType: "bearer"})
}

// AuthMiddleware rejects requests without a valid authority token and
// stores the token subject as the acting identity.
func (h *Handler) AuthMiddleware(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		principal, err := h.Tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authMessage(err)})
			return
		}

		c.Set(actorKey, principal.Subject)
		c.Next()
	}
}

// AuthorityTest echoes the authenticated identity.
func (h *Handler) AuthorityTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":      "Authorized",
		"authority_id": actor(c),
	})
}

func actor(c *gin.Context) string {
	return c.GetString(actorKey)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return "Token expired"
	case errors.Is(err, auth.ErrMalformedClaims):
		return "Invalid token"
	default:
		return "Invalid or expired token"
	}
}
