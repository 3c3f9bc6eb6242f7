package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"equiprent/internal/modules/auth"
	"equiprent/internal/pkg/jwt"
	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// SessionValidator rejects tokens whose session was revoked or has expired
// with auth.ErrSessionInvalid; any other error is a failed lookup.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID string) error
}

// JWTAuth validates the bearer token and its session, then exposes
// user_id, email, role, session_id and expires_at on the context.
func JWTAuth(jwtService *jwt.Service, sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing Authorization header")
			return
		}

		if !strings.HasPrefix(header, "Bearer ") {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be Bearer <token>")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if tokenStr == "" {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Empty token")
			return
		}

		claims, err := jwtService.ValidateToken(tokenStr)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		if sessions != nil {
			if err := sessions.ValidateSession(c.Request.Context(), claims.ID); err != nil {
				if errors.Is(err, auth.ErrSessionInvalid) {
					response.Abort(c, http.StatusUnauthorized, "SESSION_REVOKED", "Session is no longer valid")
					return
				}
				_ = c.Error(err)
				response.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify session")
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("session_id", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("expires_at", claims.ExpiresAt.Time)
		}
		c.Next()
	}
}
