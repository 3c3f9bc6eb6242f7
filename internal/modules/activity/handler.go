package activity

import (
	"context"
	"net/http"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/pkg/jwt"
	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set headers on upgrade requests; the token in the query is the guard.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID string) error
}

type Handler struct {
	hub      *Hub
	jwt      *jwt.Service
	sessions SessionValidator
	logger   *zap.Logger
}

func NewHandler(hub *Hub, jwtService *jwt.Service, sessions SessionValidator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:      hub,
		jwt:      jwtService,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/activity/ws", h.Serve)
}

// Serve upgrades an admin connection. Endpoint: GET /admin/activity/ws?token=JWT
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	if err := h.sessions.ValidateSession(c.Request.Context(), claims.ID); err != nil {
		response.Error(c, http.StatusUnauthorized, "SESSION_INVALID", "Session is no longer valid")
		return
	}
	if claims.Role != string(domain.RoleAdmin) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("activity: websocket upgrade failed", zap.Error(err))
		return
	}

	cl := h.hub.Register(claims.UserID, conn)
	h.logger.Info("activity: admin connected", zap.Int64("user_id", claims.UserID))

	done := make(chan struct{})
	defer func() {
		close(done)
		h.hub.Unregister(conn)
		h.logger.Info("activity: admin disconnected", zap.Int64("user_id", claims.UserID))
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go pingLoop(cl, done)

	// The feed is one-way; reading only services control frames and detects close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("activity: read error", zap.Int64("user_id", claims.UserID), zap.Error(err))
			}
			return
		}
	}
}

func pingLoop(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
