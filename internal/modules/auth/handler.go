package auth

import (
	"errors"
	"net/http"

	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/signup", h.SignUp)
		authGroup.POST("/login", h.Login)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	authGroup := protected.Group("/auth")
	{
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.Me)
	}
}

// SignUp creates an account with email and password. The password is entered twice.
func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, ErrEmailAlreadyExists):
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "Email already registered")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user": UserPublic{ID: user.ID, Email: user.Email, Role: string(h.service.RoleFor(user.Email))},
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":      res.AccessToken,
		"expires_at": res.ExpiresAt,
		"user":       UserPublic{ID: res.User.ID, Email: res.User.Email, Role: string(res.Role)},
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), c.GetString("session_id")); err != nil {
		if errors.Is(err, ErrSessionInvalid) {
			response.Error(c, http.StatusUnauthorized, "SESSION_INVALID", "Session is no longer valid")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Logout failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

func (h *Handler) Me(c *gin.Context) {
	identity, err := h.service.Me(c.Request.Context(), c.GetString("session_id"))
	if err != nil {
		if errors.Is(err, ErrSessionInvalid) {
			response.Error(c, http.StatusUnauthorized, "SESSION_INVALID", "Session is no longer valid")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load session")
		return
	}
	response.Success(c, http.StatusOK, identity)
}
