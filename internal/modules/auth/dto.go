package auth

import (
	"time"

	"equiprent/internal/domain"
)

type SignUpRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	User        *domain.User
	Role        domain.UserRole
	AccessToken string
	ExpiresAt   time.Time
}

// Identity is the signed-in user as the session reports it.
type Identity struct {
	UserID    int64           `json:"user_id"`
	Email     string          `json:"email"`
	Role      domain.UserRole `json:"role"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type UserPublic struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
