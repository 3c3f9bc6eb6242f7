package auth

import (
	"context"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/pkg/jwt"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
}

type TokenIssuer interface {
	GenerateToken(sub jwt.Subject) (string, time.Time, error)
}
