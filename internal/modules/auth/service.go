package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/pkg/jwt"
	"equiprent/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

// Service contains all business logic for authentication
type Service struct {
	users      UserRepository
	sessions   SessionRepository
	tokens     TokenIssuer
	adminEmail string
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(users UserRepository, sessions SessionRepository, tokens TokenIssuer, adminEmail string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		logger:     logger.Named("auth"),
		now:        time.Now,
	}
}

// RoleFor grants admin to the configured administrator address only.
func (s *Service) RoleFor(email string) domain.UserRole {
	if s.adminEmail != "" && strings.ToLower(strings.TrimSpace(email)) == s.adminEmail {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*domain.User, error) {
	if len(req.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	s.logger.Info("user signed up", zap.Int64("user_id", user.ID))
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("login rejected", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	role := s.RoleFor(user.Email)
	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokens.GenerateToken(jwt.Subject{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(role),
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if err := s.sessions.Create(ctx, &domain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.logger.Info("user logged in",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(role)),
		zap.String("session_id", sessionID),
	)

	user.PasswordHash = ""
	return &LoginResult{
		User:        user,
		Role:        role,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionInvalid
	}
	if err := s.sessions.Revoke(ctx, sessionID, s.now()); err != nil {
		return err
	}
	s.logger.Info("session revoked", zap.String("session_id", sessionID))
	return nil
}

// ValidateSession fails with ErrSessionInvalid for unknown, revoked and expired sessions.
func (s *Service) ValidateSession(ctx context.Context, sessionID string) error {
	_, err := s.activeSession(ctx, sessionID)
	return err
}

func (s *Service) Me(ctx context.Context, sessionID string) (*Identity, error) {
	sess, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	return &Identity{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      s.RoleFor(user.Email),
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

func (s *Service) activeSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionInvalid
	}
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if !sess.Active(s.now()) {
		return nil, ErrSessionInvalid
	}
	return sess, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
