package repository

import (
	"context"
	"time"

	"equiprent/internal/domain"

	"gorm.io/gorm"
)

// SessionRepository provides DB access for login sessions.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

type sessionModel struct {
	ID        string     `gorm:"column:id;primaryKey;size:36"`
	UserID    int64      `gorm:"column:user_id;index;not null"`
	ExpiresAt time.Time  `gorm:"column:expires_at;index;not null"`
	RevokedAt *time.Time `gorm:"column:revoked_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (sessionModel) TableName() string { return "sessions" }

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	m := sessionModel{
		ID:        s.ID,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt.UTC(),
		RevokedAt: s.RevokedAt,
		CreatedAt: s.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	s.CreatedAt = m.CreatedAt
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var m sessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:        m.ID,
		UserID:    m.UserID,
		ExpiresAt: m.ExpiresAt,
		RevokedAt: m.RevokedAt,
		CreatedAt: m.CreatedAt,
	}, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&sessionModel{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at.UTC()).Error
}

// DeleteStale removes sessions that expired, or were revoked, before cutoff.
func (r *SessionRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff.UTC(), cutoff.UTC()).
		Delete(&sessionModel{})
	return tx.RowsAffected, tx.Error
}
