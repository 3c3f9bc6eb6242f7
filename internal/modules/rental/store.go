package rental

import (
	"context"

	"equiprent/internal/repository"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Equipments() EquipmentRepository {
	return repository.NewEquipmentRepository(s.db)
}

func (s *gormStore) Rentals() RentalRepository {
	return repository.NewRentalRepository(s.db)
}

// WithinTransaction commits when fn returns nil and rolls back otherwise.
func (s *gormStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
