package rental

import (
	"context"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/modules/activity"
	"equiprent/internal/repository"
)

type EquipmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Equipment, error)
	SetAvailableQuantity(ctx context.Context, id string, available int) (int64, error)
	DecrementAvailable(ctx context.Context, id string, expected int) (int64, error)
}

type RentalRepository interface {
	CountConflicts(ctx context.Context, equipmentID string, start, end time.Time) (int64, error)
	Create(ctx context.Context, r *domain.Rental) error
	List(ctx context.Context, f repository.RentalFilter) ([]domain.Rental, error)
}

// Store hands out repositories bound either to the base connection or to an open transaction.
type Store interface {
	Equipments() EquipmentRepository
	Rentals() RentalRepository
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}

type EventPublisher interface {
	Publish(event activity.Event)
}

type BookingObserver interface {
	ObserveBooking(mode, outcome string)
}
