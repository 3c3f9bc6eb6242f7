package inventory

import (
	"context"

	"equiprent/internal/domain"
	"equiprent/internal/modules/activity"
	"equiprent/internal/repository"
)

type EquipmentRepository interface {
	Create(ctx context.Context, e *domain.Equipment) error
	GetByID(ctx context.Context, id string) (*domain.Equipment, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, f repository.EquipmentFilter) ([]domain.Equipment, error)
	UpdateQuantities(ctx context.Context, id string, observed, next repository.Quantities) (int64, error)
	Update(ctx context.Context, originalID string, observed repository.Quantities, u repository.EquipmentUpdate) (int64, error)
}

type EventPublisher interface {
	Publish(event activity.Event)
}

type ReconcileObserver interface {
	ObserveReconcile(outcome string)
}
