package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"equiprent/internal/domain"
	"equiprent/internal/modules/activity"
	"equiprent/internal/pkg/validator"
	"equiprent/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	equipments EquipmentRepository
	events     EventPublisher
	metrics    ReconcileObserver
	logger     *zap.Logger
}

func NewService(equipments EquipmentRepository, events EventPublisher, metrics ReconcileObserver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		equipments: equipments,
		events:     events,
		metrics:    metrics,
		logger:     logger.Named("inventory"),
	}
}

// NewAvailable keeps the rented count fixed while the total changes.
// The total may drop to exactly the rented count, leaving nothing available.
func NewAvailable(quantity, available, newTotal int) (int, error) {
	rented := quantity - available
	next := newTotal - rented
	if next < 0 {
		return 0, fmt.Errorf("%w: %d unit(s) rented, requested total %d", ErrBelowCommitted, rented, newTotal)
	}
	return next, nil
}

func (s *Service) AddEquipment(ctx context.Context, req AddEquipmentRequest) (*domain.Equipment, error) {
	req.ID = domain.NormalizeEquipmentID(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.Department = strings.TrimSpace(req.Department)
	if errs := validator.Validate(req); errs != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, validator.Describe(errs))
	}

	exists, err := s.equipments.ExistsByID(ctx, req.ID)
	if err != nil {
		return nil, upstream(err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrConflict, req.ID)
	}

	e := &domain.Equipment{
		ID:                req.ID,
		Name:              req.Name,
		Department:        domain.Department(req.Department),
		Quantity:          req.Quantity,
		AvailableQuantity: req.Quantity,
	}
	if err := s.equipments.Create(ctx, e); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrConflict, req.ID)
		}
		return nil, upstream(err)
	}

	s.logger.Info("equipment added",
		zap.String("equipment_id", e.ID),
		zap.String("department", string(e.Department)),
		zap.Int("quantity", e.Quantity),
	)
	s.publish(activity.EventEquipmentAdded, e)
	return e, nil
}

// ReconcileQuantity sets a new total and recomputes the available count from it.
func (s *Service) ReconcileQuantity(ctx context.Context, equipmentID string, newTotal int) (*domain.Equipment, error) {
	e, err := s.reconcile(ctx, equipmentID, newTotal)
	s.observe(err)
	if err != nil {
		s.logger.Info("reconcile rejected",
			zap.String("equipment_id", equipmentID),
			zap.Int("quantity", newTotal),
			zap.String("outcome", outcome(err)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("equipment reconciled",
		zap.String("equipment_id", e.ID),
		zap.Int("quantity", e.Quantity),
		zap.Int("available_quantity", e.AvailableQuantity),
	)
	s.publish(activity.EventEquipmentUpdated, e)
	return e, nil
}

func (s *Service) reconcile(ctx context.Context, equipmentID string, newTotal int) (*domain.Equipment, error) {
	id := domain.NormalizeEquipmentID(equipmentID)
	if id == "" {
		return nil, fmt.Errorf("%w: equipment id is required", ErrValidation)
	}
	if newTotal < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}

	e, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	available, err := NewAvailable(e.Quantity, e.AvailableQuantity, newTotal)
	if err != nil {
		return nil, err
	}

	observed := repository.Quantities{Total: e.Quantity, Available: e.AvailableQuantity}
	rows, err := s.equipments.UpdateQuantities(ctx, e.ID, observed, repository.Quantities{Total: newTotal, Available: available})
	if err != nil {
		return nil, upstream(err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: %s", ErrStale, e.ID)
	}

	e.Quantity = newTotal
	e.AvailableQuantity = available
	return e, nil
}

// UpdateEquipment applies a full admin edit. A changed id is written in place;
// rentals keep pointing at the old id.
func (s *Service) UpdateEquipment(ctx context.Context, originalID string, req UpdateEquipmentRequest) (*domain.Equipment, error) {
	e, renamed, err := s.update(ctx, originalID, req)
	s.observe(err)
	if err != nil {
		s.logger.Info("equipment update rejected",
			zap.String("equipment_id", originalID),
			zap.String("outcome", outcome(err)),
			zap.Error(err),
		)
		return nil, err
	}

	fields := []zap.Field{
		zap.String("equipment_id", e.ID),
		zap.Int("quantity", e.Quantity),
		zap.Int("available_quantity", e.AvailableQuantity),
	}
	if renamed != "" {
		// Existing rentals still reference the previous id.
		s.logger.Warn("equipment id changed without updating rentals",
			append(fields, zap.String("previous_id", renamed), zap.Int("rented", e.Rented()))...)
	} else {
		s.logger.Info("equipment updated", fields...)
	}
	s.publish(activity.EventEquipmentUpdated, e)
	return e, nil
}

func (s *Service) update(ctx context.Context, originalID string, req UpdateEquipmentRequest) (*domain.Equipment, string, error) {
	origID := domain.NormalizeEquipmentID(originalID)
	req.ID = domain.NormalizeEquipmentID(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.Department = strings.TrimSpace(req.Department)
	if origID == "" {
		return nil, "", fmt.Errorf("%w: equipment id is required", ErrValidation)
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrValidation, validator.Describe(errs))
	}

	e, err := s.get(ctx, origID)
	if err != nil {
		return nil, "", err
	}

	available, err := NewAvailable(e.Quantity, e.AvailableQuantity, req.Quantity)
	if err != nil {
		return nil, "", err
	}

	renamed := ""
	if req.ID != e.ID {
		exists, err := s.equipments.ExistsByID(ctx, req.ID)
		if err != nil {
			return nil, "", upstream(err)
		}
		if exists {
			return nil, "", fmt.Errorf("%w: %s", ErrConflict, req.ID)
		}
		renamed = e.ID
	}

	observed := repository.Quantities{Total: e.Quantity, Available: e.AvailableQuantity}
	rows, err := s.equipments.Update(ctx, e.ID, observed, repository.EquipmentUpdate{
		ID:                req.ID,
		Name:              req.Name,
		Department:        domain.Department(req.Department),
		Quantity:          req.Quantity,
		AvailableQuantity: available,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrConflict, req.ID)
		}
		return nil, "", upstream(err)
	}
	if rows == 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrStale, e.ID)
	}

	e.ID = req.ID
	e.Name = req.Name
	e.Department = domain.Department(req.Department)
	e.Quantity = req.Quantity
	e.AvailableQuantity = available
	return e, renamed, nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Equipment, error) {
	rows, err := s.equipments.List(ctx, repository.EquipmentFilter{})
	if err != nil {
		return nil, upstream(err)
	}
	return rows, nil
}

// Search filters by department unless it is empty or DepartmentAll. The query matches
// names case-insensitively and, when it contains a digit, also an exact equipment id.
func (s *Service) Search(ctx context.Context, department, query string) ([]domain.Equipment, error) {
	f := repository.EquipmentFilter{Query: strings.TrimSpace(query)}

	department = strings.TrimSpace(department)
	if department != "" && department != domain.DepartmentAll {
		if !domain.Department(department).Valid() {
			return nil, fmt.Errorf("%w: unknown department %q", ErrValidation, department)
		}
		f.Department = department
	}
	if strings.IndexFunc(f.Query, unicode.IsDigit) >= 0 {
		f.MatchID = domain.NormalizeEquipmentID(f.Query)
	}

	rows, err := s.equipments.List(ctx, f)
	if err != nil {
		return nil, upstream(err)
	}
	return rows, nil
}

func (s *Service) get(ctx context.Context, id string) (*domain.Equipment, error) {
	e, err := s.equipments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, upstream(err)
	}
	return e, nil
}

func (s *Service) observe(err error) {
	if s.metrics != nil {
		s.metrics.ObserveReconcile(outcome(err))
	}
}

func (s *Service) publish(eventType string, e *domain.Equipment) {
	if s.events == nil {
		return
	}
	s.events.Publish(activity.NewEvent(eventType, toEquipmentResponse(e)))
}
