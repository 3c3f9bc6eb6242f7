package rental

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/modules/activity"
	"equiprent/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Mode string

const (
	// ModeSequential runs each step as its own store call. Concurrent bookers can
	// both pass the checks before either writes.
	ModeSequential Mode = "sequential"
	// ModeConditional runs the steps in one transaction and decrements with a compare-and-swap.
	ModeConditional Mode = "conditional"
)

const defaultMaxRetries = 3

type Options struct {
	Mode       Mode
	MaxRetries int
	Location   *time.Location
	Now        func() time.Time
}

type Service struct {
	store      Store
	events     EventPublisher
	metrics    BookingObserver
	logger     *zap.Logger
	mode       Mode
	maxRetries int
	location   *time.Location
	now        func() time.Time
}

func NewService(store Store, events EventPublisher, metrics BookingObserver, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode != ModeSequential {
		opts.Mode = ModeConditional
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		store:      store,
		events:     events,
		metrics:    metrics,
		logger:     logger.Named("rental"),
		mode:       opts.Mode,
		maxRetries: opts.MaxRetries,
		location:   opts.Location,
		now:        opts.Now,
	}
}

func (s *Service) Mode() Mode { return s.mode }

func (s *Service) CheckAvailability(ctx context.Context, equipmentID, startDate, endDate string) (*Availability, error) {
	id := domain.NormalizeEquipmentID(equipmentID)
	if id == "" {
		return nil, fmt.Errorf("%w: equipment id is required", ErrValidation)
	}
	rng, err := s.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	eq, err := s.store.Equipments().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, upstream(err)
	}

	conflicts, err := s.store.Rentals().CountConflicts(ctx, eq.ID, rng.Start, rng.End)
	if err != nil {
		return nil, upstream(err)
	}

	return &Availability{
		Available:         conflicts == 0 && eq.AvailableQuantity >= 1,
		ConflictCount:     conflicts,
		AvailableQuantity: eq.AvailableQuantity,
	}, nil
}

type bookingInput struct {
	equipmentID string
	rng         DateRange
	borrower    string
	purpose     string
	userID      int64
}

func (in bookingInput) rental() *domain.Rental {
	return &domain.Rental{
		EquipmentID:  in.equipmentID,
		StartDate:    in.rng.Start,
		EndDate:      in.rng.End,
		BorrowerName: in.borrower,
		Purpose:      in.purpose,
		UserID:       in.userID,
		Status:       domain.RentalConfirmed,
	}
}

func (s *Service) validateBooking(req BookRequest) (bookingInput, error) {
	if req.UserID == 0 {
		return bookingInput{}, fmt.Errorf("%w: user session is required", ErrValidation)
	}

	var id string
	for _, candidate := range req.EquipmentIDs {
		if id = domain.NormalizeEquipmentID(candidate); id != "" {
			break
		}
	}
	if id == "" {
		return bookingInput{}, fmt.Errorf("%w: select equipment to rent", ErrValidation)
	}

	borrower := strings.TrimSpace(req.BorrowerName)
	purpose := strings.TrimSpace(req.Purpose)
	if strings.TrimSpace(req.StartDate) == "" || strings.TrimSpace(req.EndDate) == "" || borrower == "" || purpose == "" {
		return bookingInput{}, fmt.Errorf("%w: start_date, end_date, borrower_name and purpose are required", ErrValidation)
	}

	rng, err := s.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return bookingInput{}, err
	}

	return bookingInput{
		equipmentID: id,
		rng:         rng,
		borrower:    borrower,
		purpose:     purpose,
		userID:      req.UserID,
	}, nil
}

// Book records a confirmed rental for the first selected equipment and takes one unit
// of its available quantity. With ErrPartialFailure the returned rental is stored but
// the counter was not decremented.
func (s *Service) Book(ctx context.Context, req BookRequest) (*domain.Rental, error) {
	in, err := s.validateBooking(req)
	if err != nil {
		s.logger.Info("booking rejected",
			zap.Int64("user_id", req.UserID),
			zap.String("step", "validate"),
			zap.String("outcome", outcome(err)),
			zap.Error(err),
		)
		s.observe(err)
		return nil, err
	}

	log := s.logger.With(
		zap.String("equipment_id", in.equipmentID),
		zap.Int64("user_id", in.userID),
		zap.String("mode", string(s.mode)),
		zap.String("start_date", in.rng.Start.Format(domain.DateLayout)),
		zap.String("end_date", in.rng.End.Format(domain.DateLayout)),
	)

	var rental *domain.Rental
	if s.mode == ModeSequential {
		rental, err = s.bookSequential(ctx, in, log)
	} else {
		rental, err = s.bookConditional(ctx, in, log)
	}

	s.observe(err)
	switch {
	case err == nil:
		log.Info("booking confirmed", zap.Int64("rental_id", rental.ID), zap.String("outcome", outcome(err)))
		s.publish(activity.EventRentalBooked, rental)
	case errors.Is(err, ErrPartialFailure):
		s.publish(activity.EventRentalPartialFailure, rental)
	default:
		log.Info("booking failed", zap.String("outcome", outcome(err)), zap.Error(err))
	}
	return rental, err
}

// checkBookable runs the fetch, capacity gate and overlap query against store.
func (s *Service) checkBookable(ctx context.Context, store Store, in bookingInput, log *zap.Logger) (*domain.Equipment, error) {
	eq, err := store.Equipments().GetByID(ctx, in.equipmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debug("equipment lookup", zap.String("step", "fetch"), zap.String("outcome", "not_found"))
			return nil, fmt.Errorf("%w: %s", ErrNotFound, in.equipmentID)
		}
		log.Warn("equipment lookup", zap.String("step", "fetch"), zap.String("outcome", "upstream"), zap.Error(err))
		return nil, upstream(err)
	}
	log.Debug("equipment lookup", zap.String("step", "fetch"), zap.String("outcome", "ok"), zap.Int("available_quantity", eq.AvailableQuantity))

	if eq.AvailableQuantity < 1 {
		log.Debug("capacity gate", zap.String("step", "capacity"), zap.String("outcome", "no_capacity"))
		return nil, fmt.Errorf("%w: %s", ErrNoCapacity, eq.ID)
	}

	conflicts, err := store.Rentals().CountConflicts(ctx, eq.ID, in.rng.Start, in.rng.End)
	if err != nil {
		log.Warn("overlap check", zap.String("step", "conflicts"), zap.String("outcome", "upstream"), zap.Error(err))
		return nil, upstream(err)
	}
	if conflicts > 0 {
		log.Debug("overlap check", zap.String("step", "conflicts"), zap.String("outcome", "conflict"), zap.Int64("conflict_count", conflicts))
		return nil, fmt.Errorf("%w: %d overlapping rental(s) for %s", ErrConflict, conflicts, eq.ID)
	}
	log.Debug("overlap check", zap.String("step", "conflicts"), zap.String("outcome", "ok"))

	return eq, nil
}

func (s *Service) bookSequential(ctx context.Context, in bookingInput, log *zap.Logger) (*domain.Rental, error) {
	eq, err := s.checkBookable(ctx, s.store, in, log)
	if err != nil {
		return nil, err
	}

	rental := in.rental()
	if err := s.store.Rentals().Create(ctx, rental); err != nil {
		log.Warn("rental insert", zap.String("step", "insert"), zap.String("outcome", "upstream"), zap.Error(err))
		return nil, upstream(err)
	}
	log.Debug("rental insert", zap.String("step", "insert"), zap.String("outcome", "ok"), zap.Int64("rental_id", rental.ID))

	rows, err := s.store.Equipments().SetAvailableQuantity(ctx, eq.ID, eq.AvailableQuantity-1)
	if err != nil || rows == 0 {
		log.Error("available quantity not decremented",
			zap.String("step", "decrement"),
			zap.String("outcome", "partial_failure"),
			zap.Int64("rental_id", rental.ID),
			zap.Int64("rows_affected", rows),
			zap.Bool("needs_reconcile", true),
			zap.Error(err),
		)
		return rental, fmt.Errorf("%w: rental %d for %s", ErrPartialFailure, rental.ID, eq.ID)
	}
	log.Debug("available quantity decremented", zap.String("step", "decrement"), zap.String("outcome", "ok"))

	return rental, nil
}

func (s *Service) bookConditional(ctx context.Context, in bookingInput, log *zap.Logger) (*domain.Rental, error) {
	for attempt := 1; attempt <= s.maxRetries+1; attempt++ {
		var rental *domain.Rental
		err := s.store.WithinTransaction(ctx, func(tx Store) error {
			eq, err := s.checkBookable(ctx, tx, in, log)
			if err != nil {
				return err
			}

			r := in.rental()
			if err := tx.Rentals().Create(ctx, r); err != nil {
				log.Warn("rental insert", zap.String("step", "insert"), zap.String("outcome", "upstream"), zap.Error(err))
				return upstream(err)
			}

			rows, err := tx.Equipments().DecrementAvailable(ctx, eq.ID, eq.AvailableQuantity)
			if err != nil {
				if repository.IsCheckViolation(err) {
					return fmt.Errorf("%w: %s", ErrNoCapacity, eq.ID)
				}
				log.Warn("conditional decrement", zap.String("step", "decrement"), zap.String("outcome", "upstream"), zap.Error(err))
				return upstream(err)
			}
			if rows == 0 {
				return errStaleQuantity
			}

			rental = r
			return nil
		})

		if err == nil {
			return rental, nil
		}
		if !errors.Is(err, errStaleQuantity) {
			if !classified(err) {
				err = upstream(err)
			}
			return nil, err
		}
		log.Info("conditional decrement lost, retrying",
			zap.String("step", "decrement"),
			zap.String("outcome", "stale"),
			zap.Int("attempt", attempt),
		)
	}

	return nil, fmt.Errorf("%w: concurrent update on %s", ErrConflict, in.equipmentID)
}

func (s *Service) ListMyRentals(ctx context.Context, userID int64) ([]domain.Rental, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user session is required", ErrValidation)
	}
	rows, err := s.store.Rentals().List(ctx, repository.RentalFilter{UserID: userID})
	if err != nil {
		return nil, upstream(err)
	}
	return rows, nil
}

func (s *Service) ListRentals(ctx context.Context, f repository.RentalFilter) ([]domain.Rental, error) {
	f.EquipmentID = domain.NormalizeEquipmentID(f.EquipmentID)
	rows, err := s.store.Rentals().List(ctx, f)
	if err != nil {
		return nil, upstream(err)
	}
	return rows, nil
}

func (s *Service) observe(err error) {
	if s.metrics != nil {
		s.metrics.ObserveBooking(string(s.mode), outcome(err))
	}
}

func (s *Service) publish(eventType string, r *domain.Rental) {
	if s.events == nil || r == nil {
		return
	}
	s.events.Publish(activity.NewEvent(eventType, r))
}
