package rental

import (
	"context"
	"errors"
	"testing"
	"time"

	"equiprent/internal/domain"
	"equiprent/internal/modules/activity"
	"equiprent/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockEquipmentRepository struct {
	mock.Mock
}

func (m *MockEquipmentRepository) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func (m *MockEquipmentRepository) SetAvailableQuantity(ctx context.Context, id string, available int) (int64, error) {
	args := m.Called(ctx, id, available)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEquipmentRepository) DecrementAvailable(ctx context.Context, id string, expected int) (int64, error) {
	args := m.Called(ctx, id, expected)
	return args.Get(0).(int64), args.Error(1)
}

type MockRentalRepository struct {
	mock.Mock
}

func (m *MockRentalRepository) CountConflicts(ctx context.Context, equipmentID string, start, end time.Time) (int64, error) {
	args := m.Called(ctx, equipmentID, start, end)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRentalRepository) Create(ctx context.Context, r *domain.Rental) error {
	args := m.Called(ctx, r)
	if args.Error(0) == nil {
		r.ID = 42 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockRentalRepository) List(ctx context.Context, f repository.RentalFilter) ([]domain.Rental, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

// mockStore runs transactional callbacks against the same mocks and counts attempts.
type mockStore struct {
	equipments *MockEquipmentRepository
	rentals    *MockRentalRepository
	txCalls    int
}

func newMockStore() *mockStore {
	return &mockStore{
		equipments: new(MockEquipmentRepository),
		rentals:    new(MockRentalRepository),
	}
}

func (s *mockStore) Equipments() EquipmentRepository { return s.equipments }
func (s *mockStore) Rentals() RentalRepository       { return s.rentals }

func (s *mockStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	s.txCalls++
	return fn(s)
}

type recordingPublisher struct {
	events []activity.Event
}

func (p *recordingPublisher) Publish(e activity.Event) {
	p.events = append(p.events, e)
}

type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) ObserveBooking(mode, outcome string) {
	o.outcomes = append(o.outcomes, mode+":"+outcome)
}

var fixedNow = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestService(store Store, mode Mode, events EventPublisher, obs BookingObserver) *Service {
	return NewService(store, events, obs, nil, Options{
		Mode:       mode,
		MaxRetries: 2,
		Location:   time.UTC,
		Now:        func() time.Time { return fixedNow },
	})
}

func validRequest() BookRequest {
	return BookRequest{
		EquipmentIDs: []string{" eqp-1 "},
		StartDate:    "2025-06-01",
		EndDate:      "2025-06-05",
		BorrowerName: "Kim",
		Purpose:      "lab session",
		UserID:       7,
	}
}

func equipment(available int) *domain.Equipment {
	return &domain.Equipment{ID: "EQP-1", Name: "Oscilloscope", Department: domain.DepartmentPhysics, Quantity: 2, AvailableQuantity: available}
}

func TestBook_ValidationFailsBeforeStoreAccess(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *BookRequest)
		wantErr error
	}{
		{"missing session", func(r *BookRequest) { r.UserID = 0 }, ErrValidation},
		{"no equipment selected", func(r *BookRequest) { r.EquipmentIDs = nil }, ErrValidation},
		{"blank equipment ids", func(r *BookRequest) { r.EquipmentIDs = []string{"  ", ""} }, ErrValidation},
		{"blank borrower", func(r *BookRequest) { r.BorrowerName = "   " }, ErrValidation},
		{"blank purpose", func(r *BookRequest) { r.Purpose = "" }, ErrValidation},
		{"missing end date", func(r *BookRequest) { r.EndDate = "" }, ErrValidation},
		{"malformed start date", func(r *BookRequest) { r.StartDate = "2025/06/01" }, ErrValidation},
		{"impossible date", func(r *BookRequest) { r.EndDate = "2025-02-30" }, ErrValidation},
		{"start in the past", func(r *BookRequest) { r.StartDate = "2025-04-30" }, ErrInvalidRange},
		{"end before start", func(r *BookRequest) { r.EndDate = "2025-05-31" }, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			obs := &recordingObserver{}
			svc := newTestService(store, ModeConditional, nil, obs)

			req := validRequest()
			tt.mutate(&req)

			rental, err := svc.Book(context.Background(), req)
			assert.Nil(t, rental)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, 0, store.txCalls)
			assert.Equal(t, []string{"conditional:invalid"}, obs.outcomes)
			store.equipments.AssertExpectations(t)
			store.rentals.AssertExpectations(t)
		})
	}
}

func TestBook_StartTodayIsAllowed(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, ModeSequential, nil, nil)

	store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(2), nil)
	store.rentals.On("CountConflicts", mock.Anything, "EQP-1", mock.Anything, mock.Anything).Return(int64(0), nil)
	store.rentals.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.equipments.On("SetAvailableQuantity", mock.Anything, "EQP-1", 1).Return(int64(1), nil)

	req := validRequest()
	req.StartDate = "2025-05-01"
	req.EndDate = "2025-05-01"

	_, err := svc.Book(context.Background(), req)
	require.NoError(t, err)
}

func TestBook_Sequential_Success(t *testing.T) {
	store := newMockStore()
	events := &recordingPublisher{}
	obs := &recordingObserver{}
	svc := newTestService(store, ModeSequential, events, obs)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)

	store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(2), nil)
	store.rentals.On("CountConflicts", mock.Anything, "EQP-1", start, end).Return(int64(0), nil)
	store.rentals.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Rental) bool {
		return r.EquipmentID == "EQP-1" && r.Status == domain.RentalConfirmed && r.UserID == 7 && r.BorrowerName == "Kim"
	})).Return(nil)
	store.equipments.On("SetAvailableQuantity", mock.Anything, "EQP-1", 1).Return(int64(1), nil)

	rental, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, rental)
	assert.Equal(t, int64(42), rental.ID)
	assert.Equal(t, 0, store.txCalls)

	require.Len(t, events.events, 1)
	assert.Equal(t, activity.EventRentalBooked, events.events[0].Type)
	assert.Equal(t, []string{"sequential:success"}, obs.outcomes)

	store.equipments.AssertExpectations(t)
	store.rentals.AssertExpectations(t)
}

func TestBook_Sequential_PartialFailure(t *testing.T) {
	tests := []struct {
		name string
		rows int64
		err  error
	}{
		{"no affected rows", 0, nil},
		{"write rejected", 0, errors.New("permission denied for table equipments")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			events := &recordingPublisher{}
			svc := newTestService(store, ModeSequential, events, nil)

			store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(2), nil)
			store.rentals.On("CountConflicts", mock.Anything, "EQP-1", mock.Anything, mock.Anything).Return(int64(0), nil)
			store.rentals.On("Create", mock.Anything, mock.Anything).Return(nil)
			store.equipments.On("SetAvailableQuantity", mock.Anything, "EQP-1", 1).Return(tt.rows, tt.err)

			rental, err := svc.Book(context.Background(), validRequest())
			assert.ErrorIs(t, err, ErrPartialFailure)
			require.NotNil(t, rental, "partial failure still returns the stored rental")
			assert.Equal(t, int64(42), rental.ID)

			require.Len(t, events.events, 1)
			assert.Equal(t, activity.EventRentalPartialFailure, events.events[0].Type)
		})
	}
}

func TestBook_StepFailures(t *testing.T) {
	for _, mode := range []Mode{ModeSequential, ModeConditional} {
		t.Run(string(mode)+"/not found", func(t *testing.T) {
			store := newMockStore()
			svc := newTestService(store, mode, nil, nil)
			store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(nil, gorm.ErrRecordNotFound)

			_, err := svc.Book(context.Background(), validRequest())
			assert.ErrorIs(t, err, ErrNotFound)
			store.rentals.AssertNotCalled(t, "CountConflicts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})

		t.Run(string(mode)+"/no capacity", func(t *testing.T) {
			store := newMockStore()
			svc := newTestService(store, mode, nil, nil)
			store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(0), nil)

			_, err := svc.Book(context.Background(), validRequest())
			assert.ErrorIs(t, err, ErrNoCapacity)
			store.rentals.AssertNotCalled(t, "CountConflicts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			store.rentals.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})

		t.Run(string(mode)+"/overlap", func(t *testing.T) {
			store := newMockStore()
			svc := newTestService(store, mode, nil, nil)
			store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(1), nil)
			store.rentals.On("CountConflicts", mock.Anything, "EQP-1", mock.Anything, mock.Anything).Return(int64(1), nil)

			_, err := svc.Book(context.Background(), validRequest())
			assert.ErrorIs(t, err, ErrConflict)
			store.rentals.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})

		t.Run(string(mode)+"/store down", func(t *testing.T) {
			store := newMockStore()
			svc := newTestService(store, mode, nil, nil)
			store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(nil, errors.New("dial tcp: connection refused"))

			_, err := svc.Book(context.Background(), validRequest())
			assert.ErrorIs(t, err, ErrUpstream)
		})

		t.Run(string(mode)+"/insert fails", func(t *testing.T) {
			store := newMockStore()
			svc := newTestService(store, mode, nil, nil)
			store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(2), nil)
			store.rentals.On("CountConflicts", mock.Anything, "EQP-1", mock.Anything, mock.Anything).Return(int64(0), nil)
			store.rentals.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk I/O error"))

			rental, err := svc.Book(context.Background(), validRequest())
			assert.Nil(t, rental)
			assert.ErrorIs(t, err, ErrUpstream)
			store.equipments.AssertNotCalled(t, "SetAvailableQuantity", mock.Anything, mock.Anything, mock.Anything)
			store.equipments.AssertNotCalled(t, "DecrementAvailable", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBook_Conditional_Success(t *testing.T) {
	store := newMockStore()
	obs := &recordingObserver{}
	svc := newTestService(store, ModeConditional, nil, obs)

	store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(2), nil)
	store.rentals.On("CountConflicts", mock.Anything, "EQP-1", mock.Anything, mock.Anything).Return(int64(0), nil)
	store.rentals.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.equipments.On("DecrementAvailable", mock.Anything, "EQP-1", 2).Return(int64(1), nil)

	rental, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(42), rental.ID)
	assert.Equal(t, 1, store.txCalls)
	assert.Equal(t, []string{"conditional:success"}, obs.outcomes)
	store.equipments.AssertNotCalled(t, "SetAvailableQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestBook_Conditional_RetriesStaleQuantity(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, ModeConditional, nil, nil)

	store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(2), nil).Once()
	store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(1), nil).Once()
	store.rentals.On("CountConflicts", mock.Anything, "EQP-1", mock.Anything, mock.Anything).Return(int64(0), nil)
	store.rentals.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.equipments.On("DecrementAvailable", mock.Anything, "EQP-1", 2).Return(int64(0), nil).Once()
	store.equipments.On("DecrementAvailable", mock.Anything, "EQP-1", 1).Return(int64(1), nil).Once()

	rental, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, rental)
	assert.Equal(t, 2, store.txCalls)
	store.equipments.AssertExpectations(t)
}

func TestBook_Conditional_RetriesExhausted(t *testing.T) {
	store := newMockStore()
	obs := &recordingObserver{}
	svc := newTestService(store, ModeConditional, nil, obs)

	store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(2), nil)
	store.rentals.On("CountConflicts", mock.Anything, "EQP-1", mock.Anything, mock.Anything).Return(int64(0), nil)
	store.rentals.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.equipments.On("DecrementAvailable", mock.Anything, "EQP-1", 2).Return(int64(0), nil)

	rental, err := svc.Book(context.Background(), validRequest())
	assert.Nil(t, rental)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 3, store.txCalls, "one attempt plus MaxRetries retries")
	assert.Equal(t, []string{"conditional:conflict"}, obs.outcomes)
}

func TestBook_Conditional_CheckViolationIsNoCapacity(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, ModeConditional, nil, nil)

	store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(1), nil)
	store.rentals.On("CountConflicts", mock.Anything, "EQP-1", mock.Anything, mock.Anything).Return(int64(0), nil)
	store.rentals.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.equipments.On("DecrementAvailable", mock.Anything, "EQP-1", 1).
		Return(int64(0), errors.New("constraint failed: CHECK constraint failed: chk_equipments_available (275)"))

	_, err := svc.Book(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrNoCapacity)
	assert.Equal(t, 1, store.txCalls)
}

func TestCheckAvailability(t *testing.T) {
	tests := []struct {
		name          string
		available     int
		conflicts     int64
		wantAvailable bool
	}{
		{"free", 2, 0, true},
		{"overlap", 2, 1, false},
		{"counter exhausted", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			svc := newTestService(store, ModeConditional, nil, nil)
			store.equipments.On("GetByID", mock.Anything, "EQP-1").Return(equipment(tt.available), nil)
			store.rentals.On("CountConflicts", mock.Anything, "EQP-1", mock.Anything, mock.Anything).Return(tt.conflicts, nil)

			res, err := svc.CheckAvailability(context.Background(), "eqp-1", "2025-06-01", "2025-06-05")
			require.NoError(t, err)
			assert.Equal(t, tt.wantAvailable, res.Available)
			assert.Equal(t, tt.conflicts, res.ConflictCount)
			assert.Equal(t, tt.available, res.AvailableQuantity)
		})
	}
}

func TestCheckAvailability_Errors(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, ModeConditional, nil, nil)
	store.equipments.On("GetByID", mock.Anything, "NOPE").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.CheckAvailability(context.Background(), "nope", "2025-06-01", "2025-06-05")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CheckAvailability(context.Background(), "EQP-1", "2025-06-05", "2025-06-01")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = svc.CheckAvailability(context.Background(), "EQP-1", "2025-04-01", "2025-06-01")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = svc.CheckAvailability(context.Background(), "EQP-1", "tomorrow", "2025-06-01")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestToday_UsesConfiguredLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	// 20:00 UTC on Apr 30 is already May 1 in Seoul.
	now := time.Date(2025, 4, 30, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), today(now, seoul))
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), today(now, time.UTC))
}

func TestOverlaps(t *testing.T) {
	d := func(s string) time.Time {
		v, err := time.Parse(domain.DateLayout, s)
		require.NoError(t, err)
		return v
	}

	tests := []struct {
		name string
		a, b DateRange
		want bool
	}{
		{"shared boundary day", DateRange{d("2024-01-01"), d("2024-01-05")}, DateRange{d("2024-01-05"), d("2024-01-10")}, true},
		{"adjacent days", DateRange{d("2024-01-01"), d("2024-01-04")}, DateRange{d("2024-01-05"), d("2024-01-10")}, false},
		{"contained", DateRange{d("2024-01-01"), d("2024-01-10")}, DateRange{d("2024-01-03"), d("2024-01-04")}, true},
		{"single day same", DateRange{d("2024-01-03"), d("2024-01-03")}, DateRange{d("2024-01-03"), d("2024-01-03")}, true},
		{"disjoint later", DateRange{d("2024-02-01"), d("2024-02-02")}, DateRange{d("2024-01-01"), d("2024-01-31")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a))
		})
	}
}
