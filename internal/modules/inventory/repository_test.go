package inventory

import (
	"context"
	"testing"
	"time"

	"equiprent/internal/database"
	"equiprent/internal/domain"
	"equiprent/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestService_WithSQLite(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	svc := NewService(repository.NewEquipmentRepository(db), nil, nil, nil)

	for _, req := range []AddEquipmentRequest{
		{ID: "phy-100", Name: "Digital Oscilloscope", Department: "물리과", Quantity: 3},
		{ID: "it-7", Name: "Raspberry Pi 5", Department: "IT과", Quantity: 10},
		{ID: "shr-1", Name: "100% Cotton Lab Coat", Department: "공용", Quantity: 4},
	} {
		_, err := svc.AddEquipment(ctx, req)
		require.NoError(t, err)
	}

	_, err := svc.AddEquipment(ctx, AddEquipmentRequest{ID: "PHY-100", Name: "dup", Department: "물리과", Quantity: 1})
	assert.ErrorIs(t, err, ErrConflict)

	t.Run("search", func(t *testing.T) {
		rows, err := svc.Search(ctx, "", "oscillo")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "PHY-100", rows[0].ID)

		rows, err = svc.Search(ctx, "", "it-7")
		require.NoError(t, err)
		require.Len(t, rows, 1, "digit query matches the exact id")
		assert.Equal(t, "IT-7", rows[0].ID)

		rows, err = svc.Search(ctx, "", "100%")
		require.NoError(t, err)
		require.Len(t, rows, 1, "LIKE wildcards in the query are literal")
		assert.Equal(t, "SHR-1", rows[0].ID)

		rows, err = svc.Search(ctx, "IT과", "")
		require.NoError(t, err)
		require.Len(t, rows, 1)

		rows, err = svc.Search(ctx, domain.DepartmentAll, "")
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("reconcile keeps rented count", func(t *testing.T) {
		equipments := repository.NewEquipmentRepository(db)
		rows, err := equipments.SetAvailableQuantity(ctx, "PHY-100", 1) // two units out
		require.NoError(t, err)
		require.Equal(t, int64(1), rows)

		_, err = svc.ReconcileQuantity(ctx, "PHY-100", 1)
		assert.ErrorIs(t, err, ErrBelowCommitted)

		e, err := svc.ReconcileQuantity(ctx, "PHY-100", 2)
		require.NoError(t, err)
		assert.Equal(t, 0, e.AvailableQuantity)

		e, err = svc.ReconcileQuantity(ctx, "PHY-100", 6)
		require.NoError(t, err)
		assert.Equal(t, 4, e.AvailableQuantity)

		stored, err := equipments.GetByID(ctx, "PHY-100")
		require.NoError(t, err)
		assert.Equal(t, 6, stored.Quantity)
		assert.Equal(t, 4, stored.AvailableQuantity)
	})

	t.Run("rename leaves rentals on the old id", func(t *testing.T) {
		rentals := repository.NewRentalRepository(db)
		day := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, rentals.Create(ctx, &domain.Rental{
			EquipmentID: "IT-7", StartDate: day, EndDate: day,
			BorrowerName: "b", Purpose: "p", UserID: 1, Status: domain.RentalConfirmed,
		}))

		_, err := svc.UpdateEquipment(ctx, "IT-7", UpdateEquipmentRequest{ID: "shr-1", Name: "Pi", Department: "IT과", Quantity: 10})
		assert.ErrorIs(t, err, ErrConflict)

		e, err := svc.UpdateEquipment(ctx, "it-7", UpdateEquipmentRequest{ID: "it-8", Name: "Pi", Department: "IT과", Quantity: 10})
		require.NoError(t, err)
		assert.Equal(t, "IT-8", e.ID)

		old, err := rentals.CountConfirmed(ctx, "IT-7")
		require.NoError(t, err)
		assert.Equal(t, int64(1), old)
		moved, err := rentals.CountConfirmed(ctx, "IT-8")
		require.NoError(t, err)
		assert.Zero(t, moved)

		_, err = svc.ReconcileQuantity(ctx, "IT-7", 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("check constraint", func(t *testing.T) {
		_, err := repository.NewEquipmentRepository(db).SetAvailableQuantity(ctx, "SHR-1", 99)
		require.Error(t, err)
		assert.True(t, repository.IsCheckViolation(err))
	})
}
