package repository

import (
	"context"
	"time"

	"equiprent/internal/domain"

	"gorm.io/gorm"
)

type RentalRepository struct {
	db *gorm.DB
}

func NewRentalRepository(db *gorm.DB) *RentalRepository {
	return &RentalRepository{db: db}
}

// Dates are kept as YYYY-MM-DD text so range predicates compare lexically on every dialect.
type rentalModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	EquipmentID  string    `gorm:"column:equipment_id;size:64;not null;index:idx_rentals_equipment_status,priority:1"`
	StartDate    string    `gorm:"column:start_date;size:10;not null"`
	EndDate      string    `gorm:"column:end_date;size:10;not null"`
	BorrowerName string    `gorm:"column:borrower_name;not null"`
	Purpose      string    `gorm:"column:purpose;type:text;not null"`
	UserID       int64     `gorm:"column:user_id;index;not null"`
	Status       string    `gorm:"column:status;size:20;not null;index:idx_rentals_equipment_status,priority:2"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (rentalModel) TableName() string { return "rentals" }

func toDomainRental(m rentalModel) *domain.Rental {
	start, _ := time.Parse(domain.DateLayout, m.StartDate)
	end, _ := time.Parse(domain.DateLayout, m.EndDate)

	return &domain.Rental{
		ID:           m.ID,
		EquipmentID:  m.EquipmentID,
		StartDate:    start,
		EndDate:      end,
		BorrowerName: m.BorrowerName,
		Purpose:      m.Purpose,
		UserID:       m.UserID,
		Status:       domain.RentalStatus(m.Status),
		CreatedAt:    m.CreatedAt,
	}
}

func toRentalModel(r *domain.Rental) rentalModel {
	return rentalModel{
		ID:           r.ID,
		EquipmentID:  r.EquipmentID,
		StartDate:    r.StartDate.Format(domain.DateLayout),
		EndDate:      r.EndDate.Format(domain.DateLayout),
		BorrowerName: r.BorrowerName,
		Purpose:      r.Purpose,
		UserID:       r.UserID,
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt,
	}
}

// RentalFilter narrows the admin activity listing. Zero values match everything.
type RentalFilter struct {
	EquipmentID string
	UserID      int64
	Status      domain.RentalStatus
	Limit       int
	Offset      int
}

func (r *RentalRepository) Create(ctx context.Context, rental *domain.Rental) error {
	m := toRentalModel(rental)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*rental = *toDomainRental(m)
	return nil
}

// CountConflicts counts confirmed rentals of the equipment whose inclusive range
// [start_date, end_date] intersects [start, end].
func (r *RentalRepository) CountConflicts(ctx context.Context, equipmentID string, start, end time.Time) (int64, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&rentalModel{}).
		Where("equipment_id = ?", equipmentID).
		Where("status = ?", string(domain.RentalConfirmed)).
		Where("start_date <= ?", end.Format(domain.DateLayout)).
		Where("end_date >= ?", start.Format(domain.DateLayout)).
		Count(&cnt)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return cnt, nil
}

func (r *RentalRepository) CountConfirmed(ctx context.Context, equipmentID string) (int64, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&rentalModel{}).
		Where("equipment_id = ? AND status = ?", equipmentID, string(domain.RentalConfirmed)).
		Count(&cnt)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return cnt, nil
}

func (r *RentalRepository) List(ctx context.Context, f RentalFilter) ([]domain.Rental, error) {
	q := r.db.WithContext(ctx).Model(&rentalModel{})
	if f.EquipmentID != "" {
		q = q.Where("equipment_id = ?", f.EquipmentID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var rows []rentalModel
	if err := q.Order("start_date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Rental, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainRental(m))
	}
	return out, nil
}
