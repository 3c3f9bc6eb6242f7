package repository

import (
	"context"
	"time"

	"equiprent/internal/domain"

	"gorm.io/gorm"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

type equipmentModel struct {
	ID                string    `gorm:"column:id;primaryKey;size:64"`
	Name              string    `gorm:"column:name;not null"`
	Department        string    `gorm:"column:department;size:32;index;not null"`
	Quantity          int       `gorm:"column:quantity;not null;check:chk_equipments_quantity,quantity >= 0"`
	AvailableQuantity int       `gorm:"column:available_quantity;not null;check:chk_equipments_available,available_quantity >= 0 AND available_quantity <= quantity"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (equipmentModel) TableName() string { return "equipments" }

func toDomainEquipment(m equipmentModel) *domain.Equipment {
	return &domain.Equipment{
		ID:                m.ID,
		Name:              m.Name,
		Department:        domain.Department(m.Department),
		Quantity:          m.Quantity,
		AvailableQuantity: m.AvailableQuantity,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toEquipmentModel(e *domain.Equipment) equipmentModel {
	return equipmentModel{
		ID:                e.ID,
		Name:              e.Name,
		Department:        string(e.Department),
		Quantity:          e.Quantity,
		AvailableQuantity: e.AvailableQuantity,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

// EquipmentFilter narrows catalog listings. Empty fields match everything.
// When MatchID is set, rows whose id equals it are returned alongside name matches.
type EquipmentFilter struct {
	Department string
	Query      string
	MatchID    string
}

type Quantities struct {
	Total     int
	Available int
}

// EquipmentUpdate carries a full admin edit. ID may differ from the row's current id.
type EquipmentUpdate struct {
	ID                string
	Name              string
	Department        domain.Department
	Quantity          int
	AvailableQuantity int
}

func (r *EquipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	m := toEquipmentModel(e)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*e = *toDomainEquipment(m)
	return nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	var m equipmentModel
	tx := r.db.WithContext(ctx).Where("id = ?", id).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainEquipment(m), nil
}

func (r *EquipmentRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&equipmentModel{}).Where("id = ?", id).Count(&cnt)
	if tx.Error != nil {
		return false, tx.Error
	}
	return cnt > 0, nil
}

func (r *EquipmentRepository) List(ctx context.Context, f EquipmentFilter) ([]domain.Equipment, error) {
	q := r.db.WithContext(ctx).Model(&equipmentModel{})
	if f.Department != "" {
		q = q.Where("department = ?", f.Department)
	}
	if f.Query != "" {
		like := "%" + escapeLike(f.Query) + "%"
		if f.MatchID != "" {
			q = q.Where("(LOWER(name) LIKE LOWER(?) ESCAPE '\\' OR id = ?)", like, f.MatchID)
		} else {
			q = q.Where("LOWER(name) LIKE LOWER(?) ESCAPE '\\'", like)
		}
	}

	var rows []equipmentModel
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Equipment, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainEquipment(m))
	}
	return out, nil
}

// SetAvailableQuantity overwrites the counter unconditionally and reports the affected rows.
func (r *EquipmentRepository) SetAvailableQuantity(ctx context.Context, id string, available int) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&equipmentModel{}).
		Where("id = ?", id).
		Update("available_quantity", available)
	return tx.RowsAffected, tx.Error
}

// DecrementAvailable takes one unit only if the counter still holds the expected value.
// Zero affected rows means another writer got there first.
func (r *EquipmentRepository) DecrementAvailable(ctx context.Context, id string, expected int) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&equipmentModel{}).
		Where("id = ? AND available_quantity = ? AND available_quantity > 0", id, expected).
		Update("available_quantity", gorm.Expr("available_quantity - 1"))
	return tx.RowsAffected, tx.Error
}

// UpdateQuantities writes both counters together, guarded by the values the caller
// computed from. Zero affected rows means the row is gone or moved underneath.
func (r *EquipmentRepository) UpdateQuantities(ctx context.Context, id string, observed, next Quantities) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&equipmentModel{}).
		Where("id = ? AND quantity = ? AND available_quantity = ?", id, observed.Total, observed.Available).
		Updates(map[string]any{
			"quantity":           next.Total,
			"available_quantity": next.Available,
		})
	return tx.RowsAffected, tx.Error
}

// Update rewrites every editable column of the row currently keyed by originalID,
// guarded like UpdateQuantities. Rentals referencing originalID are left untouched.
func (r *EquipmentRepository) Update(ctx context.Context, originalID string, observed Quantities, u EquipmentUpdate) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&equipmentModel{}).
		Where("id = ? AND quantity = ? AND available_quantity = ?", originalID, observed.Total, observed.Available).
		Updates(map[string]any{
			"id":                 u.ID,
			"name":               u.Name,
			"department":         string(u.Department),
			"quantity":           u.Quantity,
			"available_quantity": u.AvailableQuantity,
		})
	return tx.RowsAffected, tx.Error
}
