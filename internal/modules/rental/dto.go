package rental

import (
	"time"

	"equiprent/internal/domain"
)

// BookRequest is the booking form. Only the first selected equipment id is booked.
type BookRequest struct {
	EquipmentIDs []string `json:"equipment_ids"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	BorrowerName string   `json:"borrower_name"`
	Purpose      string   `json:"purpose"`
	UserID       int64    `json:"-"`
}

type RentalResponse struct {
	ID           int64     `json:"id"`
	EquipmentID  string    `json:"equipment_id"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	BorrowerName string    `json:"borrower_name"`
	Purpose      string    `json:"purpose"`
	UserID       int64     `json:"user_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func toRentalResponse(r *domain.Rental) RentalResponse {
	return RentalResponse{
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

func toRentalResponses(rows []domain.Rental) []RentalResponse {
	out := make([]RentalResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toRentalResponse(&rows[i]))
	}
	return out
}
