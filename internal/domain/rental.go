package domain

import "time"

type RentalStatus string

const (
	RentalConfirmed RentalStatus = "confirmed"
	RentalPending   RentalStatus = "pending"
	RentalCancelled RentalStatus = "cancelled"
)

// DateLayout is the calendar date format rentals are submitted and stored in.
const DateLayout = "2006-01-02"

// Rental dates are calendar days at UTC midnight; both ends are inclusive.
type Rental struct {
	ID           int64        `json:"id"`
	EquipmentID  string       `json:"equipment_id"`
	StartDate    time.Time    `json:"start_date"`
	EndDate      time.Time    `json:"end_date"`
	BorrowerName string       `json:"borrower_name"`
	Purpose      string       `json:"purpose"`
	UserID       int64        `json:"user_id"`
	Status       RentalStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}
