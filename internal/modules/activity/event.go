package activity

import "time"

const (
	EventRentalBooked         = "rental.booked"
	EventRentalPartialFailure = "rental.partial_failure"
	EventEquipmentAdded       = "equipment.added"
	EventEquipmentUpdated     = "equipment.updated"
)

type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

func NewEvent(eventType string, data any) Event {
	return Event{Type: eventType, At: time.Now().UTC(), Data: data}
}
