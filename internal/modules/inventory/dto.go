package inventory

import "equiprent/internal/domain"

type AddEquipmentRequest struct {
	ID         string `json:"id" validate:"required,max=64"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department" validate:"required,department"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
}

// UpdateEquipmentRequest is a full edit; ID may rename the equipment.
type UpdateEquipmentRequest struct {
	ID         string `json:"id" validate:"required,max=64"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department" validate:"required,department"`
	Quantity   int    `json:"quantity" validate:"gte=0"`
}

type ReconcileRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type EquipmentResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Department        string `json:"department"`
	Quantity          int    `json:"quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	Rented            int    `json:"rented"`
}

func toEquipmentResponse(e *domain.Equipment) EquipmentResponse {
	return EquipmentResponse{
		ID:                e.ID,
		Name:              e.Name,
		Department:        string(e.Department),
		Quantity:          e.Quantity,
		AvailableQuantity: e.AvailableQuantity,
		Rented:            e.Rented(),
	}
}

func toEquipmentResponses(rows []domain.Equipment) []EquipmentResponse {
	out := make([]EquipmentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toEquipmentResponse(&rows[i]))
	}
	return out
}
