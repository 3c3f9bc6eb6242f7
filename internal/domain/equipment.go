package domain

import (
	"strings"
	"time"
)

type Department string

const (
	DepartmentPhysics     Department = "물리과"
	DepartmentChemistry   Department = "화학과"
	DepartmentIT          Department = "IT과"
	DepartmentEngineering Department = "공과대학"
	DepartmentShared      Department = "공용"
)

// DepartmentAll is the catalog filter value that matches every department.
const DepartmentAll = "전체"

func Departments() []Department {
	return []Department{
		DepartmentPhysics,
		DepartmentChemistry,
		DepartmentIT,
		DepartmentEngineering,
		DepartmentShared,
	}
}

func (d Department) Valid() bool {
	for _, known := range Departments() {
		if d == known {
			return true
		}
	}
	return false
}

type Equipment struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Department        Department `json:"department"`
	Quantity          int        `json:"quantity"`
	AvailableQuantity int        `json:"available_quantity"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Rented is derived from the two counters; it is never stored.
func (e *Equipment) Rented() int {
	return e.Quantity - e.AvailableQuantity
}

// NormalizeEquipmentID trims and upper-cases a user supplied equipment code.
func NormalizeEquipmentID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
