package repository

// Models lists every table this package maps, in migration order.
func Models() []any {
	return []any{
		&userModel{},
		&sessionModel{},
		&equipmentModel{},
		&rentalModel{},
	}
}
