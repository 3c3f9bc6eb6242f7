package rental

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrInvalidRange   = fmt.Errorf("%w: invalid date range", ErrValidation)
	ErrNotFound       = errors.New("equipment not found")
	ErrNoCapacity     = errors.New("no available quantity")
	ErrConflict       = errors.New("rental conflict")
	ErrPartialFailure = errors.New("rental recorded but available quantity not updated")
	ErrUpstream       = errors.New("store unavailable")
)

// errStaleQuantity aborts a conditional attempt whose compare-and-swap lost to another writer.
var errStaleQuantity = errors.New("available quantity changed during booking")

func upstream(err error) error {
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func classified(err error) bool {
	for _, target := range []error{ErrValidation, ErrNotFound, ErrNoCapacity, ErrConflict, ErrPartialFailure, ErrUpstream, errStaleQuantity} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// outcome is the metrics/log label for a booking result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoCapacity):
		return "no_capacity"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrPartialFailure):
		return "partial_failure"
	default:
		return "upstream"
	}
}
