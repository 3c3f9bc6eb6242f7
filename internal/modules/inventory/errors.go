package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("equipment not found")
	ErrConflict       = errors.New("equipment id already exists")
	ErrBelowCommitted = errors.New("quantity below rented count")
	ErrStale          = errors.New("equipment changed concurrently")
	ErrUpstream       = errors.New("store unavailable")
)

func upstream(err error) error {
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrBelowCommitted):
		return "below_committed"
	case errors.Is(err, ErrStale):
		return "stale"
	default:
		return "upstream"
	}
}
