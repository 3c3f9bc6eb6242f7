package rental

import (
	"fmt"
	"strings"
	"time"

	"equiprent/internal/domain"
)

// DateRange is an inclusive span of calendar days held at UTC midnight.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two inclusive ranges share at least one day.
// Ranges that only touch on a boundary day overlap.
func Overlaps(a, b DateRange) bool {
	return !a.Start.After(b.End) && !a.End.Before(b.Start)
}

type Availability struct {
	Available         bool  `json:"available"`
	ConflictCount     int64 `json:"conflict_count"`
	AvailableQuantity int   `json:"available_quantity"`
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	t, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrValidation, field)
	}
	return t, nil
}

// today is the current calendar day in loc, expressed at UTC midnight like parsed dates.
func today(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Service) parseRange(startDate, endDate string) (DateRange, error) {
	start, err := parseDate("start_date", startDate)
	if err != nil {
		return DateRange{}, err
	}
	end, err := parseDate("end_date", endDate)
	if err != nil {
		return DateRange{}, err
	}
	if start.Before(today(s.now(), s.location)) {
		return DateRange{}, fmt.Errorf("%w: start date is in the past", ErrInvalidRange)
	}
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("%w: end date is before start date", ErrInvalidRange)
	}
	return DateRange{Start: start, End: end}, nil
}
