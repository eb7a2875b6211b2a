// Package itinerary defines the trip plan data model, its structural
// validation rules, and the edit commands that drive regeneration.
package itinerary

import (
	"fmt"
	"strconv"
)

// Stop is a single scheduled visit within a day.
type Stop struct {
	Time       string `json:"time"`       // "HH:MM-HH:MM", within the daily window
	Attraction string `json:"attraction"` // attraction name
	Address    string `json:"address"`    // street-level address
	Transport  string `json:"transport"`  // how to get there
	Duration   string `json:"duration"`   // intended stay, e.g. "2h"
}

// Plan is a complete day-structured itinerary. DailyPlan is keyed by the
// stringified day index ("1".."N"); stop order within a day is the intended
// visiting sequence.
type Plan struct {
	Destination string            `json:"destination"`
	Days        int               `json:"days"`
	DailyPlan   map[string][]Stop `json:"daily_plan"`
}

// Daily scheduling window. Stops must fall inside it.
const (
	dayStartMinutes = 8 * 60  // 08:00
	dayEndMinutes   = 18 * 60 // 18:00
)

// ValidationError describes the first structural violation found in a plan.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid plan: %s: %s", e.Field, e.Reason)
}

// Validate checks the plan against the itinerary schema: positive day count,
// contiguous day keys 1..Days, non-empty stop fields, and per-day time
// windows that fall inside 08:00-18:00 without overlapping.
func (p *Plan) Validate() error {
	if p.Destination == "" {
		return &ValidationError{Field: "destination", Reason: "must not be empty"}
	}
	if p.Days < 1 {
		return &ValidationError{Field: "days", Reason: fmt.Sprintf("must be >= 1, got %d", p.Days)}
	}
	if len(p.DailyPlan) != p.Days {
		return &ValidationError{
			Field:  "daily_plan",
			Reason: fmt.Sprintf("expected %d days, got %d", p.Days, len(p.DailyPlan)),
		}
	}

	for day := 1; day <= p.Days; day++ {
		key := strconv.Itoa(day)
		stops, ok := p.DailyPlan[key]
		if !ok {
			return &ValidationError{
				Field:  "daily_plan",
				Reason: fmt.Sprintf("missing day %q", key),
			}
		}
		if len(stops) == 0 {
			return &ValidationError{
				Field:  "daily_plan." + key,
				Reason: "day has no stops",
			}
		}

		prevEnd := 0
		for i, stop := range stops {
			field := fmt.Sprintf("daily_plan.%s[%d]", key, i)
			if err := validateStopFields(field, stop); err != nil {
				return err
			}
			start, end, err := ParseTimeWindow(stop.Time)
			if err != nil {
				return &ValidationError{Field: field + ".time", Reason: err.Error()}
			}
			if start < dayStartMinutes {
				return &ValidationError{Field: field + ".time", Reason: "starts before 08:00"}
			}
			if end > dayEndMinutes {
				return &ValidationError{Field: field + ".time", Reason: "ends after 18:00"}
			}
			if start < prevEnd {
				return &ValidationError{Field: field + ".time", Reason: "overlaps previous stop"}
			}
			prevEnd = end
		}
	}
	return nil
}

func validateStopFields(field string, s Stop) error {
	checks := []struct {
		name  string
		value string
	}{
		{"time", s.Time},
		{"attraction", s.Attraction},
		{"address", s.Address},
		{"transport", s.Transport},
		{"duration", s.Duration},
	}
	for _, c := range checks {
		if c.value == "" {
			return &ValidationError{Field: field + "." + c.name, Reason: "must not be empty"}
		}
	}
	return nil
}

// Day returns the stops for a 1-based day index.
func (p *Plan) Day(day int) []Stop {
	return p.DailyPlan[strconv.Itoa(day)]
}

// HasAttraction reports whether the named attraction appears among the
// given day's stops.
func (p *Plan) HasAttraction(day int, attraction string) bool {
	for _, s := range p.Day(day) {
		if s.Attraction == attraction {
			return true
		}
	}
	return false
}

// ParseTimeWindow parses a "HH:MM-HH:MM" window into start and end minutes
// since midnight. The end must be strictly after the start.
func ParseTimeWindow(window string) (start, end int, err error) {
	var sh, sm, eh, em int
	if _, err := fmt.Sscanf(window, "%d:%d-%d:%d", &sh, &sm, &eh, &em); err != nil {
		return 0, 0, fmt.Errorf("malformed time window %q", window)
	}
	if sh < 0 || sh > 23 || eh < 0 || eh > 23 || sm < 0 || sm > 59 || em < 0 || em > 59 {
		return 0, 0, fmt.Errorf("time window %q out of range", window)
	}
	start = sh*60 + sm
	end = eh*60 + em
	if end <= start {
		return 0, 0, fmt.Errorf("time window %q ends before it starts", window)
	}
	return start, end, nil
}
