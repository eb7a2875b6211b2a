package itinerary

import "fmt"

// Limits accepted from the input layer.
const (
	MinDays   = 1
	MaxDays   = 10
	MinBudget = 1000
	MaxBudget = 20000
)

// Constraints are the user inputs for one generation request. They are
// immutable for the duration of the request.
type Constraints struct {
	Destination string   `json:"destination"`
	Days        int      `json:"days"`
	Budget      int      `json:"budget"` // per person
	Preferences []string `json:"preferences"`
	GuideURLs   []string `json:"guide_urls"`
}

// Validate rejects constraints outside the accepted input ranges.
func (c *Constraints) Validate() error {
	if c.Destination == "" {
		return fmt.Errorf("destination must not be empty")
	}
	if c.Days < MinDays || c.Days > MaxDays {
		return fmt.Errorf("days must be in [%d, %d], got %d", MinDays, MaxDays, c.Days)
	}
	if c.Budget < MinBudget || c.Budget > MaxBudget {
		return fmt.Errorf("budget must be in [%d, %d], got %d", MinBudget, MaxBudget, c.Budget)
	}
	return nil
}
