package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tripnexus/tripnexus/internal/generate"
	"github.com/tripnexus/tripnexus/internal/geocode"
	"github.com/tripnexus/tripnexus/internal/itinerary"
)

// Session is the serialized outcome of one planning cycle. Edits load a
// session, regenerate, and write a new file, leaving the previous one
// intact for rollback or comparison.
type Session struct {
	Constraints itinerary.Constraints  `json:"constraints"`
	Plan        *itinerary.Plan        `json:"plan"`
	Locations   *geocode.PlanLocations `json:"locations,omitempty"`
	Attempts    int                    `json:"attempts"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// NewSession assembles a session from a generation result.
func NewSession(c itinerary.Constraints, result *generate.Result, loc *geocode.PlanLocations) *Session {
	return &Session{
		Constraints: c,
		Plan:        result.Plan,
		Locations:   loc,
		Attempts:    result.Attempts,
		GeneratedAt: time.Now(),
	}
}

// Save writes the session as indented JSON.
func (s *Session) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// LoadSession reads a previously saved session.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Plan == nil {
		return nil, fmt.Errorf("session %s has no plan", path)
	}
	return &s, nil
}
