package itinerary

import "fmt"

// EditOp discriminates the edit command variants. The zero value is
// EditNone: no edit requested.
type EditOp string

const (
	EditNone    EditOp = ""
	EditAdd     EditOp = "add"
	EditDelete  EditOp = "delete"
	EditReorder EditOp = "reorder"
)

// EditCommand is a user request to change an existing plan. A validated
// command never mutates the plan directly; it only authorizes a scoped
// regeneration.
type EditCommand struct {
	Op         EditOp `json:"op"`
	Attraction string `json:"attraction,omitempty"`
	Day        int    `json:"day,omitempty"`
}

// EditCommandError is returned when a command is rejected. The plan it was
// validated against is left untouched.
type EditCommandError struct {
	Op     EditOp
	Reason string
}

func (e *EditCommandError) Error() string {
	return fmt.Sprintf("edit %q rejected: %s", e.Op, e.Reason)
}

// Validate checks the command against the current plan.
//
//   - add: day must be within [1, plan.Days] and attraction non-empty.
//   - delete: day within range and the attraction must exist on that day.
//   - reorder: always valid.
//   - none: always valid (no regeneration will be triggered).
func (c EditCommand) Validate(plan *Plan) error {
	switch c.Op {
	case EditNone:
		return nil
	case EditAdd:
		if c.Attraction == "" {
			return &EditCommandError{Op: c.Op, Reason: "attraction must not be empty"}
		}
		if plan == nil || c.Day < 1 || c.Day > plan.Days {
			return &EditCommandError{Op: c.Op, Reason: fmt.Sprintf("day %d out of range", c.Day)}
		}
		return nil
	case EditDelete:
		if plan == nil || c.Day < 1 || c.Day > plan.Days {
			return &EditCommandError{Op: c.Op, Reason: fmt.Sprintf("day %d out of range", c.Day)}
		}
		if !plan.HasAttraction(c.Day, c.Attraction) {
			return &EditCommandError{
				Op:     c.Op,
				Reason: fmt.Sprintf("attraction %q not found on day %d", c.Attraction, c.Day),
			}
		}
		return nil
	case EditReorder:
		return nil
	default:
		return &EditCommandError{Op: c.Op, Reason: "unknown operation"}
	}
}
