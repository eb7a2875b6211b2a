// Package compose builds the generation prompt from user constraints,
// retrieved guide context, and an optional edit directive.
package compose

import (
	"fmt"
	"strings"

	"github.com/tripnexus/tripnexus/internal/itinerary"
	"github.com/tripnexus/tripnexus/internal/llm"
)

// NoContextMarker is substituted when retrieval produced nothing, so the
// generator sees an explicit signal instead of a silently empty section.
const NoContextMarker = "no reference material available"

// Request carries everything one generation prompt is built from.
type Request struct {
	Constraints itinerary.Constraints
	Context     []string // retrieved chunks, in rank order
	Edit        itinerary.EditCommand
}

const systemPrompt = `You are a professional travel planner. Respond with JSON only, matching the requested schema exactly, with no additional text.`

// formatInstructions is the structural output contract embedded in every
// prompt.
const formatInstructions = `Return a single JSON object with this exact structure:
{
  "destination": "<city name>",
  "days": <total number of days>,
  "daily_plan": {
    "1": [
      {
        "time": "09:00-11:00",
        "attraction": "<attraction name>",
        "address": "<street-level address>",
        "transport": "<specific transport, e.g. metro line 2, exit B, 5 min walk>",
        "duration": "<length of stay, e.g. 2h>"
      }
    ]
  }
}
The keys of daily_plan must be the strings "1" through "<days>" with no gaps.
Every day's schedule must stay within 08:00-18:00 with no overlapping time windows.`

// Build is a pure function from a request to the full generation prompt.
// The retrieved context is embedded verbatim, joined in rank order.
func Build(req Request) *llm.Prompt {
	c := req.Constraints

	context := NoContextMarker
	if len(req.Context) > 0 {
		context = strings.Join(req.Context, "\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Plan a trip under these constraints:\n")
	fmt.Fprintf(&b, "- destination: %s\n", c.Destination)
	fmt.Fprintf(&b, "- days: %d\n", c.Days)
	fmt.Fprintf(&b, "- budget: %d per person (allocate sensibly across transport and meals)\n", c.Budget)
	fmt.Fprintf(&b, "- preferences: %s\n", strings.Join(c.Preferences, ", "))
	if note := EditNote(req.Edit); note != "" {
		fmt.Fprintf(&b, "- additional requirement: %s\n", note)
	}
	fmt.Fprintf(&b, "\nReference material from travel guides (prefer this over general knowledge):\n%s\n", context)
	fmt.Fprintf(&b, "\n%s", formatInstructions)

	return &llm.Prompt{
		SystemPrompt: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: b.String()},
		},
	}
}

// EditNote translates a validated edit command into the human-readable
// directive embedded in the regeneration prompt. EditNone yields "".
func EditNote(cmd itinerary.EditCommand) string {
	switch cmd.Op {
	case itinerary.EditAdd:
		return fmt.Sprintf("insert attraction %q on day %d and re-balance that day's schedule", cmd.Attraction, cmd.Day)
	case itinerary.EditDelete:
		return fmt.Sprintf("remove attraction %q from day %d and re-plan the remainder of that day", cmd.Attraction, cmd.Day)
	case itinerary.EditReorder:
		return "re-sequence stops for better routing"
	default:
		return ""
	}
}

// Query synthesizes the retrieval query for a set of constraints, mirroring
// the fields a guide article would mention.
func Query(c itinerary.Constraints) string {
	return fmt.Sprintf("%s %d-day trip, budget %d, preferences: %s",
		c.Destination, c.Days, c.Budget, strings.Join(c.Preferences, ", "))
}
