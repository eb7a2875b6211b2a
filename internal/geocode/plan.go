package geocode

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tripnexus/tripnexus/internal/itinerary"
)

// DefaultConcurrency bounds parallel lookups so the backend's rate limit is
// respected even before the shared limiter kicks in.
const DefaultConcurrency = 4

// PlanLocations holds resolved coordinates for a whole plan: the
// destination center plus one Result per stop, indexed by (day-1, stop).
type PlanLocations struct {
	Center Result     `json:"center"`
	Days   [][]Result `json:"days"`
}

// ResolvePlan resolves the destination and every stop address of the plan.
// Independent stops are resolved concurrently under a bounded worker pool;
// each worker applies the full retry/backoff/fallback policy on its own.
// Results are assembled by (day, stop index), never by completion order.
// A lookup failure downgrades that stop to the fallback coordinate; it
// never aborts the other stops.
func (r *Resolver) ResolvePlan(ctx context.Context, plan *itinerary.Plan, concurrency int) *PlanLocations {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	loc := &PlanLocations{
		Center: r.Resolve(ctx, plan.Destination),
		Days:   make([][]Result, plan.Days),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for day := 1; day <= plan.Days; day++ {
		stops := plan.Day(day)
		loc.Days[day-1] = make([]Result, len(stops))
		for i, stop := range stops {
			day, i, addr := day, i, stop.Address
			g.Go(func() error {
				loc.Days[day-1][i] = r.Resolve(ctx, addr)
				return nil
			})
		}
	}

	// Workers never return errors; Resolve absorbs failures into the
	// fallback tier.
	_ = g.Wait()
	return loc
}
