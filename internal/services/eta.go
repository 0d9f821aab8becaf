// Readiness timer: the estimated-ready computation performed when an order
// enters processing.
//
// The kitchen runs on a fixed UTC+5 wall clock regardless of server locale,
// and preparation is a flat 30 minutes for every order. The estimate is
// recomputed on every entry into processing, anchored to that entry's "now";
// re-entering processing from a later state produces a fresh estimate.
//
// The target instant is carried as a structured timestamp; the display
// string exists only for the presentation boundary, and remaining-time
// computation never parses it back.
package services

import (
	"fmt"
	"time"
)

// PrepMinutes is the flat preparation duration applied to every order.
const PrepMinutes = 30

// kitchenZone is the fixed-offset zone the estimate is expressed in.
var kitchenZone = time.FixedZone("UTC+5", 5*60*60)

// ReadyBy is one computed readiness estimate.
type ReadyBy struct {
	// Target is the estimated-ready instant.
	Target time.Time
	// Minutes is the preparation duration that produced Target.
	Minutes int
}

// computeReadyBy derives the estimate for an order entering processing now.
func computeReadyBy(now time.Time) ReadyBy {
	return ReadyBy{
		Target:  now.In(kitchenZone).Add(PrepMinutes * time.Minute),
		Minutes: PrepMinutes,
	}
}

// Label renders the customer-facing form, e.g. "18:45 (через 30 мин)".
func (r ReadyBy) Label() string {
	return fmt.Sprintf("%s (через %d мин)", r.Target.In(kitchenZone).Format("15:04"), r.Minutes)
}

// remainingMinutes returns the whole minutes left until target, clamped at
// zero once the target has passed.
func remainingMinutes(now, target time.Time) int {
	d := target.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
