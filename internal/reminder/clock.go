package reminder

import (
	"context"
	"time"
)

// Clock is the scheduler's reference clock. Waiting always uses real timers;
// only the notion of "now" is pluggable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the UTC wall clock.
func SystemClock() Clock { return systemClock{} }

// sleepUntil blocks until at (per clock) or until ctx is done. The timer is
// always stopped before returning.
func sleepUntil(ctx context.Context, clock Clock, at time.Time) bool {
	d := at.Sub(clock.Now())
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
