package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"timecardbot/internal/eventbus"
)

// shiftedClock reports real time moved by a fixed amount, so timers still
// run in real time while "now" sits wherever a test needs it.
type shiftedClock struct{ shift time.Duration }

func clockAt(now time.Time) shiftedClock { return shiftedClock{shift: now.Sub(time.Now())} }

func (c shiftedClock) Now() time.Time { return time.Now().Add(c.shift).UTC() }

type recorder struct {
	mu    sync.Mutex
	sent  []string
	fail  map[string]bool
	after func(id string)
}

func (r *recorder) Deliver(ctx context.Context, id, text string) error {
	r.mu.Lock()
	fail := r.fail[id]
	if !fail {
		r.sent = append(r.sent, id)
	}
	after := r.after
	r.mu.Unlock()
	if after != nil {
		after(id)
	}
	if fail {
		return errors.New("chat not found")
	}
	return nil
}

func (r *recorder) delivered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

// waitEvent returns the first event of type typ accepted by match.
func waitEvent(t *testing.T, ch <-chan eventbus.Event, typ string, match func(eventbus.Event) bool) eventbus.Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Type == typ && (match == nil || match(e)) {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
			return eventbus.Event{}
		}
	}
}
