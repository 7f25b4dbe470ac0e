package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"timecardbot/internal/eventbus"
	kit "timecardbot/internal/transport"
	logx "timecardbot/pkg/logx"
)

type fakeSender struct {
	mu    sync.Mutex
	fails int
	calls []kit.ChatTarget
	texts []string
}

func (f *fakeSender) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, to)
	f.texts = append(f.texts, text)
	if f.fails > 0 {
		f.fails--
		return kit.MessageRef{}, errors.New("telegram: too many requests")
	}
	return kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: len(f.calls)}, nil
}

func fastConfig() Config {
	return Config{RatePerSec: 1000, SendTimeout: time.Second}
}

func TestDeliverParsesTarget(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()

	s := New(fastConfig(), fs, logx.Nop(), bus)
	if err := s.Deliver(context.Background(), "-1001:7", "time card?"); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(fs.calls) != 1 || fs.calls[0] != (kit.ChatTarget{ChatID: -1001, ThreadID: 7}) {
		t.Fatalf("calls = %+v", fs.calls)
	}
	if fs.texts[0] != "time card?" {
		t.Fatalf("text = %q", fs.texts[0])
	}
	ev := <-events
	if ev.Type != EventSent {
		t.Fatalf("event = %s", ev.Type)
	}
	if c := s.Counters(); c.Sent != 1 || c.Failed != 0 {
		t.Fatalf("counters = %+v", c)
	}
}

func TestDeliverRejectsBadInput(t *testing.T) {
	t.Parallel()
	s := New(fastConfig(), &fakeSender{}, logx.Nop(), nil)
	if err := s.Deliver(context.Background(), "general", "x"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	if err := s.Deliver(context.Background(), "42", "  "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if err := New(fastConfig(), nil, logx.Nop(), nil).Deliver(context.Background(), "42", "x"); !errors.Is(err, ErrNoSender) {
		t.Fatalf("expected ErrNoSender, got %v", err)
	}
}

func TestDeliverSingleAttempt(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{fails: 2}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()
	s := New(fastConfig(), fs, logx.Nop(), bus)

	if err := s.Deliver(context.Background(), "42", "x"); err == nil {
		t.Fatalf("expected error")
	}
	if len(fs.calls) != 1 {
		t.Fatalf("SendText calls = %d, want 1", len(fs.calls))
	}
	if c := s.Counters(); c.Failed != 1 || c.Sent != 0 {
		t.Fatalf("counters = %+v", c)
	}
	if ev := <-events; ev.Type != EventFailed {
		t.Fatalf("event = %s", ev.Type)
	}
	h := s.History()
	if len(h) != 1 || h[0].OK || h[0].Error == "" {
		t.Fatalf("history = %+v", h)
	}

	// The next call is a fresh single attempt.
	if err := s.Deliver(context.Background(), "42", "x"); err == nil {
		t.Fatalf("expected second error")
	}
	if len(fs.calls) != 2 {
		t.Fatalf("SendText calls = %d, want 2", len(fs.calls))
	}
}

func TestDeliverHonorsCancel(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{}
	s := New(Config{RatePerSec: 1}, fs, logx.Nop(), nil)
	// Drain the single burst token so the next Wait must block.
	if err := s.Deliver(context.Background(), "42", "x"); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := s.Deliver(ctx, "42", "x"); err == nil {
		t.Fatalf("expected error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("Deliver ignored cancellation")
	}
	if len(fs.calls) != 1 {
		t.Fatalf("SendText calls = %d, want 1", len(fs.calls))
	}
}
