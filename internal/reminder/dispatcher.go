package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timecardbot/internal/eventbus"
	logx "timecardbot/pkg/logx"
)

// Deliverer sends one reminder to one channel. It is the only outward call
// the reminder core makes.
type Deliverer interface {
	Deliver(ctx context.Context, channelID, text string) error
}

// DelivererFunc adapts a plain function to Deliverer.
type DelivererFunc func(ctx context.Context, channelID, text string) error

func (f DelivererFunc) Deliver(ctx context.Context, channelID, text string) error {
	return f(ctx, channelID, text)
}

const defaultDeliveryTimeout = 15 * time.Second

// Dispatcher fires one scheduled moment across the registry.
type Dispatcher struct {
	clock   Clock
	deliver Deliverer
	log     logx.Logger
	bus     eventbus.Bus
	timeout time.Duration
}

func NewDispatcher(clock Clock, deliver Deliverer, log logx.Logger, bus eventbus.Bus) *Dispatcher {
	if clock == nil {
		clock = SystemClock()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{clock: clock, deliver: deliver, log: log, bus: bus, timeout: defaultDeliveryTimeout}
}

// SetDeliveryTimeout bounds each Deliver call. Zero or negative restores the default.
func (d *Dispatcher) SetDeliveryTimeout(t time.Duration) {
	if t <= 0 {
		t = defaultDeliveryTimeout
	}
	d.timeout = t
}

// FireAt waits until at and then delivers text to every channel of reg that
// is not done.
//
// An instant already in the past returns immediately with no deliveries.
// Once paused reports true during the batch, every remaining not-done
// channel of this fire is suppressed. Delivery failures are logged and
// counted; they never stop sibling deliveries and are never retried.
// Done flags are not touched.
func (d *Dispatcher) FireAt(ctx context.Context, at time.Time, reg *Registry, paused func() bool, text string) FireResult {
	res := FireResult{At: at}
	if at.Before(d.clock.Now()) {
		res.Skipped = true
		d.log.Debug("fire skipped (past)", logx.Time("at", at))
		return res
	}
	if !sleepUntil(ctx, d.clock, at) {
		res.Canceled = true
		return res
	}

	snap := reg.Snapshot()
	for i, ch := range snap {
		if ch.Done {
			continue
		}
		if ctx.Err() != nil {
			res.Canceled = true
			break
		}
		if paused != nil && paused() {
			res.Suppressed = countPending(snap[i:])
			d.log.Info("fire suppressed (paused)", logx.Time("at", at), logx.Int("suppressed", res.Suppressed))
			break
		}
		res.Attempted++
		if err := d.deliverOne(ctx, ch.ID, text); err != nil {
			res.Failed++
			d.log.Warn("reminder delivery failed", logx.String("channel", ch.ID), logx.Time("at", at), logx.Err(err))
			d.publish(EventDeliveryFailed, DeliveryFailedEvent{Channel: ch.ID, At: at, Error: err.Error()})
			continue
		}
		res.Delivered++
	}

	d.log.Info("fire done",
		logx.Time("at", at),
		logx.Int("attempted", res.Attempted),
		logx.Int("delivered", res.Delivered),
		logx.Int("failed", res.Failed),
		logx.Int("suppressed", res.Suppressed),
	)
	d.publish(EventFire, res)
	return res
}

func (d *Dispatcher) deliverOne(ctx context.Context, id, text string) (err error) {
	if d.deliver == nil {
		return fmt.Errorf("%w: no deliverer configured", ErrDeliveryFailure)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDeliveryFailure, r)
		}
	}()
	dctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.deliver.Deliver(dctx, id, text); err != nil {
		if errors.Is(err, ErrDeliveryFailure) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrDeliveryFailure, err)
	}
	return nil
}

func (d *Dispatcher) publish(typ string, data any) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(eventbus.Event{Type: typ, Time: d.clock.Now(), Data: data})
}

func countPending(chs []Channel) int {
	n := 0
	for _, c := range chs {
		if !c.Done {
			n++
		}
	}
	return n
}
