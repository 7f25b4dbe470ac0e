package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"timecardbot/internal/eventbus"
	logx "timecardbot/pkg/logx"
)

const (
	// DefaultText is the reminder sent when none is configured.
	DefaultText = "Hey! Did you complete your time card?"

	// DefaultRollover wakes the loop at 00:01 reference time.
	DefaultRollover = "1 0 * * *"

	persistTimeout = 5 * time.Second
)

// DefaultTimes is the static table used when no times are configured.
var DefaultTimes = []TimeOfDay{{Hour: 16}, {Hour: 17}}

// State is the scheduler loop state.
type State string

const (
	StateIdle      State = "idle"
	StateWaiting   State = "waiting"
	StateResetting State = "resetting"
	StateSleeping  State = "sleeping"
	StateStopped   State = "stopped"
)

// StateStore persists the channel registry. Implementations are best-effort.
type StateStore interface {
	LoadChannels(ctx context.Context) ([]Channel, error)
	SaveChannels(ctx context.Context, chs []Channel) error
}

// Config configures a Scheduler.
type Config struct {
	Text            string
	Times           []TimeOfDay // nil means DefaultTimes
	Offset          time.Duration
	Rollover        string // cron spec on the reference clock; "" means DefaultRollover
	DeliveryTimeout time.Duration
	Paused          bool
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the reference clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithStore enables state persistence.
func WithStore(st StateStore) Option {
	return func(s *Scheduler) { s.store = st }
}

// Status is a point-in-time view of the scheduler for operators.
type Status struct {
	State    State
	Paused   bool
	Channels int
	Pending  int
	Table    string
	Offset   time.Duration
	Armed    []time.Time
	NextWake time.Time
	Cycles   uint64
	LastFire *FireResult
}

// Scheduler runs the daily reminder cycle. Construct with New; the zero
// value is not usable.
type Scheduler struct {
	clock Clock
	reg   *Registry
	disp  *Dispatcher
	store StateStore
	log   logx.Logger
	bus   eventbus.Bus

	paused atomic.Bool

	mu          sync.Mutex
	text        string
	table       TimeTable
	rollover    cron.Schedule
	state       State
	cycleCancel context.CancelFunc
	armed       []time.Time
	nextWake    time.Time
	cycles      uint64
	lastFire    *FireResult

	persistMu sync.Mutex

	runMu     sync.Mutex
	runCancel context.CancelFunc
	runDone   chan struct{}
}

// ParseRollover parses a rollover cron spec (5 or 6 fields, or a descriptor
// such as "@midnight").
func ParseRollover(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultRollover
	}
	p := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := p.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("rollover %q: %w", spec, err)
	}
	return sched, nil
}

func New(cfg Config, deliver Deliverer, log logx.Logger, bus eventbus.Bus, opts ...Option) (*Scheduler, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	rollover, err := ParseRollover(cfg.Rollover)
	if err != nil {
		return nil, err
	}
	times := cfg.Times
	if times == nil {
		times = DefaultTimes
	}
	text := strings.TrimSpace(cfg.Text)
	if text == "" {
		text = DefaultText
	}

	s := &Scheduler{
		clock:    SystemClock(),
		reg:      NewRegistry(),
		log:      log,
		bus:      bus,
		text:     text,
		table:    NewTimeTable(times, cfg.Offset),
		rollover: rollover,
		state:    StateIdle,
	}
	for _, o := range opts {
		o(s)
	}
	s.disp = NewDispatcher(s.clock, deliver, log.With(logx.String("comp", "reminder.dispatch")), bus)
	s.disp.SetDeliveryTimeout(cfg.DeliveryTimeout)
	s.paused.Store(cfg.Paused)
	return s, nil
}

// Registry exposes the channel registry for read access.
func (s *Scheduler) Registry() *Registry { return s.reg }

// Restore loads persisted channels. A missing or unreadable state is logged
// and leaves the registry empty; it is never fatal.
func (s *Scheduler) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	lctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	chs, err := s.store.LoadChannels(lctx)
	if err != nil {
		s.reg.Load(nil)
		err = fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
		s.log.Warn("schedule state not restored; starting empty", logx.Err(err))
		return err
	}
	s.reg.Load(chs)
	s.log.Info("schedule state restored", logx.Int("channels", s.reg.Len()))
	return nil
}

// Start launches the loop in the background. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.runDone != nil {
		return
	}
	rctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.runCancel = cancel
	s.runDone = done
	go func() {
		defer close(done)
		_ = s.Run(rctx)
	}()
}

// Stop cancels every pending wait and waits for the loop to exit.
// It is idempotent.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.runMu.Lock()
	cancel, done := s.runCancel, s.runDone
	s.runCancel, s.runDone = nil, nil
	s.runMu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes day cycles until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("scheduler loop started", logx.String("table", s.currentTable().String()), logx.Bool("paused", s.Paused()))
	defer func() {
		s.mu.Lock()
		s.state = StateStopped
		s.cycleCancel = nil
		s.armed = nil
		s.nextWake = time.Time{}
		s.mu.Unlock()
		s.log.Info("scheduler loop stopped")
	}()

	for ctx.Err() == nil {
		cycleCtx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.cycleCancel = cancel
		table, text := s.table, s.text
		s.mu.Unlock()

		s.runCycle(cycleCtx, table, text)

		switch {
		case ctx.Err() != nil:
			cancel()
			return nil
		case cycleCtx.Err() != nil:
			cancel()
			s.log.Info("cycle reset; restarting")
			continue
		}

		s.setState(StateResetting)
		s.resetDay(ctx, "cycle complete")

		next := s.nextRollover(s.clock.Now())
		s.mu.Lock()
		s.state = StateSleeping
		s.nextWake = next
		s.mu.Unlock()
		s.log.Info("sleeping until rollover", logx.Time("wake", next))

		woke := sleepUntil(cycleCtx, s.clock, next)
		cancel()
		if woke && ctx.Err() == nil {
			// Completion signals received overnight belong to the finished day.
			s.resetDay(ctx, "rollover")
		}
	}
	return nil
}

// runCycle arms one wait per instant of today's table and joins them.
func (s *Scheduler) runCycle(ctx context.Context, table TimeTable, text string) {
	now := s.clock.Now()
	instants := table.ForToday(now)

	s.mu.Lock()
	s.state = StateWaiting
	s.armed = instants
	s.nextWake = time.Time{}
	s.cycles++
	cycle := s.cycles
	s.mu.Unlock()

	s.log.Info("cycle started",
		logx.Uint64("cycle", cycle),
		logx.Int("fires", len(instants)),
		logx.Int("channels", s.reg.Len()),
	)
	s.publish(EventCycleStart, map[string]any{"cycle": cycle, "fires": len(instants)})

	var wg sync.WaitGroup
	for _, at := range instants {
		wg.Add(1)
		go func(at time.Time) {
			defer wg.Done()
			res := s.disp.FireAt(ctx, at, s.reg, s.Paused, text)
			if !res.Skipped && !res.Canceled {
				s.mu.Lock()
				s.lastFire = &res
				s.mu.Unlock()
			}
		}(at)
	}
	wg.Wait()
}

func (s *Scheduler) resetDay(ctx context.Context, reason string) {
	s.reg.ResetAll()
	s.persist(ctx)
	s.log.Info("done flags reset", logx.String("reason", reason), logx.Int("channels", s.reg.Len()))
	s.publish(EventReset, reason)
}

func (s *Scheduler) nextRollover(now time.Time) time.Time {
	s.mu.Lock()
	r := s.rollover
	s.mu.Unlock()
	next := r.Next(now.UTC())
	if next.IsZero() {
		next = now.Add(24 * time.Hour)
	}
	return next
}

// ---- controls ----

// AddChannel registers id. A duplicate is a logged no-op that returns false.
func (s *Scheduler) AddChannel(id string) bool {
	id = strings.TrimSpace(id)
	if !s.reg.Add(id) {
		s.log.Info("channel already registered", logx.String("channel", id))
		return false
	}
	s.log.Info("channel added", logx.String("channel", id))
	s.persist(context.Background())
	s.publish(EventChannelAdded, id)
	return true
}

// RemoveChannel unregisters id. Unknown ids are ignored.
func (s *Scheduler) RemoveChannel(id string) bool {
	id = strings.TrimSpace(id)
	if !s.reg.Remove(id) {
		s.log.Debug("remove ignored", logx.String("channel", id), logx.Err(ErrUnknownChannel))
		return false
	}
	s.log.Info("channel removed", logx.String("channel", id))
	s.persist(context.Background())
	s.publish(EventChannelRemoved, id)
	return true
}

// MarkDone records a completion signal for id. Unknown ids are ignored.
func (s *Scheduler) MarkDone(id string) bool {
	id = strings.TrimSpace(id)
	if !s.reg.MarkDone(id) {
		s.log.Debug("mark done ignored", logx.String("channel", id), logx.Err(ErrUnknownChannel))
		return false
	}
	s.log.Info("channel done for today", logx.String("channel", id))
	s.persist(context.Background())
	s.publish(EventChannelDone, id)
	return true
}

// SetTimes parses entries and replaces the table for the next cycle.
// On error the current table stays active.
func (s *Scheduler) SetTimes(entries []string) error {
	ts, err := ParseTimes(entries)
	if err != nil {
		s.log.Warn("time table rejected", logx.Any("entries", entries), logx.Err(err))
		return err
	}
	s.mu.Lock()
	s.table = NewTimeTable(ts, s.table.Offset())
	tt := s.table
	s.mu.Unlock()
	s.log.Info("time table replaced (effective next cycle)", logx.String("table", tt.String()))
	return nil
}

// SetTable replaces the whole table, offset included, for the next cycle.
func (s *Scheduler) SetTable(tt TimeTable) {
	s.mu.Lock()
	s.table = tt
	s.mu.Unlock()
	s.log.Info("time table replaced (effective next cycle)", logx.String("table", tt.String()), logx.Duration("offset", tt.Offset()))
}

// SetText replaces the reminder text for the next cycle.
func (s *Scheduler) SetText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = DefaultText
	}
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

// SetRollover replaces the rollover schedule used after the current cycle.
func (s *Scheduler) SetRollover(spec string) error {
	r, err := ParseRollover(spec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.rollover = r
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) Pause() {
	if !s.paused.Swap(true) {
		s.log.Info("reminders paused")
	}
}

func (s *Scheduler) Resume() {
	if s.paused.Swap(false) {
		s.log.Info("reminders resumed")
	}
}

func (s *Scheduler) Paused() bool { return s.paused.Load() }

// ResetScheduler cancels every wait of the current cycle and restarts the
// loop at cycle start. Done flags are left as they are. It returns false if
// the loop is not running.
func (s *Scheduler) ResetScheduler() bool {
	s.mu.Lock()
	cancel := s.cycleCancel
	s.mu.Unlock()
	if cancel == nil {
		s.log.Debug("reset ignored; loop not running")
		return false
	}
	s.log.Info("scheduler reset requested")
	cancel()
	return true
}

// ---- read-only views ----

func (s *Scheduler) Channels() []Channel { return s.reg.Snapshot() }

// Times returns today's instants of the table the next cycle will use.
func (s *Scheduler) Times() []time.Time {
	return s.currentTable().ForToday(s.clock.Now())
}

// ListChannels renders the registry for operators.
func (s *Scheduler) ListChannels() string {
	chs := s.reg.Snapshot()
	if len(chs) == 0 {
		return "no channels registered"
	}
	var b strings.Builder
	for i, c := range chs {
		if i > 0 {
			b.WriteByte('\n')
		}
		state := "pending"
		if c.Done {
			state = "done"
		}
		fmt.Fprintf(&b, "%s (%s)", c.ID, state)
	}
	return b.String()
}

// ListTimes renders today's instants on the reference clock.
func (s *Scheduler) ListTimes() string {
	ts := s.Times()
	if len(ts) == 0 {
		return "no reminder times configured"
	}
	var b strings.Builder
	for i, t := range ts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	return b.String()
}

func (s *Scheduler) Status() Status {
	chs := s.reg.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:    s.state,
		Paused:   s.paused.Load(),
		Channels: len(chs),
		Pending:  countPending(chs),
		Table:    s.table.String(),
		Offset:   s.table.Offset(),
		Armed:    append([]time.Time(nil), s.armed...),
		NextWake: s.nextWake,
		Cycles:   s.cycles,
	}
	if s.lastFire != nil {
		lf := *s.lastFire
		st.LastFire = &lf
	}
	return st
}

func (s *Scheduler) currentTable() TimeTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// persist saves a registry snapshot. Saves are serialized so the last write
// always carries the latest state.
func (s *Scheduler) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.store.SaveChannels(pctx, s.reg.Snapshot()); err != nil {
		if !errors.Is(err, ErrPersistenceUnavailable) {
			err = fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
		}
		s.log.Warn("schedule state not saved", logx.Err(err))
	}
}

func (s *Scheduler) publish(typ string, data any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: s.clock.Now(), Data: data})
}
