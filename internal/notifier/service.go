package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"timecardbot/internal/eventbus"
	kit "timecardbot/internal/transport"
	logx "timecardbot/pkg/logx"
)

var (
	ErrNoSender      = errors.New("notifier has no sender")
	ErrInvalidTarget = errors.New("invalid channel id")
	ErrEmptyText     = errors.New("empty message text")
)

const historyMax = 300

// Service sends reminder messages through a transport Sender.
//
// It is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	sender kit.Sender
	log    logx.Logger
	bus    eventbus.Bus

	sent   atomic.Uint64
	failed atomic.Uint64

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender kit.Sender, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		sender: sender,
		log:    log,
		bus:    bus,
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
	s.log.Debug("notifier config applied", logx.Int("rate_per_sec", cfg.RatePerSec), logx.Duration("send_timeout", cfg.SendTimeout))
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 20
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	s.cfg = cfg
	// Burst equals rate so short spikes are not throttled hard.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Deliver makes exactly one send attempt of text to channelID. Failures are
// returned and never retried.
func (s *Service) Deliver(ctx context.Context, channelID, text string) error {
	to, err := kit.ParseChatTarget(channelID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if s.sender == nil {
		return ErrNoSender
	}

	s.mu.Lock()
	cfg, lim := s.cfg, s.limiter
	s.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return s.fail(channelID, to, err)
	}
	callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	_, err = s.sender.SendText(callCtx, to, text, &kit.SendOptions{DisablePreview: true})
	cancel()
	if err != nil {
		return s.fail(channelID, to, err)
	}
	s.sent.Add(1)
	s.record(channelID, nil)
	s.publish(EventSent, NotificationEvent{Channel: channelID, ChatID: to.ChatID, ThreadID: to.ThreadID, At: time.Now()})
	return nil
}

func (s *Service) fail(channelID string, to kit.ChatTarget, err error) error {
	s.failed.Add(1)
	s.record(channelID, err)
	s.log.Debug("send failed", logx.String("channel", channelID), logx.Err(err))
	s.publish(EventFailed, NotificationEvent{Channel: channelID, ChatID: to.ChatID, ThreadID: to.ThreadID, At: time.Now(), Error: err.Error()})
	return err
}

func (s *Service) Counters() Counters {
	return Counters{Sent: s.sent.Load(), Failed: s.failed.Load()}
}

// History returns recent deliveries, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

func (s *Service) record(channel string, err error) {
	it := HistoryItem{At: time.Now(), Channel: channel, OK: err == nil}
	if err != nil {
		it.Error = err.Error()
	}
	s.hmu.Lock()
	s.history = append(s.history, it)
	if len(s.history) > historyMax {
		s.history = s.history[len(s.history)-historyMax:]
	}
	s.hmu.Unlock()
}

func (s *Service) publish(typ string, ev NotificationEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: ev.At, Data: ev})
}
