package config

import (
	"errors"
	"fmt"
	"strings"

	"timecardbot/internal/reminder"
	kit "timecardbot/internal/transport"
	logx "timecardbot/pkg/logx"
)

// Validate rejects configs that would fail at apply time. All problems are
// reported together.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		add(errors.New("telegram.token: required"))
	}
	for _, id := range cfg.Telegram.OwnerUserIDs {
		if id <= 0 {
			add(fmt.Errorf("telegram.owner_user_ids: invalid id %d", id))
		}
	}
	if gl := strings.TrimSpace(cfg.Telegram.GroupLog); gl != "" {
		if _, err := kit.ParseChatTarget(gl); err != nil {
			add(fmt.Errorf("telegram.group_log: %w", err))
		}
	}
	_, err := ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout)
	add(err)

	if !logx.ValidLevel(cfg.Logging.Level) {
		add(fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level))
	}
	if !logx.ValidLevel(cfg.Logging.Chat.MinLevel) {
		add(fmt.Errorf("logging.chat.min_level: unknown level %q", cfg.Logging.Chat.MinLevel))
	}
	if cfg.Logging.Chat.RatePerSec < 0 {
		add(errors.New("logging.chat.rate_per_sec: must be >= 0"))
	}

	r := cfg.Reminder
	if len(r.Times) > 0 {
		if _, err := reminder.ParseTimes(r.Times); err != nil {
			add(fmt.Errorf("reminder.times: %w", err))
		}
	}
	if strings.TrimSpace(r.TimesFile) != "" {
		if _, err := reminder.ReadTimesFile(r.TimesFile); err != nil {
			add(fmt.Errorf("reminder.times_file: %w", err))
		}
	}
	if r.SourceOffsetHours <= -24 || r.SourceOffsetHours >= 24 {
		add(fmt.Errorf("reminder.source_offset_hours: %v out of range (-24, 24)", r.SourceOffsetHours))
	}
	if _, err := reminder.ParseRollover(r.Rollover); err != nil {
		add(fmt.Errorf("reminder.rollover: %w", err))
	}
	_, err = ParseDurationField("reminder.delivery_timeout", r.DeliveryTimeout)
	add(err)

	if n := cfg.Notifier; n != nil {
		if n.RatePerSec < 0 {
			add(errors.New("notifier.rate_per_sec: must be >= 0"))
		}
		_, err := ParseDurationField("notifier.send_timeout", n.SendTimeout)
		add(err)
	}

	if st := cfg.Storage; st != nil {
		switch strings.ToLower(strings.TrimSpace(st.Driver)) {
		case "", "file", "sqlite", "none":
		default:
			add(fmt.Errorf("storage.driver: unknown driver %q", st.Driver))
		}
		_, err := ParseDurationField("storage.busy_timeout", st.BusyTimeout)
		add(err)
	}

	return errors.Join(errs...)
}
