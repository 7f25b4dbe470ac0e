package app

import (
	"fmt"
	"strings"
	"time"

	"timecardbot/internal/config"
	"timecardbot/internal/notifier"
	"timecardbot/internal/reminder"
	"timecardbot/internal/storage"
	kit "timecardbot/internal/transport"
	logx "timecardbot/pkg/logx"
)

const defaultDeliveryTimeout = 15 * time.Second

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	if cfg == nil || cfg.Notifier == nil {
		return notifier.Config{RatePerSec: 20, SendTimeout: 10 * time.Second}, nil
	}
	n := cfg.Notifier
	sendTimeout, err := config.ParseDurationOrDefault("notifier.send_timeout", n.SendTimeout, 10*time.Second)
	if err != nil {
		return notifier.Config{}, err
	}
	if n.RatePerSec < 0 {
		return notifier.Config{}, fmt.Errorf("notifier.rate_per_sec must be >= 0")
	}
	return notifier.Config{
		RatePerSec:  n.RatePerSec,
		SendTimeout: sendTimeout,
	}, nil
}

func mapLoggingConfig(cfg *config.Config) logx.Config {
	l := cfg.Logging
	return logx.Config{
		Level:   l.Level,
		Console: l.Console,
		File: logx.FileConfig{
			Enabled: l.File.Enabled,
			Path:    l.File.Path,
		},
		Chat: logx.ChatConfig{
			Enabled:    l.Chat.Enabled,
			ThreadID:   l.Chat.ThreadID,
			MinLevel:   l.Chat.MinLevel,
			RatePerSec: l.Chat.RatePerSec,
		},
	}
}

// logTarget resolves telegram.group_log ("chat" or "chat:thread"). ok is
// false when it is unset or malformed.
func logTarget(cfg *config.Config) (kit.ChatTarget, bool) {
	gl := strings.TrimSpace(cfg.Telegram.GroupLog)
	if gl == "" {
		return kit.ChatTarget{}, false
	}
	t, err := kit.ParseChatTarget(gl)
	if err != nil {
		return kit.ChatTarget{}, false
	}
	if t.ThreadID == 0 {
		t.ThreadID = cfg.Logging.Chat.ThreadID
	}
	return t, true
}

// reminderTimes picks the table entries: times_file wins over times, and
// both empty means the built-in defaults.
func reminderTimes(rc config.ReminderConfig) ([]reminder.TimeOfDay, error) {
	if path := strings.TrimSpace(rc.TimesFile); path != "" {
		ts, err := reminder.ReadTimesFile(path)
		if err != nil {
			return nil, fmt.Errorf("reminder.times_file: %w", err)
		}
		return ts, nil
	}
	if len(rc.Times) == 0 {
		return reminder.DefaultTimes, nil
	}
	ts, err := reminder.ParseTimes(rc.Times)
	if err != nil {
		return nil, fmt.Errorf("reminder.times: %w", err)
	}
	return ts, nil
}

func reminderTable(rc config.ReminderConfig) (reminder.TimeTable, error) {
	ts, err := reminderTimes(rc)
	if err != nil {
		return reminder.TimeTable{}, err
	}
	return reminder.NewTimeTable(ts, reminder.OffsetHours(rc.SourceOffsetHours)), nil
}

func mapReminderConfig(cfg *config.Config) (reminder.Config, error) {
	rc := cfg.Reminder
	ts, err := reminderTimes(rc)
	if err != nil {
		return reminder.Config{}, err
	}
	dt, err := config.ParseDurationOrDefault("reminder.delivery_timeout", rc.DeliveryTimeout, defaultDeliveryTimeout)
	if err != nil {
		return reminder.Config{}, err
	}
	return reminder.Config{
		Text:            rc.Text,
		Times:           ts,
		Offset:          reminder.OffsetHours(rc.SourceOffsetHours),
		Rollover:        rc.Rollover,
		DeliveryTimeout: dt,
		Paused:          rc.Paused,
	}, nil
}
