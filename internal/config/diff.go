package config

import (
	"encoding/json"
	"hash/fnv"
	"reflect"
	"sort"
	"strings"

	logx "timecardbot/pkg/logx"
)

// SummarizeConfigChange returns the sorted list of changed sections and safe
// structured attrs for logging. Tokens are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 16)

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if strings.TrimSpace(ot.PollTimeout) != strings.TrimSpace(nt.PollTimeout) ||
		!reflect.DeepEqual(ot.OwnerUserIDs, nt.OwnerUserIDs) ||
		strings.TrimSpace(ot.GroupLog) != strings.TrimSpace(nt.GroupLog) ||
		ot.Token != nt.Token {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Int("telegram.owner_count", len(nt.OwnerUserIDs)),
			logx.Bool("telegram.group_log_set", strings.TrimSpace(nt.GroupLog) != ""),
			logx.Bool("telegram.token_changed", ot.Token != nt.Token),
		)
	}

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.chat_enabled", newCfg.Logging.Chat.Enabled),
		)
	}

	or, nr := oldCfg.Reminder, newCfg.Reminder
	if !reflect.DeepEqual(or, nr) {
		changed = append(changed, "reminder")
		attrs = append(attrs,
			logx.Any("reminder.times", nr.Times),
			logx.String("reminder.times_file", nr.TimesFile),
			logx.Any("reminder.source_offset_hours", nr.SourceOffsetHours),
			logx.String("reminder.rollover", nr.Rollover),
			logx.Bool("reminder.paused", nr.Paused),
			logx.Bool("reminder.text_changed", or.Text != nr.Text),
		)
	}

	on, nn := notifierOrDefault(oldCfg.Notifier), notifierOrDefault(newCfg.Notifier)
	if on != nn {
		changed = append(changed, "notifier")
		attrs = append(attrs,
			logx.Int("notifier.rate_per_sec", nn.RatePerSec),
			logx.String("notifier.send_timeout", nn.SendTimeout),
		)
	}

	var ost, nst StorageConfig
	if oldCfg.Storage != nil {
		ost = *oldCfg.Storage
	}
	if newCfg.Storage != nil {
		nst = *newCfg.Storage
	}
	if strings.TrimSpace(ost.Driver) != strings.TrimSpace(nst.Driver) ||
		strings.TrimSpace(ost.Path) != strings.TrimSpace(nst.Path) ||
		strings.TrimSpace(ost.BusyTimeout) != strings.TrimSpace(nst.BusyTimeout) {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", strings.TrimSpace(nst.Driver)),
			logx.Bool("storage.path_set", strings.TrimSpace(nst.Path) != ""),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

func notifierOrDefault(n *NotifierConfig) NotifierConfig {
	if n == nil {
		return NotifierConfig{RatePerSec: 20, SendTimeout: "10s"}
	}
	return *n
}

func hashConfig(cfg *Config) uint64 {
	if cfg == nil {
		return 0
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0
	}
	return hashBytes(b)
}

// hashBytes returns a stable 64-bit hash. Empty input returns 0.
func hashBytes(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
