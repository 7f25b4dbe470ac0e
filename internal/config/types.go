package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Reminder ReminderConfig `json:"reminder"`

	Notifier *NotifierConfig `json:"notifier,omitempty"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	GroupLog     string  `json:"group_log"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Chat    LoggingChat `json:"chat"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingChat forwards warn+ log lines to telegram.group_log.
type LoggingChat struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// ReminderConfig drives the daily reminder loop.
//
// Times are "HHMM", "HH:MM" or "HH:MM:SS" in the source timezone; they are
// shifted by SourceOffsetHours onto UTC. When TimesFile is set, its entries
// replace Times.
//
// Defaults (when fields are omitted/zero):
//   - text: "Hey! Did you complete your time card?"
//   - times: ["1600", "1700"]
//   - rollover: "1 0 * * *" (00:01 UTC)
//   - delivery_timeout: "15s"
//   - completion_words: ["yes", "done"]
type ReminderConfig struct {
	Text              string   `json:"text,omitempty"`
	Times             []string `json:"times,omitempty"`
	TimesFile         string   `json:"times_file,omitempty"`
	SourceOffsetHours float64  `json:"source_offset_hours,omitempty"`
	Rollover          string   `json:"rollover,omitempty"`
	Paused            bool     `json:"paused,omitempty"`
	DeliveryTimeout   string   `json:"delivery_timeout,omitempty"`
	CompletionWords   []string `json:"completion_words,omitempty"`
}

// NotifierConfig controls outbound reminder delivery.
//
// If the section is omitted, rate_per_sec defaults to 20 and send_timeout
// to 10s. Each reminder is sent at most once per channel and time.
type NotifierConfig struct {
	RatePerSec  int    `json:"rate_per_sec"`
	SendTimeout string `json:"send_timeout,omitempty"`
}

// StorageConfig controls where channel state and the audit log live.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./timecard_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
