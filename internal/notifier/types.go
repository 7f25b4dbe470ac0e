package notifier

import "time"

// Config controls outbound delivery.
type Config struct {
	RatePerSec  int
	SendTimeout time.Duration
}

type HistoryItem struct {
	At      time.Time
	Channel string
	OK      bool
	Error   string
}

// Counters are best-effort delivery totals.
type Counters struct {
	Sent   uint64 `json:"sent"`
	Failed uint64 `json:"failed"`
}

// NotificationEvent is published on the event bus after each delivery.
type NotificationEvent struct {
	Channel  string    `json:"channel"`
	ChatID   int64     `json:"chat_id"`
	ThreadID int       `json:"thread_id,omitempty"`
	At       time.Time `json:"at"`
	Error    string    `json:"error,omitempty"`
}

const (
	EventSent   = "notifier.sent"
	EventFailed = "notifier.failed"
)
