package reminder

import "time"

// Event types published on the event bus.
const (
	EventCycleStart     = "reminder.cycle_start"
	EventFire           = "reminder.fire"
	EventDeliveryFailed = "reminder.delivery_failed"
	EventReset          = "reminder.reset"
	EventChannelAdded   = "reminder.channel_added"
	EventChannelRemoved = "reminder.channel_removed"
	EventChannelDone    = "reminder.channel_done"
)

// FireResult summarizes one fire.
type FireResult struct {
	At         time.Time `json:"at"`
	Skipped    bool      `json:"skipped,omitempty"`  // instant already past
	Canceled   bool      `json:"canceled,omitempty"` // loop stopped or reset before/while firing
	Attempted  int       `json:"attempted"`
	Delivered  int       `json:"delivered"`
	Failed     int       `json:"failed"`
	Suppressed int       `json:"suppressed"` // not-done channels skipped because of pause
}

// DeliveryFailedEvent is the payload of EventDeliveryFailed.
type DeliveryFailedEvent struct {
	Channel string    `json:"channel"`
	At      time.Time `json:"at"`
	Error   string    `json:"error"`
}
