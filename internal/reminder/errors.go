package reminder

import "errors"

var (
	// ErrInvalidFormat is returned for time-table input that does not parse
	// into valid times of day. The previous table is always kept.
	ErrInvalidFormat = errors.New("invalid time format")

	// ErrDeliveryFailure marks a single-channel send failure. It is logged and
	// counted but never aborts a fire.
	ErrDeliveryFailure = errors.New("delivery failed")

	// ErrUnknownChannel is returned by lookups for an unregistered channel.
	// MarkDone and RemoveChannel treat it as a no-op.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrPersistenceUnavailable means the schedule state could not be read or
	// written. The scheduler keeps running on its in-memory state.
	ErrPersistenceUnavailable = errors.New("schedule state unavailable")
)
