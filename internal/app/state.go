package app

import (
	"context"

	"timecardbot/internal/reminder"
	"timecardbot/internal/storage"
)

// stateStore persists the reminder registry through the configured storage.
type stateStore struct{ st storage.Store }

func (s stateStore) LoadChannels(ctx context.Context) ([]reminder.Channel, error) {
	chs, err := s.st.LoadChannels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]reminder.Channel, 0, len(chs))
	for _, c := range chs {
		out = append(out, reminder.Channel{ID: c.ID, Done: c.Done})
	}
	return out, nil
}

func (s stateStore) SaveChannels(ctx context.Context, chs []reminder.Channel) error {
	out := make([]storage.ChannelState, 0, len(chs))
	for _, c := range chs {
		out = append(out, storage.ChannelState{ID: c.ID, Done: c.Done})
	}
	return s.st.SaveChannels(ctx, out)
}
