package storage

import (
	"context"
	"errors"
	"strings"

	logx "timecardbot/pkg/logx"
)

// Store is the persistence API used by the app.
type Store interface {
	LoadChannels(ctx context.Context) ([]ChannelState, error)
	SaveChannels(ctx context.Context, chs []ChannelState) error
	AppendAudit(ctx context.Context, e AuditEntry) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "storage"), logx.String("driver", driver))

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

// normalizeChannels drops empty and repeated ids, keeping first occurrence.
func normalizeChannels(in []ChannelState) []ChannelState {
	out := make([]ChannelState, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
