package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	yaml "go.yaml.in/yaml/v3"

	logx "timecardbot/pkg/logx"
)

// fileStore keeps state in plain files next to each other.
//
// Files:
//   - <prefix>.state.yaml   (channel registry, rewritten atomically)
//   - <prefix>.audit.jsonl  (append-only JSON Lines)
type fileStore struct {
	log logx.Logger

	mu        sync.Mutex
	statePath string
	auditFile *os.File
}

type stateDoc struct {
	Version   int            `yaml:"version"`
	UpdatedAt time.Time      `yaml:"updated_at"`
	Channels  []ChannelState `yaml:"channels"`
}

const stateVersion = 1

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	af, err := os.OpenFile(prefix+".audit.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	log.Debug("file store opened", logx.String("prefix", prefix))
	return &fileStore{log: log, statePath: prefix + ".state.yaml", auditFile: af}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return nil
	}
	err := s.auditFile.Close()
	s.auditFile = nil
	return err
}

// LoadChannels returns the persisted registry. A missing document is an
// empty registry.
func (s *fileStore) LoadChannels(ctx context.Context) ([]ChannelState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.statePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc stateDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, s.statePath, err)
	}
	if doc.Version > stateVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrCorrupt, s.statePath, doc.Version)
	}
	return normalizeChannels(doc.Channels), nil
}

// SaveChannels replaces the document via write-to-temp and rename.
func (s *fileStore) SaveChannels(ctx context.Context, chs []ChannelState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := stateDoc{Version: stateVersion, UpdatedAt: time.Now().UTC(), Channels: normalizeChannels(chs)}
	b, err := yaml.Marshal(&doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return ErrClosed
	}
	tmp := s.statePath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.statePath); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *fileStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return ErrClosed
	}
	return json.NewEncoder(s.auditFile).Encode(e)
}
