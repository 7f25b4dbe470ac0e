package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
telegram:
  token: "123:abc"
  owner_user_ids: [42]
  group_log: "-1001:7"
  poll_timeout: 10s
logging:
  level: info
  console: true
reminder:
  times: ["0800", "17:30"]
  source_offset_hours: 4
  rollover: "1 0 * * *"
notifier:
  rate_per_sec: 5
storage:
  driver: file
  path: ./store
`

func TestDecodeRejectsRetrySettings(t *testing.T) {
	t.Parallel()
	doc := `{"telegram":{"token":"x"},"notifier":{"rate_per_sec":5,"retry_max":2}}`
	if _, err := Decode("config.json", []byte(doc)); err == nil {
		t.Fatalf("notifier.retry_max accepted")
	}
}

func TestDecodeYAML(t *testing.T) {
	t.Parallel()
	cfg, err := Decode("config.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" || !slices.Equal(cfg.Telegram.OwnerUserIDs, []int64{42}) {
		t.Fatalf("telegram = %+v", cfg.Telegram)
	}
	if !slices.Equal(cfg.Reminder.Times, []string{"0800", "17:30"}) || cfg.Reminder.SourceOffsetHours != 4 {
		t.Fatalf("reminder = %+v", cfg.Reminder)
	}
	if cfg.Notifier == nil || cfg.Notifier.RatePerSec != 5 {
		t.Fatalf("notifier = %+v", cfg.Notifier)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := Decode("config.json", []byte(`{"telegram":{"token":"x"},"plugins":{}}`))
	if err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	_, err = Decode("config.json", []byte(`{"telegram":{"token":"x"}}{}`))
	if err == nil {
		t.Fatalf("expected trailing data error")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Logging: LoggingConfig{Level: "loud"},
		Reminder: ReminderConfig{
			Times:             []string{"0800", "2500"},
			SourceOffsetHours: 30,
			Rollover:          "not a cron",
			DeliveryTimeout:   "soon",
		},
		Storage: &StorageConfig{Driver: "redis"},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected errors")
	}
	for _, want := range []string{
		"telegram.token",
		"logging.level",
		"reminder.times",
		"reminder.source_offset_hours",
		"reminder.rollover",
		"reminder.delivery_timeout",
		"storage.driver",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg, err := Decode("a.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	newCfg, err := Decode("b.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if changed, _ := SummarizeConfigChange(oldCfg, newCfg); len(changed) != 0 {
		t.Fatalf("identical configs reported changes: %v", changed)
	}

	newCfg.Reminder.Paused = true
	newCfg.Logging.Level = "debug"
	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if !slices.Equal(changed, []string{"logging", "reminder"}) {
		t.Fatalf("changed = %v", changed)
	}
	if len(attrs) == 0 {
		t.Fatalf("expected attrs")
	}
}

func TestWatchPublishesValidatedReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewConfigManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	m.SetValidator(func(ctx context.Context, cfg *Config) error { return Validate(cfg) })
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Watch(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before writing.
	time.Sleep(200 * time.Millisecond)

	invalid := strings.Replace(sampleYAML, `"0800"`, `"9999"`, 1)
	if err := os.WriteFile(path, []byte(invalid), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-sub:
		t.Fatalf("invalid config published: %+v", cfg.Reminder)
	case <-time.After(time.Second):
	}

	valid := strings.Replace(sampleYAML, `"0800"`, `"0900"`, 1)
	if err := os.WriteFile(path, []byte(valid), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-sub:
		if cfg.Reminder.Times[0] != "0900" {
			t.Fatalf("published times = %v", cfg.Reminder.Times)
		}
		if m.Get() != cfg {
			t.Fatalf("published config was not committed")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("reload not published")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty = %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatalf("expected negative duration error")
	}
	if d, err := ParseDurationOrDefault("x", "0s", 3*time.Second); err != nil || d != 3*time.Second {
		t.Fatalf("default = %v, %v", d, err)
	}
}
