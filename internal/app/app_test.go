package app

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"timecardbot/internal/config"
	"timecardbot/internal/reminder"
	"timecardbot/internal/storage"
	logx "timecardbot/pkg/logx"
)

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		sc      *config.StorageConfig
		enabled bool
		wantErr bool
		want    storage.Config
	}{
		{name: "omitted"},
		{name: "none", sc: &config.StorageConfig{Driver: "none"}},
		{name: "file", sc: &config.StorageConfig{Driver: "File", Path: "./x"}, enabled: true, want: storage.Config{Driver: "file", Path: "./x"}},
		{name: "sqlite default busy", sc: &config.StorageConfig{Driver: "sqlite", Path: "db"}, enabled: true, want: storage.Config{Driver: "sqlite", Path: "db", BusyTimeout: time.Second}},
		{name: "sqlite without path", sc: &config.StorageConfig{Driver: "sqlite"}, wantErr: true},
		{name: "unknown", sc: &config.StorageConfig{Driver: "redis"}, wantErr: true},
	}
	for _, tt := range tests {
		got, enabled, err := mapStorageConfig(&config.Config{Storage: tt.sc})
		if (err != nil) != tt.wantErr || enabled != tt.enabled || got != tt.want {
			t.Fatalf("%s: got %+v enabled=%v err=%v", tt.name, got, enabled, err)
		}
	}
}

func TestMapNotifierConfig(t *testing.T) {
	t.Parallel()
	def, err := mapNotifierConfig(&config.Config{})
	if err != nil || def.RatePerSec != 20 || def.SendTimeout != 10*time.Second {
		t.Fatalf("defaults = %+v, %v", def, err)
	}
	got, err := mapNotifierConfig(&config.Config{Notifier: &config.NotifierConfig{RatePerSec: 5, SendTimeout: "3s"}})
	if err != nil || got.SendTimeout != 3*time.Second || got.RatePerSec != 5 {
		t.Fatalf("got %+v, %v", got, err)
	}
	if _, err := mapNotifierConfig(&config.Config{Notifier: &config.NotifierConfig{SendTimeout: "soon"}}); err == nil {
		t.Fatalf("bad duration accepted")
	}
}

func TestMapReminderConfig(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{Reminder: config.ReminderConfig{
		Times:             []string{"1730", "0800"},
		SourceOffsetHours: 7,
		DeliveryTimeout:   "5s",
	}}
	rc, err := mapReminderConfig(cfg)
	if err != nil {
		t.Fatalf("mapReminderConfig: %v", err)
	}
	if !slices.Equal(rc.Times, []reminder.TimeOfDay{{Hour: 8}, {Hour: 17, Minute: 30}}) {
		t.Fatalf("times = %v", rc.Times)
	}
	if rc.Offset != 7*time.Hour || rc.DeliveryTimeout != 5*time.Second {
		t.Fatalf("rc = %+v", rc)
	}

	def, err := mapReminderConfig(&config.Config{})
	if err != nil || !slices.Equal(def.Times, reminder.DefaultTimes) || def.DeliveryTimeout != defaultDeliveryTimeout {
		t.Fatalf("defaults = %+v, %v", def, err)
	}
}

func TestTimesFileWinsOverTimes(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "times.txt")
	if err := os.WriteFile(path, []byte("09 15\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tt, err := reminderTable(config.ReminderConfig{Times: []string{"1600"}, TimesFile: path})
	if err != nil {
		t.Fatalf("reminderTable: %v", err)
	}
	if tt.String() != "09:15" {
		t.Fatalf("table = %s", tt)
	}
	if _, err := reminderTable(config.ReminderConfig{TimesFile: path + ".missing"}); err == nil {
		t.Fatalf("missing times file accepted")
	}
}

func TestReloadKeepsTimesOverride(t *testing.T) {
	t.Parallel()
	s, err := reminder.New(reminder.Config{}, nil, logx.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	a := &App{log: logx.Nop(), sched: s}
	if err := s.SetTimes([]string{"0900"}); err != nil {
		t.Fatal(err)
	}

	textOnly := &config.Config{Reminder: config.ReminderConfig{Text: "clock out"}}
	a.applyReminder(&config.Config{}, textOnly)
	if got := s.Status().Table; got != "09:00" {
		t.Fatalf("table after text reload = %q", got)
	}

	newTimes := &config.Config{Reminder: config.ReminderConfig{Text: "clock out", Times: []string{"1000"}}}
	a.applyReminder(textOnly, newTimes)
	if got := s.Status().Table; got != "10:00" {
		t.Fatalf("table after times reload = %q", got)
	}

	shifted := &config.Config{Reminder: config.ReminderConfig{Text: "clock out", Times: []string{"1000"}, SourceOffsetHours: 2}}
	a.applyReminder(newTimes, shifted)
	if got := s.ListTimes(); !strings.HasSuffix(got, " 12:00:00 UTC") {
		t.Fatalf("ListTimes after offset reload = %q", got)
	}
}

func TestLogTarget(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	if _, ok := logTarget(cfg); ok {
		t.Fatalf("empty group_log resolved")
	}
	cfg.Telegram.GroupLog = "-100123"
	cfg.Logging.Chat.ThreadID = 9
	if got, ok := logTarget(cfg); !ok || got.ChatID != -100123 || got.ThreadID != 9 {
		t.Fatalf("target = %+v %v", got, ok)
	}
	cfg.Telegram.GroupLog = "-100123:4"
	if got, _ := logTarget(cfg); got.ThreadID != 4 {
		t.Fatalf("explicit thread ignored: %+v", got)
	}
}

func TestStateStoreRoundTrip(t *testing.T) {
	t.Parallel()
	st, err := storage.Open(storage.Config{Driver: "file", Path: filepath.Join(t.TempDir(), "state")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ss := stateStore{st: st}
	ctx := context.Background()
	want := []reminder.Channel{{ID: "42", Done: true}, {ID: "-100:7"}}
	if err := ss.SaveChannels(ctx, want); err != nil {
		t.Fatalf("SaveChannels: %v", err)
	}
	got, err := ss.LoadChannels(ctx)
	if err != nil {
		t.Fatalf("LoadChannels: %v", err)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
