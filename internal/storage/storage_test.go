package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	logx "timecardbot/pkg/logx"
)

func openTest(t *testing.T, driver string) Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := Open(Config{Driver: driver, Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open(%s): %v", driver, err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, d := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: d}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = %v, %v; want nil, nil", d, st, err)
		}
	}
	if _, err := Open(Config{Driver: "redis", Path: "x"}, logx.Nop()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestChannelsRoundTrip(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			st := openTest(t, driver)

			got, err := st.LoadChannels(ctx)
			if err != nil || len(got) != 0 {
				t.Fatalf("empty load = %v, %v", got, err)
			}

			want := []ChannelState{{ID: "42"}, {ID: "-100:7", Done: true}, {ID: "9"}}
			in := append(slices.Clone(want), ChannelState{ID: "42", Done: true}, ChannelState{ID: " "})
			if err := st.SaveChannels(ctx, in); err != nil {
				t.Fatalf("SaveChannels: %v", err)
			}
			got, err = st.LoadChannels(ctx)
			if err != nil {
				t.Fatalf("LoadChannels: %v", err)
			}
			if !slices.Equal(got, want) {
				t.Fatalf("LoadChannels = %v, want %v", got, want)
			}

			if err := st.SaveChannels(ctx, want[:1]); err != nil {
				t.Fatalf("SaveChannels: %v", err)
			}
			got, _ = st.LoadChannels(ctx)
			if !slices.Equal(got, want[:1]) {
				t.Fatalf("after shrink = %v", got)
			}

			if err := st.AppendAudit(ctx, AuditEntry{ActorID: 1, Action: "addchannel", Target: "42", OK: true}); err != nil {
				t.Fatalf("AppendAudit: %v", err)
			}
		})
	}
}

func TestFileStoreCorruptState(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.store")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if err := os.WriteFile(filepath.Join(dir, "bot.state.yaml"), []byte("channels: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadChannels(context.Background()); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestFileStoreAuditLines(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "bot")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, a := range []string{"pause", "resume"} {
		if err := st.AppendAudit(ctx, AuditEntry{ActorID: 7, Action: a, OK: true}); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	if err := st.AppendAudit(ctx, AuditEntry{Action: "late"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "bot.audit.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var actions []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		actions = append(actions, e.Action)
	}
	if !slices.Equal(actions, []string{"pause", "resume"}) {
		t.Fatalf("actions = %v", actions)
	}
}
