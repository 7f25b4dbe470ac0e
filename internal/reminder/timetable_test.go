package reminder

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "16 00", want: TimeOfDay{Hour: 16}},
		{in: "16:00", want: TimeOfDay{Hour: 16}},
		{in: "1730", want: TimeOfDay{Hour: 17, Minute: 30}},
		{in: "800", want: TimeOfDay{Hour: 8}},
		{in: " 09:05:30 ", want: TimeOfDay{Hour: 9, Minute: 5, Second: 30}},
		{in: "235959", want: TimeOfDay{Hour: 23, Minute: 59, Second: 59}},
		{in: "2400", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
		{in: "", wantErr: true},
		{in: "-1:00", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("ParseTimeOfDay(%q) err = %v, want ErrInvalidFormat", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseTimeOfDay(%q) = %+v, %v", tt.in, got, err)
		}
	}
}

func TestParseTimesSortsAndDedupes(t *testing.T) {
	t.Parallel()
	got, err := ParseTimes([]string{"1730", "08:00", "17 30"})
	if err != nil {
		t.Fatalf("ParseTimes: %v", err)
	}
	want := []TimeOfDay{{Hour: 8}, {Hour: 17, Minute: 30}}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if _, err := ParseTimes([]string{"0800", "nope"}); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("bad batch err = %v", err)
	}
}

func TestReadTimesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	good := filepath.Join(dir, "times.txt")
	if err := os.WriteFile(good, []byte("# reminders\n17 00\n\n16 00\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadTimesFile(good)
	if err != nil {
		t.Fatalf("ReadTimesFile: %v", err)
	}
	if !slices.Equal(got, []TimeOfDay{{Hour: 16}, {Hour: 17}}) {
		t.Fatalf("got %v", got)
	}

	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(bad, []byte("16 00\n25 00\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadTimesFile(bad); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("bad file err = %v", err)
	}

	if _, err := ReadTimesFile(filepath.Join(dir, "missing.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v", err)
	}
}

func TestTimeTableForToday(t *testing.T) {
	t.Parallel()
	tt := NewTimeTable([]TimeOfDay{{Hour: 17}, {Hour: 16}}, OffsetHours(7))
	base := time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)

	got := tt.ForToday(base)
	want := []time.Time{
		time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC),
	}
	if !slices.EqualFunc(got, want, time.Time.Equal) {
		t.Fatalf("ForToday = %v, want %v", got, want)
	}
	if tt.String() != "16:00, 17:00" {
		t.Fatalf("String = %q", tt.String())
	}
	if NewTimeTable(nil, 0).String() != "(none)" {
		t.Fatalf("empty table string")
	}
}

func TestForTodayStaysOnReferenceDay(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 10, 19, 0, 1, 0, 0, time.UTC)
	dayStart := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		times  []TimeOfDay
		offset time.Duration
		want   []time.Time
	}{
		{"east past midnight", []TimeOfDay{{Hour: 18}}, OffsetHours(7), []time.Time{time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)}},
		{"west before midnight", []TimeOfDay{{Hour: 8}}, OffsetHours(-9), []time.Time{time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)}},
		{"more than a day", []TimeOfDay{{Hour: 20}}, OffsetHours(30), []time.Time{time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)}},
		{"mixed order", []TimeOfDay{{Hour: 8}, {Hour: 20}}, OffsetHours(-10), []time.Time{
			time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 10, 19, 22, 0, 0, 0, time.UTC),
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := NewTimeTable(tc.times, tc.offset).ForToday(base)
			if !slices.EqualFunc(got, tc.want, time.Time.Equal) {
				t.Fatalf("ForToday = %v, want %v", got, tc.want)
			}
			for _, at := range got {
				if at.Before(dayStart) || !at.Before(dayStart.Add(24*time.Hour)) {
					t.Fatalf("%v outside reference day", at)
				}
			}
		})
	}
}

func TestOffsetHours(t *testing.T) {
	t.Parallel()
	if got := OffsetHours(-7.5); got != -7*time.Hour-30*time.Minute {
		t.Fatalf("OffsetHours(-7.5) = %v", got)
	}
	at := time.Date(2026, 3, 8, 16, 0, 0, 0, time.UTC)
	if got := ConvertTimezone(at, OffsetHours(8)); !got.Equal(at.Add(8 * time.Hour)) {
		t.Fatalf("ConvertTimezone = %v", got)
	}
}
