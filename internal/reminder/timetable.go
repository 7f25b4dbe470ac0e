package reminder

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time in the source region.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func (t TimeOfDay) valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 &&
		t.Minute >= 0 && t.Minute <= 59 &&
		t.Second >= 0 && t.Second <= 59
}

func (t TimeOfDay) seconds() int { return t.Hour*3600 + t.Minute*60 + t.Second }

func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses a single entry.
//
// Accepted forms: "HH MM", "HH:MM", "HHMM", "HMM", and the same with a
// trailing seconds part ("HH MM SS", "HH:MM:SS", "HHMMSS").
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return TimeOfDay{}, fmt.Errorf("%w: empty entry", ErrInvalidFormat)
	}

	var parts []string
	if strings.ContainsAny(s, " \t:") {
		parts = strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == ':' })
	} else {
		switch len(s) {
		case 3:
			parts = []string{s[:1], s[1:]}
		case 4:
			parts = []string{s[:2], s[2:]}
		case 6:
			parts = []string{s[:2], s[2:4], s[4:]}
		default:
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
		}
	}
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
		}
		nums[i] = n
	}
	t := TimeOfDay{Hour: nums[0], Minute: nums[1], Second: nums[2]}
	if !t.valid() {
		return TimeOfDay{}, fmt.Errorf("%w: %q out of range", ErrInvalidFormat, raw)
	}
	return t, nil
}

// ParseTimes parses a batch of entries. A single bad entry rejects the whole
// batch. The result is sorted and free of duplicates.
func ParseTimes(entries []string) ([]TimeOfDay, error) {
	out := make([]TimeOfDay, 0, len(entries))
	for _, e := range entries {
		t, err := ParseTimeOfDay(e)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return normalizeTimes(out), nil
}

func normalizeTimes(in []TimeOfDay) []TimeOfDay {
	out := append([]TimeOfDay(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].seconds() < out[j].seconds() })
	n := 0
	for i, t := range out {
		if i > 0 && t == out[n-1] {
			continue
		}
		out[n] = t
		n++
	}
	return out[:n]
}

// ReadTimesFile reads one entry per line. Blank lines and lines starting with
// '#' are ignored; any malformed line fails the whole file.
func ReadTimesFile(path string) ([]TimeOfDay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []string
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if _, err := ParseTimeOfDay(s); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		entries = append(entries, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ParseTimes(entries)
}

// TimeTable is an immutable ordered set of times of day plus the fixed offset
// that maps the source wall clock onto the reference clock.
type TimeTable struct {
	entries []TimeOfDay
	offset  time.Duration
}

// NewTimeTable copies and normalizes entries.
func NewTimeTable(entries []TimeOfDay, offset time.Duration) TimeTable {
	return TimeTable{entries: normalizeTimes(entries), offset: offset}
}

// Entries returns a copy of the table's times of day.
func (tt TimeTable) Entries() []TimeOfDay { return append([]TimeOfDay(nil), tt.entries...) }

func (tt TimeTable) Offset() time.Duration { return tt.offset }

func (tt TimeTable) Len() int { return len(tt.entries) }

// WithOffset returns a copy of the table using a different source offset.
func (tt TimeTable) WithOffset(offset time.Duration) TimeTable {
	return TimeTable{entries: tt.entries, offset: offset}
}

// ForToday returns the table's instants for the reference day of baseline,
// ascending. Converted instants that cross midnight are folded back into
// [dayStart, dayStart+24h) of baseline's UTC day. Instants may be in the past
// relative to baseline; callers skip those.
func (tt TimeTable) ForToday(baseline time.Time) []time.Time {
	dayStart := todayAt(baseline, TimeOfDay{})
	out := make([]time.Time, 0, len(tt.entries))
	for _, e := range tt.entries {
		out = append(out, foldIntoDay(ConvertTimezone(todayAt(baseline, e), tt.offset), dayStart))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func foldIntoDay(t, dayStart time.Time) time.Time {
	d := t.Sub(dayStart) % (24 * time.Hour)
	if d < 0 {
		d += 24 * time.Hour
	}
	return dayStart.Add(d)
}

func (tt TimeTable) String() string {
	if len(tt.entries) == 0 {
		return "(none)"
	}
	parts := make([]string, len(tt.entries))
	for i, e := range tt.entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// ConvertTimezone maps a source wall-clock instant onto the reference clock by
// adding a constant offset. No daylight saving logic is applied.
func ConvertTimezone(t time.Time, offset time.Duration) time.Time {
	return t.Add(offset)
}

func todayAt(baseline time.Time, t TimeOfDay) time.Time {
	b := baseline.UTC()
	return time.Date(b.Year(), b.Month(), b.Day(), t.Hour, t.Minute, t.Second, 0, time.UTC)
}

// OffsetHours converts a fractional hour offset from config into a duration.
func OffsetHours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
