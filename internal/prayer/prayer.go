package prayer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smokyabdulrahman/prayer-compass/internal/api"
)

// Key identifies one of the six daily markers. The numeric order is the
// canonical chronological order of a day.
type Key int

const (
	Fajr Key = iota
	Sunrise
	Dhuhr
	Asr
	Maghrib
	Isha
)

// Keys lists every marker in canonical order.
var Keys = []Key{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

var keyStrings = [...]string{"fajr", "sunrise", "dhuhr", "asr", "maghrib", "isha"}

var shortNames = [...]string{"F", "S", "D", "A", "M", "I"}

func (k Key) String() string {
	if k < Fajr || k > Isha {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return keyStrings[k]
}

// Short returns a one-letter abbreviation for status lines.
func (k Key) Short() string {
	if k < Fajr || k > Isha {
		return "?"
	}
	return shortNames[k]
}

// Ezan reports whether the call to prayer belongs to this marker. Sunrise is
// a transitional marker: it is part of the timeline but never gets an adhan
// or an alert.
func (k Key) Ezan() bool {
	return k != Sunrise
}

// ParseKey accepts a key in any case, e.g. "Dhuhr" or "dhuhr".
func ParseKey(s string) (Key, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range keyStrings {
		if name == s {
			return Key(i), nil
		}
	}
	return 0, fmt.Errorf("unknown prayer %q; valid names: %s", s, strings.Join(keyStrings[:], ", "))
}

// ParseKeys parses a comma-separated list such as "fajr,dhuhr,isha".
func ParseKeys(list string) ([]Key, error) {
	var keys []Key
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseKey(part)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Prayer is a named instant. A zero Time means the provider could not
// produce it.
type Prayer struct {
	Key  Key
	Time time.Time
}

// Absent reports whether the instant is missing.
func (p Prayer) Absent() bool {
	return p.Time.IsZero()
}

// Schedule is one calendar day of prayers, ordered by time with absent
// entries removed. Build it with NewSchedule or ParseTimings.
type Schedule []Prayer

var (
	ErrEmptySchedule = errors.New("schedule has no prayer instants")
	ErrUnordered     = errors.New("schedule instants are not strictly increasing")
)

// NewSchedule drops absent entries and checks that the remaining ones are
// in canonical key order with strictly increasing times.
func NewSchedule(entries ...Prayer) (Schedule, error) {
	s := Schedule(entries).present()
	for i := 1; i < len(s); i++ {
		if s[i].Key <= s[i-1].Key {
			return nil, fmt.Errorf("%w: %s listed after %s", ErrUnordered, s[i].Key, s[i-1].Key)
		}
		if !s[i].Time.After(s[i-1].Time) {
			return nil, fmt.Errorf("%w: %s (%s) is not after %s (%s)", ErrUnordered,
				s[i].Key, s[i].Time.Format("15:04"), s[i-1].Key, s[i-1].Time.Format("15:04"))
		}
	}
	return s, nil
}

// Lookup returns the entry for k, if present.
func (s Schedule) Lookup(k Key) (Prayer, bool) {
	for _, p := range s {
		if p.Key == k {
			return p, true
		}
	}
	return Prayer{}, false
}

// Only keeps the entries whose key is listed. An empty list keeps everything.
func (s Schedule) Only(keys []Key) Schedule {
	if len(keys) == 0 {
		return s
	}
	want := make(map[Key]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	out := make(Schedule, 0, len(s))
	for _, p := range s {
		if want[p.Key] {
			out = append(out, p)
		}
	}
	return out
}

// present returns s without absent entries, reusing s when nothing is absent.
func (s Schedule) present() Schedule {
	for i, p := range s {
		if !p.Absent() {
			continue
		}
		out := make(Schedule, i, len(s))
		copy(out, s[:i])
		for _, q := range s[i+1:] {
			if !q.Absent() {
				out = append(out, q)
			}
		}
		return out
	}
	return s
}

// ParseTimings converts provider timings into a Schedule on the given date.
// Empty timing strings are skipped. A marker that falls at or before its
// predecessor (isha after midnight at high latitudes) is moved to the
// following day so the schedule stays strictly increasing.
func ParseTimings(timings api.Timings, date time.Time, loc *time.Location) (Schedule, error) {
	raw := [...]string{
		Fajr:    timings.Fajr,
		Sunrise: timings.Sunrise,
		Dhuhr:   timings.Dhuhr,
		Asr:     timings.Asr,
		Maghrib: timings.Maghrib,
		Isha:    timings.Isha,
	}

	var entries []Prayer
	var prev time.Time
	for _, k := range Keys {
		if strings.TrimSpace(raw[k]) == "" {
			continue
		}
		t, err := parseTimeStr(raw[k], date, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time for %s (%q): %w", k, raw[k], err)
		}
		if !prev.IsZero() && !t.After(prev) {
			t = t.AddDate(0, 0, 1)
		}
		prev = t
		entries = append(entries, Prayer{Key: k, Time: t})
	}

	return NewSchedule(entries...)
}

// parseTimeStr parses "15:02" or "15:02 (+03)" into a time on the given date.
func parseTimeStr(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %q", raw)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, loc), nil
}
