// Package calendar lists upcoming religious days.
package calendar

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

//go:embed days.yaml
var defaultDays []byte

const dateLayout = "2006-01-02"

// Day is a religious day on a civil date.
type Day struct {
	Date  time.Time
	Names map[prayer.Language]string
}

// Name returns the day's name in lang, falling back to English and then to
// any name available.
func (d Day) Name(lang prayer.Language) string {
	if n, ok := d.Names[lang]; ok {
		return n
	}
	if n, ok := d.Names[prayer.English]; ok {
		return n
	}
	for _, n := range d.Names {
		return n
	}
	return ""
}

// DaysUntil counts calendar days from the date of now to d. It is zero on
// the day itself.
func (d Day) DaysUntil(now time.Time) int {
	return int(d.Date.Sub(civil(now)).Hours() / 24)
}

type file struct {
	Days []struct {
		Date  string            `yaml:"date"`
		Names map[string]string `yaml:"names"`
	} `yaml:"days"`
}

// Calendar is an ordered list of days.
type Calendar struct {
	days []Day
}

// Default returns the built-in calendar.
func Default() *Calendar {
	c, err := Parse(defaultDays)
	if err != nil {
		panic(fmt.Sprintf("calendar: embedded days: %v", err))
	}
	return c
}

// Load reads a calendar from a YAML file with the same layout as the
// built-in one.
func Load(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML calendar data.
func Parse(data []byte) (*Calendar, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding calendar: %w", err)
	}

	c := &Calendar{days: make([]Day, 0, len(f.Days))}
	for i, raw := range f.Days {
		date, err := time.Parse(dateLayout, raw.Date)
		if err != nil {
			return nil, fmt.Errorf("day %d: invalid date %q: %w", i+1, raw.Date, err)
		}
		if len(raw.Names) == 0 {
			return nil, fmt.Errorf("day %d (%s): no names", i+1, raw.Date)
		}
		names := make(map[prayer.Language]string, len(raw.Names))
		for lang, n := range raw.Names {
			names[prayer.Language(lang)] = n
		}
		c.days = append(c.days, Day{Date: date, Names: names})
	}

	sort.SliceStable(c.days, func(i, j int) bool {
		return c.days[i].Date.Before(c.days[j].Date)
	})
	return c, nil
}

// Upcoming returns the first day on or after the date of now.
func (c *Calendar) Upcoming(now time.Time) (Day, bool) {
	days := c.From(now, 1)
	if len(days) == 0 {
		return Day{}, false
	}
	return days[0], true
}

// From returns up to n days on or after the date of now. n <= 0 returns all
// of them.
func (c *Calendar) From(now time.Time, n int) []Day {
	today := civil(now)
	i := sort.Search(len(c.days), func(i int) bool {
		return !c.days[i].Date.Before(today)
	})

	rest := c.days[i:]
	if n > 0 && n < len(rest) {
		rest = rest[:n]
	}
	out := make([]Day, len(rest))
	copy(out, rest)
	return out
}

// civil maps the wall-clock date of t to midnight UTC, the representation
// used for Day.Date.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
