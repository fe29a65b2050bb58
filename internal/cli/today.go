package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-compass/internal/calendar"
	"github.com/smokyabdulrahman/prayer-compass/internal/display"
	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

const barWidth = 24

func runToday(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	now := s.now()
	sp, err := s.load(ctx, now)
	if err != nil {
		return err
	}
	st, err := sp.resolve(now)
	if err != nil {
		return err
	}

	cal, err := loadCalendar(s.cfg)
	if err != nil {
		return err
	}
	holy, hasHoly := cal.Upcoming(now)

	if FlagJSON {
		var upcoming *calendar.Day
		if hasHoly {
			upcoming = &holy
		}
		return printTodayJSON(s, sp.today, st, now, upcoming)
	}

	printTodayRich(s, sp.today, st, now, buildLocationStr(s.loc, sp.today.Meta))
	if hasHoly {
		fmt.Printf("  %s\n\n", formatHolyDay(holy, now, s.lang))
	}
	return nil
}

// printTodayRich renders the colored terminal output for today's prayer schedule.
func printTodayRich(s *session, d dayResult, st prayer.State, now time.Time, locationStr string) {
	fmt.Println()
	fmt.Printf("  %s\n", display.Bold(title(s.lang)))
	fmt.Println()

	fmt.Printf("  %s\n", locationStr)
	fmt.Printf("  %s\n", s.tz)
	fmt.Printf("  %s\n", formatGregorianDate(now, d))
	if hijri := d.Info.Hijri.Format(); hijri != "" {
		fmt.Printf("  %s\n", hijri)
	}
	fmt.Println()

	tbl := display.NewTable(tableHeaders(s.lang, "")...)
	for _, p := range d.Schedule {
		style := rowStyle(p, st, now)
		note := ""
		if style == display.RowNext {
			note = "<- " + prayer.FormatRemaining(st.Remaining)
		}
		tbl.AddRow(style, p.Key.Name(s.lang), p.Time.Format(s.layout), note)
	}
	fmt.Print(tbl.Render())
	fmt.Println()

	fmt.Printf("  %s %s %s\n",
		st.Current.Key.Name(s.lang),
		display.ProgressBar(st.Progress, barWidth),
		display.Boldf("%d%%", int(st.Progress*100)))
	fmt.Println()
}

// rowStyle picks how a prayer is drawn relative to the resolved window.
func rowStyle(p prayer.Prayer, st prayer.State, now time.Time) display.RowStyle {
	switch {
	case p.Key == st.Next.Key && p.Time.Equal(st.NextAt):
		return display.RowNext
	case p.Key == st.Current.Key && p.Time.Equal(st.CurrentAt):
		return display.RowCurrent
	case !p.Time.After(now):
		return display.RowPast
	default:
		return display.RowPlain
	}
}

// tableHeaders returns the localized prayer/time headers followed by extra.
func tableHeaders(lang prayer.Language, extra ...string) []string {
	if lang == prayer.Turkish {
		return append([]string{"Vakit", "Saat"}, extra...)
	}
	return append([]string{"Prayer", "Time"}, extra...)
}

func title(lang prayer.Language) string {
	if lang == prayer.Turkish {
		return "Namaz Vakitleri"
	}
	return "Prayer Times"
}

// formatHolyDay describes the next religious day, e.g.
// "Mevlid Kandili in 4 days (21 Oct 2026)".
func formatHolyDay(d calendar.Day, now time.Time, lang prayer.Language) string {
	n := d.DaysUntil(now)
	date := d.Date.Format("02 Jan 2006")
	name := d.Name(lang)
	if lang == prayer.Turkish {
		if n == 0 {
			return fmt.Sprintf("Bugün %s (%s)", name, date)
		}
		return fmt.Sprintf("%s: %d gün kaldı (%s)", name, n, date)
	}
	switch n {
	case 0:
		return fmt.Sprintf("Today is %s (%s)", name, date)
	case 1:
		return fmt.Sprintf("%s tomorrow (%s)", name, date)
	}
	return fmt.Sprintf("%s in %d days (%s)", name, n, date)
}

// formatGregorianDate returns a formatted Gregorian date string.
// Prefers API data; falls back to formatting `now`.
func formatGregorianDate(now time.Time, d dayResult) string {
	g := d.Info.Gregorian
	if g.Day != "" && g.Month.En != "" && g.Year != "" {
		return g.Day + " " + g.Month.En + " " + g.Year
	}
	return now.Format("02 Jan 2006")
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Location     todayJSONLocation `json:"location"`
	Date         todayJSONDate     `json:"date"`
	Timings      map[string]string `json:"timings"`
	Current      string            `json:"current"`
	Next         todayJSONNext     `json:"next"`
	ReligiousDay *todayJSONHoly    `json:"religious_day,omitempty"`
}

type todayJSONLocation struct {
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type todayJSONDate struct {
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri"`
}

type todayJSONNext struct {
	Prayer    string  `json:"prayer"`
	Time      string  `json:"time"`
	Remaining string  `json:"remaining"`
	Progress  float64 `json:"progress"`
}

type todayJSONHoly struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	DaysUntil int    `json:"days_until"`
}

// printTodayJSON renders structured JSON output.
func printTodayJSON(s *session, d dayResult, st prayer.State, now time.Time, holy *calendar.Day) error {
	timings := make(map[string]string)
	for _, p := range d.Schedule {
		timings[p.Key.String()] = p.Time.Format(s.layout)
	}

	out := todayJSON{
		Location: todayJSONLocation{
			City:      s.loc.City,
			Country:   s.loc.Country,
			Timezone:  s.tz.String(),
			Latitude:  d.Meta.Latitude,
			Longitude: d.Meta.Longitude,
		},
		Date: todayJSONDate{
			Gregorian: formatGregorianDate(now, d),
			Hijri:     d.Info.Hijri.Format(),
		},
		Timings: timings,
		Current: st.Current.Key.String(),
		Next: todayJSONNext{
			Prayer:    st.Next.Key.String(),
			Time:      st.NextAt.Format(s.layout),
			Remaining: prayer.FormatRemaining(st.Remaining),
			Progress:  st.Progress,
		},
	}
	if holy != nil {
		out.ReligiousDay = &todayJSONHoly{
			Name:      holy.Name(s.lang),
			Date:      holy.Date.Format(dateLayout),
			DaysUntil: holy.DaysUntil(now),
		}
	}

	return printJSON(out)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
