package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-compass/internal/display"
	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

func newCalendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [count]",
		Short: "List upcoming religious days",
		Long: "List the religious days from today on, optionally only the first <count>.\n" +
			"Set calendar_file to use your own YAML list instead of the built-in one.",
		Args: cobra.MaximumNArgs(1),
		RunE: runCalendar,
	}
}

type calendarJSONDay struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	DaysUntil int    `json:"days_until"`
}

func runCalendar(cmd *cobra.Command, args []string) error {
	count := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count: %q (must be a positive integer)", args[0])
		}
		count = n
	}

	cfg := effectiveConfig(cmd)
	lang, err := prayer.ParseLanguage(cfg.Language)
	if err != nil {
		return err
	}
	cal, err := loadCalendar(cfg)
	if err != nil {
		return err
	}

	now := time.Now()
	days := cal.From(now, count)

	if FlagJSON {
		out := make([]calendarJSONDay, 0, len(days))
		for _, d := range days {
			out = append(out, calendarJSONDay{
				Date:      d.Date.Format(dateLayout),
				Name:      d.Name(lang),
				DaysUntil: d.DaysUntil(now),
			})
		}
		return printJSON(out)
	}

	if len(days) == 0 {
		fmt.Println("No upcoming religious days in the calendar.")
		return nil
	}

	tbl := display.NewTable("Date", "Day", "In")
	if lang == prayer.Turkish {
		tbl = display.NewTable("Tarih", "Gün", "Kalan")
	}
	for i, d := range days {
		style := display.RowPlain
		if i == 0 {
			style = display.RowNext
		}
		tbl.AddRow(style, d.Date.Format("Mon 02 Jan 2006"), d.Name(lang), formatDaysUntil(d.DaysUntil(now), lang))
	}

	fmt.Println()
	fmt.Print(tbl.Render())
	fmt.Println()
	return nil
}

func formatDaysUntil(n int, lang prayer.Language) string {
	if lang == prayer.Turkish {
		if n == 0 {
			return "bugün"
		}
		return fmt.Sprintf("%d gün", n)
	}
	switch n {
	case 0:
		return "today"
	case 1:
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
