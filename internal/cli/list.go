package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-compass/internal/display"
	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [days]",
		Short: "Show prayer times for multiple days",
		Long:  "Display a grid of prayer times for N days (default: 7).\nUse --prayers to show only some columns, e.g. --prayers fajr,maghrib.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, 7)
		},
	}
	cmd.Flags().StringVar(&flagPrayers, "prayers", "", "Comma-separated list of prayers to show (overrides config)")
	return cmd
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'list 7'. Display a grid of prayer times for 7 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 7)
		},
	}
}

func newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'list 30'. Display a grid of prayer times for 30 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 30)
		},
	}
}

// runList is the handler for the list subcommand.
func runList(cmd *cobra.Command, args []string, defaultDays int) error {
	days := defaultDays
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid number of days: %q (must be a positive integer)", args[0])
		}
		days = n
	}

	ctx := cmd.Context()
	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}
	if err := applyPrayersFlag(cmd, s); err != nil {
		return err
	}

	now := s.now()
	daysList := make([]dayResult, 0, days)
	for i := 0; i < days; i++ {
		d, err := s.day(ctx, now.AddDate(0, 0, i))
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", now.AddDate(0, 0, i).Format(dateLayout), err)
		}
		daysList = append(daysList, d)
	}

	columns := s.keys
	if len(columns) == 0 {
		columns = prayer.Keys
	}
	locationStr := buildLocationStr(s.loc, daysList[0].Meta)

	if FlagJSON {
		return printListJSON(s, daysList)
	}

	fmt.Println()
	fmt.Printf("  %s\n", display.Bold(fmt.Sprintf("%s: %d days", title(s.lang), days)))
	fmt.Println()
	fmt.Printf("  %s\n", locationStr)
	fmt.Println()

	headers := []string{"Date"}
	for _, k := range columns {
		headers = append(headers, k.Name(s.lang))
	}
	tbl := display.NewTable(headers...)

	today := now.Format(dateLayout)
	for _, d := range daysList {
		row := []string{d.Date.Format("Mon 02 Jan")}
		for _, k := range columns {
			cell := "--:--"
			if p, ok := d.Schedule.Lookup(k); ok {
				cell = p.Time.Format(s.layout)
			}
			row = append(row, cell)
		}

		style := display.RowPlain
		if d.Date.Format(dateLayout) == today {
			style = display.RowNext
		}
		tbl.AddRow(style, row...)
	}

	fmt.Print(tbl.Render())
	fmt.Println()
	return nil
}

// listJSONOutput is the JSON structure for the list command.
type listJSONOutput struct {
	Location todayJSONLocation `json:"location"`
	Days     []listJSONDay     `json:"days"`
}

type listJSONDay struct {
	Date    string            `json:"date"`
	Hijri   string            `json:"hijri"`
	Timings map[string]string `json:"timings"`
}

func printListJSON(s *session, daysList []dayResult) error {
	out := listJSONOutput{
		Location: todayJSONLocation{
			City:      s.loc.City,
			Country:   s.loc.Country,
			Timezone:  s.tz.String(),
			Latitude:  daysList[0].Meta.Latitude,
			Longitude: daysList[0].Meta.Longitude,
		},
	}

	for _, d := range daysList {
		timings := make(map[string]string)
		for _, p := range d.Schedule {
			timings[p.Key.String()] = p.Time.Format(s.layout)
		}
		out.Days = append(out.Days, listJSONDay{
			Date:    d.Date.Format(dateLayout),
			Hijri:   d.Info.Hijri.Format(),
			Timings: timings,
		})
	}

	return printJSON(out)
}
