package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-compass/internal/display"
	"github.com/smokyabdulrahman/prayer-compass/internal/notify"
	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
	"github.com/smokyabdulrahman/prayer-compass/internal/store"
)

// testAlertDelay is how long `notifications test` waits before alerting.
const testAlertDelay = 5 * time.Second

func newNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notify"},
		Short:   "Manage prayer alerts",
		Long:    "Turn alerts on or off, inspect today's plan, send a test alert or show\nthe alerts delivered by `watch`. Without a subcommand, shows the status.",
		RunE:    runNotificationsStatus,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "on",
		Short: "Enable alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setNotifications(cmd, true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "off",
		Short: "Disable alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setNotifications(cmd, false)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether alerts are on and what is planned for today",
		RunE:  runNotificationsStatus,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test alert in a few seconds",
		RunE:  runNotificationsTest,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "history [count]",
		Short: "Show recently delivered alerts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runNotificationsHistory,
	})

	return cmd
}

func setNotifications(cmd *cobra.Command, on bool) error {
	db, err := openStore(effectiveConfig(cmd))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SetNotificationsEnabled(cmd.Context(), on); err != nil {
		return err
	}
	fmt.Printf("Notifications %s.\n", onOff(on))
	return nil
}

func onOff(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

type statusJSON struct {
	Enabled bool        `json:"enabled"`
	Planned []alertJSON `json:"planned"`
}

type alertJSON struct {
	Prayer  string `json:"prayer"`
	Channel string `json:"channel"`
	At      string `json:"at"`
	Title   string `json:"title"`
	FiredAt string `json:"fired_at,omitempty"`
}

func runNotificationsStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := effectiveConfig(cmd)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	on, err := db.NotificationsEnabled(ctx)
	if err != nil {
		return err
	}

	var planned []notify.Alert
	var layout string
	if on {
		s, err := newSession(ctx, cmd)
		if err != nil {
			return err
		}
		planned, err = planToday(ctx, s)
		if err != nil {
			return err
		}
		layout = s.layout
	}

	if FlagJSON {
		out := statusJSON{Enabled: on, Planned: []alertJSON{}}
		for _, a := range planned {
			out.Planned = append(out.Planned, alertJSON{
				Prayer:  a.Key.String(),
				Channel: string(a.Channel),
				At:      a.At.Format(time.RFC3339),
				Title:   a.Title,
			})
		}
		return printJSON(out)
	}

	fmt.Printf("  Notifications %s\n", display.Bold(onOff(on)))
	if !on {
		return nil
	}
	if len(planned) == 0 {
		fmt.Println("  No more alerts today.")
		return nil
	}

	fmt.Println()
	tbl := display.NewTable("At", "Channel", "Alert")
	for _, a := range planned {
		tbl.AddRow(display.RowPlain, a.At.Format(layout), string(a.Channel), a.Title)
	}
	fmt.Print(tbl.Render())
	fmt.Println()
	return nil
}

// planToday lists the alerts `watch` would arm for the rest of today.
func planToday(ctx context.Context, s *session) ([]notify.Alert, error) {
	now := s.now()
	sched, err := s.schedule(ctx, now)
	if err != nil {
		return nil, err
	}
	return notify.Plan(sched, now, s.cfg.ReminderLead(int(notify.DefaultLead/time.Minute)), s.lang), nil
}

func runNotificationsTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := effectiveConfig(cmd)
	lang, err := prayer.ParseLanguage(cfg.Language)
	if err != nil {
		return err
	}

	fired := make(chan notify.Alert, 1)
	sched := notify.NewScheduler(notify.Config{
		Notifier: &terminal{w: os.Stdout},
		Load: func(context.Context, time.Time) (prayer.Schedule, error) {
			return nil, nil
		},
		Language: lang,
		OnFire: func(a notify.Alert) {
			fired <- a
		},
	})
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	if err := sched.Arm(ctx, notify.TestAlert(time.Now().Add(testAlertDelay), lang)); err != nil {
		return err
	}
	fmt.Printf("Sending a test alert in %s...\n", testAlertDelay)

	select {
	case <-fired:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(testAlertDelay + 5*time.Second):
		return fmt.Errorf("test alert was not delivered")
	}
}

func runNotificationsHistory(cmd *cobra.Command, args []string) error {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count: %q (must be a positive integer)", args[0])
		}
		limit = n
	}

	cfg := effectiveConfig(cmd)
	lang, err := prayer.ParseLanguage(cfg.Language)
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fired, err := db.RecentAlerts(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if FlagJSON {
		out := make([]alertJSON, 0, len(fired))
		for _, a := range fired {
			out = append(out, alertJSON{
				Prayer:  a.Prayer.String(),
				Channel: string(a.Channel),
				At:      a.ScheduledAt.Format(time.RFC3339),
				Title:   a.Title,
				FiredAt: a.FiredAt.Format(time.RFC3339),
			})
		}
		return printJSON(out)
	}

	if len(fired) == 0 {
		fmt.Println("No alerts delivered yet.")
		return nil
	}
	fmt.Println()
	fmt.Print(historyTable(fired, lang, timeLayout(cfg.TimeFormat)).Render())
	fmt.Println()
	return nil
}

func historyTable(fired []store.FiredAlert, lang prayer.Language, layout string) *display.Table {
	tbl := display.NewTable("Date", "At", "Prayer", "Channel")
	for _, a := range fired {
		local := a.ScheduledAt.Local()
		tbl.AddRow(display.RowPlain, local.Format("Mon 02 Jan"), local.Format(layout), a.Prayer.Name(lang), string(a.Channel))
	}
	return tbl
}
