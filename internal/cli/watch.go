package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-compass/internal/display"
	"github.com/smokyabdulrahman/prayer-compass/internal/metrics"
	"github.com/smokyabdulrahman/prayer-compass/internal/notify"
	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

var (
	flagNoAlerts    bool
	flagMetricsAddr string
)

// historyRetention bounds the alert log kept by watch.
const historyRetention = 30 * 24 * time.Hour

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live countdown with prayer alerts",
		Long: "Redraw the current window every second and alert at each prayer time,\n" +
			"with a reminder a few minutes before. Stop with Ctrl-C.",
		RunE: runWatch,
	}

	cmd.Flags().BoolVar(&flagNoAlerts, "no-alerts", false, "Only show the countdown, never alert")
	cmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().StringVar(&flagPrayers, "prayers", "", "Comma-separated list of prayers to track (overrides config)")

	return cmd
}

// terminal serializes writes from the ticker and the alert scheduler.
type terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func (t *terminal) redraw(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	display.Redraw(t.w, line)
}

// Notify prints the alert on its own line. Ezan alerts ring the bell.
func (t *terminal) Notify(_ context.Context, a notify.Alert) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bell := ""
	if a.Channel == notify.ChannelEzan {
		bell = "\a"
	}
	_, err := fmt.Fprintf(t.w, "\n%s%s  %s\n", bell, display.Yellow(display.Bold(a.Title)), a.Body)
	slog.Info("alert delivered", "prayer", a.Key, "channel", a.Channel)
	return err
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}
	if err := applyPrayersFlag(cmd, s); err != nil {
		return err
	}

	term := &terminal{w: os.Stdout}
	m := metrics.New()

	if flagMetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, flagMetricsAddr); err != nil {
				slog.Error("metrics server failed", "addr", flagMetricsAddr, "err", err)
			}
		}()
	}

	if !flagNoAlerts {
		sched, closeAlerts, err := startAlerts(ctx, s, term, m)
		if err != nil {
			return err
		}
		defer closeAlerts()
		defer sched.Stop()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var sp *span
	for {
		now := s.now()
		if sp == nil || !sp.covers(now) {
			next, err := s.load(ctx, now)
			if err != nil {
				if sp == nil {
					return err
				}
				// Keep the last window and retry on the next tick.
				slog.Warn("reloading timings failed", "err", err)
			} else {
				sp = next
			}
		}

		st, err := sp.resolve(now)
		if err != nil {
			return err
		}
		m.Observe(st)
		term.redraw(watchLine(st, s.lang))

		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-ticker.C:
		}
	}
}

// startAlerts arms the scheduler backed by the state database. The returned
// func closes the database.
func startAlerts(ctx context.Context, s *session, term *terminal, m *metrics.Metrics) (*notify.Scheduler, func(), error) {
	db, err := openStore(s.cfg)
	if err != nil {
		return nil, nil, err
	}

	if n, err := db.PruneAlerts(ctx, time.Now().Add(-historyRetention)); err != nil {
		slog.Warn("pruning alert history failed", "err", err)
	} else if n > 0 {
		slog.Debug("pruned alert history", "rows", n)
	}

	sched := notify.NewScheduler(notify.Config{
		Notifier: term,
		Load:     s.schedule,
		Location: s.tz,
		Lead:     s.cfg.ReminderLead(int(notify.DefaultLead / time.Minute)),
		Language: s.lang,
		Enabled: func() (bool, error) {
			return db.NotificationsEnabled(ctx)
		},
		OnFire: func(a notify.Alert) {
			m.AlertFired(a)
			if err := db.RecordAlert(ctx, a, time.Now()); err != nil {
				slog.Warn("recording alert failed", "id", a.ID, "err", err)
			}
		},
	})
	if err := sched.Start(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return sched, func() { db.Close() }, nil
}

// watchLine renders one frame, e.g. "Dhuhr [#####-----] 52%  Asr 02:14:09".
func watchLine(st prayer.State, lang prayer.Language) string {
	return fmt.Sprintf("%s %s %d%%  %s %s",
		st.Current.Key.Name(lang),
		display.ProgressBar(st.Progress, barWidth),
		int(st.Progress*100),
		display.Accent(st.Next.Key.Name(lang)),
		prayer.FormatClock(st.Remaining))
}
