package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

var (
	flagFormat  string
	flagPrayers string
)

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long:  "Print the next prayer and the time left on one line, for status bars such as\ntmux or polybar. Past the last prayer of the day it counts down to tomorrow's fajr.",
		RunE:  runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatFull, "Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, progress, full, or a custom Go template")
	cmd.Flags().StringVar(&flagPrayers, "prayers", "", "Comma-separated list of prayers to track (overrides config)")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}
	if err := applyPrayersFlag(cmd, s); err != nil {
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

	if FlagJSON {
		return printJSON(nextJSON{
			Current:          st.Current.Key.String(),
			Next:             st.Next.Key.String(),
			At:               st.NextAt.Format(time.RFC3339),
			RemainingSeconds: int64(st.Remaining.Seconds()),
			Progress:         st.Progress,
		})
	}

	fmt.Print(prayer.FormatOutput(st, flagFormat, s.layout, s.lang))
	return nil
}

type nextJSON struct {
	Current          string  `json:"current"`
	Next             string  `json:"next"`
	At               string  `json:"at"`
	RemainingSeconds int64   `json:"remaining_seconds"`
	Progress         float64 `json:"progress"`
}

// applyPrayersFlag narrows the tracked prayers when --prayers is given.
func applyPrayersFlag(cmd *cobra.Command, s *session) error {
	if !cmd.Flags().Changed("prayers") || flagPrayers == "" {
		return nil
	}
	keys, err := prayer.ParseKeys(flagPrayers)
	if err != nil {
		return err
	}
	s.keys = keys
	return nil
}
