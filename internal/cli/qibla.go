package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-compass/internal/display"
	"github.com/smokyabdulrahman/prayer-compass/internal/qibla"
)

var (
	flagHeading float64
	flagSource  string
)

func newQiblaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qibla",
		Short: "Show the qibla bearing and how far to turn",
		Long: "Print the bearing of the qibla from your location, clockwise from north.\n\n" +
			"With --heading, compare it with a compass reading. With --source, follow a\n" +
			"stream of readings, one per line as \"<true> [<magnetic>]\" where a true\n" +
			"heading of -1 means only the magnetic one is known. Use --source - for stdin.",
		RunE: runQibla,
	}

	cmd.Flags().Float64Var(&flagHeading, "heading", 0, "Current compass heading in degrees")
	cmd.Flags().StringVar(&flagSource, "source", "", "File or pipe to read headings from (- for stdin)")

	return cmd
}

// qiblaJSON is the JSON output structure for the qibla command.
type qiblaJSON struct {
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Bearing    float64  `json:"bearing"`
	Heading    *float64 `json:"heading,omitempty"`
	Difference *float64 `json:"difference,omitempty"`
	Alignment  string   `json:"alignment,omitempty"`
	Direction  string   `json:"direction,omitempty"`
}

func runQibla(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	lat, lon, err := s.coordinates(ctx)
	if err != nil {
		return err
	}
	dir, err := s.qiblaBearing(ctx, lat, lon)
	if err != nil {
		return err
	}
	target := qibla.Degrees(dir)

	var src qibla.Source
	switch {
	case flagSource != "":
		src = qibla.ReaderSource{Open: openHeadingSource(flagSource)}
	case cmd.Flags().Changed("heading"):
		src = qibla.StaticSource{Heading: qibla.Degrees(flagHeading)}
	}

	if FlagJSON {
		return printQiblaJSON(ctx, lat, lon, target, src)
	}

	fmt.Printf("  %s %s\n", display.Bold("Qibla"), display.Accent(target.String()))
	if src == nil {
		return nil
	}

	for heading, err := range src.Readings(ctx) {
		if err != nil {
			return err
		}
		display.Redraw(os.Stdout, alignmentLine(target, heading, qibla.DefaultTolerance))
	}
	if display.Enabled() {
		fmt.Println()
	}
	return nil
}

// qiblaBearing returns the qibla direction for the coordinates, from the
// cache when possible.
func (s *session) qiblaBearing(ctx context.Context, lat, lon float64) (float64, error) {
	if s.cache != nil {
		if dir, ok := s.cache.LoadQibla(lat, lon); ok {
			return dir, nil
		}
	}

	dir, err := s.client.FetchQibla(ctx, lat, lon)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SaveQibla(lat, lon, dir); err != nil {
			slog.Debug("caching qibla bearing failed", "err", err)
		}
	}
	return dir, nil
}

func openHeadingSource(path string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		if path == "-" {
			return io.NopCloser(os.Stdin), nil
		}
		return os.Open(path)
	}
}

// alignmentLine renders a heading against the target, e.g.
// "heading 120°  +25°  off  turn right".
func alignmentLine(target, heading qibla.Bearing, tol qibla.Tolerance) string {
	diff, ok := qibla.AngularDifference(target, heading)
	verdict := tol.Classify(diff, ok)

	label := verdict.String()
	switch verdict {
	case qibla.Aligned:
		label = display.Green(label)
	case qibla.Close:
		label = display.Yellow(label)
	case qibla.Off:
		label = display.Red(label)
	}

	delta := "--°"
	if ok {
		delta = fmt.Sprintf("%+.0f°", diff)
	}

	line := fmt.Sprintf("heading %s  %s  %s", heading, delta, label)
	if d := qibla.Direction(diff, ok); d != "" && verdict != qibla.Aligned {
		line += "  " + d
	}
	return line
}

func printQiblaJSON(ctx context.Context, lat, lon float64, target qibla.Bearing, src qibla.Source) error {
	bearing, _ := target.Value()
	out := qiblaJSON{Latitude: lat, Longitude: lon, Bearing: bearing}
	if src == nil {
		return printJSON(out)
	}

	// One object per reading.
	for heading, err := range src.Readings(ctx) {
		if err != nil {
			return err
		}
		reading := out
		if h, ok := heading.Value(); ok {
			reading.Heading = &h
		}
		diff, ok := qibla.AngularDifference(target, heading)
		if ok {
			reading.Difference = &diff
		}
		reading.Alignment = qibla.DefaultTolerance.Classify(diff, ok).String()
		reading.Direction = qibla.Direction(diff, ok)
		if err := printJSON(reading); err != nil {
			return err
		}
	}
	return nil
}
