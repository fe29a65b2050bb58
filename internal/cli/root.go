package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/prayer-compass/internal/config"
)

// Global flags shared across all subcommands.
var (
	FlagCity       string
	FlagCountry    string
	FlagLatitude   float64
	FlagLongitude  float64
	FlagMethod     int
	FlagSchool     int
	FlagJSON       bool
	FlagCacheDir   string
	FlagTimeFormat string
	FlagLanguage   string
	FlagLogLevel   string
)

// loadedConfig holds the config loaded during PersistentPreRunE.
var loadedConfig *config.Config

// NewRootCmd creates the root command. The version is set by the binary via
// ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prayer-compass",
		Short: "Prayer windows, countdowns and qibla direction",
		Long: "prayer-compass shows where you are in today's prayer windows, counts down to the\n" +
			"next prayer, points you to the qibla and reminds you before each prayer.\n" +
			"Times and bearings come from the Al Adhan API.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			loadedConfig = cfg

			slog.SetDefault(config.NewLogger(os.Stderr, effectiveConfig(cmd).LogLevel))
			return nil
		},
		// Default action: show today's prayer schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagCity, "city", "", "Override city (takes precedence over config)")
	pf.StringVar(&FlagCountry, "country", "", "Override country")
	pf.Float64Var(&FlagLatitude, "latitude", 0, "Override latitude")
	pf.Float64Var(&FlagLongitude, "longitude", 0, "Override longitude")
	pf.IntVar(&FlagMethod, "method", -1, "Calculation method id, see `methods` (default 13, Diyanet)")
	pf.IntVar(&FlagSchool, "school", -1, "Override school (0=Shafi, 1=Hanafi)")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/prayer-compass/)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagLanguage, "language", "", "Display language: en or tr (default from $LANG)")
	pf.StringVar(&FlagLogLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newNextCmd(),
		newListCmd(), newWeekCmd(), newMonthCmd(),
		newWatchCmd(),
		newQiblaCmd(),
		newCalendarCmd(),
		newGuideCmd(),
		newNotificationsCmd(),
		newConfigCmd(), newMethodsCmd(),
	)

	return rootCmd
}

// PrintVersion prints the version string in the expected format.
func PrintVersion(version string) string {
	return fmt.Sprintf("prayer-compass %s\n", version)
}

// effectiveConfig merges the command line over the loaded configuration
// (flags > environment > file > defaults).
func effectiveConfig(cmd *cobra.Command) *config.Config {
	var cfg config.Config
	if loadedConfig != nil {
		cfg = *loadedConfig
	}

	overrides := []struct {
		flag  string
		apply func()
	}{
		{"city", func() { cfg.City = FlagCity }},
		{"country", func() { cfg.Country = FlagCountry }},
		{"latitude", func() { cfg.Latitude = FlagLatitude }},
		{"longitude", func() { cfg.Longitude = FlagLongitude }},
		{"method", func() { cfg.Method = ptr(FlagMethod) }},
		{"school", func() { cfg.School = ptr(FlagSchool) }},
		{"cache-dir", func() { cfg.CacheDir = FlagCacheDir }},
		{"time-format", func() { cfg.TimeFormat = FlagTimeFormat }},
		{"language", func() { cfg.Language = FlagLanguage }},
		{"log-level", func() { cfg.LogLevel = FlagLogLevel }},
	}
	for _, o := range overrides {
		if flagWasSet(cmd.Flags(), cmd.Root().PersistentFlags(), o.flag) {
			o.apply()
		}
	}

	defaults := config.Defaults()
	if cfg.Method == nil {
		cfg.Method = defaults.Method
	}
	if cfg.School == nil {
		cfg.School = defaults.School
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = defaults.TimeFormat
	}
	if cfg.ReminderMinutes == nil {
		cfg.ReminderMinutes = defaults.ReminderMinutes
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.Language == "" {
		cfg.Language = string(config.DetectLanguage(os.Getenv("LANG")))
	}
	return &cfg
}

// flagWasSet reports whether name was given on the command line, as a
// local or an inherited flag.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	for _, fs := range []*pflag.FlagSet{local, persistent} {
		if f := fs.Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T { return &v }
