// Package config provides persistent configuration for prayer-compass.
//
// Configuration is stored as JSON at ~/.config/prayer-compass/config.json
// (XDG-compliant). Every key can be overridden with a PRAYER_COMPASS_<KEY>
// environment variable. The merge priority is: CLI flags > environment >
// config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/smokyabdulrahman/prayer-compass/internal/api"
	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

const (
	configDirName  = "prayer-compass"
	configFileName = "config.json"
	envPrefix      = "PRAYER_COMPASS"
)

// MethodTurkey is the Al Adhan id of the Diyanet calculation method.
const MethodTurkey = 13

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city", "country",
	"latitude", "longitude",
	"method", "school",
	"time_format",
	"prayers",
	"language",
	"reminder_minutes",
	"cache_dir",
	"db_path",
	"calendar_file",
	"log_level",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	City            string  `json:"city,omitempty" mapstructure:"city"`
	Country         string  `json:"country,omitempty" mapstructure:"country"`
	Latitude        float64 `json:"latitude,omitempty" mapstructure:"latitude"`
	Longitude       float64 `json:"longitude,omitempty" mapstructure:"longitude"`
	Method          *int    `json:"method,omitempty" mapstructure:"method"` // pointer so we can distinguish "not set" from 0
	School          *int    `json:"school,omitempty" mapstructure:"school"`
	TimeFormat      string  `json:"time_format,omitempty" mapstructure:"time_format"` // "12h" or "24h"
	Prayers         string  `json:"prayers,omitempty" mapstructure:"prayers"`         // comma-separated list
	Language        string  `json:"language,omitempty" mapstructure:"language"`       // "en" or "tr"
	ReminderMinutes *int    `json:"reminder_minutes,omitempty" mapstructure:"reminder_minutes"`
	CacheDir        string  `json:"cache_dir,omitempty" mapstructure:"cache_dir"`
	DBPath          string  `json:"db_path,omitempty" mapstructure:"db_path"`
	CalendarFile    string  `json:"calendar_file,omitempty" mapstructure:"calendar_file"`
	LogLevel        string  `json:"log_level,omitempty" mapstructure:"log_level"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	method := MethodTurkey
	school := -1
	reminder := 10
	return Config{
		Method:          &method,
		School:          &school,
		TimeFormat:      "24h",
		Language:        string(prayer.English),
		ReminderMinutes: &reminder,
		LogLevel:        "warn",
	}
}

// DetectLanguage picks the display language from a locale string such as
// $LANG ("tr_TR.UTF-8"). Anything other than Turkish maps to English.
func DetectLanguage(locale string) prayer.Language {
	if strings.HasPrefix(strings.ToLower(locale), "tr") {
		return prayer.Turkish
	}
	return prayer.English
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// DefaultDBPath returns the state database location under the config
// directory.
func DefaultDBPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// Load reads the config file from disk and applies environment overrides.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path and applies environment overrides.
// A missing file is not an error. Values coming from the environment are
// validated like `config set` input.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	for _, key := range ValidKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadFile reads only the config file, ignoring the environment. Use it when
// the config is going to be written back.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveTo writes the config to path, creating the directory if needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ResetAt deletes the config file at path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Validate checks every set key as if it had been passed to Set.
func (c *Config) Validate() error {
	var probe Config
	for _, key := range ValidKeys {
		v, err := c.Get(key)
		if err != nil {
			return err
		}
		if v == "" {
			continue
		}
		if err := probe.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "city":
		c.City = value
	case "country":
		c.Country = value
	case "latitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: must be a number", value)
		}
		if v < -90 || v > 90 {
			return fmt.Errorf("invalid latitude %q: must be between -90 and 90", value)
		}
		c.Latitude = v
	case "longitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: must be a number", value)
		}
		if v < -180 || v > 180 {
			return fmt.Errorf("invalid longitude %q: must be between -180 and 180", value)
		}
		c.Longitude = v
	case "method":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid method %q: must be an integer", value)
		}
		if _, ok := api.MethodName(v); !ok {
			return fmt.Errorf("unknown method %q: run `prayer-compass methods` for the list", value)
		}
		c.Method = &v
	case "school":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid school %q: must be an integer", value)
		}
		if _, ok := api.SchoolName(v); !ok {
			return fmt.Errorf("invalid school %q: must be 0 (Shafi) or 1 (Hanafi)", value)
		}
		c.School = &v
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "prayers":
		if _, err := prayer.ParseKeys(value); err != nil {
			return fmt.Errorf("invalid prayers list: %w", err)
		}
		c.Prayers = value
	case "language":
		if _, err := prayer.ParseLanguage(value); err != nil {
			return err
		}
		c.Language = value
	case "reminder_minutes":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid reminder_minutes %q: must be an integer", value)
		}
		if v < 0 || v > 120 {
			return fmt.Errorf("invalid reminder_minutes %q: must be between 0 and 120", value)
		}
		c.ReminderMinutes = &v
	case "cache_dir":
		c.CacheDir = value
	case "db_path":
		c.DBPath = value
	case "calendar_file":
		c.CalendarFile = value
	case "log_level":
		if _, ok := LogLevels[strings.ToLower(value)]; !ok {
			return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", value)
		}
		c.LogLevel = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "city":
		return c.City, nil
	case "country":
		return c.Country, nil
	case "latitude":
		if c.Latitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Latitude, 'f', -1, 64), nil
	case "longitude":
		if c.Longitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Longitude, 'f', -1, 64), nil
	case "method":
		return optionalInt(c.Method), nil
	case "school":
		return optionalInt(c.School), nil
	case "time_format":
		return c.TimeFormat, nil
	case "prayers":
		return c.Prayers, nil
	case "language":
		return c.Language, nil
	case "reminder_minutes":
		return optionalInt(c.ReminderMinutes), nil
	case "cache_dir":
		return c.CacheDir, nil
	case "db_path":
		return c.DBPath, nil
	case "calendar_file":
		return c.CalendarFile, nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

func optionalInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// MethodOrDefault returns the method value, falling back to the given default.
func (c *Config) MethodOrDefault(def int) int {
	if c.Method != nil {
		return *c.Method
	}
	return def
}

// SchoolOrDefault returns the school value, falling back to the given default.
func (c *Config) SchoolOrDefault(def int) int {
	if c.School != nil {
		return *c.School
	}
	return def
}

// ReminderLead returns the reminder lead time, falling back to def minutes.
func (c *Config) ReminderLead(def int) time.Duration {
	m := def
	if c.ReminderMinutes != nil {
		m = *c.ReminderMinutes
	}
	return time.Duration(m) * time.Minute
}
