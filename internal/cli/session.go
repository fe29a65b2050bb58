package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-compass/internal/api"
	"github.com/smokyabdulrahman/prayer-compass/internal/cache"
	"github.com/smokyabdulrahman/prayer-compass/internal/calendar"
	"github.com/smokyabdulrahman/prayer-compass/internal/config"
	"github.com/smokyabdulrahman/prayer-compass/internal/geo"
	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
	"github.com/smokyabdulrahman/prayer-compass/internal/store"
)

// newAPIClient is swapped in tests to point at an httptest server.
var newAPIClient = api.NewClient

const dateLayout = "2006-01-02"

// locationMode describes how the user specified their location.
type locationMode int

const (
	locationCoords locationMode = iota
	locationCity
	locationAuto
)

// resolvedLocation holds the result of location resolution.
type resolvedLocation struct {
	Mode     locationMode
	Lat, Lon float64
	City     string
	Country  string
	Timezone string // optional hint from geo-detection
}

// dayResult is one parsed day of timings.
type dayResult struct {
	Date     time.Time
	Schedule prayer.Schedule
	Info     api.DateInfo
	Meta     api.Meta
}

// session carries everything a command needs to load prayer times: the
// merged config, the cache, the provider client and the resolved location.
type session struct {
	cfg    *config.Config
	cache  *cache.Cache
	client *api.Client
	loc    resolvedLocation
	query  api.Query
	keys   []prayer.Key
	lang   prayer.Language
	layout string
	tz     *time.Location
}

func newSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg := effectiveConfig(cmd)

	lang, err := prayer.ParseLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}
	keys, err := prayer.ParseKeys(cfg.Prayers)
	if err != nil {
		return nil, err
	}

	// Cache init failure is non-fatal; we just skip caching.
	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		c = nil
		fmt.Fprintf(os.Stderr, "warning: cache disabled: %v\n", err)
	}

	// Priority: CLI flags > config > cached geo > IP auto-detect.
	loc, err := resolveLocation(ctx, cfg.Latitude, cfg.Longitude, cfg.City, cfg.Country, c)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:    cfg,
		cache:  c,
		client: newAPIClient(),
		loc:    loc,
		query: api.Query{
			Latitude:  loc.Lat,
			Longitude: loc.Lon,
			City:      loc.City,
			Country:   loc.Country,
			Method:    cfg.MethodOrDefault(-1),
			School:    cfg.SchoolOrDefault(-1),
		},
		keys:   keys,
		lang:   lang,
		layout: timeLayout(cfg.TimeFormat),
	}

	if err := s.resolveZone(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// resolveZone picks the zone the timings are expressed in: the one the
// provider reports, then the detected one, then Local. A failed lookup is
// only fatal when there is nothing to fall back to.
func (s *session) resolveZone(ctx context.Context) error {
	var tz string
	resp, err := s.fetch(ctx, time.Now())
	switch {
	case err == nil:
		tz = resp.Data.Meta.Timezone
	case s.loc.Timezone == "":
		return err
	default:
		slog.Debug("provider zone unavailable, using detected zone", "zone", s.loc.Timezone, "err", err)
	}
	if tz == "" {
		tz = s.loc.Timezone
	}
	if tz == "" {
		s.tz = time.Local
		return nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	s.tz = loc
	return nil
}

func (s *session) now() time.Time {
	return time.Now().In(s.tz)
}

// fetch returns the provider response for date, using the cache when
// available. Cache writes are best-effort.
func (s *session) fetch(ctx context.Context, date time.Time) (*api.Response, error) {
	if s.cache != nil {
		if entry := s.cache.LoadTimings(date, s.query); entry != nil {
			return entry.Response(), nil
		}
	}

	resp, err := s.client.FetchDay(ctx, date, s.query)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SaveTimings(date, s.query, resp); err != nil {
			slog.Debug("caching timings failed", "date", date.Format(dateLayout), "err", err)
		}
	}
	return resp, nil
}

// day loads and parses the calendar day containing t, restricted to the
// tracked prayers.
func (s *session) day(ctx context.Context, t time.Time) (dayResult, error) {
	t = t.In(s.tz)
	resp, err := s.fetch(ctx, t)
	if err != nil {
		return dayResult{}, err
	}
	sched, err := prayer.ParseTimings(resp.Data.Timings, t, s.tz)
	if err != nil {
		return dayResult{}, err
	}
	return dayResult{
		Date:     time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.tz),
		Schedule: sched.Only(s.keys),
		Info:     resp.Data.Date,
		Meta:     resp.Data.Meta,
	}, nil
}

// schedule satisfies notify.LoadFunc.
func (s *session) schedule(ctx context.Context, t time.Time) (prayer.Schedule, error) {
	d, err := s.day(ctx, t)
	if err != nil {
		return nil, err
	}
	return d.Schedule, nil
}

// span is today's schedule plus whichever neighbouring days were needed to
// resolve the window at load time.
type span struct {
	date      string
	today     dayResult
	prev      prayer.Schedule
	next      prayer.Schedule
	triedPrev bool
	triedNext bool
}

// needs reports which neighbours the window at now depends on.
func needs(s prayer.Schedule, now time.Time) (prev, next bool) {
	if len(s) == 0 {
		return false, false
	}
	return now.Before(s[0].Time), !now.Before(s[len(s)-1].Time)
}

// covers reports whether sp can resolve now without loading more days.
func (sp *span) covers(now time.Time) bool {
	if now.Format(dateLayout) != sp.date {
		return false
	}
	needPrev, needNext := needs(sp.today.Schedule, now)
	return (!needPrev || sp.triedPrev) && (!needNext || sp.triedNext)
}

func (sp *span) resolve(now time.Time) (prayer.State, error) {
	return prayer.ResolveAround(sp.prev, sp.today.Schedule, sp.next, now)
}

// load fetches today and the neighbours now depends on. A neighbour that
// cannot be loaded is left empty; the window then falls back to today's
// times shifted by a day.
func (s *session) load(ctx context.Context, now time.Time) (*span, error) {
	now = now.In(s.tz)
	today, err := s.day(ctx, now)
	if err != nil {
		return nil, err
	}

	sp := &span{date: now.Format(dateLayout), today: today}
	needPrev, needNext := needs(today.Schedule, now)
	if needPrev {
		sp.triedPrev = true
		sp.prev = s.neighbour(ctx, now.AddDate(0, 0, -1))
	}
	if needNext {
		sp.triedNext = true
		sp.next = s.neighbour(ctx, now.AddDate(0, 0, 1))
	}
	return sp, nil
}

func (s *session) neighbour(ctx context.Context, t time.Time) prayer.Schedule {
	d, err := s.day(ctx, t)
	if err != nil {
		slog.Warn("adjacent day unavailable, estimating from today", "date", t.Format(dateLayout), "err", err)
		return nil
	}
	return d.Schedule
}

// loadCalendar returns the religious days, from the configured file when set.
func loadCalendar(cfg *config.Config) (*calendar.Calendar, error) {
	if cfg.CalendarFile == "" {
		return calendar.Default(), nil
	}
	return calendar.Load(cfg.CalendarFile)
}

// openStore opens the state database at the configured or default path.
func openStore(cfg *config.Config) (*store.DB, error) {
	path := cfg.DBPath
	if path == "" {
		p, err := config.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return store.Open(path)
}

// timeLayout maps the user's time_format to a Go layout.
func timeLayout(format string) string {
	if format == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// resolveLocation determines the effective location based on user flags, config, or auto-detection.
// Priority: CLI flags > config > cached geolocation > IP auto-detect.
func resolveLocation(ctx context.Context, lat, lon float64, city, country string, c *cache.Cache) (resolvedLocation, error) {
	switch {
	case lat != 0 || lon != 0:
		return resolvedLocation{Mode: locationCoords, Lat: lat, Lon: lon}, nil
	case city != "":
		if country == "" {
			return resolvedLocation{}, fmt.Errorf("--country is required when using --city")
		}
		return resolvedLocation{Mode: locationCity, City: city, Country: country}, nil
	default:
		if c != nil {
			if cached := c.LoadGeo(); cached != nil {
				return autoLocation(cached), nil
			}
		}

		detected, err := geo.DetectLocation(ctx)
		if err != nil {
			return resolvedLocation{}, fmt.Errorf("no location specified and auto-detection failed: %w", err)
		}

		if c != nil {
			_ = c.SaveGeo(detected) // best-effort
		}
		return autoLocation(detected), nil
	}
}

func autoLocation(l *geo.Location) resolvedLocation {
	return resolvedLocation{
		Mode:     locationAuto,
		Lat:      l.Latitude,
		Lon:      l.Longitude,
		Timezone: l.Timezone,
	}
}

// coordinates returns the location's latitude and longitude. City lookups
// take them from the provider's metadata.
func (s *session) coordinates(ctx context.Context) (float64, float64, error) {
	if s.loc.Mode != locationCity {
		return s.loc.Lat, s.loc.Lon, nil
	}
	d, err := s.day(ctx, s.now())
	if err != nil {
		return 0, 0, err
	}
	return d.Meta.Latitude, d.Meta.Longitude, nil
}

// buildLocationStr builds a "City, Country" string from available data.
func buildLocationStr(loc resolvedLocation, meta api.Meta) string {
	if loc.City != "" && loc.Country != "" {
		return loc.City + ", " + loc.Country
	}
	// Fall back to coordinates.
	return fmt.Sprintf("%.4f, %.4f", meta.Latitude, meta.Longitude)
}
