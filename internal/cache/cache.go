// Package cache stores provider responses on disk so repeated commands on
// the same day work offline and stay fast.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smokyabdulrahman/prayer-compass/internal/api"
	"github.com/smokyabdulrahman/prayer-compass/internal/geo"
)

const (
	timingsCacheFile = "timings_%s.json" // keyed by hash
	qiblaCacheFile   = "qibla_%s.json"
	geoCacheFile     = "geolocation.json"
	geoTTL           = 24 * time.Hour
)

// Cache provides file-based caching for timings, qibla bearings and
// geolocation.
type Cache struct {
	dir string
	now func() time.Time
}

// TimingsEntry stores a day's timings along with metadata for validation.
type TimingsEntry struct {
	Date    string       `json:"date"` // YYYY-MM-DD
	Method  int          `json:"method"`
	School  int          `json:"school"`
	Timings api.Timings  `json:"timings"`
	Day     api.DateInfo `json:"day"`
	Meta    api.Meta     `json:"meta"`
}

// Response rebuilds the provider response the entry was saved from.
func (e *TimingsEntry) Response() *api.Response {
	return &api.Response{
		Code:   200,
		Status: "OK",
		Data:   api.Data{Timings: e.Timings, Date: e.Day, Meta: e.Meta},
	}
}

// GeoEntry stores a cached geolocation result with a timestamp.
type GeoEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

type qiblaEntry struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Direction float64 `json:"direction"`
}

// New creates a Cache rooted at dir.
// If dir is empty, it defaults to ~/.cache/prayer-compass/.
func New(dir string) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine cache directory: %w", err)
		}
		dir = filepath.Join(base, "prayer-compass")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// timingsKey hashes the parameters that affect prayer times so different
// locations and methods get separate cache files.
func timingsKey(date string, q api.Query) string {
	raw := fmt.Sprintf("%s|%.6f|%.6f|%s|%s|%d|%d", date, q.Latitude, q.Longitude, q.City, q.Country, q.Method, q.School)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}

// LoadTimings returns the cached timings of date for q, or nil when missing,
// corrupt or saved for another day.
func (c *Cache) LoadTimings(date time.Time, q api.Query) *TimingsEntry {
	dateStr := date.Format("2006-01-02")
	path := filepath.Join(c.dir, fmt.Sprintf(timingsCacheFile, timingsKey(dateStr, q)))

	var entry TimingsEntry
	if !readJSON(path, &entry) || entry.Date != dateStr {
		return nil
	}
	return &entry
}

// SaveTimings writes the timings of date for q.
func (c *Cache) SaveTimings(date time.Time, q api.Query, resp *api.Response) error {
	dateStr := date.Format("2006-01-02")
	path := filepath.Join(c.dir, fmt.Sprintf(timingsCacheFile, timingsKey(dateStr, q)))

	return writeJSON(path, TimingsEntry{
		Date:    dateStr,
		Method:  q.Method,
		School:  q.School,
		Timings: resp.Data.Timings,
		Day:     resp.Data.Date,
		Meta:    resp.Data.Meta,
	})
}

func qiblaKey(lat, lon float64) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%.4f|%.4f", lat, lon)))
	return fmt.Sprintf("%x", h[:8])
}

// LoadQibla returns the cached qibla bearing for the coordinates. Bearings
// never change for a place, so entries do not expire.
func (c *Cache) LoadQibla(lat, lon float64) (float64, bool) {
	var entry qiblaEntry
	if !readJSON(filepath.Join(c.dir, fmt.Sprintf(qiblaCacheFile, qiblaKey(lat, lon))), &entry) {
		return 0, false
	}
	return entry.Direction, true
}

// SaveQibla stores the qibla bearing for the coordinates.
func (c *Cache) SaveQibla(lat, lon, direction float64) error {
	return writeJSON(filepath.Join(c.dir, fmt.Sprintf(qiblaCacheFile, qiblaKey(lat, lon))), qiblaEntry{
		Latitude:  lat,
		Longitude: lon,
		Direction: direction,
	})
}

// LoadGeo returns the cached geolocation, or nil when missing or older than
// 24 hours.
func (c *Cache) LoadGeo() *geo.Location {
	var entry GeoEntry
	if !readJSON(filepath.Join(c.dir, geoCacheFile), &entry) {
		return nil
	}
	if c.now().Sub(entry.CachedAt) > geoTTL {
		return nil
	}
	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (c *Cache) SaveGeo(loc *geo.Location) error {
	return writeJSON(filepath.Join(c.dir, geoCacheFile), GeoEntry{
		Location: *loc,
		CachedAt: c.now(),
	})
}

func readJSON(path string, out any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}
