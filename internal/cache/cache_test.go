package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smokyabdulrahman/prayer-compass/internal/api"
	"github.com/smokyabdulrahman/prayer-compass/internal/geo"
)

var istanbul = api.Query{Latitude: 41.0082, Longitude: 28.9784, Method: 13, School: -1}

func sampleAPIResponse() *api.Response {
	return &api.Response{
		Code:   200,
		Status: "OK",
		Data: api.Data{
			Timings: api.Timings{
				Fajr:    "05:30",
				Sunrise: "06:50",
				Dhuhr:   "12:30",
				Asr:     "15:45",
				Maghrib: "18:20",
				Isha:    "19:40",
			},
			Date: api.DateInfo{
				Readable: "17 Oct 2026",
				Hijri: api.HijriDate{
					Day:   "6",
					Month: api.HijriMonth{Number: 5, En: "Jumādá al-ūlá"},
					Year:  "1448",
				},
			},
			Meta: api.Meta{
				Latitude:  41.0082,
				Longitude: 28.9784,
				Timezone:  "Europe/Istanbul",
				Method:    api.MethodInfo{ID: 13, Name: "Diyanet İşleri Başkanlığı, Turkey"},
			},
		},
	}
}

func newCache(t *testing.T) (*Cache, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New(%q) error: %v", dir, err)
	}
	return c, dir
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir", "cache")
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New(%q) error: %v", dir, err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("directory %q was not created", dir)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
}

// ---------------------------------------------------------------------------
// SaveTimings / LoadTimings
// ---------------------------------------------------------------------------

func TestTimings_RoundTrip(t *testing.T) {
	c, _ := newCache(t)
	date := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	if err := c.SaveTimings(date, istanbul, sampleAPIResponse()); err != nil {
		t.Fatalf("SaveTimings error: %v", err)
	}

	entry := c.LoadTimings(date, istanbul)
	if entry == nil {
		t.Fatal("LoadTimings returned nil after save")
	}
	if entry.Timings.Fajr != "05:30" {
		t.Errorf("Fajr = %q, want %q", entry.Timings.Fajr, "05:30")
	}
	if entry.Timings.Isha != "19:40" {
		t.Errorf("Isha = %q, want %q", entry.Timings.Isha, "19:40")
	}
	if entry.Meta.Timezone != "Europe/Istanbul" {
		t.Errorf("Timezone = %q, want %q", entry.Meta.Timezone, "Europe/Istanbul")
	}

	resp := entry.Response()
	if resp.Code != 200 {
		t.Errorf("Response().Code = %d, want 200", resp.Code)
	}
	if got := resp.Data.Date.Hijri.Format(); got != "6 Jumādá al-ūlá 1448 AH" {
		t.Errorf("Hijri = %q, want the cached date", got)
	}
}

func TestTimings_Misses(t *testing.T) {
	date := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	otherMethod := istanbul
	otherMethod.Method = 3
	byCity := api.Query{City: "Istanbul", Country: "Turkey", Method: 13, School: -1}

	tests := []struct {
		name string
		date time.Time
		q    api.Query
	}{
		{"next day", date.AddDate(0, 0, 1), istanbul},
		{"different method", date, otherMethod},
		{"city instead of coordinates", date, byCity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newCache(t)
			_ = c.SaveTimings(date, istanbul, sampleAPIResponse())

			if entry := c.LoadTimings(tt.date, tt.q); entry != nil {
				t.Errorf("expected cache miss, got %+v", entry)
			}
		})
	}
}

func TestTimings_CacheMiss(t *testing.T) {
	c, _ := newCache(t)
	if entry := c.LoadTimings(time.Now(), istanbul); entry != nil {
		t.Error("expected nil for cache miss, got entry")
	}
}

func TestTimings_CorruptedFile(t *testing.T) {
	c, dir := newCache(t)
	date := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	_ = c.SaveTimings(date, istanbul, sampleAPIResponse())

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		os.WriteFile(filepath.Join(dir, e.Name()), []byte("not-json"), 0o644)
	}

	if entry := c.LoadTimings(date, istanbul); entry != nil {
		t.Error("expected nil for corrupted cache file, got entry")
	}
}

// ---------------------------------------------------------------------------
// SaveQibla / LoadQibla
// ---------------------------------------------------------------------------

func TestQibla_RoundTrip(t *testing.T) {
	c, _ := newCache(t)

	if _, ok := c.LoadQibla(41.0082, 28.9784); ok {
		t.Fatal("expected qibla cache miss before save")
	}
	if err := c.SaveQibla(41.0082, 28.9784, 151.62); err != nil {
		t.Fatalf("SaveQibla error: %v", err)
	}

	got, ok := c.LoadQibla(41.0082, 28.9784)
	if !ok {
		t.Fatal("LoadQibla missed after save")
	}
	if got != 151.62 {
		t.Errorf("LoadQibla = %v, want 151.62", got)
	}

	// Coordinates are keyed at four decimals.
	if _, ok := c.LoadQibla(41.00821, 28.97839); !ok {
		t.Error("expected hit for coordinates equal at four decimals")
	}
	if _, ok := c.LoadQibla(39.93, 32.86); ok {
		t.Error("expected miss for other coordinates")
	}
}

// ---------------------------------------------------------------------------
// SaveGeo / LoadGeo
// ---------------------------------------------------------------------------

func TestGeo_RoundTrip(t *testing.T) {
	c, _ := newCache(t)

	loc := &geo.Location{
		Latitude:  41.0082,
		Longitude: 28.9784,
		City:      "Istanbul",
		Country:   "Turkey",
		Timezone:  "Europe/Istanbul",
	}
	if err := c.SaveGeo(loc); err != nil {
		t.Fatalf("SaveGeo error: %v", err)
	}

	got := c.LoadGeo()
	if got == nil {
		t.Fatal("LoadGeo returned nil after save")
	}
	if *got != *loc {
		t.Errorf("LoadGeo = %+v, want %+v", *got, *loc)
	}
}

func TestGeo_CacheMiss(t *testing.T) {
	c, _ := newCache(t)
	if got := c.LoadGeo(); got != nil {
		t.Error("expected nil for geo cache miss, got entry")
	}
}

func TestGeo_ExpiredTTL(t *testing.T) {
	c, dir := newCache(t)

	entry := GeoEntry{
		Location: geo.Location{City: "Istanbul"},
		CachedAt: time.Now().Add(-25 * time.Hour),
	}
	data, _ := json.Marshal(entry)
	os.WriteFile(filepath.Join(dir, "geolocation.json"), data, 0o644)

	if got := c.LoadGeo(); got != nil {
		t.Error("expected nil for expired geo cache, got entry")
	}
}

func TestGeo_TTLUsesClock(t *testing.T) {
	c, _ := newCache(t)
	base := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	_ = c.SaveGeo(&geo.Location{City: "Istanbul"})

	c.now = func() time.Time { return base.Add(23 * time.Hour) }
	if c.LoadGeo() == nil {
		t.Error("entry should still be valid after 23h")
	}

	c.now = func() time.Time { return base.Add(24*time.Hour + time.Second) }
	if c.LoadGeo() != nil {
		t.Error("entry should expire after 24h")
	}
}

func TestGeo_CorruptedFile(t *testing.T) {
	c, dir := newCache(t)
	os.WriteFile(filepath.Join(dir, "geolocation.json"), []byte("{bad json"), 0o644)

	if got := c.LoadGeo(); got != nil {
		t.Error("expected nil for corrupted geo cache, got entry")
	}
}

// ---------------------------------------------------------------------------
// timingsKey
// ---------------------------------------------------------------------------

func TestTimingsKey_Deterministic(t *testing.T) {
	k1 := timingsKey("2026-10-17", istanbul)
	k2 := timingsKey("2026-10-17", istanbul)
	if k1 != k2 {
		t.Errorf("timingsKey not deterministic: %q != %q", k1, k2)
	}
	// 8 bytes -> 16 hex chars
	if len(k1) != 16 {
		t.Errorf("timingsKey length = %d, want 16", len(k1))
	}
}

func TestTimingsKey_DifferentInputs(t *testing.T) {
	school := istanbul
	school.School = 1
	coords := istanbul
	coords.Latitude = 39.93

	keys := []string{
		timingsKey("2026-10-17", istanbul),
		timingsKey("2026-10-18", istanbul),
		timingsKey("2026-10-17", school),
		timingsKey("2026-10-17", coords),
	}
	seen := make(map[string]bool)
	for _, k := range keys {
		if seen[k] {
			t.Errorf("duplicate cache key: %q", k)
		}
		seen[k] = true
	}
}
