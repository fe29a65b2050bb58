package cli

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/smokyabdulrahman/prayer-compass/internal/api"
	"github.com/smokyabdulrahman/prayer-compass/internal/config"
	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

// fakeProvider serves timings and qibla bearings and records every path it
// was asked for. Days listed in failing return 500, as does every day
// while down is set.
type fakeProvider struct {
	mu       sync.Mutex
	paths    []string
	fajr     map[string]string // "DD-MM-YYYY" -> fajr time
	failing  map[string]bool
	down     bool
	timezone string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		fajr: map[string]string{
			"16-10-2030": "05:29",
			"17-10-2030": "05:30",
			"18-10-2030": "05:31",
		},
		failing:  map[string]bool{},
		timezone: "UTC",
	}
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	down := f.down
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasPrefix(r.URL.Path, "/qibla/"):
		json.NewEncoder(w).Encode(map[string]any{
			"code":   200,
			"status": "OK",
			"data":   map[string]any{"latitude": 41.0082, "longitude": 28.9784, "direction": 151.62},
		})
	case strings.HasPrefix(r.URL.Path, "/timings"):
		date := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if down || f.failing[date] {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		fajr, ok := f.fajr[date]
		if !ok {
			fajr = "05:30"
		}
		json.NewEncoder(w).Encode(api.Response{
			Code:   200,
			Status: "OK",
			Data: api.Data{
				Timings: api.Timings{
					Fajr:    fajr,
					Sunrise: "06:50",
					Dhuhr:   "12:30",
					Asr:     "15:45",
					Maghrib: "18:20",
					Isha:    "19:40",
				},
				Meta: api.Meta{Latitude: 41.0082, Longitude: 28.9784, Timezone: f.timezone},
			},
		})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeProvider) requested(sub string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.paths {
		if strings.Contains(p, sub) {
			n++
		}
	}
	return n
}

// newTestSession builds a session against f, with coordinates set on the
// command line and the cache in cacheDir.
func newTestSession(t *testing.T, f *fakeProvider, cacheDir string, cfg *config.Config) *session {
	t.Helper()

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	orig := newAPIClient
	newAPIClient = func() *api.Client {
		c := api.NewClient()
		c.BaseURL = srv.URL
		return c
	}
	t.Cleanup(func() { newAPIClient = orig })

	loadedConfig = cfg
	t.Cleanup(func() { loadedConfig = nil })

	root := NewRootCmd("test")
	pf := root.PersistentFlags()
	for name, val := range map[string]string{
		"latitude":  "41.0082",
		"longitude": "28.9784",
		"cache-dir": cacheDir,
		"language":  "en",
	} {
		if err := pf.Set(name, val); err != nil {
			t.Fatalf("setting --%s: %v", name, err)
		}
	}

	s, err := newSession(context.Background(), root)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	return s
}

// at returns a UTC instant in October 2030, away from any real "today" the
// zone lookup might fetch.
func at(day, h, m int) time.Time {
	return time.Date(2030, 10, day, h, m, 0, 0, time.UTC)
}

func TestSession_Defaults(t *testing.T) {
	s := newTestSession(t, newFakeProvider(), t.TempDir(), nil)

	if s.tz != time.UTC {
		t.Errorf("tz = %v, want UTC", s.tz)
	}
	if s.layout != "15:04" {
		t.Errorf("layout = %q, want 15:04", s.layout)
	}
	if s.lang != prayer.English {
		t.Errorf("lang = %v, want English", s.lang)
	}
	if s.query.Method != config.MethodTurkey {
		t.Errorf("method = %d, want %d", s.query.Method, config.MethodTurkey)
	}
	if s.query.ByCity() {
		t.Error("query should be by coordinates")
	}
	if len(s.keys) != 0 {
		t.Errorf("keys = %v, want none", s.keys)
	}
}

func TestSession_LoadMidday(t *testing.T) {
	f := newFakeProvider()
	s := newTestSession(t, f, t.TempDir(), nil)

	now := at(17, 13, 0)
	sp, err := s.load(context.Background(), now)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	st, err := sp.resolve(now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if st.Current.Key != prayer.Dhuhr || st.Next.Key != prayer.Asr {
		t.Errorf("window = %s -> %s, want dhuhr -> asr", st.Current.Key, st.Next.Key)
	}
	if want := 2*time.Hour + 45*time.Minute; st.Remaining != want {
		t.Errorf("Remaining = %v, want %v", st.Remaining, want)
	}

	// Neighbouring days are only loaded when the window needs them.
	if n := f.requested("16-10-2030") + f.requested("18-10-2030"); n != 0 {
		t.Errorf("neighbour requests = %d, want 0", n)
	}
	if !sp.covers(at(17, 19, 0)) {
		t.Error("span should cover the afternoon")
	}
	if sp.covers(at(17, 20, 0)) {
		t.Error("after isha needs tomorrow")
	}
	if sp.covers(at(18, 13, 0)) {
		t.Error("a new day needs a reload")
	}
}

func TestSession_LoadAfterIshaUsesTomorrow(t *testing.T) {
	f := newFakeProvider()
	s := newTestSession(t, f, t.TempDir(), nil)

	now := at(17, 21, 0)
	sp, err := s.load(context.Background(), now)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n := f.requested("18-10-2030"); n != 1 {
		t.Errorf("tomorrow requested %d times, want 1", n)
	}

	st, err := sp.resolve(now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if st.Current.Key != prayer.Isha || st.Next.Key != prayer.Fajr {
		t.Errorf("window = %s -> %s, want isha -> fajr", st.Current.Key, st.Next.Key)
	}
	if !st.NextAt.Equal(at(18, 5, 31)) {
		t.Errorf("NextAt = %v, want tomorrow's 05:31", st.NextAt)
	}
	if !sp.covers(at(17, 23, 59)) {
		t.Error("span should cover the rest of the night")
	}
}

func TestSession_LoadBeforeFajrUsesYesterday(t *testing.T) {
	f := newFakeProvider()
	s := newTestSession(t, f, t.TempDir(), nil)

	now := at(17, 3, 0)
	sp, err := s.load(context.Background(), now)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n := f.requested("16-10-2030"); n != 1 {
		t.Errorf("yesterday requested %d times, want 1", n)
	}

	st, err := sp.resolve(now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if st.Current.Key != prayer.Isha {
		t.Errorf("Current = %s, want isha", st.Current.Key)
	}
	if !st.CurrentAt.Equal(at(16, 19, 40)) || !st.NextAt.Equal(at(17, 5, 30)) {
		t.Errorf("window = %v -> %v, want yesterday 19:40 -> 05:30", st.CurrentAt, st.NextAt)
	}
}

func TestSession_NeighbourFailureFallsBackToToday(t *testing.T) {
	f := newFakeProvider()
	f.failing["18-10-2030"] = true
	s := newTestSession(t, f, t.TempDir(), nil)

	now := at(17, 21, 0)
	sp, err := s.load(context.Background(), now)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	st, err := sp.resolve(now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Today's fajr shifted by a day.
	if !st.NextAt.Equal(at(18, 5, 30)) {
		t.Errorf("NextAt = %v, want 05:30 tomorrow", st.NextAt)
	}
	if !sp.covers(now) {
		t.Error("a failed neighbour is not retried every tick")
	}
}

func TestSession_TodayFailureIsAnError(t *testing.T) {
	f := newFakeProvider()
	f.failing["17-10-2030"] = true
	s := newTestSession(t, f, t.TempDir(), nil)

	if _, err := s.load(context.Background(), at(17, 13, 0)); err == nil {
		t.Error("expected an error when today cannot be fetched")
	}
}

func TestSession_CachesTimings(t *testing.T) {
	f := newFakeProvider()
	dir := t.TempDir()

	s := newTestSession(t, f, dir, nil)
	if _, err := s.day(context.Background(), at(17, 13, 0)); err != nil {
		t.Fatalf("day: %v", err)
	}
	if n := f.requested("17-10-2030"); n != 1 {
		t.Fatalf("requests = %d, want 1", n)
	}

	again := newTestSession(t, f, dir, nil)
	d, err := again.day(context.Background(), at(17, 13, 0))
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if n := f.requested("17-10-2030"); n != 1 {
		t.Errorf("requests = %d, second session should read the cache", n)
	}
	if len(d.Schedule) != 6 {
		t.Errorf("len(Schedule) = %d, want 6", len(d.Schedule))
	}
}

func TestSession_TracksConfiguredPrayers(t *testing.T) {
	s := newTestSession(t, newFakeProvider(), t.TempDir(), &config.Config{Prayers: "fajr,maghrib"})

	sched, err := s.schedule(context.Background(), at(17, 13, 0))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(sched) != 2 || sched[0].Key != prayer.Fajr || sched[1].Key != prayer.Maghrib {
		t.Errorf("schedule = %v, want fajr and maghrib", sched)
	}
}

func TestSession_InvalidPrayersConfig(t *testing.T) {
	loadedConfig = &config.Config{Prayers: "fajr,brunch"}
	t.Cleanup(func() { loadedConfig = nil })

	root := NewRootCmd("test")
	if err := root.PersistentFlags().Set("latitude", "41"); err != nil {
		t.Fatal(err)
	}
	if _, err := newSession(context.Background(), root); err == nil {
		t.Error("expected an error for an unknown prayer")
	}
}

func TestSession_ZoneFromProvider(t *testing.T) {
	f := newFakeProvider()
	f.timezone = "Asia/Tokyo"
	s := newTestSession(t, f, t.TempDir(), nil)

	if got := s.tz.String(); got != "Asia/Tokyo" {
		t.Errorf("tz = %s, want Asia/Tokyo", got)
	}

	d, err := s.day(context.Background(), at(17, 13, 0))
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	fajr, ok := d.Schedule.Lookup(prayer.Fajr)
	if !ok {
		t.Fatal("fajr missing")
	}
	if got := fajr.Time.Location().String(); got != "Asia/Tokyo" {
		t.Errorf("fajr zone = %s, want Asia/Tokyo", got)
	}
}

func TestSession_ZoneOrder(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		detected string
		down     bool
		want     string
	}{
		{"provider beats detected", "Asia/Tokyo", "Europe/Istanbul", false, "Asia/Tokyo"},
		{"detected when provider has none", "", "Europe/Istanbul", false, "Europe/Istanbul"},
		{"detected when provider is down", "Asia/Tokyo", "Europe/Istanbul", true, "Europe/Istanbul"},
		{"local when neither", "", "", false, "Local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeProvider()
			f.timezone = tt.provider
			s := newTestSession(t, f, t.TempDir(), nil)
			s.cache = nil
			s.loc.Timezone = tt.detected

			f.mu.Lock()
			f.down = tt.down
			f.mu.Unlock()

			if err := s.resolveZone(context.Background()); err != nil {
				t.Fatalf("resolveZone: %v", err)
			}
			if got := s.tz.String(); got != tt.want {
				t.Errorf("tz = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSession_ZoneLookupFailsWithoutFallback(t *testing.T) {
	f := newFakeProvider()
	s := newTestSession(t, f, t.TempDir(), nil)
	s.cache = nil
	s.loc.Timezone = ""

	f.mu.Lock()
	f.down = true
	f.mu.Unlock()

	if err := s.resolveZone(context.Background()); err == nil {
		t.Error("expected an error with no zone to fall back to")
	}
}

func TestSession_QiblaBearingIsCached(t *testing.T) {
	f := newFakeProvider()
	s := newTestSession(t, f, t.TempDir(), nil)

	lat, lon, err := s.coordinates(context.Background())
	if err != nil {
		t.Fatalf("coordinates: %v", err)
	}

	for i := 0; i < 2; i++ {
		dir, err := s.qiblaBearing(context.Background(), lat, lon)
		if err != nil {
			t.Fatalf("qiblaBearing: %v", err)
		}
		if math.Abs(dir-151.62) > 1e-9 {
			t.Errorf("bearing = %v, want 151.62", dir)
		}
	}
	if n := f.requested("/qibla/"); n != 1 {
		t.Errorf("qibla requests = %d, want 1", n)
	}
}

func TestResolveLocation(t *testing.T) {
	ctx := context.Background()

	loc, err := resolveLocation(ctx, 41, 29, "Istanbul", "Turkey", nil)
	if err != nil {
		t.Fatal(err)
	}
	if loc.Mode != locationCoords {
		t.Errorf("mode = %v, coordinates win over a city", loc.Mode)
	}

	loc, err = resolveLocation(ctx, 0, 0, "Istanbul", "Turkey", nil)
	if err != nil {
		t.Fatal(err)
	}
	if loc.Mode != locationCity {
		t.Errorf("mode = %v, want city", loc.Mode)
	}

	_, err = resolveLocation(ctx, 0, 0, "Istanbul", "", nil)
	if err == nil || !strings.Contains(err.Error(), "--country") {
		t.Errorf("err = %v, want a hint about --country", err)
	}
}

func TestNeeds(t *testing.T) {
	s := testDay(t)
	clock := func(h, m int) time.Time { return time.Date(2026, 10, 17, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name       string
		sched      prayer.Schedule
		now        time.Time
		prev, next bool
	}{
		{"before fajr", s, clock(3, 0), true, false},
		{"isha starts the wrapped window", s, clock(19, 40), false, true},
		{"empty schedule", nil, clock(3, 0), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, next := needs(tt.sched, tt.now)
			if prev != tt.prev || next != tt.next {
				t.Errorf("needs = (%v, %v), want (%v, %v)", prev, next, tt.prev, tt.next)
			}
		})
	}
}
