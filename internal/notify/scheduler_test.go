package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

type recorder struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *recorder) Notify(_ context.Context, a Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func newTestScheduler(t *testing.T, cfg Config, now time.Time) *Scheduler {
	t.Helper()
	cfg.Location = time.UTC
	if cfg.Load == nil {
		sched := testSchedule(t)
		cfg.Load = func(context.Context, time.Time) (prayer.Schedule, error) {
			return sched, nil
		}
	}
	s := NewScheduler(cfg)
	s.now = func() time.Time { return now }
	return s
}

func TestScheduler_ReplanArmsFutureAlerts(t *testing.T) {
	s := newTestScheduler(t, Config{Notifier: &recorder{}, Lead: DefaultLead}, at(12, 25))

	require.NoError(t, s.Replan(context.Background()))

	armed := s.Armed()
	require.Len(t, armed, 7)
	assert.Equal(t, prayer.Dhuhr, armed[0].Key)
	assert.Equal(t, ChannelEzan, armed[0].Channel)
}

func TestScheduler_ReplanReplacesPreviousPlan(t *testing.T) {
	s := newTestScheduler(t, Config{Notifier: &recorder{}, Lead: DefaultLead}, at(0, 0))

	require.NoError(t, s.Replan(context.Background()))
	require.Len(t, s.Armed(), 10)

	s.now = func() time.Time { return at(18, 0) }
	require.NoError(t, s.Replan(context.Background()))
	assert.Len(t, s.Armed(), 4)
}

func TestScheduler_Cancel(t *testing.T) {
	s := newTestScheduler(t, Config{Notifier: &recorder{}, Lead: DefaultLead}, at(0, 0))

	require.NoError(t, s.Replan(context.Background()))
	s.Cancel()

	assert.Empty(t, s.Armed())
	assert.Empty(t, s.cron.Entries())
}

func TestScheduler_DisabledArmsNothing(t *testing.T) {
	cfg := Config{
		Notifier: &recorder{},
		Lead:     DefaultLead,
		Enabled:  func() (bool, error) { return false, nil },
	}
	s := newTestScheduler(t, cfg, at(0, 0))

	require.NoError(t, s.Replan(context.Background()))
	assert.Empty(t, s.Armed())
}

func TestScheduler_PreferenceError(t *testing.T) {
	boom := errors.New("db locked")
	cfg := Config{Enabled: func() (bool, error) { return false, boom }}
	s := newTestScheduler(t, cfg, at(0, 0))

	err := s.Replan(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestScheduler_LoadError(t *testing.T) {
	boom := errors.New("offline")
	cfg := Config{Load: func(context.Context, time.Time) (prayer.Schedule, error) {
		return nil, boom
	}}
	s := newTestScheduler(t, cfg, at(0, 0))

	err := s.Replan(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "2026-10-17")
}

func TestScheduler_FiresOnce(t *testing.T) {
	rec := &recorder{}
	var fired []Alert
	var mu sync.Mutex
	cfg := Config{
		Notifier: rec,
		Load: func(context.Context, time.Time) (prayer.Schedule, error) {
			return nil, nil
		},
		OnFire: func(a Alert) {
			mu.Lock()
			defer mu.Unlock()
			fired = append(fired, a)
		},
	}
	s := newTestScheduler(t, cfg, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	alert := Alert{ID: "soon", Key: prayer.Asr, Channel: ChannelEzan, At: time.Now().Add(2 * time.Second)}
	require.NoError(t, s.Arm(ctx, alert))
	require.Len(t, s.Armed(), 1)

	require.Eventually(t, func() bool { return rec.count() == 1 }, 5*time.Second, 50*time.Millisecond)
	assert.Empty(t, s.Armed(), "fired alert should be disarmed")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, fired, 1)
	assert.Equal(t, "soon", fired[0].ID)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	a := Alert{Key: prayer.Asr, Channel: ChannelReminder, At: at(15, 35), Title: "Asr in 10 minutes", Body: "Get ready for Asr."}
	require.NoError(t, n.Notify(context.Background(), a))

	out := buf.String()
	assert.Contains(t, out, `msg="Asr in 10 minutes"`)
	assert.Contains(t, out, "channel=reminder")
	assert.Contains(t, out, "prayer=asr")
	assert.Contains(t, out, "at=2026-10-17T15:35:00Z")
}

func TestScheduler_TestAlertFires(t *testing.T) {
	rec := &recorder{}
	fired := make(chan Alert, 1)
	s := NewScheduler(Config{
		Notifier: rec,
		Location: time.UTC,
		Load: func(context.Context, time.Time) (prayer.Schedule, error) {
			return nil, nil
		},
		OnFire: func(a Alert) { fired <- a },
	})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	require.Empty(t, s.Armed())

	a := TestAlert(time.Now().Add(2*time.Second), prayer.English)
	require.NoError(t, s.Arm(context.Background(), a))

	select {
	case got := <-fired:
		assert.Equal(t, a.ID, got.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("test alert did not fire")
	}
	assert.Empty(t, s.Armed())
}

func TestScheduler_ArmRejectsPastAlerts(t *testing.T) {
	now := at(12, 0)
	s := newTestScheduler(t, Config{Notifier: &recorder{}}, now)

	tests := []struct {
		name string
		at   time.Time
		err  error
	}{
		{"earlier", now.Add(-time.Minute), ErrPastAlert},
		{"same instant", now, ErrPastAlert},
		{"later in the same second", now.Add(500 * time.Millisecond), ErrPastAlert},
		{"next second", now.Add(time.Second), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Arm(context.Background(), Alert{Key: prayer.Dhuhr, Channel: ChannelEzan, At: tt.at})
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
		})
	}
	assert.Len(t, s.Armed(), 1)
}

func TestScheduler_ReplanSkipsAlertsThatPassed(t *testing.T) {
	s := newTestScheduler(t, Config{Notifier: &recorder{}, Lead: DefaultLead}, at(12, 25))
	// The clock reaches dhuhr between planning and arming.
	calls := 0
	s.now = func() time.Time {
		calls++
		if calls == 1 {
			return at(12, 25)
		}
		return at(12, 30)
	}

	require.NoError(t, s.Replan(context.Background()))

	armed := s.Armed()
	require.Len(t, armed, 6)
	for _, a := range armed {
		assert.True(t, a.At.After(at(12, 30)), "%s %s should have been skipped", a.Key, a.Channel)
	}
}

func TestScheduler_ArmAssignsID(t *testing.T) {
	s := newTestScheduler(t, Config{Notifier: &recorder{}}, at(12, 0))

	require.NoError(t, s.Arm(context.Background(), Alert{Key: prayer.Asr, Channel: ChannelEzan, At: at(15, 45)}))

	armed := s.Armed()
	require.Len(t, armed, 1)
	assert.NotEmpty(t, armed[0].ID)
}

func TestScheduler_ArmReplacesSameID(t *testing.T) {
	s := newTestScheduler(t, Config{Notifier: &recorder{}}, at(12, 0))
	ctx := context.Background()

	require.NoError(t, s.Arm(ctx, Alert{ID: "asr", Key: prayer.Asr, Channel: ChannelEzan, At: at(15, 45)}))
	require.NoError(t, s.Arm(ctx, Alert{ID: "asr", Key: prayer.Asr, Channel: ChannelEzan, At: at(15, 50)}))

	armed := s.Armed()
	require.Len(t, armed, 1)
	assert.Equal(t, at(15, 50), armed[0].At)
	assert.Len(t, s.cron.Entries(), 1)
}

// Alerts armed from several goroutines while the cron loop is running and
// firing must each be delivered exactly once.
func TestScheduler_ArmWhileRunning(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(Config{
		Notifier: rec,
		Location: time.UTC,
		Load: func(context.Context, time.Time) (prayer.Schedule, error) {
			return nil, nil
		},
	})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	const n = 8
	fireAt := time.Now().Add(2 * time.Second)
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Arm(context.Background(), Alert{Key: prayer.Asr, Channel: ChannelEzan, At: fireAt})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, s.Armed(), n)

	require.Eventually(t, func() bool { return rec.count() == n }, 5*time.Second, 50*time.Millisecond)
	assert.Empty(t, s.Armed())
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, n, rec.count(), "each alert fires once")
}
