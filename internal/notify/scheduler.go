package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

// Notifier delivers an alert to the user.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// LogNotifier writes alerts to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs a at info level. It never fails.
func (n LogNotifier) Notify(_ context.Context, a Alert) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(a.Title, "body", a.Body, "channel", a.Channel, "prayer", a.Key, "at", a.At.Format(time.RFC3339))
	return nil
}

// LoadFunc returns the schedule of the calendar day containing day.
type LoadFunc func(ctx context.Context, day time.Time) (prayer.Schedule, error)

// Config wires a Scheduler.
type Config struct {
	Notifier Notifier
	Load     LoadFunc
	Location *time.Location
	Lead     time.Duration
	Language prayer.Language
	// Enabled reads the user's notification preference. Nil means enabled.
	Enabled func() (bool, error)
	// OnFire is called after every delivered alert.
	OnFire func(Alert)
}

// replanSchedule re-plans shortly after local midnight, once the new day's
// timings are available.
const replanSchedule = "5 0 0 * * *"

// ErrPastAlert is returned by Arm for an alert whose second has already
// started. Cron would otherwise hold it until the same date next year.
var ErrPastAlert = errors.New("alert time has passed")

// Scheduler arms one cron entry per planned alert and refreshes the plan
// every day. It owns no global state: create one per process and Stop it.
type Scheduler struct {
	cfg  Config
	cron *cron.Cron
	now  func() time.Time

	mu    sync.Mutex
	seq   uint64
	armed map[string]armedAlert // by Alert.ID
}

// armedAlert ties an alert to its cron entry. seq tells a replaced entry's
// job apart from the one that replaced it.
type armedAlert struct {
	entry cron.EntryID
	seq   uint64
	alert Alert
}

// NewScheduler returns a stopped scheduler. A nil Location means Local and
// a nil Notifier logs alerts.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Notifier == nil {
		cfg.Notifier = LogNotifier{}
	}
	return &Scheduler{
		cfg:   cfg,
		cron:  cron.New(cron.WithSeconds(), cron.WithLocation(cfg.Location)),
		now:   time.Now,
		armed: make(map[string]armedAlert),
	}
}

// Start plans today's alerts and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(replanSchedule, func() {
		if err := s.Replan(ctx); err != nil {
			slog.Error("re-planning alerts failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("registering daily re-plan: %w", err)
	}

	if err := s.Replan(ctx); err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("alert scheduler started", "alerts", len(s.Armed()))
	return nil
}

// Stop cancels every alert and waits for running deliveries.
func (s *Scheduler) Stop() {
	s.Cancel()
	<-s.cron.Stop().Done()
	slog.Info("alert scheduler stopped")
}

// Replan drops the armed alerts and plans the rest of the current day.
// Nothing is armed when notifications are disabled.
func (s *Scheduler) Replan(ctx context.Context) error {
	s.Cancel()

	if s.cfg.Enabled != nil {
		on, err := s.cfg.Enabled()
		if err != nil {
			return fmt.Errorf("reading notification preference: %w", err)
		}
		if !on {
			slog.Info("notifications disabled, no alerts armed")
			return nil
		}
	}

	now := s.now().In(s.cfg.Location)
	sched, err := s.cfg.Load(ctx, now)
	if err != nil {
		return fmt.Errorf("loading schedule for %s: %w", now.Format("2006-01-02"), err)
	}

	for _, a := range Plan(sched, now, s.cfg.Lead, s.cfg.Language) {
		err := s.Arm(ctx, a)
		if errors.Is(err, ErrPastAlert) {
			slog.Debug("alert skipped", "prayer", a.Key, "channel", a.Channel, "err", err)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Arm registers a one-shot cron entry for a. An alert without an ID gets
// one; arming an ID again replaces the earlier entry. Alerts whose second
// is not in the future are rejected with ErrPastAlert.
func (s *Scheduler) Arm(ctx context.Context, a Alert) error {
	at := a.At.In(s.cfg.Location)
	if now := s.now(); !at.Truncate(time.Second).After(now) {
		return fmt.Errorf("arming %s alert for %s at %s: %w", a.Channel, a.Key, at.Format(time.RFC3339), ErrPastAlert)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	expr := fmt.Sprintf("%d %d %d %d %d *", at.Second(), at.Minute(), at.Hour(), at.Day(), int(at.Month()))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id, seq := a.ID, s.seq
	entry, err := s.cron.AddFunc(expr, func() {
		s.fire(ctx, id, seq)
	})
	if err != nil {
		return fmt.Errorf("arming %s alert for %s: %w", a.Channel, a.Key, err)
	}
	if old, ok := s.armed[id]; ok {
		s.cron.Remove(old.entry)
	}
	s.armed[id] = armedAlert{entry: entry, seq: seq, alert: a}
	slog.Debug("alert armed", "id", id, "prayer", a.Key, "channel", a.Channel, "at", at.Format(time.RFC3339))
	return nil
}

// Cancel removes every armed alert. The daily re-plan stays registered.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, armed := range s.armed {
		s.cron.Remove(armed.entry)
		delete(s.armed, id)
	}
}

// Armed returns the pending alerts ordered by time.
func (s *Scheduler) Armed() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Alert, 0, len(s.armed))
	for _, armed := range s.armed {
		out = append(out, armed.alert)
	}
	sortAlerts(out)
	return out
}

func (s *Scheduler) fire(ctx context.Context, id string, seq uint64) {
	s.mu.Lock()
	armed, ok := s.armed[id]
	ok = ok && armed.seq == seq
	if ok {
		// Cron expressions repeat yearly; an alert fires once.
		s.cron.Remove(armed.entry)
		delete(s.armed, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	a := armed.alert
	if err := s.cfg.Notifier.Notify(ctx, a); err != nil {
		slog.Error("delivering alert failed", "prayer", a.Key, "channel", a.Channel, "err", err)
		return
	}
	if s.cfg.OnFire != nil {
		s.cfg.OnFire(a)
	}
}
