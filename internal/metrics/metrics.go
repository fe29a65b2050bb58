// Package metrics exposes the watch loop's state to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smokyabdulrahman/prayer-compass/internal/notify"
	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

// Path is where the handler is mounted.
const Path = "/_metrics"

// Metrics holds the collectors on a private registry so several instances
// can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	remaining   prometheus.Gauge
	progress    prometheus.Gauge
	window      *prometheus.GaugeVec
	alertsFired *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		remaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prayer_compass_remaining_seconds",
			Help: "Seconds until the next prayer",
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prayer_compass_window_progress",
			Help: "Elapsed fraction of the current prayer window",
		}),
		window: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "prayer_compass_window_info",
			Help: "Current and next prayer, always 1",
		}, []string{"current", "next"}),
		alertsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prayer_compass_alerts_fired_total",
			Help: "Alerts delivered",
		}, []string{"channel"}),
	}
	m.registry.MustRegister(m.remaining, m.progress, m.window, m.alertsFired)
	return m
}

// Observe records a resolved window.
func (m *Metrics) Observe(st prayer.State) {
	m.remaining.Set(st.Remaining.Seconds())
	m.progress.Set(st.Progress)
	m.window.Reset()
	m.window.WithLabelValues(st.Current.Key.String(), st.Next.Key.String()).Set(1)
}

// AlertFired counts a delivered alert.
func (m *Metrics) AlertFired(a notify.Alert) {
	m.alertsFired.WithLabelValues(string(a.Channel)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle(Path, m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics exposed", "addr", addr, "path", Path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
