// Package telemetry provides Prometheus metrics for the bot and the HTTP
// server that exposes them.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	once sync.Once

	// Counters
	VerdictsTotal         *prometheus.CounterVec
	UniqueChecks          prometheus.Counter
	DeleteFailures        prometheus.Counter
	UnhandledCombinations prometheus.Counter
	TimezonesSet          prometheus.Counter

	// Histograms (seconds)
	ProcessDuration prometheus.Observer
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		VerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "quads_verdicts_total", Help: "Messages classified, by verdict"}, []string{"verdict"})
		UniqueChecks = promauto.NewCounter(prometheus.CounterOpts{Name: "quads_unique_checks_total", Help: "Checks whose key was not in the user's recent cache"})
		DeleteFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "quads_delete_failures_total", Help: "Message deletions rejected by Telegram"})
		UnhandledCombinations = promauto.NewCounter(prometheus.CounterOpts{Name: "quads_unhandled_forward_combinations_total", Help: "Forwarded messages whose verdict pair has no merge entry"})
		TimezonesSet = promauto.NewCounter(prometheus.CounterOpts{Name: "quads_timezones_set_total", Help: "Timezones set from live locations"})
		ProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "quads_process_duration_seconds", Help: "Time to classify and record one message", Buckets: prometheus.DefBuckets})
	})
}

// ObserveVerdict counts one classified message.
func ObserveVerdict(verdict string, unique bool) {
	if VerdictsTotal != nil {
		VerdictsTotal.WithLabelValues(verdict).Inc()
	}
	if unique && UniqueChecks != nil {
		UniqueChecks.Inc()
	}
}

// IncDeleteFailures counts a failed deletion.
func IncDeleteFailures() {
	if DeleteFailures != nil {
		DeleteFailures.Inc()
	}
}

// IncUnhandledCombinations counts a forward merge fault.
func IncUnhandledCombinations() {
	if UnhandledCombinations != nil {
		UnhandledCombinations.Inc()
	}
}

// IncTimezonesSet counts a timezone update.
func IncTimezonesSet() {
	if TimezonesSet != nil {
		TimezonesSet.Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Handler returns the /metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HealthFunc reports whether a dependency is usable.
type HealthFunc func(ctx context.Context) error

// NewMux serves /metrics and /healthz. A nil health always reports ok.
func NewMux(health HealthFunc) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				log.Warn().Err(err).Msg("Health check failed")
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve runs the metrics server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, health HealthFunc) error {
	mux := NewMux(health)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Metrics server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
