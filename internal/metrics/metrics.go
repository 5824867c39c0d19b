// Package metrics exposes Prometheus collectors for assistant activity.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "assistant"

// Metrics holds the assistant's collectors.
type Metrics struct {
	intents           *prometheus.CounterVec
	dispatchDuration  *prometheus.HistogramVec
	remindersSet      prometheus.Counter
	remindersFired    prometheus.Counter
	recognitionErrors *prometheus.CounterVec
	failures          *prometheus.CounterVec
	collaboratorUp    *prometheus.GaugeVec
}

// MustNew constructs Metrics and registers them with reg. Registration
// errors panic, mirroring promauto.
func MustNew(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Utterances dispatched, by classified intent.",
		}, []string{"intent"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent handling one utterance, by intent.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
		remindersSet: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_scheduled_total",
			Help:      "Reminders persisted and armed.",
		}),
		remindersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Reminders that came due and were spoken.",
		}),
		recognitionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_errors_total",
			Help:      "Failed speech recognition attempts, by kind.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_failures_total",
			Help:      "Failed or unavailable collaborator calls, by collaborator.",
		}, []string{"collaborator"}),
		collaboratorUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collaborator_up",
			Help:      "Whether the last health probe of a remote collaborator succeeded (1) or not (0).",
		}, []string{"collaborator"}),
	}

	reg.MustRegister(
		m.intents,
		m.dispatchDuration,
		m.remindersSet,
		m.remindersFired,
		m.recognitionErrors,
		m.failures,
		m.collaboratorUp,
	)
	return m
}

// IntentDispatched records one handled utterance.
func (m *Metrics) IntentDispatched(intent string, d time.Duration) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(intent).Inc()
	m.dispatchDuration.WithLabelValues(intent).Observe(d.Seconds())
}

// ReminderScheduled records a newly armed reminder.
func (m *Metrics) ReminderScheduled() {
	if m == nil {
		return
	}
	m.remindersSet.Inc()
}

// ReminderFired records a spoken reminder.
func (m *Metrics) ReminderFired() {
	if m == nil {
		return
	}
	m.remindersFired.Inc()
}

// RecognitionError records a failed listen attempt.
func (m *Metrics) RecognitionError(kind string) {
	if m == nil {
		return
	}
	m.recognitionErrors.WithLabelValues(kind).Inc()
}

// CollaboratorFailure records a failed or unconfigured collaborator.
func (m *Metrics) CollaboratorFailure(collaborator string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(collaborator).Inc()
}

// CollaboratorUp records the latest health probe result.
func (m *Metrics) CollaboratorUp(collaborator string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.collaboratorUp.WithLabelValues(collaborator).Set(v)
}

// Serve exposes g on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
