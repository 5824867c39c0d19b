// Package connwatch tracks whether the assistant's remote collaborators
// (language model endpoint, MQTT broker) are reachable.
//
// Each Watcher probes one service: first with exponential backoff until
// the first success or MaxRetries, then on a fixed poll interval,
// reporting ready/down transitions through callbacks. It complements
// httpkit's per-request retry, which only covers sub-second dial errors.
package connwatch

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ProbeFunc checks whether a service is reachable. Return nil if healthy.
type ProbeFunc func(ctx context.Context) error

// Backoff controls probe timing.
type Backoff struct {
	InitialDelay time.Duration // default 2s
	MaxDelay     time.Duration // default 60s
	Multiplier   float64       // default 2
	MaxRetries   int           // startup attempts, default 10
	PollInterval time.Duration // default 60s
	ProbeTimeout time.Duration // default 10s
}

// DefaultBackoff returns 2s, 4s, 8s ... capped at 60s, ten startup
// attempts and one-minute polling.
func DefaultBackoff() Backoff {
	return Backoff{
		InitialDelay: 2 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2,
		MaxRetries:   10,
		PollInterval: 60 * time.Second,
		ProbeTimeout: 10 * time.Second,
	}
}

func (b Backoff) withDefaults() Backoff {
	d := DefaultBackoff()
	if b.InitialDelay <= 0 {
		b.InitialDelay = d.InitialDelay
	}
	if b.MaxDelay <= 0 {
		b.MaxDelay = d.MaxDelay
	}
	if b.Multiplier <= 0 {
		b.Multiplier = d.Multiplier
	}
	if b.MaxRetries <= 0 {
		b.MaxRetries = d.MaxRetries
	}
	if b.PollInterval <= 0 {
		b.PollInterval = d.PollInterval
	}
	if b.ProbeTimeout <= 0 {
		b.ProbeTimeout = d.ProbeTimeout
	}
	return b
}

// Service describes one watched collaborator.
type Service struct {
	Name    string
	Probe   ProbeFunc
	Backoff Backoff

	// OnChange is called synchronously from the watcher goroutine on
	// every ready/down transition, including the first successful
	// probe. Optional; must not block.
	OnChange func(ready bool, err error)
}

// Status is a point-in-time health report.
type Status struct {
	Name      string    `json:"name"`
	Ready     bool      `json:"ready"`
	LastCheck time.Time `json:"last_check"`
	LastError string    `json:"last_error,omitempty"`
}

// Watcher monitors a single service.
type Watcher struct {
	svc    Service
	logger *slog.Logger
	ready  atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	lastErr   error
	lastCheck time.Time
	reported  bool
}

// Ready reports whether the last probe succeeded.
func (w *Watcher) Ready() bool {
	return w.ready.Load()
}

// Status returns the current health report.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Status{Name: w.svc.Name, Ready: w.ready.Load(), LastCheck: w.lastCheck}
	if w.lastErr != nil {
		s.LastError = w.lastErr.Error()
	}
	return s
}

// Stop cancels the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.cancel()
	<-w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	b := w.svc.Backoff
	delay := b.InitialDelay
	for attempt := 1; attempt <= b.MaxRetries; attempt++ {
		if w.check(ctx) {
			w.logger.Info("service reachable", "service", w.svc.Name, "attempts", attempt)
			break
		}
		if attempt == b.MaxRetries {
			w.logger.Info("startup probes exhausted, polling in background",
				"service", w.svc.Name, "attempts", attempt, "error", w.Status().LastError)
			break
		}
		if !sleepCtx(ctx, delay) {
			return
		}
		delay = min(time.Duration(float64(delay)*b.Multiplier), b.MaxDelay)
	}

	ticker := time.NewTicker(b.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check probes once, records the result, and fires OnChange on the
// first result and on every transition. It reports whether the service
// is ready.
func (w *Watcher) check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, w.svc.Backoff.ProbeTimeout)
	err := w.svc.Probe(probeCtx)
	cancel()
	if ctx.Err() != nil {
		return false
	}

	ready := err == nil
	w.mu.Lock()
	w.lastErr = err
	w.lastCheck = time.Now()
	first := !w.reported
	w.reported = true
	w.mu.Unlock()

	if prev := w.ready.Swap(ready); first || prev != ready {
		if ready {
			w.logger.Debug("service ready", "service", w.svc.Name)
		} else {
			w.logger.Warn("service unreachable", "service", w.svc.Name, "error", err)
		}
		if w.svc.OnChange != nil {
			w.svc.OnChange(ready, err)
		}
	}
	return ready
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Manager owns the watchers of one process.
type Manager struct {
	logger *slog.Logger

	mu       sync.Mutex
	watchers map[string]*Watcher
}

// NewManager creates an empty manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{logger: logger, watchers: make(map[string]*Watcher)}
}

// Watch starts a watcher for svc that runs until ctx is cancelled or
// Stop is called. Name and Probe are required.
func (m *Manager) Watch(ctx context.Context, svc Service) *Watcher {
	if svc.Name == "" || svc.Probe == nil {
		panic("connwatch: Service needs a Name and a Probe")
	}
	svc.Backoff = svc.Backoff.withDefaults()

	watchCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		svc:    svc,
		logger: m.logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.run(watchCtx)

	m.mu.Lock()
	m.watchers[svc.Name] = w
	m.mu.Unlock()
	return w
}

// Status returns every watcher's report, sorted by name.
func (m *Manager) Status() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Status, 0, len(m.watchers))
	for _, w := range m.watchers {
		out = append(out, w.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Stop shuts down all watchers and waits for them to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	watchers := make([]*Watcher, 0, len(m.watchers))
	for _, w := range m.watchers {
		watchers = append(watchers, w)
	}
	m.mu.Unlock()

	for _, w := range watchers {
		w.Stop()
	}
}
