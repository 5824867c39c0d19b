// Package router dispatches classified utterances to the assistant's
// actions and keeps an in-memory audit trail of what it decided.
package router

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/intent"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/launcher"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/metrics"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/scheduler"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/weather"
)

var (
	// ErrExit is returned by Dispatch when the user asked to quit.
	ErrExit = errors.New("exit requested")

	// ErrNotConfigured marks an action whose collaborator is absent.
	ErrNotConfigured = errors.New("collaborator not configured")
)

// Speaker says one line to the user.
type Speaker interface {
	Say(ctx context.Context, text string)
}

// Listener captures one follow-up answer, as speech.Recognizer does.
type Listener interface {
	Recognize(ctx context.Context, timeout time.Duration) (string, error)
}

// Reminders schedules a spoken reminder.
type Reminders interface {
	Schedule(ctx context.Context, task string, delay time.Duration) (*scheduler.Reminder, error)
}

// Mailer sends a plain text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// WeatherSource reports current conditions for a city.
type WeatherSource interface {
	Current(ctx context.Context, city string) (*weather.Report, error)
}

// DevicePublisher forwards a device command to the smart home bus.
type DevicePublisher interface {
	Publish(ctx context.Context, command string) error
}

// Encyclopedia returns a short summary for a free-form query.
type Encyclopedia interface {
	Summary(ctx context.Context, query string) (string, error)
}

// Answerer answers a free-form question with a language model.
type Answerer interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

// Launcher starts local applications and opens URLs.
type Launcher interface {
	Launch(ctx context.Context, app launcher.App) error
	OpenURL(ctx context.Context, url string) error
}

// Deps are the router's collaborators. Voice and Catalog are required.
// Any other nil collaborator makes its action speak a "not configured"
// line instead of failing.
type Deps struct {
	Voice    Speaker
	Listener Listener

	Reminders    Reminders
	Mailer       Mailer
	Weather      WeatherSource
	Devices      DevicePublisher
	Encyclopedia Encyclopedia
	Answerer     Answerer
	Launcher     Launcher
	Catalog      *launcher.Catalog

	Metrics *metrics.Metrics
}

// Config holds router settings.
type Config struct {
	DefaultCity string

	// AnswererName is how the language model is referred to in error
	// lines. Default: OpenAI.
	AnswererName string

	// ListenTimeout bounds each follow-up prompt. Default: 15s.
	ListenTimeout time.Duration

	// MaxAuditLog is how many decisions to keep in memory. Default: 1000.
	MaxAuditLog int
}

// Decision records how one utterance was handled.
type Decision struct {
	Timestamp time.Time   `json:"timestamp"`
	Utterance string      `json:"utterance"`
	Intent    intent.Kind `json:"intent"`

	// RulesEvaluated counts rules tried before the match, inclusive.
	RulesEvaluated int `json:"rules_evaluated"`

	Outcome   Outcome `json:"outcome"`
	Error     string  `json:"error,omitempty"`
	LatencyMs int64   `json:"latency_ms"`
}

// Outcome summarizes a handler result.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeExit          Outcome = "exit"
	OutcomeNotConfigured Outcome = "not_configured"
	OutcomeRejected      Outcome = "rejected"
	OutcomeFailed        Outcome = "failed"
)

// Stats tracks dispatch statistics.
type Stats struct {
	TotalDispatches int64             `json:"total_dispatches"`
	IntentCounts    map[string]int64  `json:"intent_counts"`
	OutcomeCounts   map[Outcome]int64 `json:"outcome_counts"`
}

type handler func(ctx context.Context, in intent.Intent) error

type route struct {
	rule   intent.Rule
	handle handler
}

// Router classifies utterances and runs the matching action.
type Router struct {
	logger *slog.Logger
	config Config
	deps   Deps
	routes []route

	// now is replaced in tests.
	now func() time.Time

	mu       sync.RWMutex
	auditLog []Decision
	stats    Stats
}

// New creates a router. The classification chain comes from
// intent.Rules and every rule kind has exactly one handler.
func New(logger *slog.Logger, config Config, deps Deps) *Router {
	if config.MaxAuditLog <= 0 {
		config.MaxAuditLog = 1000
	}
	if config.ListenTimeout <= 0 {
		config.ListenTimeout = 15 * time.Second
	}
	if config.AnswererName == "" {
		config.AnswererName = "OpenAI"
	}

	r := &Router{
		logger:   logger,
		config:   config,
		deps:     deps,
		now:      time.Now,
		auditLog: make([]Decision, 0, min(config.MaxAuditLog, 64)),
		stats: Stats{
			IntentCounts:  make(map[string]int64),
			OutcomeCounts: make(map[Outcome]int64),
		},
	}

	handlers := map[intent.Kind]handler{
		intent.KindExit:          r.handleExit,
		intent.KindTime:          r.handleTime,
		intent.KindDate:          r.handleDate,
		intent.KindWeather:       r.handleWeather,
		intent.KindReminder:      r.handleReminder,
		intent.KindEmail:         r.handleEmail,
		intent.KindDeviceControl: r.handleDevice,
		intent.KindOpenTarget:    r.handleOpen,
		intent.KindFallback:      r.handleFallback,
	}
	for _, rule := range intent.Rules(config.DefaultCity) {
		h, ok := handlers[rule.Kind]
		if !ok {
			panic("router: no handler for intent " + string(rule.Kind))
		}
		r.routes = append(r.routes, route{rule: rule, handle: h})
	}
	return r
}

// Dispatch handles one recognized utterance. An empty utterance is
// ignored. The utterance is echoed back, then the first matching route
// runs. Action failures are spoken to the user and recorded, never
// returned: the only error is ErrExit.
func (r *Router) Dispatch(ctx context.Context, utterance string) (intent.Intent, error) {
	u := intent.Normalize(utterance)
	if u == "" {
		return intent.Intent{}, nil
	}

	start := time.Now()
	r.say(ctx, "You said: "+u)

	var (
		in      intent.Intent
		err     error
		matched int
	)
	for i, rt := range r.routes {
		if !rt.rule.Match(u) {
			continue
		}
		matched = i + 1
		in = rt.rule.Apply(u)
		err = rt.handle(ctx, in)
		break
	}

	d := Decision{
		Timestamp:      start,
		Utterance:      u,
		Intent:         in.Kind,
		RulesEvaluated: matched,
		Outcome:        outcomeOf(err),
		LatencyMs:      time.Since(start).Milliseconds(),
	}
	if err != nil && !errors.Is(err, ErrExit) {
		d.Error = err.Error()
	}
	r.recordDecision(d)
	r.deps.Metrics.IntentDispatched(string(in.Kind), time.Since(start))

	r.logger.Debug("utterance dispatched",
		"intent", in.Kind,
		"outcome", d.Outcome,
		"latency_ms", d.LatencyMs,
	)
	if d.Outcome == OutcomeFailed {
		r.logger.Warn("action failed", "intent", in.Kind, "error", err)
	}

	if errors.Is(err, ErrExit) {
		return in, ErrExit
	}
	return in, nil
}

func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrExit):
		return OutcomeExit
	case errors.Is(err, ErrNotConfigured):
		return OutcomeNotConfigured
	case errors.Is(err, errRejected):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}

func (r *Router) say(ctx context.Context, text string) {
	r.deps.Voice.Say(ctx, text)
}

// recordDecision adds a decision to the audit log.
func (r *Router) recordDecision(d Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.auditLog) >= r.config.MaxAuditLog {
		r.auditLog = r.auditLog[1:]
	}
	r.auditLog = append(r.auditLog, d)

	r.stats.TotalDispatches++
	r.stats.IntentCounts[string(d.Intent)]++
	r.stats.OutcomeCounts[d.Outcome]++
}

// AuditLog returns up to limit of the most recent decisions, oldest
// first. A non-positive limit returns all of them.
func (r *Router) AuditLog(limit int) []Decision {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.auditLog) {
		limit = len(r.auditLog)
	}
	start := len(r.auditLog) - limit
	result := make([]Decision, limit)
	copy(result, r.auditLog[start:])
	return result
}

// Stats returns a snapshot of dispatch statistics.
func (r *Router) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		TotalDispatches: r.stats.TotalDispatches,
		IntentCounts:    make(map[string]int64, len(r.stats.IntentCounts)),
		OutcomeCounts:   make(map[Outcome]int64, len(r.stats.OutcomeCounts)),
	}
	for k, v := range r.stats.IntentCounts {
		s.IntentCounts[k] = v
	}
	for k, v := range r.stats.OutcomeCounts {
		s.OutcomeCounts[k] = v
	}
	return s
}
