package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/buildinfo"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/config"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/connwatch"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/email"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/httpkit"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/launcher"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/llm"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/metrics"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/mqtt"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/router"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/scheduler"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/speech"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/weather"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/wiki"
)

// shutdownTimeout bounds the MQTT offline message and disconnect.
const shutdownTimeout = 5 * time.Second

// app holds the long-lived services of one assistant process.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	store      *scheduler.Store
	scheduler  *scheduler.Scheduler
	voice      *speech.Voice
	recognizer speech.Recognizer
	commander  *mqtt.Commander
	llmClient  llm.Client
	router     *router.Router
	health     *connwatch.Manager
}

// newApp constructs every service from cfg without starting any of
// them. Unconfigured collaborators are left out of the router, which
// then answers with a "not configured" line.
func newApp(cfg *config.Config, env environment, typed bool, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.MustNew(a.registry)

	var speaker speech.Speaker
	if !cfg.Speech.Mute {
		s, err := speech.NewCommandSpeaker(cfg.Speech.SpeakCommand)
		if err != nil {
			logger.Warn("speech output disabled", "error", err)
		} else {
			speaker = s
		}
	}
	a.voice = speech.NewVoice(cfg.Assistant.Name, speaker, env.stdout, logger)

	if typed || cfg.Speech.Mode == "typed" {
		a.recognizer = speech.NewLineRecognizer(env.stdin, env.stdout, "> ")
	} else {
		a.recognizer = speech.NewCommandRecognizer(cfg.Speech.RecognizeCommand, logger)
	}

	store, err := scheduler.OpenStore(cfg.Reminders.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open reminder store: %w", err)
	}
	a.store = store
	a.scheduler = scheduler.New(logger, store, func(ctx context.Context, r *scheduler.Reminder) {
		a.metrics.ReminderFired()
		a.voice.Sayf(ctx, "Reminder: %s", r.Text)
	})

	httpClient := httpkit.NewClient(
		httpkit.WithUserAgent(buildinfo.UserAgent()),
		httpkit.WithRetry(2, 500*time.Millisecond),
		httpkit.WithLogger(logger),
	)

	deps := router.Deps{
		Voice:     a.voice,
		Listener:  a.recognizer,
		Reminders: a.scheduler,
		Launcher:  launcher.NewExecLauncher(logger),
		Catalog:   newCatalog(cfg.Launcher),
		Metrics:   a.metrics,
	}

	if cfg.Email.Configured() {
		deps.Mailer = email.NewSender(cfg.Email, logger)
	}
	if cfg.Weather.Configured() {
		deps.Weather = weather.New(weather.Config{
			APIKey:   cfg.Weather.APIKey,
			BaseURL:  cfg.Weather.BaseURL,
			Units:    cfg.Weather.Units,
			CacheTTL: time.Duration(cfg.Weather.CacheTTLSec) * time.Second,
		}, httpClient, logger)
	}
	if !cfg.Encyclopedia.Disabled {
		deps.Encyclopedia = wiki.New(cfg.Encyclopedia.BaseURL, cfg.Encyclopedia.Sentences, httpClient, logger)
	}

	answererName := "OpenAI"
	if cfg.LLM.Configured() {
		var client llm.Client
		switch cfg.LLM.Provider {
		case "ollama":
			client = llm.NewOllamaClient(cfg.LLM.BaseURL, httpkit.NewClient(
				httpkit.WithTimeout(2*time.Minute),
				httpkit.WithLogger(logger),
			))
			answererName = "Ollama"
		default:
			client = llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, httpClient)
		}
		a.llmClient = client
		deps.Answerer = llm.NewResponder(client, cfg.LLM.Model, llm.Options{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, logger)
	}

	if cfg.MQTT.Configured() {
		instanceID, err := mqtt.LoadOrCreateInstanceID(cfg.DataDir)
		if err != nil {
			store.Close()
			return nil, err
		}
		a.commander = mqtt.NewCommander(cfg.MQTT, instanceID, logger)
		deps.Devices = a.commander
	}

	a.router = router.New(logger, router.Config{
		DefaultCity:   cfg.Assistant.DefaultCity,
		AnswererName:  answererName,
		ListenTimeout: time.Duration(cfg.Speech.ListenTimeoutSec) * time.Second,
	}, deps)

	return a, nil
}

// newCatalog builds the launcher catalog, falling back to the built-in
// applications and websites for any list left empty.
func newCatalog(cfg config.LauncherConfig) *launcher.Catalog {
	c := &launcher.Catalog{URLTemplate: cfg.URLTemplate}

	for _, app := range cfg.Apps {
		c.Apps = append(c.Apps, launcher.App{Name: app.Name, Command: app.Command})
	}
	if len(c.Apps) == 0 {
		c.Apps = launcher.DefaultApps()
	}

	for _, s := range cfg.Websites {
		c.Sites = append(c.Sites, launcher.Site{Alias: s.Alias, URL: s.URL})
	}
	if len(c.Sites) == 0 {
		c.Sites = launcher.DefaultSites()
	}
	return c
}

// start launches the scheduler engine, restores pending reminders when
// configured, and connects to the MQTT broker.
func (a *app) start(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if a.cfg.Reminders.RestorePending {
		n, err := a.scheduler.Restore(ctx)
		if err != nil {
			return fmt.Errorf("restore reminders: %w", err)
		}
		a.logger.Info("pending reminders restored", "count", n)
	}

	if a.commander != nil {
		if err := a.commander.Start(ctx); err != nil {
			// Device commands answer "MQTT broker is unavailable." from here on.
			a.logger.Warn("mqtt unavailable", "error", err)
			a.commander = nil
		}
	}
	return nil
}

// watchCollaborators probes the language model endpoint and the MQTT
// broker in the background and publishes their state on the
// collaborator_up gauge. Only the long-running listen mode uses it.
func (a *app) watchCollaborators(ctx context.Context) {
	a.health = connwatch.NewManager(a.logger)

	watch := func(name string, probe connwatch.ProbeFunc) {
		a.health.Watch(ctx, connwatch.Service{
			Name:  name,
			Probe: probe,
			OnChange: func(ready bool, _ error) {
				a.metrics.CollaboratorUp(name, ready)
			},
		})
	}
	if a.llmClient != nil {
		watch("llm", a.llmClient.Ping)
	}
	if a.commander != nil {
		watch("mqtt", a.commander.Connected)
	}
}

// close stops the health watchers and the scheduler, abandoning armed
// reminders, disconnects from the broker, and closes the store.
func (a *app) close() error {
	if a.health != nil {
		a.health.Stop()
	}
	a.scheduler.Stop()

	var errs []error
	if a.commander != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.commander.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mqtt disconnect: %w", err))
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// greeting is spoken once the assistant is ready.
func (a *app) greeting() string {
	return fmt.Sprintf("Hello, I'm %s. How can I help?", a.cfg.Assistant.Name)
}
