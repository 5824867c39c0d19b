package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/assistant"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/buildinfo"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/metrics"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/scheduler"
)

// errLoopDone ends the errgroup once the listening loop returns, so the
// metrics server does not outlive it.
var errLoopDone = errors.New("listening loop finished")

// recentDecisions is how many dispatch decisions are logged at exit.
const recentDecisions = 10

// runListen handles the "assistant listen" subcommand, the primary
// operating mode. The shutdown sequence is:
//  1. the user says "exit", input closes, or SIGINT/SIGTERM arrives
//  2. the errgroup context is cancelled, stopping the metrics server
//  3. health probes end, the scheduler stops and armed reminders are abandoned
//  4. the broker connection and the store are closed
func runListen(ctx context.Context, env environment, opts options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, cfgPath, err := loadConfig(opts.configPath, env.lookup)
	if err != nil {
		return err
	}
	logger := cfg.Logger(env.stderr)
	logger.Info("starting assistant",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"config", cfgPath,
	)

	a, err := newApp(cfg, env, opts.typed, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	if err := a.start(ctx); err != nil {
		return err
	}
	a.watchCollaborators(ctx)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Address != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Address, a.registry, logger)
		})
	}

	exited := false
	g.Go(func() error {
		a.voice.Say(gctx, a.greeting())

		loop := &assistant.Loop{
			Recognizer: a.recognizer,
			Dispatcher: a.router,
			Voice:      a.voice,
			Metrics:    a.metrics,
			Logger:     logger,
			Timeout:    time.Duration(cfg.Speech.ListenTimeoutSec) * time.Second,
		}
		err := loop.Run(gctx)
		if errors.Is(err, assistant.ErrExitRequested) {
			exited = true
			return errLoopDone
		}
		if err != nil {
			return err
		}
		return errLoopDone
	})

	err = g.Wait()
	if !exited && ctx.Err() != nil {
		// Interrupted by a signal: the user has not heard a farewell yet.
		a.voice.Say(context.Background(), "Goodbye!")
	}

	for _, d := range a.router.AuditLog(recentDecisions) {
		logger.Debug("recent dispatch",
			"utterance", d.Utterance,
			"intent", d.Intent,
			"outcome", d.Outcome,
			"latency_ms", d.LatencyMs,
		)
	}
	stats := a.router.Stats()
	logger.Info("assistant stopped",
		"dispatches", stats.TotalDispatches,
		"intents", stats.IntentCounts,
		"uptime", buildinfo.Uptime(),
	)

	if errors.Is(err, errLoopDone) {
		return nil
	}
	return err
}

// runAsk handles "assistant ask <utterance>": one dispatch through the
// full router, reading any follow-up answers from stdin. When the
// utterance set a reminder, it waits for the reminder to fire or for a
// signal.
func runAsk(ctx context.Context, env environment, opts options, utterance string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, _, err := loadConfig(opts.configPath, env.lookup)
	if err != nil {
		return err
	}
	logger := cfg.Logger(env.stderr)

	a, err := newApp(cfg, env, true, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()
	if err := a.start(ctx); err != nil {
		return err
	}

	if _, err := a.router.Dispatch(ctx, utterance); err != nil {
		// Only an exit intent ends up here; the farewell was spoken.
		return nil
	}

	waitArmed(ctx, a.scheduler, 100*time.Millisecond)
	return nil
}

// waitArmed blocks until no reminder is armed or ctx is done.
func waitArmed(ctx context.Context, s *scheduler.Scheduler, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for s.Armed() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runReminders handles "assistant reminders": it lists every stored
// reminder without starting the engine.
func runReminders(ctx context.Context, env environment, opts options) error {
	cfg, _, err := loadConfig(opts.configPath, env.lookup)
	if err != nil {
		return err
	}

	store, err := scheduler.OpenStore(cfg.Reminders.DBPath)
	if err != nil {
		return fmt.Errorf("open reminder store: %w", err)
	}
	defer store.Close()

	reminders, err := store.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}

	if opts.outputFmt == "json" {
		if reminders == nil {
			reminders = []*scheduler.Reminder{}
		}
		enc := json.NewEncoder(env.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reminders)
	}

	if len(reminders) == 0 {
		fmt.Fprintln(env.stdout, "No reminders.")
		return nil
	}
	tw := tabwriter.NewWriter(env.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tDUE\tTASK")
	for _, r := range reminders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Status, r.FireAt.Local().Format(time.DateTime), r.Text)
	}
	return tw.Flush()
}
