// Package assistant runs the listening loop: capture one utterance,
// dispatch it, repeat until the user exits or the context ends.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/intent"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/metrics"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/router"
	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/speech"
)

// ErrExitRequested is returned by Run after the user asked to quit.
var ErrExitRequested = errors.New("user requested exit")

// Dispatcher handles one utterance, as router.Router does.
type Dispatcher interface {
	Dispatch(ctx context.Context, utterance string) (intent.Intent, error)
}

// Loop ties a recognizer to a dispatcher.
type Loop struct {
	Recognizer speech.Recognizer
	Dispatcher Dispatcher
	Voice      router.Speaker
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	// Timeout bounds each listen attempt. Zero waits until ctx is done.
	Timeout time.Duration
}

// Run listens until ctx is done, the input closes, or an exit intent
// is dispatched. Recognition and action failures are spoken and the
// loop continues. It returns nil on cancellation or closed input and
// ErrExitRequested on exit.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		text, err := l.Recognizer.Recognize(ctx, l.Timeout)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, speech.ErrClosed):
			l.Logger.Info("speech input closed")
			return nil
		case errors.Is(err, speech.ErrNoSpeech):
			l.Metrics.RecognitionError("timeout")
			continue
		case errors.Is(err, speech.ErrNetwork):
			l.Metrics.RecognitionError("network")
			l.Voice.Say(ctx, "Network error while recognizing speech.")
			continue
		default:
			l.Metrics.RecognitionError("unrecognized")
			l.Logger.Debug("recognition failed", "error", err)
			l.Voice.Say(ctx, "Sorry, I couldn't understand that.")
			continue
		}

		if _, err := l.Dispatcher.Dispatch(ctx, text); errors.Is(err, router.ErrExit) {
			return ErrExitRequested
		} else if err != nil {
			l.Logger.Warn("dispatch failed", "error", err)
		}
	}
}
