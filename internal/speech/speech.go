// Package speech wraps speech-to-text and text-to-speech backends
// behind small interfaces and serializes access to the output device.
package speech

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoSpeech means nothing was heard before the listen timeout.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrUnrecognized means audio was captured but not understood.
	ErrUnrecognized = errors.New("speech not understood")

	// ErrNetwork means the recognition backend could not be reached.
	ErrNetwork = errors.New("speech recognition network error")

	// ErrClosed means the input source is exhausted.
	ErrClosed = errors.New("speech input closed")
)

// Speaker renders text as audio.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Recognizer captures one utterance. It returns the transcript, or one
// of the package errors. A zero timeout waits until ctx is done.
type Recognizer interface {
	Recognize(ctx context.Context, timeout time.Duration) (string, error)
}
