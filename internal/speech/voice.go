package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Voice is the single owner of the output device. Lines from the
// listening loop and from reminder fires are spoken one at a time and
// each is echoed as "<name>: <text>".
type Voice struct {
	name    string
	speaker Speaker // nil when muted
	out     io.Writer
	logger  *slog.Logger

	mu sync.Mutex
}

// NewVoice creates a Voice. A nil speaker only echoes.
func NewVoice(name string, speaker Speaker, out io.Writer, logger *slog.Logger) *Voice {
	return &Voice{
		name:    name,
		speaker: speaker,
		out:     out,
		logger:  logger,
	}
}

// Say echoes and speaks text, returning once it has been spoken.
// Synthesizer failures are logged; the echoed line still reaches the
// user.
func (v *Voice) Say(ctx context.Context, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	fmt.Fprintf(v.out, "%s: %s\n", v.name, text)

	if v.speaker == nil {
		return
	}
	if err := v.speaker.Speak(ctx, text); err != nil {
		v.logger.Warn("speech synthesis failed", "error", err)
	}
}

// Sayf formats according to a format specifier and speaks the result.
func (v *Voice) Sayf(ctx context.Context, format string, args ...any) {
	v.Say(ctx, fmt.Sprintf(format, args...))
}
