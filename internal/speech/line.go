package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// LineRecognizer treats each line read from an input stream as one
// utterance. It backs the typed mode used without a microphone.
type LineRecognizer struct {
	prompt string
	out    io.Writer
	in     io.Reader

	once  sync.Once
	lines chan string
}

// NewLineRecognizer reads utterances from in, writing prompt to out
// before each one. out may be nil.
func NewLineRecognizer(in io.Reader, out io.Writer, prompt string) *LineRecognizer {
	return &LineRecognizer{
		prompt: prompt,
		out:    out,
		in:     in,
		lines:  make(chan string),
	}
}

func (r *LineRecognizer) read() {
	defer close(r.lines)
	sc := bufio.NewScanner(r.in)
	for sc.Scan() {
		r.lines <- sc.Text()
	}
}

// Recognize returns the next line. It returns ErrClosed at end of
// input and ErrNoSpeech when timeout elapses first.
func (r *LineRecognizer) Recognize(ctx context.Context, timeout time.Duration) (string, error) {
	r.once.Do(func() { go r.read() })

	if r.out != nil && r.prompt != "" {
		fmt.Fprint(r.out, r.prompt)
	}

	var timeoutC <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timeoutC = t.C
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timeoutC:
		return "", ErrNoSpeech
	case line, ok := <-r.lines:
		if !ok {
			return "", ErrClosed
		}
		return line, nil
	}
}
