package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/config"
)

// exitNetwork is the recognizer exit status that reports a backend
// network failure.
const exitNetwork = 2

// CommandSpeaker speaks by running an external program with the text
// as its final argument.
type CommandSpeaker struct {
	argv []string
}

// NewCommandSpeaker creates a speaker for argv. An empty argv selects
// the platform default: say on macOS, System.Speech through PowerShell
// on Windows, espeak-ng or espeak elsewhere.
func NewCommandSpeaker(argv []string) (*CommandSpeaker, error) {
	if len(argv) == 0 {
		var err error
		argv, err = defaultSpeakCommand(runtime.GOOS, exec.LookPath)
		if err != nil {
			return nil, err
		}
	}
	return &CommandSpeaker{argv: argv}, nil
}

func defaultSpeakCommand(goos string, lookPath func(string) (string, error)) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{"say"}, nil
	case "windows":
		return []string{"powershell", "-NoProfile", "-Command",
			"Add-Type -AssemblyName System.Speech; (New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak($args[0])"}, nil
	}
	for _, name := range []string{"espeak-ng", "espeak"} {
		if path, err := lookPath(name); err == nil {
			return []string{path}, nil
		}
	}
	return nil, errors.New("no speech synthesizer found (install espeak-ng or set speech.speak_command)")
}

// Speak blocks until the program exits.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	args := append(append([]string{}, s.argv[1:]...), text)
	cmd := exec.CommandContext(ctx, s.argv[0], args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", s.argv[0], err)
	}
	return nil
}

// CommandRecognizer transcribes by running an external speech-to-text
// program once per attempt. The program prints the transcript on
// stdout. Exit status 1 means the audio was not understood and status
// 2 a network failure of the recognition service.
type CommandRecognizer struct {
	argv   []string
	logger *slog.Logger
}

// NewCommandRecognizer creates a recognizer for argv.
func NewCommandRecognizer(argv []string, logger *slog.Logger) *CommandRecognizer {
	return &CommandRecognizer{argv: argv, logger: logger}
}

// Recognize runs the program, killing it when timeout elapses.
func (r *CommandRecognizer) Recognize(ctx context.Context, timeout time.Duration) (string, error) {
	if len(r.argv) == 0 {
		return "", errors.New("no recognize command configured")
	}

	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(attemptCtx, r.argv[0], r.argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Grandchildren may hold the pipes open after the kill.
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if attemptCtx.Err() != nil {
		return "", ErrNoSpeech
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		r.logger.Debug("recognizer exited",
			"status", exitErr.ExitCode(),
			"stderr", strings.TrimSpace(stderr.String()),
		)
		switch exitErr.ExitCode() {
		case 1:
			return "", ErrUnrecognized
		case exitNetwork:
			return "", ErrNetwork
		}
		return "", fmt.Errorf("recognizer: %w", err)
	}
	if err != nil {
		return "", fmt.Errorf("recognizer: %w", err)
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", ErrNoSpeech
	}
	r.logger.Log(ctx, config.LevelTrace, "recognizer transcript", "text", text)
	return text, nil
}
