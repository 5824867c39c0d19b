package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// ExecLauncher starts applications and URLs as detached child processes.
type ExecLauncher struct {
	logger *slog.Logger

	// start runs a prepared command; swapped in tests.
	start func(cmd *exec.Cmd) error
}

// NewExecLauncher creates a launcher for the local desktop.
func NewExecLauncher(logger *slog.Logger) *ExecLauncher {
	return &ExecLauncher{
		logger: logger,
		start:  startDetached,
	}
}

// Launch starts app without waiting for it to exit.
func (l *ExecLauncher) Launch(ctx context.Context, app App) error {
	if len(app.Command) == 0 {
		return fmt.Errorf("no command configured for %s", app.Name)
	}
	cmd := exec.Command(app.Command[0], app.Command[1:]...)
	if err := l.start(cmd); err != nil {
		return err
	}
	l.logger.Debug("application launched", "app", app.Name, "command", app.Command)
	return nil
}

// OpenURL hands url to the platform's default browser.
func (l *ExecLauncher) OpenURL(ctx context.Context, url string) error {
	argv, err := openCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := l.start(exec.Command(argv[0], argv[1:]...)); err != nil {
		return err
	}
	l.logger.Debug("url opened", "url", url)
	return nil
}

func openCommand(goos, url string) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{"open", url}, nil
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"xdg-open", url}, nil
	default:
		return nil, fmt.Errorf("opening URLs is not supported on %s", goos)
	}
}

// startDetached starts cmd and reaps it in the background so the child
// never lingers as a zombie.
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
