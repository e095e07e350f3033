package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/logging"
)

var launchLog = logging.ForComponent(logging.CompLaunch)

// DefaultCommand opens a desktop entry with optional URIs
var DefaultCommand = []string{"gio", "launch"}

// Launcher starts applications
type Launcher interface {
	// Launch starts app, passing uris if any. It returns once the process
	// was spawned; it does not wait for it to exit.
	Launch(ctx context.Context, app App, uris ...string) error
}

// CommandLauncher launches apps by running a command with the desktop entry
// path and the URIs as arguments.
type CommandLauncher struct {
	command []string
}

// NewCommandLauncher creates a launcher for command, or DefaultCommand if
// command is empty
func NewCommandLauncher(command []string) *CommandLauncher {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &CommandLauncher{command: append([]string(nil), command...)}
}

// Command returns the full command line used to launch app with uris
func (l *CommandLauncher) Command(app App, uris ...string) []string {
	args := append([]string(nil), l.command...)
	args = append(args, app.File)
	return append(args, uris...)
}

// Launch spawns the launch command and reaps it in the background. The child
// is not tied to ctx, so it outlives the request that started it.
func (l *CommandLauncher) Launch(ctx context.Context, app App, uris ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if app.File == "" {
		return fmt.Errorf("app %s has no desktop entry", app.DesktopID)
	}

	argv := l.Command(app, uris...)
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	launchLog.Info("app_launched",
		slog.String("app", app.DesktopID),
		slog.Any("uris", uris),
		slog.Int("pid", cmd.Process.Pid))

	go func() {
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			launchLog.Warn("launch_command_failed",
				slog.String("app", app.DesktopID),
				slog.Int("exit_code", exitErr.ExitCode()))
		} else if err != nil {
			launchLog.Warn("launch_command_failed",
				slog.String("app", app.DesktopID),
				slog.String("error", err.Error()))
		}
	}()
	return nil
}

// FileURI returns the file:// URI for an absolute path
func FileURI(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}
