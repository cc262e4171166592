package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"deckbridge/internal/domain"
)

// Terminal programs tried in order when a shell command needs its own
// window on linux.
var linuxTerminals = []string{"gnome-terminal", "konsole", "xterm"}

// OSLauncher starts programs, URLs, paths and terminal commands
// through the host OS. All launches are fire-and-forget: the child's
// exit status is not observed.
type OSLauncher struct {
	logger *slog.Logger
}

// New creates an OS launcher.
func New(logger *slog.Logger) *OSLauncher {
	return &OSLauncher{logger: logger}
}

// OpenProgram resolves name on PATH and starts it. Names that do not
// resolve are handed to the shell as a last resort, matching the
// loose program strings deck buttons are configured with.
func (l *OSLauncher) OpenProgram(ctx context.Context, name string) error {
	if resolved, err := exec.LookPath(name); err == nil {
		if err := l.start(exec.Command(resolved)); err != nil {
			return domain.WrapOp("launcher.program", err)
		}
		return nil
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", "start", "", name)
	} else {
		cmd = exec.Command("sh", "-c", name)
	}
	if err := l.start(cmd); err != nil {
		return domain.WrapOp("launcher.program", err)
	}
	return nil
}

// OpenURL opens the URL in the default browser.
func (l *OSLauncher) OpenURL(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := l.start(cmd); err != nil {
		return domain.WrapOp("launcher.url", err)
	}
	return nil
}

// OpenPath opens an existing file or directory with the OS default
// handler. A missing path fails fast with ErrPathNotFound.
func (l *OSLauncher) OpenPath(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return domain.NewDomainError("launcher.path", domain.ErrPathNotFound, path)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := l.start(cmd); err != nil {
		return domain.WrapOp("launcher.path", err)
	}
	return nil
}

// RunInTerminal spawns a new terminal window running the command. On
// linux the first terminal program found on PATH is used.
func (l *OSLauncher) RunInTerminal(ctx context.Context, command string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "Terminal" to do script %q`, command)
		cmd = exec.Command("osascript", "-e", script)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "cmd", "/c", command)
	default:
		for _, term := range linuxTerminals {
			if _, err := exec.LookPath(term); err == nil {
				cmd = exec.Command(term, "-e", command)
				break
			}
		}
		if cmd == nil {
			return domain.NewDomainError("launcher.terminal", domain.ErrNoTerminal, command)
		}
	}
	if err := l.start(cmd); err != nil {
		return domain.WrapOp("launcher.terminal", err)
	}
	return nil
}

func (l *OSLauncher) start(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child in the background so it never ends up a zombie.
	go func() {
		if err := cmd.Wait(); err != nil {
			l.logger.Debug("launched process exited with error", "path", cmd.Path, "error", err)
		}
	}()
	return nil
}
