package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"deckbridge/internal/domain"
	"deckbridge/internal/infra/tracer"
)

// mediaKeys maps the f-row keys a physical fn layer usually shadows to
// their media-key equivalents, used when the injector cannot hold a
// virtual fn modifier.
var mediaKeys = map[string]string{
	"f5":  "stop",
	"f6":  "previous",
	"f7":  "playpause",
	"f8":  "next",
	"f10": "volume down",
	"f11": "volume up",
	"f12": "mute",
}

// Executor runs parsed Commands against the host. Branch failures are
// converted to a Result at the boundary; nothing propagates past
// Execute, including panics from the injection layer.
type Executor struct {
	injector domain.KeyInjector
	launcher domain.Launcher
	settle   time.Duration
	logger   *slog.Logger
}

// NewExecutor wires an executor to its injection and launch backends.
// settle is the pause between a chord and the text that follows it.
func NewExecutor(injector domain.KeyInjector, launcher domain.Launcher, settle time.Duration, logger *slog.Logger) *Executor {
	return &Executor{
		injector: injector,
		launcher: launcher,
		settle:   settle,
		logger:   logger,
	}
}

// Execute runs a single command and reports its outcome. It never
// returns an error: failures become Result{OK: false}.
func (e *Executor) Execute(ctx context.Context, cmd domain.Command) (result domain.Result) {
	ctx, span := tracer.StartSpan(ctx, "command.execute",
		trace.WithAttributes(tracer.StringAttr("command.type", string(cmd.Type))))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("command execution panicked", "raw", cmd.Raw, "panic", r)
			result = domain.Result{OK: false, Message: fmt.Sprintf("Error: %v", r)}
		}
		if !result.OK {
			tracer.RecordError(span, errors.New(result.Message))
		} else {
			tracer.SetOK(span)
		}
	}()

	switch cmd.Type {
	case domain.CommandReady:
		return domain.Result{OK: true, Message: "Ready signal"}
	case domain.CommandDelay:
		return e.delay(ctx, cmd.DelayMS)
	case domain.CommandExecute:
		return e.program(ctx, cmd.Path)
	case domain.CommandURL:
		return e.url(ctx, cmd.URL)
	case domain.CommandFilePath:
		return e.filePath(ctx, cmd.Path)
	case domain.CommandShell:
		return e.shell(ctx, cmd.Shell)
	case domain.CommandText:
		return e.text(cmd)
	case domain.CommandKeystroke:
		return e.keystroke(cmd)
	}
	return domain.Result{OK: false, Message: "Unknown type"}
}

func (e *Executor) delay(ctx context.Context, ms int) domain.Result {
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return domain.Result{OK: false, Message: fmt.Sprintf("Delay failed: %v", ctx.Err())}
	}
	return domain.Result{OK: true, Message: fmt.Sprintf("Delayed: %dms", ms)}
}

func (e *Executor) program(ctx context.Context, path string) domain.Result {
	if err := e.launcher.OpenProgram(ctx, path); err != nil {
		return domain.Result{OK: false, Message: fmt.Sprintf("Execute failed: %v", err)}
	}
	return domain.Result{OK: true, Message: "Executed: " + path}
}

func (e *Executor) url(ctx context.Context, rawURL string) domain.Result {
	l := strings.ToLower(rawURL)
	if !strings.HasPrefix(l, "http://") && !strings.HasPrefix(l, "https://") && !strings.HasPrefix(l, "ftp://") {
		rawURL = "https://" + rawURL
	}
	if err := e.launcher.OpenURL(ctx, rawURL); err != nil {
		return domain.Result{OK: false, Message: fmt.Sprintf("URL open failed: %v", err)}
	}
	return domain.Result{OK: true, Message: "Opened URL: " + truncate(rawURL, 50)}
}

func (e *Executor) filePath(ctx context.Context, path string) domain.Result {
	if err := e.launcher.OpenPath(ctx, path); err != nil {
		if errors.Is(err, domain.ErrPathNotFound) {
			return domain.Result{OK: false, Message: "Path not found: " + path}
		}
		return domain.Result{OK: false, Message: fmt.Sprintf("Path open failed: %v", err)}
	}
	return domain.Result{OK: true, Message: "Opened: " + truncate(path, 50)}
}

func (e *Executor) shell(ctx context.Context, command string) domain.Result {
	if err := e.launcher.RunInTerminal(ctx, command); err != nil {
		return domain.Result{OK: false, Message: fmt.Sprintf("CMD failed: %v", err)}
	}
	return domain.Result{OK: true, Message: "CMD executed: " + truncate(command, 50)}
}

func (e *Executor) text(cmd domain.Command) domain.Result {
	chord := append(append([]string{}, cmd.Modifiers...), cmd.Keys...)
	if len(chord) > 0 {
		if err := e.injector.Tap(chord); err != nil {
			return domain.Result{OK: false, Message: fmt.Sprintf("Error: %v", err)}
		}
		time.Sleep(e.settle)
	}
	if cmd.Text != "" {
		if _, err := e.injector.TypeText(cmd.Text); err != nil {
			return domain.Result{OK: false, Message: fmt.Sprintf("Error: %v", err)}
		}
	}
	return domain.Result{OK: true, Message: "Typed: " + truncate(cmd.Text, 55)}
}

func (e *Executor) keystroke(cmd domain.Command) domain.Result {
	all := append(append([]string{}, cmd.Modifiers...), cmd.Keys...)
	if len(all) == 0 {
		return domain.Result{OK: false, Message: "No keys"}
	}
	if slices.Contains(all, "fn") {
		return e.fnCombination(all)
	}
	if err := e.injector.Tap(all); err != nil {
		return domain.Result{OK: false, Message: fmt.Sprintf("Error: %v", err)}
	}
	return domain.Result{OK: true, Message: "Pressed: " + strings.Join(all, "+")}
}

// fnCombination holds a virtual fn modifier around the remaining keys.
// Injectors that cannot represent fn fall back to a direct media-key
// event for a lone mapped key, then to tapping each key on its own.
// The fallbacks always report success.
func (e *Executor) fnCombination(all []string) domain.Result {
	rest := make([]string, 0, len(all))
	for _, k := range all {
		if k != "fn" {
			rest = append(rest, k)
		}
	}

	if err := e.injector.Press("fn"); err == nil {
		for _, k := range rest {
			if tapErr := e.injector.Tap([]string{k}); tapErr != nil {
				e.logger.Warn("fn combination key failed", "key", k, "error", tapErr)
			}
		}
		if relErr := e.injector.Release("fn"); relErr != nil {
			e.logger.Warn("fn release failed", "error", relErr)
		}
		return domain.Result{OK: true, Message: "Pressed: fn+" + strings.Join(rest, "+")}
	}

	if len(rest) == 1 {
		if media, ok := mediaKeys[rest[0]]; ok {
			if err := e.injector.TapMedia(media); err == nil {
				return domain.Result{OK: true, Message: "Pressed (VK): fn+" + rest[0]}
			}
		}
	}

	for _, k := range rest {
		if err := e.injector.Tap([]string{k}); err != nil {
			e.logger.Warn("fn fallback key failed", "key", k, "error", err)
		}
	}
	return domain.Result{OK: true, Message: "Pressed (fallback): " + strings.Join(rest, "+")}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
