package domain

import "context"

// Launcher abstracts OS-level program, URL and file launching.
type Launcher interface {
	// OpenProgram launches a program by name or full path: first via
	// the OS default association, then by resolving the name on the
	// executable search path.
	OpenProgram(ctx context.Context, path string) error
	// OpenURL opens a URL in the default browser. The URL already
	// carries a scheme when it reaches the launcher.
	OpenURL(ctx context.Context, url string) error
	// OpenPath opens an existing file or directory with the OS default
	// handler. Existence is checked by the caller.
	OpenPath(ctx context.Context, path string) error
	// RunInTerminal spawns a new terminal/console window running the
	// given command text verbatim.
	RunInTerminal(ctx context.Context, command string) error
}
