package domain

// CommandType identifies the kind of command parsed from a device line.
type CommandType string

const (
	CommandKeystroke CommandType = "keystroke"
	CommandText      CommandType = "text"
	CommandDelay     CommandType = "delay"
	CommandExecute   CommandType = "execute"
	CommandURL       CommandType = "url"
	CommandFilePath  CommandType = "file_path"
	CommandShell     CommandType = "shell"
	CommandReady     CommandType = "ready_signal"
)

// Command is one parsed device line. Raw always holds the original line
// as received, regardless of variant, so the front-end can echo it.
// Modifiers and Keys are canonical lower-case tokens; the remaining
// fields are populated per variant.
type Command struct {
	Type      CommandType `json:"type"`
	Raw       string      `json:"raw"`
	Modifiers []string    `json:"modifiers,omitempty"`
	Keys      []string    `json:"keys,omitempty"`
	Text      string      `json:"text,omitempty"`
	Path      string      `json:"path,omitempty"`
	URL       string      `json:"url,omitempty"`
	Shell     string      `json:"shell,omitempty"`
	DelayMS   int         `json:"delay_ms,omitempty"`
}

// Result is the outcome of executing a single command. Message is the
// human-readable line shown to the front-end; execution errors are
// folded into it at this boundary and never propagate further.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
