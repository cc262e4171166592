package domain

// KeyInjector abstracts OS-level keyboard injection for testability.
// Key names are the canonical lower-case vocabulary produced by the
// command parser ("ctrl", "enter", "f7", "a", ...).
type KeyInjector interface {
	// Tap presses every key in order and releases them in reverse,
	// producing one atomic chord.
	Tap(keys []string) error
	// Press holds a single key down until Release.
	Press(key string) error
	// Release releases a previously pressed key.
	Release(key string) error
	// ReleaseAll releases every key this injector may still be
	// holding. Called on session teardown.
	ReleaseAll() error
	// TypeText injects literal text character by character. Returns
	// the number of characters actually injected; characters the
	// platform cannot represent are skipped.
	TypeText(text string) (int, error)
	// TapMedia synthesizes a raw key-down/key-up pair for a key name
	// that maps to a platform media/volume/brightness key code.
	// Returns ErrUnsupportedKey when no such mapping exists.
	TapMedia(key string) error
}
