package input

import (
	"strings"
	"sync"

	"deckbridge/internal/domain"
)

// MockInjector is an in-memory KeyInjector for testing. It records
// every call and can be told to reject fn holds or fail outright.
type MockInjector struct {
	mu sync.Mutex

	Taps     [][]string
	Pressed  []string
	Released []string
	Typed    []string
	Media    []string

	ReleaseAllCalls int

	// FnUnsupported makes Press("fn") fail the way a real virtual
	// keyboard does.
	FnUnsupported bool
	// FailAll makes every injection call return this error.
	FailAll error
}

// NewMockInjector creates a recording injector.
func NewMockInjector() *MockInjector {
	return &MockInjector{}
}

func (m *MockInjector) Tap(keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll != nil {
		return m.FailAll
	}
	m.Taps = append(m.Taps, append([]string{}, keys...))
	return nil
}

func (m *MockInjector) Press(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll != nil {
		return m.FailAll
	}
	if m.FnUnsupported && key == "fn" {
		return domain.NewDomainError("input.press", domain.ErrUnsupportedKey, key)
	}
	m.Pressed = append(m.Pressed, key)
	return nil
}

func (m *MockInjector) Release(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll != nil {
		return m.FailAll
	}
	m.Released = append(m.Released, key)
	return nil
}

func (m *MockInjector) ReleaseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseAllCalls++
	return nil
}

func (m *MockInjector) TypeText(text string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll != nil {
		return 0, m.FailAll
	}
	m.Typed = append(m.Typed, text)
	return len([]rune(text)), nil
}

func (m *MockInjector) TapMedia(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll != nil {
		return m.FailAll
	}
	if _, ok := mediaCodes[key]; !ok {
		return domain.NewDomainError("input.media", domain.ErrUnsupportedKey, key)
	}
	m.Media = append(m.Media, key)
	return nil
}

// TapSequence flattens recorded taps for assertions, one chord per
// entry joined with "+".
func (m *MockInjector) TapSequence() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Taps))
	for i, chord := range m.Taps {
		out[i] = strings.Join(chord, "+")
	}
	return out
}
