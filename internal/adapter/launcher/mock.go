package launcher

import (
	"context"
	"sync"

	"deckbridge/internal/domain"
)

// MockLauncher records launch requests for testing.
type MockLauncher struct {
	mu sync.Mutex

	Programs  []string
	URLs      []string
	Paths     []string
	Terminals []string

	// MissingPaths makes OpenPath fail with ErrPathNotFound for the
	// listed paths.
	MissingPaths map[string]bool
	// Err, when set, is returned by every operation.
	Err error
}

// NewMockLauncher creates a recording launcher.
func NewMockLauncher() *MockLauncher {
	return &MockLauncher{MissingPaths: make(map[string]bool)}
}

func (m *MockLauncher) OpenProgram(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Programs = append(m.Programs, name)
	return nil
}

func (m *MockLauncher) OpenURL(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.URLs = append(m.URLs, url)
	return nil
}

func (m *MockLauncher) OpenPath(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.MissingPaths[path] {
		return domain.NewDomainError("launcher.path", domain.ErrPathNotFound, path)
	}
	m.Paths = append(m.Paths, path)
	return nil
}

func (m *MockLauncher) RunInTerminal(_ context.Context, command string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Terminals = append(m.Terminals, command)
	return nil
}
