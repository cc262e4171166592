package link

import (
	"context"
	"sync"
	"time"

	"deckbridge/internal/domain"
)

// MockLink is a scripted Link for testing. Incoming chunks are pushed
// with PushChunk / PushLine; everything sent by the host is recorded.
type MockLink struct {
	mu sync.Mutex

	// ConnectErrs is consumed one error per Connect call; nil entries
	// mean success. When exhausted, Connect succeeds.
	ConnectErrs []error

	open     bool
	connects int
	incoming chan []byte
	closed   bool
	sent     [][]byte
}

// NewMockLink creates a mock link.
func NewMockLink() *MockLink {
	return &MockLink{incoming: make(chan []byte, 256)}
}

// Connect succeeds unless a scripted error is pending. Each successful
// connect re-arms the incoming buffer so a reconnect after
// CloseIncoming delivers fresh data.
func (m *MockLink) Connect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connects++
	if len(m.ConnectErrs) > 0 {
		err := m.ConnectErrs[0]
		m.ConnectErrs = m.ConnectErrs[1:]
		if err != nil {
			return err
		}
	}
	m.open = true
	if m.closed {
		m.incoming = make(chan []byte, 256)
		m.closed = false
	}
	return nil
}

func (m *MockLink) Read(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	open := m.open
	incoming := m.incoming
	m.mu.Unlock()
	if !open {
		return nil, domain.WrapOp("mock.read", domain.ErrNotConnected)
	}

	select {
	case chunk, ok := <-incoming:
		if !ok {
			return nil, domain.WrapOp("mock.read", domain.ErrLinkClosed)
		}
		return chunk, nil
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *MockLink) Send(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return domain.WrapOp("mock.send", domain.ErrNotConnected)
	}
	m.sent = append(m.sent, append([]byte{}, data...))
	return nil
}

func (m *MockLink) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

func (m *MockLink) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *MockLink) Describe() string { return "mock" }

// PushChunk delivers raw bytes to the next Read.
func (m *MockLink) PushChunk(chunk []byte) {
	m.mu.Lock()
	incoming := m.incoming
	m.mu.Unlock()
	incoming <- append([]byte{}, chunk...)
}

// PushLine delivers a full newline-terminated line.
func (m *MockLink) PushLine(line string) {
	m.PushChunk([]byte(line + "\n"))
}

// CloseIncoming simulates the device side dropping the link.
func (m *MockLink) CloseIncoming() {
	m.mu.Lock()
	incoming := m.incoming
	m.closed = true
	m.mu.Unlock()
	close(incoming)
}

// Sent returns a copy of everything the host transmitted.
func (m *MockLink) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	for i, s := range m.sent {
		out[i] = append([]byte{}, s...)
	}
	return out
}

// Connects reports how many Connect attempts were made.
func (m *MockLink) Connects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects
}
