package link

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.bug.st/serial"

	"deckbridge/internal/domain"
	"deckbridge/internal/infra/config"
)

// SerialLink talks to the deck over a USB serial port. Reads use the
// port's read timeout so the session loop can observe cancellation
// between chunks.
type SerialLink struct {
	cfg    config.SerialConfig
	logger *slog.Logger

	mu   sync.Mutex
	port serial.Port
	open bool
	name string
}

// NewSerialLink creates a serial link from configuration. The port is
// not opened until Connect.
func NewSerialLink(cfg config.SerialConfig, logger *slog.Logger) *SerialLink {
	return &SerialLink{cfg: cfg, logger: logger}
}

// Connect opens the configured port. An empty port name picks the
// first port the OS reports, which covers the single-device desk
// setup this bridge is built for.
func (s *SerialLink) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.cfg.Port
	if name == "" {
		ports, err := serial.GetPortsList()
		if err != nil || len(ports) == 0 {
			return domain.NewDomainError("serial.connect", domain.ErrDeviceNotFound, "no serial ports present")
		}
		name = ports[0]
		s.logger.Info("auto-selected serial port", "port", name)
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: s.cfg.BaudRate})
	if err != nil {
		return domain.NewDomainError("serial.connect", domain.ErrConnectFailed, err.Error())
	}
	if err := port.SetReadTimeout(s.cfg.ReadTimeout.Std()); err != nil {
		port.Close()
		return domain.NewDomainError("serial.connect", domain.ErrConnectFailed, err.Error())
	}

	s.port = port
	s.open = true
	s.name = name
	return nil
}

// Read returns the next chunk of bytes from the port. A read timeout
// yields an empty chunk and no error so the caller can poll its
// context.
func (s *SerialLink) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	port, open := s.port, s.open
	s.mu.Unlock()

	if !open {
		return nil, domain.WrapOp("serial.read", domain.ErrNotConnected)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]byte, 256)
	n, err := port.Read(buf)
	if err != nil {
		return nil, domain.NewDomainError("serial.read", domain.ErrLinkClosed, err.Error())
	}
	return buf[:n], nil
}

// Send writes data to the port.
func (s *SerialLink) Send(ctx context.Context, data []byte) error {
	s.mu.Lock()
	port, open := s.port, s.open
	s.mu.Unlock()

	if !open {
		return domain.WrapOp("serial.send", domain.ErrNotConnected)
	}
	if _, err := port.Write(data); err != nil {
		return domain.NewDomainError("serial.send", domain.ErrLinkClosed, err.Error())
	}
	return nil
}

// Disconnect closes the port. Safe to call when already closed.
func (s *SerialLink) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	s.open = false
	return s.port.Close()
}

// IsOpen reports whether the port is open.
func (s *SerialLink) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Describe identifies the link for logs and events.
func (s *SerialLink) Describe() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := s.name
	if name == "" {
		name = s.cfg.Port
	}
	return fmt.Sprintf("serial:%s@%d", name, s.cfg.BaudRate)
}
