package domain

import (
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	// Link / transport errors. None of these are fatal: the session
	// runner logs them and retries with backoff.
	ErrDeviceNotFound = fmt.Errorf("device not found")
	ErrConnectFailed  = fmt.Errorf("connect failed")
	ErrLinkClosed     = fmt.Errorf("link closed")
	ErrNotConnected   = fmt.Errorf("not connected")

	// Input injection errors.
	ErrUnsupportedKey = fmt.Errorf("key not representable on this platform")
	ErrUnknownKey     = fmt.Errorf("unknown key name")
	ErrNoKeys         = fmt.Errorf("no keys")

	// Launcher errors.
	ErrPathNotFound = fmt.Errorf("path not found")
	ErrNoTerminal   = fmt.Errorf("no terminal emulator found")

	// Telemetry errors.
	ErrSamplerUnavailable = fmt.Errorf("metric source unavailable")

	// Configuration errors.
	ErrConfigLoad = fmt.Errorf("failed to load configuration")
	ErrDecryption = fmt.Errorf("decryption failed")

	// Gateway / RPC errors.
	ErrAuthInvalid       = fmt.Errorf("authentication failed")
	ErrGatewayAuthFailed = fmt.Errorf("gateway: %w", ErrAuthInvalid)
	ErrRPCMethodNotFound = fmt.Errorf("rpc method not found")
	ErrRPCInvalidPayload = fmt.Errorf("rpc payload invalid")
	ErrDeviceNotReady    = fmt.Errorf("device not ready")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Session.Connect")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
