package domain

import "context"

// Link is the transport abstraction feeding and draining a session.
// Two implementations exist (serial port, BLE GATT central); the
// session logic never knows which one it is talking to.
//
// Read blocks until at least one byte is available, the context is
// cancelled, or the link fails. A nil error with an empty slice is a
// valid result for pull-style transports that poll with a timeout.
type Link interface {
	// Connect discovers the device and opens the transport. A returned
	// error is transient: the caller retries with backoff.
	Connect(ctx context.Context) error
	// Read returns the next chunk of raw bytes. Chunks carry no
	// framing guarantees; lines may be split or coalesced arbitrarily.
	Read(ctx context.Context) ([]byte, error)
	// Send writes raw bytes to the device.
	Send(ctx context.Context, data []byte) error
	// Disconnect closes the transport. Safe to call when not connected.
	Disconnect() error
	// IsOpen reports whether the transport is currently usable.
	IsOpen() bool
	// Describe returns a short human-readable transport description
	// (e.g. "serial /dev/ttyUSB0 @ 115200") for logging.
	Describe() string
}
