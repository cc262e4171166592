package link

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"deckbridge/internal/domain"
	"deckbridge/internal/infra/config"
)

// BLELink talks to the deck as a BLE central: it scans for the
// advertised device name, connects, and exchanges line data over the
// deck's RX (host→device write) and TX (device→host notify)
// characteristics. Notifications are buffered in a channel so slow
// command execution never drops a chunk.
type BLELink struct {
	cfg     config.BLEConfig
	logger  *slog.Logger
	adapter *bluetooth.Adapter

	mu     sync.Mutex
	device bluetooth.Device
	rx     bluetooth.DeviceCharacteristic
	open   bool

	incoming chan []byte
}

// NewBLELink creates a BLE link from configuration.
func NewBLELink(cfg config.BLEConfig, logger *slog.Logger) *BLELink {
	return &BLELink{
		cfg:     cfg,
		logger:  logger,
		adapter: bluetooth.DefaultAdapter,
	}
}

// Connect scans for the device, connects and subscribes to telemetry
// notifications. It fails with ErrDeviceNotFound when the scan window
// closes without a match.
func (b *BLELink) Connect(ctx context.Context) error {
	serviceUUID, err := bluetooth.ParseUUID(b.cfg.ServiceUUID)
	if err != nil {
		return domain.NewDomainError("ble.connect", domain.ErrConnectFailed, "service uuid: "+err.Error())
	}
	rxUUID, err := bluetooth.ParseUUID(b.cfg.RXCharUUID)
	if err != nil {
		return domain.NewDomainError("ble.connect", domain.ErrConnectFailed, "rx uuid: "+err.Error())
	}
	txUUID, err := bluetooth.ParseUUID(b.cfg.TXCharUUID)
	if err != nil {
		return domain.NewDomainError("ble.connect", domain.ErrConnectFailed, "tx uuid: "+err.Error())
	}

	if err := b.adapter.Enable(); err != nil {
		return domain.NewDomainError("ble.connect", domain.ErrConnectFailed, "enable adapter: "+err.Error())
	}

	addr, err := b.scan(ctx)
	if err != nil {
		return err
	}

	device, err := b.adapter.Connect(addr, bluetooth.ConnectionParams{
		ConnectionTimeout: bluetooth.NewDuration(b.cfg.ConnectTimeout.Std()),
	})
	if err != nil {
		return domain.NewDomainError("ble.connect", domain.ErrConnectFailed, err.Error())
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil || len(services) == 0 {
		device.Disconnect()
		return domain.NewDomainError("ble.connect", domain.ErrConnectFailed, "service discovery: "+errDetail(err))
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{rxUUID, txUUID})
	if err != nil || len(chars) < 2 {
		device.Disconnect()
		return domain.NewDomainError("ble.connect", domain.ErrConnectFailed, "characteristic discovery: "+errDetail(err))
	}

	var rx, tx bluetooth.DeviceCharacteristic
	for _, c := range chars {
		switch c.UUID() {
		case rxUUID:
			rx = c
		case txUUID:
			tx = c
		}
	}

	incoming := make(chan []byte, 64)
	if err := tx.EnableNotifications(func(buf []byte) {
		chunk := append([]byte{}, buf...)
		select {
		case incoming <- chunk:
		default:
			b.logger.Warn("ble notify buffer full, dropping chunk", "bytes", len(chunk))
		}
	}); err != nil {
		device.Disconnect()
		return domain.NewDomainError("ble.connect", domain.ErrConnectFailed, "enable notifications: "+err.Error())
	}

	b.mu.Lock()
	b.device = device
	b.rx = rx
	b.incoming = incoming
	b.open = true
	b.mu.Unlock()
	return nil
}

// scan looks for an advertisement carrying the configured local name.
func (b *BLELink) scan(ctx context.Context) (bluetooth.Address, error) {
	var (
		found bluetooth.Address
		ok    bool
	)

	scanCtx, cancel := context.WithTimeout(ctx, b.cfg.ScanTimeout.Std())
	defer cancel()

	go func() {
		<-scanCtx.Done()
		b.adapter.StopScan()
	}()

	err := b.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if result.LocalName() == b.cfg.DeviceName {
			found = result.Address
			ok = true
			adapter.StopScan()
		}
	})
	if err != nil {
		return bluetooth.Address{}, domain.NewDomainError("ble.scan", domain.ErrConnectFailed, err.Error())
	}
	if !ok {
		return bluetooth.Address{}, domain.NewDomainError("ble.scan", domain.ErrDeviceNotFound, b.cfg.DeviceName)
	}
	return found, nil
}

// Read returns the next notification chunk, or an empty chunk after a
// short poll interval so the caller can observe cancellation.
func (b *BLELink) Read(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	incoming, open := b.incoming, b.open
	b.mu.Unlock()

	if !open {
		return nil, domain.WrapOp("ble.read", domain.ErrNotConnected)
	}

	select {
	case chunk, chOpen := <-incoming:
		if !chOpen {
			return nil, domain.WrapOp("ble.read", domain.ErrLinkClosed)
		}
		return chunk, nil
	case <-time.After(100 * time.Millisecond):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send writes data to the deck's RX characteristic.
func (b *BLELink) Send(ctx context.Context, data []byte) error {
	b.mu.Lock()
	rx, open := b.rx, b.open
	b.mu.Unlock()

	if !open {
		return domain.WrapOp("ble.send", domain.ErrNotConnected)
	}
	if _, err := rx.WriteWithoutResponse(data); err != nil {
		return domain.NewDomainError("ble.send", domain.ErrLinkClosed, err.Error())
	}
	return nil
}

// Disconnect drops the BLE connection. Safe to call when already
// closed.
func (b *BLELink) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil
	}
	b.open = false
	return b.device.Disconnect()
}

// IsOpen reports whether the connection is live.
func (b *BLELink) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Describe identifies the link for logs and events.
func (b *BLELink) Describe() string {
	return fmt.Sprintf("ble:%s", b.cfg.DeviceName)
}

func errDetail(err error) string {
	if err == nil {
		return "not found"
	}
	return err.Error()
}
