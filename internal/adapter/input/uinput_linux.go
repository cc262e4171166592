//go:build linux

package input

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"deckbridge/internal/domain"
)

const (
	evSyn = 0x00
	evKey = 0x01

	synReport = 0x00

	busUSB = 0x03

	keyLeftShift = 42
)

// ioctl request encoding (Linux _IOC macro).
const (
	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	iocWrite = 1
	iocNone  = 0
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr(dir<<iocDirShift | size<<iocSizeShift | typ<<iocTypeShift | nr<<iocNRShift)
}

type inputID struct {
	BusType uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputSetup struct {
	ID           inputID
	Name         [80]byte
	FFEffectsMax uint32
}

func uiSetEvBit() uintptr   { return ioc(iocWrite, 'U', 100, 4) }
func uiSetKeyBit() uintptr  { return ioc(iocWrite, 'U', 101, 4) }
func uiDevSetup() uintptr   { return ioc(iocWrite, 'U', 3, uint32(unsafe.Sizeof(uinputSetup{}))) }
func uiDevCreate() uintptr  { return ioc(iocNone, 'U', 1, 0) }
func uiDevDestroy() uintptr { return ioc(iocNone, 'U', 2, 0) }

// UinputInjector synthesizes key events through a virtual keyboard
// registered with the kernel uinput subsystem. Requires write access
// to /dev/uinput.
type UinputInjector struct {
	mu   sync.Mutex
	fd   int
	held map[uint16]bool
}

// NewUinputInjector creates the virtual device and registers every key
// code the command vocabulary can emit.
func NewUinputInjector() (*UinputInjector, error) {
	fd, err := unix.Open("/dev/uinput", unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, domain.WrapOp("input.open", fmt.Errorf("open /dev/uinput: %w", err))
	}

	inj := &UinputInjector{fd: fd, held: make(map[uint16]bool)}

	if err := inj.ioctlInt(uiSetEvBit(), evKey); err != nil {
		unix.Close(fd)
		return nil, domain.WrapOp("input.setup", err)
	}
	for _, code := range namedKeys {
		if err := inj.ioctlInt(uiSetKeyBit(), int(code)); err != nil {
			unix.Close(fd)
			return nil, domain.WrapOp("input.setup", err)
		}
	}
	for _, cs := range charKeys {
		if err := inj.ioctlInt(uiSetKeyBit(), int(cs.code)); err != nil {
			unix.Close(fd)
			return nil, domain.WrapOp("input.setup", err)
		}
	}
	for _, code := range mediaCodes {
		if err := inj.ioctlInt(uiSetKeyBit(), int(code)); err != nil {
			unix.Close(fd)
			return nil, domain.WrapOp("input.setup", err)
		}
	}

	setup := uinputSetup{ID: inputID{BusType: busUSB, Vendor: 0x1d6b, Product: 0x0104, Version: 1}}
	copy(setup.Name[:], "deckbridge virtual keyboard")
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevSetup(), uintptr(unsafe.Pointer(&setup))); errno != 0 {
		unix.Close(fd)
		return nil, domain.WrapOp("input.setup", fmt.Errorf("UI_DEV_SETUP: %w", errno))
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevCreate(), 0); errno != 0 {
		unix.Close(fd)
		return nil, domain.WrapOp("input.setup", fmt.Errorf("UI_DEV_CREATE: %w", errno))
	}

	// Give userspace (X, Wayland compositors) a moment to pick up the
	// new device before the first event.
	time.Sleep(200 * time.Millisecond)
	return inj, nil
}

func (u *UinputInjector) ioctlInt(req uintptr, val int) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(u.fd), req, uintptr(val)); errno != 0 {
		return fmt.Errorf("ioctl 0x%x: %w", req, errno)
	}
	return nil
}

func (u *UinputInjector) writeEvent(evType, code uint16, value int32) error {
	// struct input_event on 64-bit: struct timeval (16 bytes) then
	// type, code, value. The kernel fills the timestamp.
	var buf [24]byte
	*(*uint16)(unsafe.Pointer(&buf[16])) = evType
	*(*uint16)(unsafe.Pointer(&buf[18])) = code
	*(*int32)(unsafe.Pointer(&buf[20])) = value
	if _, err := unix.Write(u.fd, buf[:]); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func (u *UinputInjector) key(code uint16, down bool) error {
	value := int32(0)
	if down {
		value = 1
	}
	if err := u.writeEvent(evKey, code, value); err != nil {
		return err
	}
	return u.writeEvent(evSyn, synReport, 0)
}

// Tap presses every key of the chord in order, then releases in
// reverse order.
func (u *UinputInjector) Tap(keys []string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	codes := make([]uint16, 0, len(keys))
	needShift := false
	for _, k := range keys {
		code, shift, ok := lookupKey(k)
		if !ok {
			return domain.NewDomainError("input.tap", domain.ErrUnknownKey, k)
		}
		needShift = needShift || shift
		codes = append(codes, code)
	}
	if needShift {
		codes = append([]uint16{keyLeftShift}, codes...)
	}

	for _, c := range codes {
		if err := u.key(c, true); err != nil {
			return domain.WrapOp("input.tap", err)
		}
	}
	for i := len(codes) - 1; i >= 0; i-- {
		if err := u.key(codes[i], false); err != nil {
			return domain.WrapOp("input.tap", err)
		}
	}
	return nil
}

// Press holds a key down until Release. The virtual device has no fn
// key, so holding fn is reported as unsupported.
func (u *UinputInjector) Press(key string) error {
	code, _, ok := lookupKey(key)
	if !ok {
		return domain.NewDomainError("input.press", domain.ErrUnsupportedKey, key)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.key(code, true); err != nil {
		return domain.WrapOp("input.press", err)
	}
	u.held[code] = true
	return nil
}

// Release lets go of a key held by Press.
func (u *UinputInjector) Release(key string) error {
	code, _, ok := lookupKey(key)
	if !ok {
		return domain.NewDomainError("input.release", domain.ErrUnsupportedKey, key)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.key(code, false); err != nil {
		return domain.WrapOp("input.release", err)
	}
	delete(u.held, code)
	return nil
}

// ReleaseAll releases every key still held by Press. Called on
// disconnect so a dropped link cannot leave a modifier stuck down.
func (u *UinputInjector) ReleaseAll() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	var firstErr error
	for code := range u.held {
		if err := u.key(code, false); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(u.held, code)
	}
	if firstErr != nil {
		return domain.WrapOp("input.release_all", firstErr)
	}
	return nil
}

// TypeText injects literal text one character at a time. Characters
// the virtual keyboard cannot produce are skipped. Returns the number
// of characters typed.
func (u *UinputInjector) TypeText(text string) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	typed := 0
	for _, r := range text {
		cs, ok := charKeys[r]
		if !ok {
			continue
		}
		if cs.shift {
			if err := u.key(keyLeftShift, true); err != nil {
				return typed, domain.WrapOp("input.type", err)
			}
		}
		if err := u.key(cs.code, true); err != nil {
			return typed, domain.WrapOp("input.type", err)
		}
		if err := u.key(cs.code, false); err != nil {
			return typed, domain.WrapOp("input.type", err)
		}
		if cs.shift {
			if err := u.key(keyLeftShift, false); err != nil {
				return typed, domain.WrapOp("input.type", err)
			}
		}
		typed++
		time.Sleep(time.Millisecond)
	}
	return typed, nil
}

// TapMedia presses and releases a media or hardware key directly.
func (u *UinputInjector) TapMedia(key string) error {
	code, ok := mediaCodes[key]
	if !ok {
		return domain.NewDomainError("input.media", domain.ErrUnsupportedKey, key)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.key(code, true); err != nil {
		return domain.WrapOp("input.media", err)
	}
	if err := u.key(code, false); err != nil {
		return domain.WrapOp("input.media", err)
	}
	return nil
}

// Close destroys the virtual device.
func (u *UinputInjector) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, _, _ = unix.Syscall(unix.SYS_IOCTL, uintptr(u.fd), uiDevDestroy(), 0)
	return unix.Close(u.fd)
}
