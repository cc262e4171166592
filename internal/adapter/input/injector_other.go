//go:build !linux

package input

import (
	"errors"

	"deckbridge/internal/domain"
)

var errPlatform = errors.New("input injection is only implemented for linux")

// UinputInjector is a stub on non-linux platforms. Every operation
// fails; use MockInjector in tests.
type UinputInjector struct{}

func NewUinputInjector() (*UinputInjector, error) {
	return nil, domain.WrapOp("input.open", errPlatform)
}

func (u *UinputInjector) Tap([]string) error            { return errPlatform }
func (u *UinputInjector) Press(string) error            { return errPlatform }
func (u *UinputInjector) Release(string) error          { return errPlatform }
func (u *UinputInjector) ReleaseAll() error             { return errPlatform }
func (u *UinputInjector) TypeText(string) (int, error)  { return 0, errPlatform }
func (u *UinputInjector) TapMedia(string) error         { return errPlatform }
func (u *UinputInjector) Close() error                  { return nil }
