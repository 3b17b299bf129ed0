//go:build !linux
// +build !linux

package ledtransport

import "fmt"

// RpioStrip is a stub for non-Linux dev hosts; go-rpio's register mapping is
// Linux-only. Use MockTransport for local development.
type RpioStrip struct{}

func OpenRpioStrip(pin int, length int, brightness uint8) (*RpioStrip, error) {
	return nil, fmt.Errorf("ledtransport: rpio not supported on this platform")
}

func (s *RpioStrip) Len() int                { return 0 }
func (s *RpioStrip) Write(frame []Color) error { return fmt.Errorf("ledtransport: rpio not supported on this platform") }
func (s *RpioStrip) Close() error            { return nil }
