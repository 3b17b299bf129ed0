//go:build linux
// +build linux

package ledtransport

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

// bit timing for the WS2812-class protocol, in nanoseconds.
const (
	t0HighNs = 350
	t0LowNs  = 800
	t1HighNs = 700
	t1LowNs  = 600
)

// RpioStrip drives a WS2812-class strip by bit-banging a single GPIO line
// with direct memory-mapped register access. go-rpio's Pin.High/Low hit the
// BCM GPSET/GPCLR registers directly, which is close enough to the required
// sub-microsecond bit timing that gpiocdev's per-call ioctl round trip
// cannot reach. Software bit-banging from a preemptible goroutine is still
// approximate — see the busyWait note below — but it is the same tradeoff
// the teacher's own ws2812.go accepted.
type RpioStrip struct {
	mu         sync.Mutex
	pin        rpio.Pin
	length     int
	brightness uint8
	opened     bool
}

// OpenRpioStrip maps /dev/gpiomem and claims pin as output. brightness is a
// 0-255 global scale applied in Write.
func OpenRpioStrip(pin int, length int, brightness uint8) (*RpioStrip, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("ledtransport: rpio open: %w", err)
	}
	p := rpio.Pin(pin)
	p.Output()
	p.Low()

	return &RpioStrip{
		pin:        p,
		length:     length,
		brightness: brightness,
		opened:     true,
	}, nil
}

func (s *RpioStrip) Len() int { return s.length }

// Write transmits the whole frame as one atomic bit-banged transaction: the
// caller-visible strip state never reflects a partially-sent frame because
// the reset gap (and thus the latch) only happens after every bit has gone
// out, and nothing else in the process drives this pin concurrently.
func (s *RpioStrip) Write(frame []Color) error {
	if len(frame) != s.length {
		return fmt.Errorf("ledtransport: frame length %d != strip length %d", len(frame), s.length)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return fmt.Errorf("ledtransport: strip closed")
	}

	data := encodeGRB(frame, s.brightness)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for _, b := range data {
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<uint(bit)) != 0 {
				s.pin.High()
				busyWait(t1HighNs * time.Nanosecond)
				s.pin.Low()
				busyWait(t1LowNs * time.Nanosecond)
			} else {
				s.pin.High()
				busyWait(t0HighNs * time.Nanosecond)
				s.pin.Low()
				busyWait(t0LowNs * time.Nanosecond)
			}
		}
	}

	s.pin.Low()
	time.Sleep(ResetGap)
	return nil
}

func (s *RpioStrip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return nil
	}
	s.pin.Low()
	s.opened = false
	return rpio.Close()
}

// busyWait spins on the monotonic clock rather than sleeping: at these
// sub-microsecond durations, time.Sleep's timer-wheel granularity would blow
// the WS2812 bit budget outright. Goroutine preemption still makes any
// individual bit's timing approximate on a non-real-time kernel.
func busyWait(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
