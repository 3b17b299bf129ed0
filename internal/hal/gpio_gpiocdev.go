//go:build linux
// +build linux

package hal

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// GpiocdevGPIO implements GPIOProvider over the Linux GPIO character device.
// Edge events are delivered on go-gpiocdev's own event-reader goroutine,
// which this package treats as the ranging core's interrupt source.
type GpiocdevGPIO struct {
	mu       sync.Mutex
	chipName string
	lines    map[int]*gpiocdev.Line
	modes    map[int]PinMode
}

// NewGpiocdevGPIO opens the named chip (e.g. "gpiochip0") to verify it
// exists, then releases it; lines are requested lazily per pin in SetMode.
func NewGpiocdevGPIO(chipName string) (*GpiocdevGPIO, error) {
	c, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("hal: open gpio chip %s: %w", chipName, err)
	}
	c.Close()

	return &GpiocdevGPIO{
		chipName: chipName,
		lines:    make(map[int]*gpiocdev.Line),
		modes:    make(map[int]PinMode),
	}, nil
}

func (g *GpiocdevGPIO) SetMode(pin int, mode PinMode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeLineLocked(pin)

	var line *gpiocdev.Line
	var err error
	switch mode {
	case Input:
		line, err = gpiocdev.RequestLine(g.chipName, pin, gpiocdev.AsInput)
	case Output:
		line, err = gpiocdev.RequestLine(g.chipName, pin, gpiocdev.AsOutput(0))
	default:
		return fmt.Errorf("hal: unsupported pin mode %v", mode)
	}
	if err != nil {
		return fmt.Errorf("hal: request pin %d: %w", pin, err)
	}

	g.lines[pin] = line
	g.modes[pin] = mode
	return nil
}

func (g *GpiocdevGPIO) DigitalRead(pin int) (bool, error) {
	g.mu.Lock()
	line, ok := g.lines[pin]
	g.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("hal: pin %d not initialized", pin)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("hal: read pin %d: %w", pin, err)
	}
	return v != 0, nil
}

func (g *GpiocdevGPIO) DigitalWrite(pin int, value bool) error {
	g.mu.Lock()
	line, ok := g.lines[pin]
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("hal: pin %d not initialized", pin)
	}
	v := 0
	if value {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("hal: write pin %d: %w", pin, err)
	}
	return nil
}

func (g *GpiocdevGPIO) WatchEdge(pin int, edge EdgeMode, callback func(pin int, value bool)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeLineLocked(pin)

	pinNum := pin
	handler := func(evt gpiocdev.LineEvent) {
		callback(pinNum, evt.Type == gpiocdev.LineEventRisingEdge)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.WithEventHandler(handler)}
	switch edge {
	case EdgeRising:
		opts = append(opts, gpiocdev.WithRisingEdge)
	case EdgeFalling:
		opts = append(opts, gpiocdev.WithFallingEdge)
	case EdgeBoth:
		opts = append(opts, gpiocdev.WithBothEdges)
	default:
		return fmt.Errorf("hal: edge mode required for WatchEdge")
	}

	line, err := gpiocdev.RequestLine(g.chipName, pin, opts...)
	if err != nil {
		return fmt.Errorf("hal: watch edge on pin %d: %w", pin, err)
	}
	g.lines[pin] = line
	g.modes[pin] = Input
	return nil
}

func (g *GpiocdevGPIO) ActivePins() map[int]PinMode {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int]PinMode, len(g.modes))
	for pin, mode := range g.modes {
		out[pin] = mode
	}
	return out
}

func (g *GpiocdevGPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for pin := range g.lines {
		g.closeLineLocked(pin)
	}
	return nil
}

// closeLineLocked must be called with g.mu held.
func (g *GpiocdevGPIO) closeLineLocked(pin int) {
	if line, ok := g.lines[pin]; ok {
		line.Close()
		delete(g.lines, pin)
	}
	delete(g.modes, pin)
}
