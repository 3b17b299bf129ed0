// Package display implements the frame compositor: a fixed-cadence ticker
// that reads the latest ranging measurement and the cached active-range
// config, composes a priority-layered LED frame, and commits it atomically
// to the LED transport.
package display

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rangeguard/parkaid-fw/internal/apperr"
	"github.com/rangeguard/parkaid-fw/internal/ledtransport"
	"github.com/rangeguard/parkaid-fw/internal/logging"
	"github.com/rangeguard/parkaid-fw/internal/ranging"
	"github.com/rangeguard/parkaid-fw/internal/timesource"
)

const tickPeriod = 100 * time.Millisecond

var (
	colorOff    = ledtransport.Color{}
	colorRed    = ledtransport.Color{R: 255}
	colorGreen  = ledtransport.Color{G: 255}
	colorOrange = ledtransport.Color{R: 255, G: 128}
	colorWhite  = ledtransport.Color{R: 255, G: 255, B: 255}
)

func scaled(c ledtransport.Color, percent int) ledtransport.Color {
	scale := func(v uint8) uint8 { return uint8(int(v) * percent / 100) }
	return ledtransport.Color{R: scale(c.R), G: scale(c.G), B: scale(c.B)}
}

// MeasurementSource is the subset of *ranging.Core the compositor needs.
// Defined here, not in ranging, so display tests can substitute a fake
// without standing up a real sensor core.
type MeasurementSource interface {
	GetLatestNonBlocking() (ranging.Measurement, bool)
}

// RangeConfig is the start-of-day snapshot of the active-range parameters
// the compositor renders against. Per spec, changes to these require a
// reboot to take effect — the compositor never re-reads them mid-session.
type RangeConfig struct {
	MinMM uint16
	MaxMM uint16
}

// DisplayState is the compositor's private animation state.
type DisplayState struct {
	AnimPos      int
	AnimDir      int
	BlinkOn      bool
	LastToggleUs uint64
}

// Compositor owns the frame buffer and display state exclusively; nothing
// else may write to the LED transport.
type Compositor struct {
	transport ledtransport.Transport
	source    MeasurementSource
	cfg       RangeConfig
	clock     timesource.Clock

	frame []ledtransport.Color
	state DisplayState

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCompositor builds a compositor for a strip of transport.Len() pixels.
func NewCompositor(transport ledtransport.Transport, source MeasurementSource, cfg RangeConfig, clock timesource.Clock) *Compositor {
	n := transport.Len()
	return &Compositor{
		transport: transport,
		source:    source,
		cfg:       cfg,
		clock:     clock,
		frame:     make([]ledtransport.Color, n),
		state:     DisplayState{AnimDir: 1},
	}
}

// Start launches the 100ms render ticker. Fails fatally (per spec) if the
// transport was never provided.
func (c *Compositor) Start() error {
	if c.transport == nil || c.transport.Len() == 0 {
		return apperr.New(apperr.InvalidState, "display.Start", "LED transport not initialized")
	}
	c.stopCh = make(chan struct{})
	c.wg.Add(1)
	go c.loop()
	return nil
}

// Stop halts the render ticker and waits for it to exit.
func (c *Compositor) Stop() error {
	if c.stopCh == nil {
		return apperr.New(apperr.InvalidState, "display.Stop", "not running")
	}
	close(c.stopCh)
	c.wg.Wait()
	return nil
}

func (c *Compositor) loop() {
	defer c.wg.Done()
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			if err := c.onTick(); err != nil {
				logging.Get().Warn("display: frame skipped", zap.Error(err))
			}
		}
	}
}

// onTick composes exactly one frame and commits it. Transient errors are
// returned to loop, which logs them and keeps ticking — the ticker must
// never stop because one frame failed to transmit.
func (c *Compositor) onTick() error {
	m, have := c.source.GetLatestNonBlocking()
	n := len(c.frame)
	if n == 0 {
		return nil
	}

	clear(c.frame)

	if !have || m.Status == ranging.StatusTimeout {
		return c.transport.Write(c.frame)
	}

	if m.Status != ranging.StatusOK {
		c.frame[0] = colorRed
		return c.transport.Write(c.frame)
	}

	z := computeZones(n)
	c.renderOK(m.DistanceMM, z)
	return c.transport.Write(c.frame)
}

func (c *Compositor) renderOK(dMM uint16, z zones) {
	n := len(c.frame)
	now := c.clock.NowMicros()

	if dMM < c.cfg.MinMM {
		c.renderEmergency(now)
		return
	}

	paintZone(c.frame, z.idealStart, z.idealEnd, n, scaled(colorRed, 2))

	idx := mapPosition(clampDistance(dMM, c.cfg.MaxMM), c.cfg.MinMM, c.cfg.MaxMM, n)
	tooFar := idx > z.idealEnd
	tooClose := idx < z.idealStart
	aboveRange := dMM > c.cfg.MaxMM

	c.advanceAnimation(z, tooFar, tooClose)

	switch {
	case tooFar:
		paintAt(c.frame, c.state.AnimPos, n, scaled(colorWhite, 2))
	case tooClose:
		paintAt(c.frame, c.state.AnimPos, n, colorRed)
	case aboveRange:
		paintAt(c.frame, c.state.AnimPos, n, scaled(colorWhite, 2))
	}

	switch {
	case tooFar:
		paintAt(c.frame, idx, n, colorGreen)
	case tooClose:
		paintAt(c.frame, idx, n, scaled(colorOrange, 50))
	}

	if idx >= z.idealStart && idx <= z.idealEnd {
		paintZone(c.frame, z.idealStart, z.idealEnd, n, colorRed)
	}
}

func (c *Compositor) renderEmergency(nowUs uint64) {
	if nowUs-c.state.LastToggleUs >= 500_000 {
		c.state.BlinkOn = !c.state.BlinkOn
		c.state.LastToggleUs = nowUs
	}
	n := len(c.frame)
	clear(c.frame)
	if !c.state.BlinkOn {
		return
	}
	for i := 0; i < n; i += 10 {
		c.frame[i] = colorRed
	}
}

func (c *Compositor) advanceAnimation(z zones, tooFar, tooClose bool) {
	n := len(c.frame)
	switch {
	case tooFar:
		c.state.AnimPos--
		if c.state.AnimPos < z.idealEnd {
			c.state.AnimPos = n - 1
		}
	case tooClose:
		c.state.AnimPos++
		if c.state.AnimPos > z.idealStart {
			c.state.AnimPos = 0
		}
	}
}

func clampDistance(d, max uint16) uint16 {
	if d > max {
		return max
	}
	return d
}

func paintAt(frame []ledtransport.Color, idx, n int, col ledtransport.Color) {
	if idx < 0 || idx >= n {
		return
	}
	frame[idx] = col
}

func paintZone(frame []ledtransport.Color, start, end, n int, col ledtransport.Color) {
	if start < 0 {
		start = 0
	}
	if end > n-1 {
		end = n - 1
	}
	for i := start; i <= end; i++ {
		frame[i] = col
	}
}

func clear(frame []ledtransport.Color) {
	for i := range frame {
		frame[i] = colorOff
	}
}
