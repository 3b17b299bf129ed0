// Package ranging implements the ultrasonic distance-sensing core: it
// drives an HC-SR04-class sensor's trigger/echo pair, converts pulse widths
// into smoothed millimetre readings, and publishes them on a bounded,
// drop-oldest channel for the display core to consume.
package ranging

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rangeguard/parkaid-fw/internal/apperr"
	"github.com/rangeguard/parkaid-fw/internal/hal"
	"github.com/rangeguard/parkaid-fw/internal/timesource"
)

const (
	rawChanCap       = 2
	processedChanCap = 5
	triggerPulseUs   = 10
)

// Core owns the trigger/echo GPIO pair and the measurement pipeline built
// on top of it. Zero value is not usable — construct with NewCore.
type Core struct {
	gpio  hal.GPIOProvider
	clock timesource.Clock
	cfg   SensorConfig

	isr isrState
	raw chan RawEcho

	mu        sync.Mutex
	processed chan Measurement
	overflow  atomic.Uint64

	lastMu   sync.Mutex
	last     Measurement
	haveLast bool

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewCore builds a ranging core against the given GPIO provider and clock.
// Pass timesource.Default in production; tests pass a *timesource.Fake.
func NewCore(gpio hal.GPIOProvider, clock timesource.Clock, cfg SensorConfig) *Core {
	return &Core{
		gpio:      gpio,
		clock:     clock,
		cfg:       cfg,
		raw:       make(chan RawEcho, rawChanCap),
		processed: make(chan Measurement, processedChanCap),
	}
}

// Init configures the trigger and echo pins and arms the edge watcher. Must
// be called once before Start.
func (c *Core) Init() error {
	if err := c.gpio.SetMode(c.cfg.TriggerPin, hal.Output); err != nil {
		return apperr.Wrap(apperr.IoError, "ranging.Init", err)
	}
	if err := c.gpio.DigitalWrite(c.cfg.TriggerPin, false); err != nil {
		return apperr.Wrap(apperr.IoError, "ranging.Init", err)
	}
	if err := c.gpio.SetMode(c.cfg.EchoPin, hal.Input); err != nil {
		return apperr.Wrap(apperr.IoError, "ranging.Init", err)
	}
	if err := c.gpio.WatchEdge(c.cfg.EchoPin, hal.EdgeBoth, c.edgeHandler()); err != nil {
		return apperr.Wrap(apperr.IoError, "ranging.Init", err)
	}
	return nil
}

// Start launches the trigger/sample loop. Calling Start twice is an error.
func (c *Core) Start() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return apperr.New(apperr.InvalidState, "ranging.Start", "already running")
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()
	return nil
}

// Stop halts the trigger/sample loop and waits for it to exit.
func (c *Core) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return apperr.New(apperr.InvalidState, "ranging.Stop", "not running")
	}
	c.running = false
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// GetLatest blocks until a measurement is available.
func (c *Core) GetLatest() Measurement {
	return <-c.processed
}

// HasNew reports, without blocking, whether a fresh measurement is queued.
func (c *Core) HasNew() bool {
	return len(c.processed) > 0
}

// GetLatestNonBlocking returns the most recently published measurement
// without ever suspending the caller: if a new one is queued it is consumed
// and cached, otherwise the last cached value is returned. The display
// compositor uses this so a slow or stalled sensor never stalls rendering.
// The bool is false only if no measurement has ever been produced.
func (c *Core) GetLatestNonBlocking() (Measurement, bool) {
	select {
	case m := <-c.processed:
		c.lastMu.Lock()
		c.last = m
		c.haveLast = true
		c.lastMu.Unlock()
		return m, true
	default:
	}
	c.lastMu.Lock()
	defer c.lastMu.Unlock()
	return c.last, c.haveLast
}

// OverflowCount returns how many measurements were dropped because the
// processed queue was full when a new one arrived.
func (c *Core) OverflowCount() uint64 {
	return c.overflow.Load()
}

func (c *Core) run() {
	defer c.wg.Done()
	period := time.Duration(c.cfg.PeriodMs) * time.Millisecond
	timeout := time.Duration(c.cfg.EchoTimeoutMs) * time.Millisecond

	var smoothed uint16
	haveSmoothed := false

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
		}

		if err := c.pulseTrigger(); err != nil {
			continue
		}

		var m Measurement
		select {
		case echo := <-c.raw:
			m = c.classifyEcho(echo, &smoothed, &haveSmoothed)
		case <-time.After(timeout):
			m = Measurement{Status: StatusTimeout, TimestampUs: c.clock.NowMicros()}
		case <-c.stopCh:
			return
		}

		c.publish(m)
	}
}

func (c *Core) pulseTrigger() error {
	if err := c.gpio.DigitalWrite(c.cfg.TriggerPin, true); err != nil {
		return err
	}
	busyWaitUs(triggerPulseUs)
	return c.gpio.DigitalWrite(c.cfg.TriggerPin, false)
}

func (c *Core) classifyEcho(echo RawEcho, smoothed *uint16, haveSmoothed *bool) Measurement {
	now := c.clock.NowMicros()
	if echo.EndUs <= echo.StartUs {
		return Measurement{Status: StatusNoEcho, TimestampUs: now}
	}
	dur := echo.EndUs - echo.StartUs
	raw := distanceFromDuration(dur, c.cfg.TempTenthsC)
	status := classify(raw)
	if status != StatusOK {
		return Measurement{DistanceMM: raw, Status: status, TimestampUs: now}
	}

	if !*haveSmoothed {
		*smoothed = raw
		*haveSmoothed = true
	} else {
		*smoothed = applyEMA(*smoothed, raw, c.cfg.Smoothing)
	}
	return Measurement{DistanceMM: *smoothed, Status: StatusOK, TimestampUs: now}
}

// publish delivers m to the processed channel, dropping the oldest queued
// measurement and counting an overflow if the channel is full.
func (c *Core) publish(m Measurement) {
	select {
	case c.processed <- m:
		return
	default:
	}
	select {
	case <-c.processed:
		c.overflow.Add(1)
	default:
	}
	select {
	case c.processed <- m:
	default:
	}
}

// busyWaitUs spins for roughly d microseconds. time.Sleep's scheduler
// granularity is too coarse for the HC-SR04's 10µs trigger pulse.
func busyWaitUs(d int64) {
	deadline := time.Now().Add(time.Duration(d) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}
