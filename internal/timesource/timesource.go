// Package timesource provides the monotonic microsecond clock the ranging
// and display cores timestamp events with. A real microcontroller reads this
// off a free-running hardware counter; on the Linux target here it is
// time.Now()'s monotonic reading, which Go never lets wall-clock adjustments
// perturb.
package timesource

import (
	"sync"
	"time"
)

// Clock is the monotonic microsecond time source used throughout the
// sensing/rendering pipeline. It never wraps within a measurement session.
type Clock interface {
	NowMicros() uint64
}

// System is the real clock, anchored at first use so NowMicros values stay
// small and comparable across a boot.
type System struct {
	once  sync.Once
	epoch time.Time
}

func (s *System) NowMicros() uint64 {
	s.once.Do(func() { s.epoch = time.Now() })
	return uint64(time.Since(s.epoch).Microseconds())
}

// Default is the process-wide system clock.
var Default Clock = &System{}

// NowMicros reads the default clock.
func NowMicros() uint64 { return Default.NowMicros() }

// Fake is a controllable clock for deterministic tests.
type Fake struct {
	mu  sync.Mutex
	now uint64
}

func NewFake(startUs uint64) *Fake { return &Fake{now: startUs} }

func (f *Fake) NowMicros() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake clock forward by d microseconds.
func (f *Fake) Advance(d uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now += d
}

// Set pins the fake clock to an exact value.
func (f *Fake) Set(us uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = us
}
