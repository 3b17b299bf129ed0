package ranging

// isrState tracks the rising-to-falling edge pair on the echo pin. It is
// touched exclusively from the gpiocdev event-handler goroutine (hal's
// stand-in for the hardware edge interrupt), so it needs no lock of its
// own — the handler callback runs serially per line.
type isrState struct {
	pending  bool
	startUs  uint64
}

// edgeHandler returns a callback suitable for hal.GPIOProvider.WatchEdge on
// the echo pin. It pairs a rising edge with the next falling edge into a
// RawEcho and delivers it on raw, dropping the pair silently if raw is full
// — a stuck consumer should not block the interrupt path.
func (c *Core) edgeHandler() func(pin int, value bool) {
	return func(pin int, value bool) {
		now := c.clock.NowMicros()
		if value {
			c.isr.pending = true
			c.isr.startUs = now
			return
		}
		if !c.isr.pending {
			return
		}
		c.isr.pending = false
		echo := RawEcho{StartUs: c.isr.startUs, EndUs: now}
		select {
		case c.raw <- echo:
		default:
		}
	}
}
