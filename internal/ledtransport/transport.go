// Package ledtransport drives the addressable RGB LED strip: a peripheral
// that serializes a GRB-ordered byte buffer with strict per-bit timing and a
// trailing reset gap, transmitting the whole buffer as one atomic
// transaction. The compositor in internal/display never touches the wire
// format directly — it only ever calls Write with a full frame.
package ledtransport

import "time"

// Color is a logical RGB pixel value, independent of the wire byte order.
type Color struct {
	R, G, B uint8
}

// ResetGap is the minimum idle-low duration the WS2812-class protocol
// requires after the last bit before the strip latches the frame.
const ResetGap = 60 * time.Microsecond

// Transport commands the LED peripheral. Write is expected to block until
// the whole frame, including the trailing reset gap, has been transmitted;
// callers must never observe a partially-applied frame.
type Transport interface {
	// Write transmits frame as one atomic transaction. len(frame) must equal
	// the strip length fixed at Open time.
	Write(frame []Color) error
	// Len returns the fixed pixel count of the strip.
	Len() int
	Close() error
}

// encodeGRB flattens a logical frame into the GRB byte order the peripheral
// expects on the wire, applying a global brightness scale (0-255).
func encodeGRB(frame []Color, brightness uint8) []byte {
	out := make([]byte, 0, len(frame)*3)
	scale := func(c uint8) uint8 {
		return uint8((uint32(c) * uint32(brightness)) / 255)
	}
	for _, px := range frame {
		out = append(out, scale(px.G), scale(px.R), scale(px.B))
	}
	return out
}
