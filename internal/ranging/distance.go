package ranging

const (
	minValidMM = 20
	maxValidMM = 4000

	// speedBaseScaled is the speed of sound at 0°C in m/s, scaled by 1e6;
	// speedTempCoefScaled is the linear correction of 0.0606 m/s per 0.1°C at
	// the same scale (spec §4.1 step 3).
	speedBaseScaled       = 331_300_000
	speedTempCoefScaled   = 606 * 100
)

// speedScaledMMPerUs converts the temperature-corrected speed of sound into
// a mm/µs figure, still scaled by 1e6.
func speedScaledMMPerUs(tempTenthsC int) int64 {
	speedMPerS := int64(speedBaseScaled) + int64(tempTenthsC)*speedTempCoefScaled
	return speedMPerS / 1000
}

// distanceFromDuration converts an echo pulse width into millimetres using
// integer-only arithmetic, per spec §4.1 steps 3-4.
func distanceFromDuration(durUs uint64, tempTenthsC int) uint16 {
	speedScaled := speedScaledMMPerUs(tempTenthsC)
	if speedScaled < 0 {
		return 0
	}
	distance := (durUs * uint64(speedScaled)) / 2_000_000
	if distance > 0xFFFF {
		return 0xFFFF
	}
	return uint16(distance)
}

// classify maps a raw distance to a status: in-range readings are OK,
// everything outside the sensor's rated window is out-of-range rather than
// an error — the sensor is working, the target is just not in range.
func classify(distanceMM uint16) MeasurementStatus {
	if distanceMM < minValidMM || distanceMM > maxValidMM {
		return StatusOutOfRange
	}
	return StatusOK
}

// applyEMA blends a new sample into the running average using a fixed-point
// alpha scaled by 1000 (spec §4.1 step 5): smoothed = (alpha*new +
// (1000-alpha)*prev) / 1000.
func applyEMA(prev, sample uint16, alpha int) uint16 {
	if alpha <= 0 {
		return prev
	}
	if alpha >= 1000 {
		return sample
	}
	blended := int64(alpha)*int64(sample) + int64(1000-alpha)*int64(prev)
	return uint16(blended / 1000)
}
