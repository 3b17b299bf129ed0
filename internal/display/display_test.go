package display

import (
	"testing"

	"github.com/rangeguard/parkaid-fw/internal/ledtransport"
	"github.com/rangeguard/parkaid-fw/internal/ranging"
	"github.com/rangeguard/parkaid-fw/internal/timesource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	m    ranging.Measurement
	have bool
}

func (f *fakeSource) GetLatestNonBlocking() (ranging.Measurement, bool) { return f.m, f.have }

func TestComputeZones(t *testing.T) {
	z := computeZones(100)
	assert.Equal(t, 25, z.idealStart)
	assert.Equal(t, 34, z.idealEnd)
}

func TestMapPositionClamps(t *testing.T) {
	assert.Equal(t, 0, mapPosition(0, 20, 4000, 60))
	assert.Equal(t, 59, mapPosition(4000, 20, 4000, 60))
}

func TestOnTickNoMeasurementClears(t *testing.T) {
	transport := ledtransport.NewMockTransport(60)
	src := &fakeSource{}
	comp := NewCompositor(transport, src, RangeConfig{MinMM: 20, MaxMM: 4000}, timesource.NewFake(0))

	require.NoError(t, comp.onTick())
	require.Equal(t, 1, transport.FrameCount())
	for _, px := range transport.LastFrame() {
		assert.Equal(t, ledtransport.Color{}, px)
	}
}

func TestOnTickIdealZonePaintsRed(t *testing.T) {
	transport := ledtransport.NewMockTransport(100)
	src := &fakeSource{have: true, m: ranging.Measurement{Status: ranging.StatusOK, DistanceMM: 1200}}
	comp := NewCompositor(transport, src, RangeConfig{MinMM: 20, MaxMM: 4000}, timesource.NewFake(0))

	idx := mapPosition(1200, 20, 4000, 100)
	z := computeZones(100)
	require.GreaterOrEqual(t, idx, z.idealStart)
	require.LessOrEqual(t, idx, z.idealEnd)

	require.NoError(t, comp.onTick())
	frame := transport.LastFrame()
	for i := z.idealStart; i <= z.idealEnd; i++ {
		assert.Equal(t, colorRed, frame[i])
	}
}

func TestOnTickEmergencyBlinksEveryTenth(t *testing.T) {
	transport := ledtransport.NewMockTransport(30)
	src := &fakeSource{have: true, m: ranging.Measurement{Status: ranging.StatusOK, DistanceMM: 5}}
	// Start past the 500ms toggle threshold (measured from a zero
	// last-toggle timestamp) so the first tick flips blink on deterministically.
	clock := timesource.NewFake(500_000)
	comp := NewCompositor(transport, src, RangeConfig{MinMM: 20, MaxMM: 4000}, clock)

	require.NoError(t, comp.onTick())
	frame := transport.LastFrame()
	for i := 0; i < 30; i += 10 {
		assert.Equal(t, colorRed, frame[i])
	}

	clock.Advance(500_000) // another full threshold: toggles back off
	require.NoError(t, comp.onTick())
	frame = transport.LastFrame()
	for i := 0; i < 30; i += 10 {
		assert.Equal(t, ledtransport.Color{}, frame[i])
	}
}

func TestOnTickNoEchoHintsPixelZero(t *testing.T) {
	transport := ledtransport.NewMockTransport(20)
	src := &fakeSource{have: true, m: ranging.Measurement{Status: ranging.StatusNoEcho}}
	comp := NewCompositor(transport, src, RangeConfig{MinMM: 20, MaxMM: 4000}, timesource.NewFake(0))

	require.NoError(t, comp.onTick())
	frame := transport.LastFrame()
	assert.Equal(t, colorRed, frame[0])
}

func TestStartFailsWithoutTransport(t *testing.T) {
	comp := &Compositor{frame: nil}
	err := comp.Start()
	assert.Error(t, err)
}
