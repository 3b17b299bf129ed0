package ranging

import (
	"testing"
	"time"

	"github.com/rangeguard/parkaid-fw/internal/hal"
	"github.com/rangeguard/parkaid-fw/internal/timesource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() SensorConfig {
	return SensorConfig{
		TriggerPin:    5,
		EchoPin:       6,
		PeriodMs:      1,
		EchoTimeoutMs: 50,
		TempTenthsC:   200,
		Smoothing:     500,
	}
}

func TestDistanceFromDuration(t *testing.T) {
	// ~20C, 3000us round trip -> roughly 515mm per the reference table.
	d := distanceFromDuration(3000, 200)
	assert.InDelta(t, 515, int(d), 2)
}

func TestApplyEMA(t *testing.T) {
	assert.Equal(t, uint16(100), applyEMA(0, 100, 1000))
	assert.Equal(t, uint16(50), applyEMA(100, 0, 500))
	assert.Equal(t, uint16(42), applyEMA(42, 999, 0))
}

func TestClassifyOutOfRange(t *testing.T) {
	assert.Equal(t, StatusOutOfRange, classify(10))
	assert.Equal(t, StatusOutOfRange, classify(5000))
	assert.Equal(t, StatusOK, classify(500))
}

func TestCoreEndToEndMeasurement(t *testing.T) {
	mock := hal.NewMockHAL()
	gpio := mock.MockGPIOHandle()
	clock := timesource.NewFake(1000)

	core := NewCore(gpio, clock, testConfig())
	require.NoError(t, core.Init())
	require.NoError(t, core.Start())
	defer core.Stop()

	require.Eventually(t, func() bool {
		return gpio.ActivePins()[6] == hal.Input
	}, time.Second, time.Millisecond)

	clock.Set(2000)
	gpio.InjectEdge(6, true)
	clock.Set(5000)
	gpio.InjectEdge(6, false)

	m := core.GetLatest()
	assert.Equal(t, StatusOK, m.Status)
	assert.Greater(t, m.DistanceMM, uint16(0))
}

func TestCoreTimeout(t *testing.T) {
	mock := hal.NewMockHAL()
	gpio := mock.MockGPIOHandle()
	clock := timesource.NewFake(1000)

	cfg := testConfig()
	cfg.EchoTimeoutMs = 5
	cfg.PeriodMs = 1

	core := NewCore(gpio, clock, cfg)
	require.NoError(t, core.Init())
	require.NoError(t, core.Start())
	defer core.Stop()

	m := core.GetLatest()
	assert.Equal(t, StatusTimeout, m.Status)
}

func TestCoreOverflowDropsOldest(t *testing.T) {
	mock := hal.NewMockHAL()
	gpio := mock.MockGPIOHandle()
	clock := timesource.NewFake(1000)

	core := NewCore(gpio, clock, testConfig())
	for i := 0; i < processedChanCap+2; i++ {
		core.publish(Measurement{DistanceMM: uint16(i), Status: StatusOK})
	}
	assert.Equal(t, uint64(2), core.OverflowCount())
	assert.True(t, core.HasNew())
}

func TestGetLatestNonBlockingCachesLastValue(t *testing.T) {
	mock := hal.NewMockHAL()
	gpio := mock.MockGPIOHandle()
	clock := timesource.NewFake(0)

	core := NewCore(gpio, clock, testConfig())
	_, have := core.GetLatestNonBlocking()
	assert.False(t, have)

	core.publish(Measurement{DistanceMM: 123, Status: StatusOK})
	m, have := core.GetLatestNonBlocking()
	require.True(t, have)
	assert.Equal(t, uint16(123), m.DistanceMM)

	// No new measurement queued: returns the cached last value again.
	m2, have2 := core.GetLatestNonBlocking()
	require.True(t, have2)
	assert.Equal(t, m.DistanceMM, m2.DistanceMM)
}

func TestStartTwiceFails(t *testing.T) {
	mock := hal.NewMockHAL()
	gpio := mock.MockGPIOHandle()
	clock := timesource.NewFake(0)

	core := NewCore(gpio, clock, testConfig())
	require.NoError(t, core.Init())
	require.NoError(t, core.Start())
	defer core.Stop()

	err := core.Start()
	assert.Error(t, err)
}
