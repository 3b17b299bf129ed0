package configstore

import (
	"testing"

	"github.com/rangeguard/parkaid-fw/internal/configstore/nvs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWritesDefaults(t *testing.T) {
	s, err := Open(nvs.NewMemNVS())
	require.NoError(t, err)

	v, err := s.GetU16(LEDCount)
	require.NoError(t, err)
	assert.Equal(t, uint16(40), v)

	str, err := s.GetString(WifiSSID)
	require.NoError(t, err)
	assert.Equal(t, "parkaid", str)
}

func TestSetU16ValidatesBounds(t *testing.T) {
	s, err := Open(nvs.NewMemNVS())
	require.NoError(t, err)

	require.NoError(t, s.SetU16(LEDCount, 80))
	v, _ := s.GetU16(LEDCount)
	assert.Equal(t, uint16(80), v)

	err = s.SetU16(LEDCount, 200)
	assert.Error(t, err)
	v, _ = s.GetU16(LEDCount)
	assert.Equal(t, uint16(80), v, "rejected write must not change the cache")
}

func TestSetStringValidatesLength(t *testing.T) {
	s, err := Open(nvs.NewMemNVS())
	require.NoError(t, err)

	require.NoError(t, s.SetString(WifiSSID, "Net"))
	err = s.SetString(WifiSSID, "")
	assert.Error(t, err)

	v, _ := s.GetString(WifiSSID)
	assert.Equal(t, "Net", v)
}

func TestFactoryResetRestoresDefaults(t *testing.T) {
	s, err := Open(nvs.NewMemNVS())
	require.NoError(t, err)

	require.NoError(t, s.SetU16(LEDCount, 99))
	require.NoError(t, s.FactoryReset())

	v, _ := s.GetU16(LEDCount)
	assert.Equal(t, uint16(40), v)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	backing := nvs.NewMemNVS()
	s, err := Open(backing)
	require.NoError(t, err)
	require.NoError(t, s.SetU16(DistanceMaxMM, 900))

	reopened, err := Open(backing)
	require.NoError(t, err)
	v, _ := reopened.GetU16(DistanceMaxMM)
	assert.Equal(t, uint16(900), v)
}

func TestCorruptValueFallsBackToDefault(t *testing.T) {
	backing := nvs.NewMemNVS()
	require.NoError(t, backing.Set(u16Key(LEDCount), []byte{0xFF})) // wrong length

	s, err := Open(backing)
	require.NoError(t, err)
	v, _ := s.GetU16(LEDCount)
	assert.Equal(t, uint16(40), v)
}
