// Package configstore is the typed, validated, persistent key-value
// configuration layer: two compile-time metadata tables (u16 and string
// parameters) cached in memory and mirrored to the nvs package's
// non-volatile store.
package configstore

import "strconv"

// U16ID identifies a u16-valued parameter. Stable across releases — this is
// the external contract other systems address parameters by.
type U16ID int

const (
	WifiAPChannel U16ID = iota
	WifiAPMaxConnections
	WifiSTAMaxRetry
	WifiSTATimeoutMs
	DistanceMinMM
	DistanceMaxMM
	SmoothingFactor
	LEDCount
	LEDBrightness
	MeasurementIntervalMs
	SensorTimeoutMs
	HTTPPort
	numU16Params
)

// StringID identifies a string-valued parameter.
type StringID int

const (
	WifiSSID StringID = iota
	WifiPassword
	numStringParams
)

// u16Meta is the compile-time bounds/default for one u16 parameter.
type u16Meta struct {
	Min, Max, Default uint16
}

// strMeta is the compile-time bounds/default for one string parameter.
type strMeta struct {
	MinLen, MaxLen int
	Default        string
}

// u16Params is the table-driven metadata for every u16 id; validation and
// factory defaults are both derived from it, never hand-maintained
// separately (spec §4.3, §9 "ad-hoc option bundles").
var u16Params = [numU16Params]u16Meta{
	WifiAPChannel:         {Min: 1, Max: 13, Default: 6},
	WifiAPMaxConnections:  {Min: 1, Max: 8, Default: 4},
	WifiSTAMaxRetry:       {Min: 0, Max: 10, Default: 5},
	WifiSTATimeoutMs:      {Min: 1000, Max: 60000, Default: 10000},
	DistanceMinMM:         {Min: 20, Max: 4000, Default: 100},
	DistanceMaxMM:         {Min: 20, Max: 4000, Default: 500},
	SmoothingFactor:       {Min: 0, Max: 1000, Default: 300},
	LEDCount:              {Min: 1, Max: 100, Default: 40},
	LEDBrightness:         {Min: 0, Max: 255, Default: 64},
	MeasurementIntervalMs: {Min: 10, Max: 10000, Default: 100},
	SensorTimeoutMs:       {Min: 1, Max: 1000, Default: 30},
	HTTPPort:              {Min: 1, Max: 65535, Default: 8080},
}

var strParams = [numStringParams]strMeta{
	WifiSSID:     {MinLen: 1, MaxLen: 32, Default: "parkaid"},
	WifiPassword: {MinLen: 0, MaxLen: 63, Default: ""},
}

func u16Key(id U16ID) string    { return "u" + strconv.Itoa(int(id)) }
func strKey(id StringID) string { return "s" + strconv.Itoa(int(id)) }
