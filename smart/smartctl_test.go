package smart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
	"smart_status": {"passed": true},
	"temperature": {"current": 32},
	"power_on_time": {"hours": 1200},
	"power_cycle_count": 45,
	"ata_smart_data": {
		"offline_data_collection": {"status": {"value": 0}},
		"self_test": {"status": {"value": 0}, "polling_minutes": {"short": 2, "extended": 120, "conveyance": 5}},
		"capabilities": {"values": [1, 2]}
	},
	"ata_smart_attributes": {
		"table": [
			{"id": 5, "name": "Reallocated_Sector_Ct", "value": 100, "worst": 100, "thresh": 10,
			 "when_failed": "", "flags": {"value": 51, "prefailure": true}, "raw": {"value": 0, "string": "0"}},
			{"id": 9, "name": "Power_On_Hours", "value": 95, "worst": 95, "thresh": 0,
			 "when_failed": "", "flags": {"value": 50}, "raw": {"value": 1200, "string": "1200"}}
		]
	}
}`

func TestParseJSON(t *testing.T) {
	report, err := ParseJSON([]byte(sampleJSON))
	require.NoError(t, err)

	assert.True(t, report.OverallPassed)
	assert.InDelta(t, 305.15, report.TemperatureKelvin, 0.01)
	assert.Equal(t, uint64(1200*60), report.PowerOnMinutes)
	assert.Equal(t, uint64(45), report.PowerCycleCount)
	require.Len(t, report.Attributes, 2)

	assert.Equal(t, "reallocated-sector-count", report.Attributes[0].WellKnownName)
	assert.True(t, report.Attributes[0].Flags&FlagPrefailure != 0)

	assert.Equal(t, "power-on-hours", report.Attributes[1].WellKnownName)
	assert.Equal(t, UnitMilliseconds, report.Attributes[1].Unit)
}

func TestWellKnownNameFallback(t *testing.T) {
	assert.Equal(t, "attribute-250", WellKnownName(250))
}

func TestATAVersion(t *testing.T) {
	assert.Equal(t, "ACS-3 published, ANSI INCITS 522-2014", ATAVersion(0x010a))
	assert.Equal(t, "", ATAVersion(0xffff))
}

func TestSwapBytes(t *testing.T) {
	b := []byte{'B', 'A', 'D', 'C'}
	assert.Equal(t, []byte("ABCD"), swapBytes(b))
}
