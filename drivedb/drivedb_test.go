package drivedb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresetsMergesDefaultsAndMatchingFamily(t *testing.T) {
	presets, err := Presets("SAMSUNG SSD 850 PRO 256GB", "EXM02B6Q")
	assert.NoError(t, err)
	assert.Equal(t, "Reallocated_Sector_Ct", presets["5"].Name)
	assert.Equal(t, "raw24(raw8)", presets["9"].Conv)
	assert.Equal(t, "Wear_Leveling_Count", presets["177"].Name)
}

func TestPresetsNoMatchReturnsOnlyDefaults(t *testing.T) {
	presets, err := Presets("SOME UNKNOWN DRIVE", "1.0")
	assert.NoError(t, err)
	assert.Empty(t, presets)
}

func TestLookupSkipsPlaceholderFamilies(t *testing.T) {
	matches, err := Lookup("USB BRIDGE CONTROLLER", "1.0")
	assert.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = Lookup("VERSION 2 DEVICE", "1.0")
	assert.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLookupMatchesIntelFamily(t *testing.T) {
	matches, err := Lookup("INTEL SSDSC2BB080G4", "D2010355")
	assert.NoError(t, err)
	if assert.Len(t, matches, 1) {
		assert.Equal(t, "Intel datacenter SSDs", matches[0].Family)
	}
}

func TestLookupExcludesDefaultRecord(t *testing.T) {
	matches, err := Lookup("ANYTHING AT ALL", "1.0")
	assert.NoError(t, err)
	assert.Empty(t, matches)
}
