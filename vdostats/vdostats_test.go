package vdostats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveBlockStats(t *testing.T) {
	stats := Stats{
		"block_size":            "4096",
		"physical_blocks":       "1024",
		"data_blocks_used":      "100",
		"overhead_blocks_used":  "24",
		"logical_blocks_used":   "200",
		"logical_block_size":    "512",
	}

	Derive(stats)

	assert.Equal(t, "4096", stats["oneKBlocks"])
	assert.Equal(t, "496", stats["oneKBlocksUsed"])
	assert.Equal(t, "3600", stats["oneKBlocksAvailable"])
	assert.Equal(t, "12", stats["usedPercent"])
	assert.Equal(t, "50", stats["savings"])
	assert.Equal(t, "50", stats["savingPercent"])
	assert.Equal(t, "true", stats["fiveTwelveByteEmulation"])
}

func TestDeriveMissingInputsLeavesKeyAbsent(t *testing.T) {
	stats := Stats{"block_size": "4096"}
	Derive(stats)

	_, ok := stats["oneKBlocks"]
	assert.False(t, ok)
	_, ok = stats["writeAmplificationRatio"]
	assert.False(t, ok)
}

func TestWriteAmplificationRatioZeroDenominator(t *testing.T) {
	stats := Stats{
		"bios_meta_write": "10",
		"bios_out_write":  "5",
		"bios_in_write":   "0",
	}
	Derive(stats)
	assert.Equal(t, "0.00", stats["writeAmplificationRatio"])
}

func TestFlattenNestedYAMLKeys(t *testing.T) {
	stats := Stats{}
	flatten("", map[string]interface{}{
		"biosInProgress": map[string]interface{}{"read": "3"},
	}, stats)
	assert.Equal(t, "3", stats["biosInProgressRead"])
}
