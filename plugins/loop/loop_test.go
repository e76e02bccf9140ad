package loop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBackingFileMissingDeviceReturnsEmpty(t *testing.T) {
	v, err := GetBackingFile("loop-does-not-exist-blockdev-test")
	assert.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestGetLoopNameNoMatchReturnsEmpty(t *testing.T) {
	v, err := GetLoopName("/no/such/backing/file/blockdev-test")
	assert.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestTeardownBareNameReturnsError(t *testing.T) {
	// losetup is unlikely to exist in a minimal test environment; this
	// exercises the argv-construction path up to the exec boundary.
	err := Teardown(context.Background(), "loop0")
	assert.Error(t, err)
}
