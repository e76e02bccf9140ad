package crypto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLUKSFormatRequiresPassphraseOrKeyFile(t *testing.T) {
	err := LUKSFormat(context.Background(), "/dev/does-not-exist-blockdev-test", "", 0, "", "")
	assert.Error(t, err)
}

func TestLUKSOpenRequiresPassphraseOrKeyFile(t *testing.T) {
	err := LUKSOpen(context.Background(), "/dev/does-not-exist-blockdev-test", "mymapper", "", "")
	assert.Error(t, err)
}

func TestIsLUKSFalseOnMissingDevice(t *testing.T) {
	assert.False(t, IsLUKS(context.Background(), "/dev/does-not-exist-blockdev-test"))
}
