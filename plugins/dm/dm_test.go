package dm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeFromNameMissingMapReturnsError(t *testing.T) {
	_, err := NodeFromName("does-not-exist-blockdev-test")
	assert.Error(t, err)
}

func TestMapExistsFalseOnMissingMap(t *testing.T) {
	ok, err := MapExists(context.Background(), "does-not-exist-blockdev-test", false, false)
	assert.NoError(t, err)
	assert.False(t, ok)
}
