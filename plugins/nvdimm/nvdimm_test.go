package nvdimm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceModeStringRoundTrip(t *testing.T) {
	for mode, want := range modeStrings {
		s, err := NamespaceModeString(NamespaceMode(mode))
		require.NoError(t, err)
		assert.Equal(t, want, s)
	}
}

func TestNamespaceModeFromStringInvalid(t *testing.T) {
	_, err := NamespaceModeFromString("bogus")
	assert.Error(t, err)
}

func TestNamespaceModeFromStringKnown(t *testing.T) {
	mode, err := NamespaceModeFromString("fsdax")
	require.NoError(t, err)
	assert.Equal(t, ModeFSDax, mode)
}

func TestReconfigureRejectsInvalidMode(t *testing.T) {
	err := Reconfigure(context.Background(), "namespace0.0", NamespaceMode(99), false, nil)
	assert.Error(t, err)
}
