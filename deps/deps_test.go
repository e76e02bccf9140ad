package deps

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckUtilPresent(t *testing.T) {
	c := &Checker{}
	specs := []Spec{{Util: "true"}}
	ok, err := c.Check(context.Background(), 1, specs)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckUtilMissing(t *testing.T) {
	c := &Checker{}
	specs := []Spec{{Util: "definitely-not-a-real-binary-xyz"}}
	ok, err := c.Check(context.Background(), 1, specs)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestCheckCachesResult(t *testing.T) {
	c := &Checker{}
	specs := []Spec{{Util: "true"}, {Util: "definitely-not-a-real-binary-xyz"}}

	ok, err := c.Check(context.Background(), 1, specs)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second call for the same bit must short-circuit through the atomic
	// fast path without re-probing.
	ok, err = c.Check(context.Background(), 1, specs)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = c.Check(context.Background(), 3, specs)
	assert.False(t, ok)
}

func TestCheckUtilVersion(t *testing.T) {
	c := &Checker{}
	specs := []Spec{{
		Util:          "echo",
		MinVersion:    "1.0",
		VersionArg:    "1.0.0",
		VersionRegexp: regexp.MustCompile(`(\d+\.\d+\.\d+)`),
	}}
	ok, err := c.Check(context.Background(), 1, specs)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckUtilVersionTooLow(t *testing.T) {
	c := &Checker{}
	specs := []Spec{{
		Util:          "echo",
		MinVersion:    "9.0",
		VersionArg:    "1.0.0",
		VersionRegexp: regexp.MustCompile(`(\d+\.\d+\.\d+)`),
	}}
	ok, err := c.Check(context.Background(), 1, specs)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestCheckModules(t *testing.T) {
	c := &Checker{}
	ok, _ := c.CheckModules(1, []ModuleSpec{{Name: "definitely-not-a-real-module-xyz"}})
	assert.False(t, ok)
}
