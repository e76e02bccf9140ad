package blockdev

import (
	"runtime"
	"testing"

	"github.com/dswarbrick/blockdev/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	closed bool
}

func (f *fakeBackend) Init() error  { return nil }
func (f *fakeBackend) Close() error { f.closed = true; return nil }
func (f *fakeBackend) IsTechAvail(tech string, mode plugin.Mode) error { return nil }

func resetState() {
	initLock.Lock()
	initialized = false
	loaded = map[plugin.Name]plugin.Backend{}
	initLock.Unlock()
}

func TestInitRejectsDoubleInit(t *testing.T) {
	resetState()
	defer resetState()

	plugin.Register(plugin.LOOP, func() plugin.Backend { return &fakeBackend{} })

	require.NoError(t, Init([]plugin.Spec{{Name: plugin.LOOP}}, nil))
	err := Init([]plugin.Spec{{Name: plugin.LOOP}}, nil)
	assert.Error(t, err)
}

func TestTryInitIsIdempotent(t *testing.T) {
	resetState()
	defer resetState()

	plugin.Register(plugin.LOOP, func() plugin.Backend { return &fakeBackend{} })

	require.NoError(t, TryInit([]plugin.Spec{{Name: plugin.LOOP}}, nil))
	require.NoError(t, TryInit([]plugin.Spec{{Name: plugin.LOOP}}, nil))
	assert.True(t, IsPluginAvailable(plugin.LOOP))
}

func TestS390ExcludedOnNonS390Host(t *testing.T) {
	if runtime.GOARCH == "s390x" {
		t.Skip("running on s390x, exclusion does not apply")
	}
	resetState()
	defer resetState()

	plugin.Register(plugin.S390, func() plugin.Backend { return &fakeBackend{} })

	require.NoError(t, Init([]plugin.Spec{{Name: plugin.S390}}, nil))
	assert.False(t, IsPluginAvailable(plugin.S390))
}

func TestCloseUnloadsPlugins(t *testing.T) {
	resetState()
	defer resetState()

	backend := &fakeBackend{}
	plugin.Register(plugin.LOOP, func() plugin.Backend { return backend })

	require.NoError(t, Init([]plugin.Spec{{Name: plugin.LOOP}}, nil))
	require.NoError(t, Close())
	assert.True(t, backend.closed)
	assert.False(t, IsPluginAvailable(plugin.LOOP))
}
