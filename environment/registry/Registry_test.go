package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := New()
	kwargs := map[string]string{EnvCfgEntryPoint: "pkg:Cfg"}
	spec := EnvSpec{
		ID:                "Test-v0",
		EntryPoint:        "env",
		DisableEnvChecker: true,
		Kwargs:            kwargs,
	}
	require.NoError(t, r.Register(spec))

	got, err := r.Spec("Test-v0")
	require.NoError(t, err)
	assert.Equal(t, spec, got)

	// The registry keeps its own copy of the keyword arguments
	kwargs[EnvCfgEntryPoint] = "changed"
	entry, err := got.Kwarg(EnvCfgEntryPoint)
	require.NoError(t, err)
	assert.Equal(t, "pkg:Cfg", entry)

	_, err = got.Kwarg(SKRLCfgEntryPoint)
	assert.True(t, errors.Is(err, ErrNoKwarg))

	err = r.Register(spec)
	assert.True(t, errors.Is(err, ErrDuplicateID))

	_, err = r.Spec("Missing-v0")
	assert.True(t, errors.Is(err, ErrUnknownID))

	assert.Error(t, r.Register(EnvSpec{}))
}

func TestRegistryIDsSorted(t *testing.T) {
	r := New()
	for _, id := range []string{"b", "c", "a"} {
		require.NoError(t, r.Register(EnvSpec{ID: id}))
	}
	assert.Equal(t, []string{"a", "b", "c"}, r.IDs())
}
