package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tt-npe/npe-go/internal/npeerr"
)

func TestNewRejectsUnknownDevice(t *testing.T) {
	// GIVEN an unregistered device name
	// WHEN New is called
	_, err := New("does_not_exist")
	// THEN it fails with ErrDeviceModelInit
	require.Error(t, err)
	assert.True(t, errors.Is(err, npeerr.ErrDeviceModelInit))
}

func TestNewConstructsEveryRegisteredName(t *testing.T) {
	// GIVEN every name New() knows how to build
	for _, name := range Names() {
		// WHEN constructed
		dev, err := New(name)
		// THEN it succeeds and reports a non-empty link and NIU set
		require.NoError(t, err, "device %q", name)
		require.NotNil(t, dev)
		assert.Greater(t, dev.NumLinks(), 0, "device %q", name)
		assert.Greater(t, dev.NumNIUs(), 0, "device %q", name)
	}
}

func TestBlackholeAliasMatchesP100(t *testing.T) {
	// GIVEN the "blackhole" alias and the explicit "P100" name
	alias, err := New("blackhole")
	require.NoError(t, err)
	explicit, err := New("P100")
	require.NoError(t, err)

	// THEN they report the same identity and geometry
	assert.Equal(t, explicit.Name(), alias.Name())
	assert.Equal(t, explicit.NumLinks(), alias.NumLinks())
}
