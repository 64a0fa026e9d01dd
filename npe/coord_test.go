package npe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordString(t *testing.T) {
	// GIVEN a coord with distinct fields
	c := Coord{DeviceID: 2, Row: 3, Col: 4}
	// WHEN formatted
	// THEN every field appears
	assert.Equal(t, "(2,3,4)", c.String())
}

func TestWrap(t *testing.T) {
	// GIVEN a torus dimension of 10
	// WHEN wrapping values in and out of range
	// THEN the result is always in [0, n)
	assert.Equal(t, int32(0), wrap(10, 10))
	assert.Equal(t, int32(9), wrap(-1, 10))
	assert.Equal(t, int32(5), wrap(5, 10))
	assert.Equal(t, int32(8), wrap(-12, 10))
}

func TestSrcSinkNIUType(t *testing.T) {
	// GIVEN each NocType
	// WHEN asking for its src/sink NIU type
	// THEN NOC0 maps to the NOC0 pair and NOC1 to the NOC1 pair
	require.Equal(t, NIUNOC0Src, SrcNIUType(NOC0))
	require.Equal(t, NIUNOC0Sink, SinkNIUType(NOC0))
	require.Equal(t, NIUNOC1Src, SrcNIUType(NOC1))
	require.Equal(t, NIUNOC1Sink, SinkNIUType(NOC1))
}
