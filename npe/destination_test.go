package npe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnicastDestination(t *testing.T) {
	// GIVEN a unicast destination
	target := Coord{DeviceID: 0, Row: 1, Col: 2}
	u := UnicastDestination{Target: target}

	// WHEN inspected through the NocDestination interface
	// THEN it reports unicast, not multicast, and DeviceID matches the target
	assert.False(t, u.IsMulticast())
	got, ok := u.Unicast()
	require.True(t, ok)
	assert.Equal(t, target, got)
	_, ok = u.Multicast()
	assert.False(t, ok)
	assert.Equal(t, target.DeviceID, u.DeviceID())
}

func TestNewMulticastDestinationRejectsMixedDevices(t *testing.T) {
	// GIVEN two rectangles on different devices
	r1 := Rectangle{Start: Coord{DeviceID: 0, Row: 0, Col: 0}, End: Coord{DeviceID: 0, Row: 1, Col: 1}}
	r2 := Rectangle{Start: Coord{DeviceID: 1, Row: 0, Col: 0}, End: Coord{DeviceID: 1, Row: 1, Col: 1}}

	// WHEN building a multicast destination from both
	// THEN construction fails
	_, ok := NewMulticastDestination(r1, r2)
	assert.False(t, ok)
}

func TestNewMulticastDestinationRejectsEmpty(t *testing.T) {
	// GIVEN no rectangles
	// WHEN building a multicast destination
	// THEN construction fails
	_, ok := NewMulticastDestination()
	assert.False(t, ok)
}

func TestRectangleAllRowMajor(t *testing.T) {
	// GIVEN a 2x2 rectangle
	r := Rectangle{Start: Coord{DeviceID: 0, Row: 1, Col: 1}, End: Coord{DeviceID: 0, Row: 2, Col: 2}}

	// WHEN enumerated
	// THEN every cell is visited in row-major order
	want := []Coord{
		{DeviceID: 0, Row: 1, Col: 1}, {DeviceID: 0, Row: 1, Col: 2},
		{DeviceID: 0, Row: 2, Col: 1}, {DeviceID: 0, Row: 2, Col: 2},
	}
	assert.Equal(t, want, r.All())
}

func TestMulticastDestinationSingleCellCollapsesToOneCoord(t *testing.T) {
	// GIVEN a multicast rectangle that is a single cell
	r := Rectangle{Start: Coord{DeviceID: 0, Row: 3, Col: 3}, End: Coord{DeviceID: 0, Row: 3, Col: 3}}
	mc, ok := NewMulticastDestination(r)
	require.True(t, ok)

	// WHEN enumerated
	// THEN it yields exactly the one coordinate (boundary case: a
	// single-cell multicast is equivalent in content to a unicast route)
	all := mc.Set.All()
	require.Len(t, all, 1)
	assert.Equal(t, Coord{DeviceID: 0, Row: 3, Col: 3}, all[0])
}
