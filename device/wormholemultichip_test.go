package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tt-npe/npe-go/npe"
)

func TestMultichipVariantsReportExpectedChipCounts(t *testing.T) {
	cases := []struct {
		build func() npe.DeviceModel
		name  string
		chips int
	}{
		{newN150, "N150", 2},
		{newN300, "N300", 2},
		{newT3K, "T3K", 8},
		{newTG, "TG", 32},
		{newGalaxy, "GALAXY", 36},
	}
	for _, c := range cases {
		dev := c.build().(interface {
			NumChips() int
			DeviceIDs() []int32
			HasDevice(int32) bool
		})
		assert.Equal(t, c.chips, dev.NumChips(), c.name)
		assert.Len(t, dev.DeviceIDs(), c.chips, c.name)
		assert.True(t, dev.HasDevice(0), c.name)
		assert.False(t, dev.HasDevice(int32(c.chips)), c.name)
	}
}

func TestMultichipHarvestedCornersOnEveryChip(t *testing.T) {
	// GIVEN a T3K (8-chip) device
	dev := newT3K()

	// THEN the two harvested corners are UNDEF on every chip, not just chip 0
	for _, id := range []int32{0, 1, 7} {
		assert.Equal(t, npe.CoreUndef, dev.CoreType(npe.Coord{DeviceID: id, Row: 0, Col: 0}), "chip %d", id)
		assert.Equal(t, npe.CoreUndef, dev.CoreType(npe.Coord{DeviceID: id, Row: 6, Col: wormholeB0Cols - 1}), "chip %d", id)
		// and an ordinary interior cell is a worker on every chip
		assert.Equal(t, npe.CoreWorker, dev.CoreType(npe.Coord{DeviceID: id, Row: 1, Col: 1}), "chip %d", id)
	}
}

func TestMultichipCoreTypeOutOfRangeDeviceIsUndef(t *testing.T) {
	// GIVEN an N150 (2-chip) device
	dev := newN150()
	// WHEN queried for a chip id beyond its chip count
	got := dev.CoreType(npe.Coord{DeviceID: 5, Row: 1, Col: 1})
	// THEN it reports UNDEF rather than treating it as a valid worker
	assert.Equal(t, npe.CoreUndef, got)
}

func TestMultichipRouteStaysOnSourceChipForSameDeviceDestination(t *testing.T) {
	// GIVEN a T3K device and a unicast destination on the same chip as src
	// (the only shape Route ever sees: a fabric send that crosses chips
	// arrives pre-split into same-device transfer-group hops upstream)
	dev := newT3K()
	src := npe.Coord{DeviceID: 2, Row: 1, Col: 1}
	dst := npe.Coord{DeviceID: 2, Row: 3, Col: 3}

	// WHEN routed
	route := dev.Route(npe.NOC0, src, npe.UnicastDestination{Target: dst})
	require.NotEmpty(t, route)

	// THEN every link in the route belongs to the source chip
	for _, id := range route {
		attr, ok := dev.LinkAttrFor(id)
		require.True(t, ok)
		assert.Equal(t, src.DeviceID, attr.Coord.DeviceID)
	}
}

func TestMultichipSameChipRouteIsUnaffected(t *testing.T) {
	// GIVEN a T3K device and a same-chip unicast destination
	dev := newT3K()
	src := npe.Coord{DeviceID: 3, Row: 1, Col: 1}
	dst := npe.Coord{DeviceID: 3, Row: 3, Col: 3}

	// WHEN routed as multichip vs. as a plain single-chip wormholeB0 route
	route := dev.Route(npe.NOC0, src, npe.UnicastDestination{Target: dst})
	single := newWormholeB0()
	wantRoute := single.Route(npe.NOC0, npe.Coord{Row: 1, Col: 1}, npe.UnicastDestination{Target: npe.Coord{Row: 3, Col: 3}})

	// THEN the hop count matches the equivalent single-chip route exactly
	assert.Len(t, route, len(wantRoute))
}
