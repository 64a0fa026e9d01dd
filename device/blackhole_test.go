package device

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tt-npe/npe-go/npe"
)

func TestBlackholeVariantsDifferOnlyInDRAMBandwidth(t *testing.T) {
	// GIVEN P100 and P150
	p100 := newBlackholeP100()
	p150 := newBlackholeP150()

	// THEN their aggregate DRAM bandwidth differs (7 banks vs 8)...
	assert.NotEqual(t, p100.AggregateDRAMBandwidth(), p150.AggregateDRAMBandwidth())
	assert.Less(t, p100.AggregateDRAMBandwidth(), p150.AggregateDRAMBandwidth())

	// ...but everything else about their shape is identical
	assert.Equal(t, p100.NumLinks(), p150.NumLinks())
	assert.Equal(t, p100.NumNIUs(), p150.NumNIUs())
	assert.Equal(t, p100.MaxNoCTransferBW(), p150.MaxNoCTransferBW())
}

func TestBlackholeHarvestedCornersAndEthRows(t *testing.T) {
	dev := newBlackholeP100()
	// THEN the two harvested corners are UNDEF
	assert.Equal(t, npe.CoreUndef, dev.CoreType(npe.Coord{Row: 0, Col: 0}))
	assert.Equal(t, npe.CoreUndef, dev.CoreType(npe.Coord{Row: 6, Col: 16}))
	// and rows 0 and 6 are otherwise ethernet
	assert.Equal(t, npe.CoreEth, dev.CoreType(npe.Coord{Row: 0, Col: 1}))
	assert.Equal(t, npe.CoreEth, dev.CoreType(npe.Coord{Row: 6, Col: 1}))
	// DRAM columns 0 and 8 (off the harvested/eth rows)
	assert.Equal(t, npe.CoreDRAM, dev.CoreType(npe.Coord{Row: 1, Col: 0}))
	assert.Equal(t, npe.CoreDRAM, dev.CoreType(npe.Coord{Row: 1, Col: 8}))
}

func TestBlackholeRouteHopCountMatchesSymmetricDistanceForShortMoves(t *testing.T) {
	// GIVEN a move two east and two south (well within half the grid in
	// either dimension, so the forward-only NOC0 traversal and the
	// symmetric routeHops helper agree)
	route := (newBlackholeP100()).Route(npe.NOC0, npe.Coord{Row: 1, Col: 1}, npe.UnicastDestination{Target: npe.Coord{Row: 3, Col: 3}})
	assert.Len(t, route, 4)
	assert.Equal(t, 4, routeHops(npe.NOC0, npe.Coord{Row: 1, Col: 1}, npe.Coord{Row: 3, Col: 3}))
}

func TestBlackholeRouteHopsIsASimplifiedMetricNotActualTraversalLength(t *testing.T) {
	// GIVEN a NOC0 move from row 1 to row 10 on a 12-row grid: the real
	// traversal only ever increments row (never wraps backward for a
	// forward-reachable destination), so it takes 9 hops south. The
	// symmetric routeHops helper instead reports the shorter wrap-around
	// distance (3), since it doesn't know NOC0 only moves forward.
	src := npe.Coord{Row: 1, Col: 1}
	dst := npe.Coord{Row: 10, Col: 1}

	route := (newBlackholeP100()).Route(npe.NOC0, src, npe.UnicastDestination{Target: dst})
	hops := routeHops(npe.NOC0, src, dst)

	// THEN they genuinely disagree — routeHops is a standalone distance
	// estimate exposed for simple same-direction test cases, not a live
	// reflection of Route's forward-only traversal.
	assert.Len(t, route, 9)
	assert.Equal(t, 3, hops)
	assert.NotEqual(t, len(route), hops)
}
