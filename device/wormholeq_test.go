package device

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tt-npe/npe-go/npe"
)

func TestWormholeQOverridesBandwidthButInheritsGeometry(t *testing.T) {
	// GIVEN a wormhole_q device and the plain wormhole_b0 it embeds
	q := newWormholeQ()
	b0 := newWormholeB0()

	// THEN its name and bandwidth curve differ from wormhole_b0's
	assert.Equal(t, "wormhole_q", q.Name())
	assert.NotEqual(t, b0.Name(), q.Name())
	assert.NotEqual(t, b0.MaxNoCTransferBW(), q.MaxNoCTransferBW())
	assert.NotEqual(t, b0.LinkBandwidth(0), q.LinkBandwidth(0))

	// BUT geometry, routing, and core layout are inherited unchanged
	assert.Equal(t, b0.NumLinks(), q.NumLinks())
	assert.Equal(t, b0.NumNIUs(), q.NumNIUs())
	c := npe.Coord{Row: 1, Col: 1}
	assert.Equal(t, b0.CoreType(c), q.CoreType(c))
}

func TestWormholeQRouteMatchesWormholeB0(t *testing.T) {
	// GIVEN identical src/dst on both variants
	q := newWormholeQ()
	b0 := newWormholeB0()
	src := npe.Coord{Row: 1, Col: 1}
	dst := npe.UnicastDestination{Target: npe.Coord{Row: 3, Col: 3}}

	// WHEN routed on each
	// THEN the routes are identical since wormholeQ inherits Route from *wormholeB0
	assert.Equal(t, b0.Route(npe.NOC0, src, dst), q.Route(npe.NOC0, src, dst))
}
