package device

import "github.com/tt-npe/npe-go/npe"

// wormholeQ is Wormhole-B0's geometry and routing with a lower-clocked
// bandwidth curve; it has no silicon variants, unlike Blackhole.
type wormholeQ struct {
	*wormholeB0
}

func newWormholeQ() npe.DeviceModel {
	base := newWormholeB0().(*wormholeB0)
	return &wormholeQ{wormholeB0: base}
}

func (d *wormholeQ) Name() string { return "wormhole_q" }

func (d *wormholeQ) TransferBWTable() []npe.BWTableEntry { return wormholeQBWTable }
func (d *wormholeQ) MaxNoCTransferBW() float32           { return wormholeQMaxNoCTransferBW }
func (d *wormholeQ) LinkBandwidth(id npe.LinkID) float32 { return wormholeQLinkBandwidth }

func (d *wormholeQ) ComputeCurrentTransferRate(t0, t1 uint32, transfers []*npe.PETransferState, live []int, state *npe.DeviceState, enableCongestion bool) {
	computeCurrentTransferRate(t0, t1, transfers, live, d, state, enableCongestion, properMulticastSinkDemand)
}
