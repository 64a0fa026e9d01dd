package device

import "github.com/tt-npe/npe-go/npe"

// wormholeMultichip models a ring of Wormhole-B0 chips connected by
// ethernet links: N150 (2 chips), N300 (2 chips, different board), T3K
// (8 chips), TG (32 chips), and GALAXY (36 chips) all share this shape
// and differ only in chip count and name. A fabric send that crosses
// chips is never a single cross-device unicast transfer — it arrives
// pre-split into a transfer-group chain of same-device hops (see
// ingest.ParseNocTrace's fabric_send handling), so Route only ever sees
// a same-device destination; the inter-chip delay between hops is
// accounted for purely through the dependency tracker's ethernet-hop
// delay (see GenTransferGroupDependencies), not as additional link
// demand, since cross-chip link contention is out of scope for this
// estimator.
type wormholeMultichip struct {
	name      string
	numChips  int
	deviceIDs []int32
	linkBijec *linkBijection
	niuBijec  *niuBijection
}

func newWormholeMultichip(name string, numChips int) npe.DeviceModel {
	ids := make([]int32, numChips)
	for i := range ids {
		ids[i] = int32(i)
	}
	return &wormholeMultichip{
		name:      name,
		numChips:  numChips,
		deviceIDs: ids,
		linkBijec: buildLinkBijection(wormholeB0Rows, wormholeB0Cols, ids),
		niuBijec:  buildNIUBijection(wormholeB0Rows, wormholeB0Cols, ids),
	}
}

func newN150() npe.DeviceModel  { return newWormholeMultichip("N150", 2) }
func newN300() npe.DeviceModel  { return newWormholeMultichip("N300", 2) }
func newT3K() npe.DeviceModel   { return newWormholeMultichip("T3K", 8) }
func newTG() npe.DeviceModel    { return newWormholeMultichip("TG", 32) }
func newGalaxy() npe.DeviceModel { return newWormholeMultichip("GALAXY", 36) }

func (d *wormholeMultichip) Name() string       { return d.name }
func (d *wormholeMultichip) Rows() int          { return wormholeB0Rows }
func (d *wormholeMultichip) Cols() int          { return wormholeB0Cols }
func (d *wormholeMultichip) NumChips() int      { return d.numChips }
func (d *wormholeMultichip) DeviceIDs() []int32 { return d.deviceIDs }
func (d *wormholeMultichip) HasDevice(id int32) bool {
	return id >= 0 && int(id) < d.numChips
}

func (d *wormholeMultichip) coreTypeLocal(row, col int32) npe.CoreType {
	switch {
	case row == 0 || row == 6:
		return npe.CoreEth
	case col == 0 || col == 5:
		return npe.CoreDRAM
	default:
		return npe.CoreWorker
	}
}

func (d *wormholeMultichip) CoreType(c npe.Coord) npe.CoreType {
	if !d.HasDevice(c.DeviceID) || c.Row < 0 || c.Row >= wormholeB0Rows || c.Col < 0 || c.Col >= wormholeB0Cols {
		return npe.CoreUndef
	}
	if (c.Row == 0 && c.Col == 0) || (c.Row == 6 && c.Col == wormholeB0Cols-1) {
		return npe.CoreUndef
	}
	return d.coreTypeLocal(c.Row, c.Col)
}

func (d *wormholeMultichip) SrcInjectionRate(c npe.Coord) float32 {
	return rateFor(d.CoreType(c), wormholeB0DRAMInjectionRate, wormholeB0EthInjectionRate, wormholeB0OtherInjectionRate)
}

func (d *wormholeMultichip) SinkAbsorptionRate(c npe.Coord) float32 {
	return rateFor(d.CoreType(c), wormholeB0DRAMAbsorptionRate, wormholeB0EthAbsorptionRate, wormholeB0OtherAbsorptionRate)
}

func (d *wormholeMultichip) WorkerSinkAbsorptionRate() float32 { return wormholeB0OtherAbsorptionRate }

func (d *wormholeMultichip) TransferBWTable() []npe.BWTableEntry { return wormholeB0BWTable }
func (d *wormholeMultichip) MaxNoCTransferBW() float32           { return wormholeB0MaxNoCTransferBW }
func (d *wormholeMultichip) LinkBandwidth(id npe.LinkID) float32 { return wormholeB0LinkBandwidth }
func (d *wormholeMultichip) AggregateDRAMBandwidth() float32 {
	return wormholeB0AggregateDRAMBW * float32(d.numChips)
}

func (d *wormholeMultichip) NumLinks() int { return d.linkBijec.Len() }
func (d *wormholeMultichip) NumNIUs() int  { return d.niuBijec.Len() }
func (d *wormholeMultichip) LinkIDFor(attr npe.LinkAttr) (npe.LinkID, bool) { return d.linkBijec.ID(attr) }
func (d *wormholeMultichip) LinkAttrFor(id npe.LinkID) (npe.LinkAttr, bool) { return d.linkBijec.Attr(id) }
func (d *wormholeMultichip) NIUIDFor(attr npe.NIUAttr) (npe.NIUID, bool)    { return d.niuBijec.ID(attr) }
func (d *wormholeMultichip) NIUAttrFor(id npe.NIUID) (npe.NIUAttr, bool)    { return d.niuBijec.Attr(id) }

func (d *wormholeMultichip) Route(noc npe.NocType, src npe.Coord, dst npe.NocDestination) []npe.LinkID {
	if u, ok := dst.Unicast(); ok {
		return routeUnicastLinks(wormholeB0Rows, wormholeB0Cols, src.DeviceID, noc, src, u, d.linkBijec)
	}
	if mc, ok := dst.Multicast(); ok {
		return routeMulticastLinks(wormholeB0Rows, wormholeB0Cols, src.DeviceID, noc, src, mc, d.linkBijec)
	}
	return nil
}

func (d *wormholeMultichip) WriteLatency(src npe.Coord, dst npe.NocDestination, noc npe.NocType) uint32 {
	return writeLatencySameChip(src, dst)
}

func (d *wormholeMultichip) InitDeviceState() *npe.DeviceState {
	return npe.NewDeviceState(d.NumLinks(), d.NumNIUs())
}

func (d *wormholeMultichip) ComputeCurrentTransferRate(t0, t1 uint32, transfers []*npe.PETransferState, live []int, state *npe.DeviceState, enableCongestion bool) {
	computeCurrentTransferRate(t0, t1, transfers, live, d, state, enableCongestion, properMulticastSinkDemand)
}
