package device

import "github.com/tt-npe/npe-go/npe"

const (
	wormholeB0Rows = 10
	wormholeB0Cols = 12
)

// wormholeB0 models a single Wormhole-B0 chip: a 10x12 torus with
// ethernet rows at the top and middle, DRAM banks down columns 0 and 5,
// and two harvested (UNDEF) corner cells that exist on real silicon but
// never source or sink traffic.
type wormholeB0 struct {
	coreGrid    [wormholeB0Rows][wormholeB0Cols]npe.CoreType
	linkBijec   *linkBijection
	niuBijec    *niuBijection
	workerAbs   float32
}

func newWormholeB0() npe.DeviceModel {
	d := &wormholeB0{}
	for row := 0; row < wormholeB0Rows; row++ {
		for col := 0; col < wormholeB0Cols; col++ {
			switch {
			case row == 0 || row == 6:
				d.coreGrid[row][col] = npe.CoreEth
			case col == 0 || col == 5:
				d.coreGrid[row][col] = npe.CoreDRAM
			default:
				d.coreGrid[row][col] = npe.CoreWorker
			}
		}
	}
	d.coreGrid[0][0] = npe.CoreUndef
	d.coreGrid[6][11] = npe.CoreUndef

	ids := []int32{0}
	d.linkBijec = buildLinkBijection(wormholeB0Rows, wormholeB0Cols, ids)
	d.niuBijec = buildNIUBijection(wormholeB0Rows, wormholeB0Cols, ids)
	d.workerAbs = wormholeB0OtherAbsorptionRate
	return d
}

func (d *wormholeB0) Name() string { return "wormhole_b0" }
func (d *wormholeB0) Rows() int    { return wormholeB0Rows }
func (d *wormholeB0) Cols() int    { return wormholeB0Cols }
func (d *wormholeB0) NumChips() int     { return 1 }
func (d *wormholeB0) DeviceIDs() []int32 { return []int32{0} }
func (d *wormholeB0) HasDevice(deviceID int32) bool { return deviceID == 0 }

func (d *wormholeB0) CoreType(c npe.Coord) npe.CoreType {
	if c.DeviceID != 0 || c.Row < 0 || c.Row >= wormholeB0Rows || c.Col < 0 || c.Col >= wormholeB0Cols {
		return npe.CoreUndef
	}
	return d.coreGrid[c.Row][c.Col]
}

func (d *wormholeB0) SrcInjectionRate(c npe.Coord) float32 {
	return rateFor(d.CoreType(c), wormholeB0DRAMInjectionRate, wormholeB0EthInjectionRate, wormholeB0OtherInjectionRate)
}

func (d *wormholeB0) SinkAbsorptionRate(c npe.Coord) float32 {
	return rateFor(d.CoreType(c), wormholeB0DRAMAbsorptionRate, wormholeB0EthAbsorptionRate, wormholeB0OtherAbsorptionRate)
}

func (d *wormholeB0) WorkerSinkAbsorptionRate() float32 { return d.workerAbs }

func (d *wormholeB0) TransferBWTable() []npe.BWTableEntry { return wormholeB0BWTable }
func (d *wormholeB0) MaxNoCTransferBW() float32           { return wormholeB0MaxNoCTransferBW }
func (d *wormholeB0) LinkBandwidth(id npe.LinkID) float32 { return wormholeB0LinkBandwidth }
func (d *wormholeB0) AggregateDRAMBandwidth() float32     { return wormholeB0AggregateDRAMBW }

func (d *wormholeB0) NumLinks() int { return d.linkBijec.Len() }
func (d *wormholeB0) NumNIUs() int  { return d.niuBijec.Len() }
func (d *wormholeB0) LinkIDFor(attr npe.LinkAttr) (npe.LinkID, bool) { return d.linkBijec.ID(attr) }
func (d *wormholeB0) LinkAttrFor(id npe.LinkID) (npe.LinkAttr, bool) { return d.linkBijec.Attr(id) }
func (d *wormholeB0) NIUIDFor(attr npe.NIUAttr) (npe.NIUID, bool)    { return d.niuBijec.ID(attr) }
func (d *wormholeB0) NIUAttrFor(id npe.NIUID) (npe.NIUAttr, bool)    { return d.niuBijec.Attr(id) }

func (d *wormholeB0) Route(noc npe.NocType, src npe.Coord, dst npe.NocDestination) []npe.LinkID {
	if u, ok := dst.Unicast(); ok {
		return routeUnicastLinks(wormholeB0Rows, wormholeB0Cols, 0, noc, src, u, d.linkBijec)
	}
	if mc, ok := dst.Multicast(); ok {
		return routeMulticastLinks(wormholeB0Rows, wormholeB0Cols, 0, noc, src, mc, d.linkBijec)
	}
	return nil
}

func (d *wormholeB0) WriteLatency(src npe.Coord, dst npe.NocDestination, noc npe.NocType) uint32 {
	return writeLatencySameChip(src, dst)
}

func (d *wormholeB0) InitDeviceState() *npe.DeviceState {
	return npe.NewDeviceState(d.NumLinks(), d.NumNIUs())
}

func (d *wormholeB0) ComputeCurrentTransferRate(t0, t1 uint32, transfers []*npe.PETransferState, live []int, state *npe.DeviceState, enableCongestion bool) {
	computeCurrentTransferRate(t0, t1, transfers, live, d, state, enableCongestion, properMulticastSinkDemand)
}
