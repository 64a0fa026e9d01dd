package device

import "github.com/tt-npe/npe-go/npe"

const (
	blackholeRows = 12
	blackholeCols = 17
)

// blackhole models a Blackhole chip (P100 or P150, which differ only in
// DRAM bank count and therefore aggregate DRAM bandwidth). Its multicast
// congestion derate intentionally reproduces the always-zero sink-demand
// quirk of the original model (see blackholeMulticastSinkDemand).
type blackhole struct {
	variant       string
	numBanks      int
	aggregateDRAM float32
	coreGrid      [blackholeRows][blackholeCols]npe.CoreType
	linkBijec     *linkBijection
	niuBijec      *niuBijection
}

func newBlackholeVariant(variant string, numBanks int, aggregateDRAM float32) npe.DeviceModel {
	d := &blackhole{variant: variant, numBanks: numBanks, aggregateDRAM: aggregateDRAM}
	dramCols := map[int]bool{0: true, 8: true}
	for row := 0; row < blackholeRows; row++ {
		for col := 0; col < blackholeCols; col++ {
			switch {
			case row == 0 || row == 6:
				d.coreGrid[row][col] = npe.CoreEth
			case dramCols[col]:
				d.coreGrid[row][col] = npe.CoreDRAM
			default:
				d.coreGrid[row][col] = npe.CoreWorker
			}
		}
	}
	d.coreGrid[0][0] = npe.CoreUndef
	d.coreGrid[6][16] = npe.CoreUndef

	ids := []int32{0}
	d.linkBijec = buildLinkBijection(blackholeRows, blackholeCols, ids)
	d.niuBijec = buildNIUBijection(blackholeRows, blackholeCols, ids)
	return d
}

func newBlackholeP100() npe.DeviceModel {
	return newBlackholeVariant("P100", 7, blackholeP100AggregateDRAMBW)
}

func newBlackholeP150() npe.DeviceModel {
	return newBlackholeVariant("P150", 8, blackholeP150AggregateDRAMBW)
}

func (d *blackhole) Name() string          { return d.variant }
func (d *blackhole) Rows() int             { return blackholeRows }
func (d *blackhole) Cols() int             { return blackholeCols }
func (d *blackhole) NumChips() int         { return 1 }
func (d *blackhole) DeviceIDs() []int32    { return []int32{0} }
func (d *blackhole) HasDevice(id int32) bool { return id == 0 }

func (d *blackhole) CoreType(c npe.Coord) npe.CoreType {
	if c.DeviceID != 0 || c.Row < 0 || c.Row >= blackholeRows || c.Col < 0 || c.Col >= blackholeCols {
		return npe.CoreUndef
	}
	return d.coreGrid[c.Row][c.Col]
}

func (d *blackhole) SrcInjectionRate(c npe.Coord) float32 {
	return rateFor(d.CoreType(c), blackholeDRAMInjectionRate, blackholeEthInjectionRate, blackholeOtherInjectionRate)
}

func (d *blackhole) SinkAbsorptionRate(c npe.Coord) float32 {
	return rateFor(d.CoreType(c), blackholeDRAMAbsorptionRate, blackholeEthAbsorptionRate, blackholeOtherAbsorptionRate)
}

func (d *blackhole) WorkerSinkAbsorptionRate() float32 { return blackholeOtherAbsorptionRate }

func (d *blackhole) TransferBWTable() []npe.BWTableEntry { return blackholeBWTable }
func (d *blackhole) MaxNoCTransferBW() float32           { return blackholeMaxNoCTransferBW }
func (d *blackhole) LinkBandwidth(id npe.LinkID) float32 { return blackholeLinkBandwidth }
func (d *blackhole) AggregateDRAMBandwidth() float32     { return d.aggregateDRAM }

func (d *blackhole) NumLinks() int { return d.linkBijec.Len() }
func (d *blackhole) NumNIUs() int  { return d.niuBijec.Len() }
func (d *blackhole) LinkIDFor(attr npe.LinkAttr) (npe.LinkID, bool) { return d.linkBijec.ID(attr) }
func (d *blackhole) LinkAttrFor(id npe.LinkID) (npe.LinkAttr, bool) { return d.linkBijec.Attr(id) }
func (d *blackhole) NIUIDFor(attr npe.NIUAttr) (npe.NIUID, bool)    { return d.niuBijec.ID(attr) }
func (d *blackhole) NIUAttrFor(id npe.NIUID) (npe.NIUAttr, bool)    { return d.niuBijec.Attr(id) }

func (d *blackhole) Route(noc npe.NocType, src npe.Coord, dst npe.NocDestination) []npe.LinkID {
	if u, ok := dst.Unicast(); ok {
		return routeUnicastLinks(blackholeRows, blackholeCols, 0, noc, src, u, d.linkBijec)
	}
	if mc, ok := dst.Multicast(); ok {
		return routeMulticastLinks(blackholeRows, blackholeCols, 0, noc, src, mc, d.linkBijec)
	}
	return nil
}

// routeHops returns the unicast hop count for src->dst under noc,
// exposed so tests can check route length independent of the full
// Route API.
func routeHops(noc npe.NocType, src, dst npe.Coord) int {
	rowDist := dist(src.Row, dst.Row, blackholeRows)
	colDist := dist(src.Col, dst.Col, blackholeCols)
	return rowDist + colDist
}

func dist(a, b, n int32) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	wrap := n - d
	if wrap < d {
		return int(wrap)
	}
	return int(d)
}

func (d *blackhole) WriteLatency(src npe.Coord, dst npe.NocDestination, noc npe.NocType) uint32 {
	return writeLatencySameChip(src, dst)
}

func (d *blackhole) InitDeviceState() *npe.DeviceState {
	return npe.NewDeviceState(d.NumLinks(), d.NumNIUs())
}

func (d *blackhole) ComputeCurrentTransferRate(t0, t1 uint32, transfers []*npe.PETransferState, live []int, state *npe.DeviceState, enableCongestion bool) {
	computeCurrentTransferRate(t0, t1, transfers, live, d, state, enableCongestion, blackholeMulticastSinkDemand)
}
