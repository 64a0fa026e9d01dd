package npe

import "gonum.org/v1/gonum/interp"

// BWTableEntry is one (packet_size, steady_state_bw) pair of a device's
// transfer bandwidth table. Tables are monotone non-decreasing by
// PacketSize.
type BWTableEntry struct {
	PacketSize    uint32
	SteadyStateBW float32
}

// DeviceModel is the abstraction the engine queries for geometry,
// routing, bandwidths, and core-type lookups. Concrete devices live in
// the sibling device package and are obtained through device.New.
type DeviceModel interface {
	Name() string

	Rows() int
	Cols() int
	NumChips() int
	DeviceIDs() []int32
	HasDevice(deviceID int32) bool

	CoreType(c Coord) CoreType
	SrcInjectionRate(c Coord) float32
	SinkAbsorptionRate(c Coord) float32
	// WorkerSinkAbsorptionRate is the absorption rate of a WORKER-typed
	// core, cached by the device model at construction and used as the
	// numerator of a multicast sink derate (every WORKER core shares one
	// absorption rate on every shipping device variant).
	WorkerSinkAbsorptionRate() float32

	TransferBWTable() []BWTableEntry
	MaxNoCTransferBW() float32
	LinkBandwidth(id LinkID) float32
	AggregateDRAMBandwidth() float32

	NumLinks() int
	NumNIUs() int
	LinkIDFor(attr LinkAttr) (LinkID, bool)
	LinkAttrFor(id LinkID) (LinkAttr, bool)
	NIUIDFor(attr NIUAttr) (NIUID, bool)
	NIUAttrFor(id NIUID) (NIUAttr, bool)

	// Route returns the deterministic link-by-link path for one transfer.
	// noc selects the routing convention; for a multicast dst the result
	// is the union of unicast routes to the destination rectangle's far
	// edge.
	Route(noc NocType, src Coord, dst NocDestination) []LinkID

	// WriteLatency is the architecture-specific single-hop NoC write
	// latency used by the dependency tracker's transfer-group chaining.
	WriteLatency(src Coord, dst NocDestination, noc NocType) uint32

	InitDeviceState() *DeviceState

	// ComputeCurrentTransferRate sets CurrBandwidth on every live
	// transfer for the timestep [t0, t1): first the packet-size-dependent
	// peak rate, then (if enableCongestion) one pass of bottleneck
	// derating against state's demand grids.
	ComputeCurrentTransferRate(t0, t1 uint32, transfers []*PETransferState, live []int, state *DeviceState, enableCongestion bool)
}

// DeviceState holds the per-timestep demand grids, sized once at
// construction by DeviceModel.InitDeviceState and zeroed at the start of
// every ComputeCurrentTransferRate call.
type DeviceState struct {
	LinkDemandGrid              []float32
	NIUDemandGrid               []float32
	MulticastWriteLinkDemandGrid []float32
}

// NewDeviceState allocates zero-filled grids sized for a device with
// numLinks links and numNIUs NIUs.
func NewDeviceState(numLinks, numNIUs int) *DeviceState {
	return &DeviceState{
		LinkDemandGrid:               make([]float32, numLinks),
		NIUDemandGrid:                make([]float32, numNIUs),
		MulticastWriteLinkDemandGrid: make([]float32, numLinks),
	}
}

// Reset zero-fills every grid in place.
func (s *DeviceState) Reset() {
	for i := range s.LinkDemandGrid {
		s.LinkDemandGrid[i] = 0
	}
	for i := range s.NIUDemandGrid {
		s.NIUDemandGrid[i] = 0
	}
	for i := range s.MulticastWriteLinkDemandGrid {
		s.MulticastWriteLinkDemandGrid[i] = 0
	}
}

// InterpolateBW computes the packet-size-dependent peak bandwidth for a
// transfer: piecewise-linear interpolation over table, clamped to the
// last entry for packet sizes beyond it, then blended with maxTransferBW
// to account for first-transfer pipeline warmup. For numPackets==1 this
// collapses to exactly maxTransferBW.
func InterpolateBW(table []BWTableEntry, maxTransferBW float32, packetSize uint32, numPackets uint32) float32 {
	if len(table) == 0 || numPackets == 0 {
		return 0
	}

	steadyState := interpolateSteadyState(table, packetSize)

	n := float64(numPackets)
	steadyStateRatio := (n - 1) / n
	firstTransferRatio := 1 - steadyStateRatio

	return float32(firstTransferRatio*float64(maxTransferBW) + steadyStateRatio*float64(steadyState))
}

func interpolateSteadyState(table []BWTableEntry, packetSize uint32) float32 {
	last := table[len(table)-1]
	if packetSize >= last.PacketSize {
		return last.SteadyStateBW
	}

	xs := make([]float64, len(table))
	ys := make([]float64, len(table))
	for i, e := range table {
		xs[i] = float64(e.PacketSize)
		ys[i] = float64(e.SteadyStateBW)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		// Table is malformed (non-increasing x); fall back to the
		// bracketing pair found by linear scan rather than panicking.
		for i := 1; i < len(table); i++ {
			if packetSize <= table[i].PacketSize {
				lo, hi := table[i-1], table[i]
				span := float64(hi.PacketSize - lo.PacketSize)
				if span == 0 {
					return lo.SteadyStateBW
				}
				frac := float64(packetSize-lo.PacketSize) / span
				return float32(float64(lo.SteadyStateBW) + frac*float64(hi.SteadyStateBW-lo.SteadyStateBW))
			}
		}
		return last.SteadyStateBW
	}
	return float32(pl.Predict(float64(packetSize)))
}
