// Package device implements concrete npe.DeviceModel variants: Wormhole-B0,
// Wormhole-Multichip, Blackhole P100/P150, and Wormhole-Q. Each variant
// registers a constructor into a package-level factory map at init() time;
// callers resolve a device by name through New.
package device

import (
	"math"

	"github.com/tt-npe/npe-go/npe"
)

// numIters and gradFac are the congestion loop's iteration count and
// gradient factor. The reference model runs a single iteration by design
// — gradient-descent convergence was tried and found unnecessary, so this
// devolves to first-order congestion only. These are not configuration;
// changing them is a model change, not a runtime option.
const (
	numIters = 1
	gradFac  = 1.0
)

var linkTypes = [4]npe.LinkType{npe.LinkNOC0East, npe.LinkNOC0South, npe.LinkNOC1North, npe.LinkNOC1West}
var niuTypes = [4]npe.NIUType{npe.NIUNOC0Src, npe.NIUNOC0Sink, npe.NIUNOC1Src, npe.NIUNOC1Sink}

// linkBijection is the dense id<->attr mapping built once at device
// construction: a parallel dense vector plus hash map instead of a
// pointer-heavy map-of-structs, since ids are looked up far more often
// than attrs are.
type linkBijection struct {
	idToAttr []npe.LinkAttr
	attrToID map[npe.LinkAttr]npe.LinkID
}

func buildLinkBijection(rows, cols int32, deviceIDs []int32) *linkBijection {
	b := &linkBijection{attrToID: make(map[npe.LinkAttr]npe.LinkID)}
	for _, devID := range deviceIDs {
		for row := int32(0); row < rows; row++ {
			for col := int32(0); col < cols; col++ {
				for _, lt := range linkTypes {
					attr := npe.LinkAttr{Coord: npe.Coord{DeviceID: devID, Row: row, Col: col}, Type: lt}
					id := npe.LinkID(len(b.idToAttr))
					b.idToAttr = append(b.idToAttr, attr)
					b.attrToID[attr] = id
				}
			}
		}
	}
	return b
}

func (b *linkBijection) ID(attr npe.LinkAttr) (npe.LinkID, bool) {
	id, ok := b.attrToID[attr]
	return id, ok
}

func (b *linkBijection) Attr(id npe.LinkID) (npe.LinkAttr, bool) {
	if int(id) < 0 || int(id) >= len(b.idToAttr) {
		return npe.LinkAttr{}, false
	}
	return b.idToAttr[id], true
}

func (b *linkBijection) Len() int { return len(b.idToAttr) }

// niuBijection is the NIU analog of linkBijection.
type niuBijection struct {
	idToAttr []npe.NIUAttr
	attrToID map[npe.NIUAttr]npe.NIUID
}

func buildNIUBijection(rows, cols int32, deviceIDs []int32) *niuBijection {
	b := &niuBijection{attrToID: make(map[npe.NIUAttr]npe.NIUID)}
	for _, devID := range deviceIDs {
		for row := int32(0); row < rows; row++ {
			for col := int32(0); col < cols; col++ {
				for _, nt := range niuTypes {
					attr := npe.NIUAttr{Coord: npe.Coord{DeviceID: devID, Row: row, Col: col}, Type: nt}
					id := npe.NIUID(len(b.idToAttr))
					b.idToAttr = append(b.idToAttr, attr)
					b.attrToID[attr] = id
				}
			}
		}
	}
	return b
}

func (b *niuBijection) ID(attr npe.NIUAttr) (npe.NIUID, bool) {
	id, ok := b.attrToID[attr]
	return id, ok
}

func (b *niuBijection) Attr(id npe.NIUID) (npe.NIUAttr, bool) {
	if int(id) < 0 || int(id) >= len(b.idToAttr) {
		return npe.NIUAttr{}, false
	}
	return b.idToAttr[id], true
}

func (b *niuBijection) Len() int { return len(b.idToAttr) }

func wrapAdd(v, delta, n int32) int32 {
	m := (v + delta) % n
	if m < 0 {
		m += n
	}
	return m
}

// routeUnicastLinks implements dimension-order torus routing:
// NOC0 travels east then south, NOC1 travels north then west.
func routeUnicastLinks(rows, cols, deviceID int32, noc npe.NocType, src, dst npe.Coord, lb *linkBijection) []npe.LinkID {
	var route []npe.LinkID
	row, col := src.Row, src.Col

	if noc == npe.NOC0 {
		for col != dst.Col {
			if id, ok := lb.ID(npe.LinkAttr{Coord: npe.Coord{DeviceID: deviceID, Row: row, Col: col}, Type: npe.LinkNOC0East}); ok {
				route = append(route, id)
			}
			col = wrapAdd(col, 1, cols)
		}
		for row != dst.Row {
			if id, ok := lb.ID(npe.LinkAttr{Coord: npe.Coord{DeviceID: deviceID, Row: row, Col: col}, Type: npe.LinkNOC0South}); ok {
				route = append(route, id)
			}
			row = wrapAdd(row, 1, rows)
		}
	} else {
		for row != dst.Row {
			if id, ok := lb.ID(npe.LinkAttr{Coord: npe.Coord{DeviceID: deviceID, Row: row, Col: col}, Type: npe.LinkNOC1North}); ok {
				route = append(route, id)
			}
			row = wrapAdd(row, -1, rows)
		}
		for col != dst.Col {
			if id, ok := lb.ID(npe.LinkAttr{Coord: npe.Coord{DeviceID: deviceID, Row: row, Col: col}, Type: npe.LinkNOC1West}); ok {
				route = append(route, id)
			}
			col = wrapAdd(col, -1, cols)
		}
	}
	return route
}

// routeMulticastLinks expands a rectangle set into the union of unicast
// routes to its far edge: for NOC0, every column of the rectangle's
// bottom row; for NOC1, every row of the rectangle's rightmost (end)
// column.
func routeMulticastLinks(rows, cols, deviceID int32, noc npe.NocType, src npe.Coord, mc *npe.MulticastCoordSet, lb *linkBijection) []npe.LinkID {
	seen := make(map[npe.LinkID]bool)
	var route []npe.LinkID
	add := func(ids []npe.LinkID) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				route = append(route, id)
			}
		}
	}
	for _, r := range mc.Rects {
		if noc == npe.NOC0 {
			for col := r.Start.Col; col <= r.End.Col; col++ {
				dst := npe.Coord{DeviceID: deviceID, Row: r.End.Row, Col: col}
				add(routeUnicastLinks(rows, cols, deviceID, noc, src, dst, lb))
			}
		} else {
			for row := r.Start.Row; row <= r.End.Row; row++ {
				dst := npe.Coord{DeviceID: deviceID, Row: row, Col: r.End.Col}
				add(routeUnicastLinks(rows, cols, deviceID, noc, src, dst, lb))
			}
		}
	}
	return route
}

// setPreCongestionBandwidth sets CurrBandwidth to
// min(injection_rate, interpolate_bw(...)) for every live transfer,
// before any congestion derating runs.
func setPreCongestionBandwidth(states []*npe.PETransferState, live []int, table []npe.BWTableEntry, maxBW float32) {
	for _, idx := range live {
		ts := states[idx]
		interpolated := npe.InterpolateBW(table, maxBW, ts.Params.PacketSize, ts.Params.NumPackets)
		if ts.Params.InjectionRate < interpolated {
			ts.CurrBandwidth = ts.Params.InjectionRate
		} else {
			ts.CurrBandwidth = interpolated
		}
	}
}

// accumulateEffectiveDemand is the congestion model's demand-accounting
// half, shared by every device variant. The derating half
// (applyCongestionDerating) is shared too, but takes the multicast
// sink-demand function as a parameter, since Blackhole and the other
// variants compute the multicast sink demand differently (see DESIGN.md).
func accumulateEffectiveDemand(t0, t1 uint32, states []*npe.PETransferState, live []int, dev npe.DeviceModel, state *npe.DeviceState) {
	span := float64(t1 - t0)
	if span <= 0 {
		span = 1
	}
	for _, idx := range live {
		ts := states[idx]
		predictedStart := t0
		if ts.StartCycle > predictedStart {
			predictedStart = ts.StartCycle
		}
		timeFraction := float64(t1-predictedStart) / span
		effectiveDemand := float32(timeFraction) * ts.CurrBandwidth

		if id, ok := dev.NIUIDFor(npe.NIUAttr{Coord: ts.Params.Src, Type: npe.SrcNIUType(ts.Params.NocType)}); ok {
			state.NIUDemandGrid[id] += effectiveDemand
		}
		for _, linkID := range ts.Route {
			state.LinkDemandGrid[linkID] += effectiveDemand
			if ts.Params.Dst.IsMulticast() {
				state.MulticastWriteLinkDemandGrid[linkID] += effectiveDemand
			}
		}

		if u, ok := ts.Params.Dst.Unicast(); ok {
			if id, ok := dev.NIUIDFor(npe.NIUAttr{Coord: u, Type: npe.SinkNIUType(ts.Params.NocType)}); ok {
				state.NIUDemandGrid[id] += effectiveDemand
			}
		} else if mc, ok := ts.Params.Dst.Multicast(); ok {
			for _, c := range mc.All() {
				if dev.CoreType(c) != npe.CoreWorker {
					continue
				}
				if id, ok := dev.NIUIDFor(npe.NIUAttr{Coord: c, Type: npe.SinkNIUType(ts.Params.NocType)}); ok {
					state.NIUDemandGrid[id] += effectiveDemand
				}
			}
		}
	}
}

func maxLinkDemandOnRoute(route []npe.LinkID, grid []float32) float32 {
	var m float32
	for _, id := range route {
		if grid[id] > m {
			m = grid[id]
		}
	}
	return m
}

// multicastSinkDemandFunc computes the NIU demand that throttles a
// multicast transfer's sink side. The two shipping implementations are
// not unified (see DESIGN.md); blackholeMulticastSinkDemand and
// properMulticastSinkDemand below are the two variants.
type multicastSinkDemandFunc func(dev npe.DeviceModel, mc *npe.MulticastCoordSet, noc npe.NocType, niuGrid []float32) float32

// blackholeMulticastSinkDemand reproduces the Blackhole device model's
// multicast sink demand literally: the accumulator starts at zero and is
// folded with min, so it is always zero regardless of the actual NIU
// demand at any WORKER destination (demand is never negative). This
// reads as a bug — the intent was almost certainly "min over positive
// demands" — but this is a deliberate, literal reproduction of the
// original model's behavior, not a fix.
func blackholeMulticastSinkDemand(dev npe.DeviceModel, mc *npe.MulticastCoordSet, noc npe.NocType, niuGrid []float32) float32 {
	var sinkDemand float32 = 0
	for _, c := range mc.All() {
		if dev.CoreType(c) != npe.CoreWorker {
			continue
		}
		if id, ok := dev.NIUIDFor(npe.NIUAttr{Coord: c, Type: npe.SinkNIUType(noc)}); ok {
			if niuGrid[id] < sinkDemand {
				sinkDemand = niuGrid[id]
			}
		}
	}
	return sinkDemand
}

// properMulticastSinkDemand is the Wormhole-Multichip device model's
// multicast sink demand: the minimum NIU demand across WORKER
// destinations, the slowest sink throttling the whole multicast.
func properMulticastSinkDemand(dev npe.DeviceModel, mc *npe.MulticastCoordSet, noc npe.NocType, niuGrid []float32) float32 {
	var sinkDemand float32
	found := false
	for _, c := range mc.All() {
		if dev.CoreType(c) != npe.CoreWorker {
			continue
		}
		if id, ok := dev.NIUIDFor(npe.NIUAttr{Coord: c, Type: npe.SinkNIUType(noc)}); ok {
			if !found || niuGrid[id] < sinkDemand {
				sinkDemand = niuGrid[id]
			}
			found = true
		}
	}
	return sinkDemand
}

// applyCongestionDerating is the bottleneck-derating half of the
// congestion model, parameterized by the multicast sink-demand variant
// the calling device model uses.
func applyCongestionDerating(states []*npe.PETransferState, live []int, dev npe.DeviceModel, state *npe.DeviceState, sinkFn multicastSinkDemandFunc) {
	linkBW := dev.LinkBandwidth(0)
	workerAbsorption := dev.WorkerSinkAbsorptionRate()

	for iter := 0; iter < numIters; iter++ {
		for _, idx := range live {
			ts := states[idx]

			linkDerate := float32(1.0)
			if maxDemand := maxLinkDemandOnRoute(ts.Route, state.LinkDemandGrid); maxDemand > 0 {
				linkDerate = linkBW / maxDemand
			}

			srcDerate := float32(1.0)
			if id, ok := dev.NIUIDFor(npe.NIUAttr{Coord: ts.Params.Src, Type: npe.SrcNIUType(ts.Params.NocType)}); ok && state.NIUDemandGrid[id] > 0 {
				srcDerate = ts.Params.InjectionRate / state.NIUDemandGrid[id]
			}

			sinkDerate := float32(1.0)
			if u, ok := ts.Params.Dst.Unicast(); ok {
				if id, ok := dev.NIUIDFor(npe.NIUAttr{Coord: u, Type: npe.SinkNIUType(ts.Params.NocType)}); ok && state.NIUDemandGrid[id] > 0 {
					sinkDerate = dev.SinkAbsorptionRate(u) / state.NIUDemandGrid[id]
				}
			} else if mc, ok := ts.Params.Dst.Multicast(); ok {
				sinkDemand := sinkFn(dev, mc, ts.Params.NocType, state.NIUDemandGrid)
				if sinkDemand > 0 {
					sinkDerate = workerAbsorption / sinkDemand
				} else {
					sinkDerate = float32(math.Inf(1))
				}
			}

			overallDerate := min(linkDerate, srcDerate, sinkDerate)
			if overallDerate < 1.0 {
				ts.CurrBandwidth *= 1.0 - (gradFac * (1.0 - overallDerate))
			}
		}
	}
}

// writeLatencySameChip is the single-hop NoC write latency used by the
// dependency tracker's transfer-group chaining for any device whose
// source and destination share a chip: same core, same row/col, and
// general diagonal cases each cost a handful more cycles for the extra
// routing hops, mirroring the hop-count-proportional latency a real NoC
// write incurs.
func writeLatencySameChip(src npe.Coord, dst npe.NocDestination) uint32 {
	u, ok := dst.Unicast()
	if !ok {
		// Multicast write latency is dominated by the farthest unicast leg.
		if mc, ok2 := dst.Multicast(); ok2 {
			var worst uint32
			for _, c := range mc.All() {
				if lat := writeLatencySameChip(src, npe.UnicastDestination{Target: c}); lat > worst {
					worst = lat
				}
			}
			return worst
		}
		return baseWriteLatency
	}
	if u == src {
		return baseWriteLatency
	}
	sameRow := u.Row == src.Row
	sameCol := u.Col == src.Col
	switch {
	case sameRow || sameCol:
		return baseWriteLatency + rowColWriteLatencyBonus
	default:
		return baseWriteLatency + diagonalWriteLatencyBonus
	}
}

const (
	baseWriteLatency          uint32 = 20
	rowColWriteLatencyBonus   uint32 = 4
	diagonalWriteLatencyBonus uint32 = 8
)

// computeCurrentTransferRate is the common body of every device model's
// ComputeCurrentTransferRate: set the packet-size-dependent peak rate,
// accumulate demand, then (if enabled) derate by congestion. Device
// models call this from their own method to satisfy npe.DeviceModel.
func computeCurrentTransferRate(t0, t1 uint32, states []*npe.PETransferState, live []int, dev npe.DeviceModel, state *npe.DeviceState, enableCongestion bool, sinkFn multicastSinkDemandFunc) {
	state.Reset()
	setPreCongestionBandwidth(states, live, dev.TransferBWTable(), dev.MaxNoCTransferBW())
	accumulateEffectiveDemand(t0, t1, states, live, dev, state)
	if enableCongestion {
		applyCongestionDerating(states, live, dev, state, sinkFn)
	}
}
