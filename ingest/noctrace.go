package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tt-npe/npe-go/internal/npeerr"
	"github.com/tt-npe/npe-go/npe"
)

// traceEvent is one line of a hardware-profiler noc-trace capture.
type traceEvent struct {
	Type      string `json:"type"`
	Timestamp uint64 `json:"timestamp"`
	DeviceID  int32  `json:"device_id"`
	Noc       string `json:"noc"`

	SX, SY, DX, DY int32 `json:"-"`
	RawSX          *int32 `json:"sx"`
	RawSY          *int32 `json:"sy"`
	RawDX          *int32 `json:"dx"`
	RawDY          *int32 `json:"dy"`
	EX             *int32 `json:"ex"`
	EY             *int32 `json:"ey"`

	NumBytes   uint64 `json:"num_bytes"`
	PacketSize uint32 `json:"packet_size"`
	NumPackets uint32 `json:"num_packets"`

	// FabricSend, when present, overrides src/dst entirely: the event is a
	// multichip fabric send and must be expanded into one same-device
	// transfer per path segment rather than ingested as a single transfer.
	FabricSend *fabricSendMetadata `json:"fabric_send"`
}

// fabricSendMetadata is the "path" a fabric send takes across chips: an
// ordered list of same-device hops, each crossing one ethernet link to
// reach the next chip in the chain.
type fabricSendMetadata struct {
	Hops int64             `json:"hops"`
	Path []fabricPathSegment `json:"path"`
}

type fabricPathSegment struct {
	Noc             string `json:"noc"`
	Device          int32  `json:"device"`
	SegmentStartX   int32  `json:"segment_start_x"`
	SegmentStartY   int32  `json:"segment_start_y"`
	SegmentEndX     int32  `json:"segment_end_x"`
	SegmentEndY     int32  `json:"segment_end_y"`
}

// noteState is what a *_SET_STATE event stashes for a later *_WITH_STATE
// event on the same (noc, isWrite) register slot.
type noteState struct {
	sx, sy, dx, dy int32
	ex, ey         *int32
	numBytes       uint64
}

// latencyLookup is the narrow interface noc-trace ingest needs from a
// device model: the core-type lookup used to log a debug note for sources
// on UNDEF cores. Any npe.DeviceModel satisfies it. Startup latency is
// chosen by arch name, not by this interface (see startup_latency.go).
type latencyLookup interface {
	CoreType(c npe.Coord) npe.CoreType
}

// ParseNocTrace converts a hardware-profiler noc-trace event array into
// a single-phase Workload. arch selects the startup-latency table (see
// startup_latency.go); dev is used only to log a debug note when a source
// maps to an UNDEF core. Coordinates are not validated here, and dev is not
// used for routing.
func ParseNocTrace(data []byte, sourcePath string, arch string, dev latencyLookup) (*npe.Workload, error) {
	var events []traceEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("%w: parsing noc-trace %s: %v", npeerr.ErrTraceIngest, sourcePath, err)
	}

	readState := make(map[string]noteState)
	writeState := make(map[string]noteState)

	wl := npe.NewWorkload()
	wl.SourceFilePath = sourcePath
	var transfers []*npe.WorkloadTransfer

	for i, ev := range events {
		ev.SX = derefOr(ev.RawSX, 0)
		ev.SY = derefOr(ev.RawSY, 0)
		ev.DX = derefOr(ev.RawDX, 0)
		ev.DY = derefOr(ev.RawDY, 0)

		upper := strings.ToUpper(ev.Type)
		isWrite := strings.Contains(upper, "WRITE") || strings.Contains(upper, "FUSED")
		key := ev.Noc

		switch {
		case strings.HasSuffix(upper, "_SET_STATE"):
			st := noteState{sx: ev.SX, sy: ev.SY, dx: ev.DX, dy: ev.DY, numBytes: ev.NumBytes}
			if ev.EX != nil && ev.EY != nil {
				st.ex, st.ey = ev.EX, ev.EY
			}
			if isWrite {
				writeState[key] = st
			} else {
				readState[key] = st
			}
			continue

		case strings.HasSuffix(upper, "_WITH_STATE"):
			var st noteState
			var ok bool
			if isWrite {
				st, ok = writeState[key]
			} else {
				st, ok = readState[key]
			}
			if !ok {
				return nil, fmt.Errorf("%w: %s event %d: %s with no matching SET_STATE", npeerr.ErrTraceIngest, sourcePath, i, ev.Type)
			}
			ev.SX, ev.SY, ev.DX, ev.DY, ev.NumBytes = st.sx, st.sy, st.dx, st.dy, st.numBytes
			ev.EX, ev.EY = st.ex, st.ey
		}

		if !isRecognizedType(upper) {
			continue
		}

		isRead := strings.HasPrefix(upper, "READ")
		src := npe.Coord{DeviceID: ev.DeviceID, Row: ev.SY, Col: ev.SX}
		dstCoord := npe.Coord{DeviceID: ev.DeviceID, Row: ev.DY, Col: ev.DX}
		if isRead {
			// The event's "source" is the requester; the data producer is
			// the true NoC source, so swap before building the transfer.
			src, dstCoord = dstCoord, src
		}

		var noc npe.NocType
		if ev.Noc == "NOC_1" {
			noc = npe.NOC1
		}

		var dst npe.NocDestination
		if strings.Contains(upper, "MULTICAST") && ev.EX != nil && ev.EY != nil {
			rect := npe.Rectangle{
				Start: dstCoord,
				End:   npe.Coord{DeviceID: ev.DeviceID, Row: *ev.EY, Col: *ev.EX},
			}
			mc, ok := npe.NewMulticastDestination(rect)
			if !ok {
				return nil, fmt.Errorf("%w: %s event %d: invalid multicast rectangle", npeerr.ErrTraceIngest, sourcePath, i)
			}
			dst = mc
		} else {
			dst = npe.UnicastDestination{Target: dstCoord}
		}

		packetSize := ev.PacketSize
		numPackets := ev.NumPackets
		if packetSize == 0 && ev.NumBytes > 0 {
			packetSize = uint32(ev.NumBytes)
			numPackets = 1
		}
		if numPackets == 0 {
			numPackets = 1
		}

		if dev.CoreType(src) == npe.CoreUndef {
			logrus.Debugf("noctrace: %s event %d: src %s maps to an UNDEF core", sourcePath, i, src)
		}

		startupLatency := lookupStartupLatency(arch, src, dstCoord)

		if ev.FabricSend != nil && len(ev.FabricSend.Path) > 0 {
			transfers = append(transfers, fabricSendTransfers(wl, ev, startupLatency)...)
			continue
		}

		t := &npe.WorkloadTransfer{
			PacketSize:          packetSize,
			NumPackets:          numPackets,
			Src:                 src,
			Dst:                 dst,
			PhaseCycleOffset:    uint32(ev.Timestamp) + startupLatency,
			NocType:             noc,
			NocEventType:        ev.Type,
			TransferGroupID:     -1,
			TransferGroupIndex:  -1,
			TransferGroupParent: -1,
		}
		transfers = append(transfers, t)
	}

	wl.AddPhase(transfers)
	return wl, nil
}

// fabricSendTransfers expands one FABRIC_* event's path into a chain of
// same-device transfers: each path segment is its own transfer, sharing
// a freshly registered TransferGroupID, indexed in path order, each
// depending on the previous segment's completion. Every segment shares
// the event's own phase_cycle_offset, matching the captured trace's
// per-hop serialization being driven entirely by the dependency
// tracker's write-latency-plus-ethernet-hop delay chain, not by
// separately-timestamped events.
func fabricSendTransfers(wl *npe.Workload, ev traceEvent, startupLatency uint32) []*npe.WorkloadTransfer {
	packetSize := ev.PacketSize
	if packetSize == 0 && ev.NumBytes > 0 {
		packetSize = uint32(ev.NumBytes)
	}

	groupID := wl.RegisterTransferGroupID()
	out := make([]*npe.WorkloadTransfer, 0, len(ev.FabricSend.Path))
	parent := int32(-1)
	for idx, hop := range ev.FabricSend.Path {
		var noc npe.NocType
		if hop.Noc == "NOC_1" {
			noc = npe.NOC1
		}
		out = append(out, &npe.WorkloadTransfer{
			PacketSize:          packetSize,
			NumPackets:          1,
			Src:                 npe.Coord{DeviceID: hop.Device, Row: hop.SegmentStartY, Col: hop.SegmentStartX},
			Dst:                 npe.UnicastDestination{Target: npe.Coord{DeviceID: hop.Device, Row: hop.SegmentEndY, Col: hop.SegmentEndX}},
			PhaseCycleOffset:    uint32(ev.Timestamp) + startupLatency,
			NocType:             noc,
			NocEventType:        ev.Type,
			TransferGroupID:     groupID,
			TransferGroupIndex:  int32(idx),
			TransferGroupParent: parent,
		})
		parent = int32(idx)
	}
	return out
}

func isRecognizedType(upper string) bool {
	prefixes := []string{"READ", "WRITE_", "WRITE_MULTICAST", "FABRIC_UNICAST_WRITE", "FABRIC_INLINE_WRITE", "FABRIC_ATOMIC_INC", "FABRIC_FUSED_UNICAST_ATOMIC_INC"}
	for _, p := range prefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

func derefOr(p *int32, def int32) int32 {
	if p == nil {
		return def
	}
	return *p
}
