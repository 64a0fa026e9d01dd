package npe

import (
	"fmt"
	"strings"

	"github.com/tt-npe/npe-go/internal/npeerr"
)

// WorkloadTransfer is one logical data movement. It is immutable once a
// Workload has assigned it a PhaseID and ID.
type WorkloadTransfer struct {
	PacketSize uint32
	NumPackets uint32

	Src Coord
	Dst NocDestination

	// InjectionRate is bytes/cycle the source can push. Zero means
	// "infer from the source core type" via Workload.InferInjectionRates.
	InjectionRate float32

	// PhaseCycleOffset is the earliest cycle this transfer may start.
	PhaseCycleOffset uint32

	NocType      NocType
	NocEventType string

	// TransferGroupID/TransferGroupIndex, when both >= 0, mark this
	// transfer as one segment of a multichip fabric chain; see
	// DependencyTracker.GenTransferGroupDependencies.
	TransferGroupID    int32
	TransferGroupIndex int32
	// TransferGroupParent is the index, within the same transfer group,
	// of the transfer this one's completion checkpoint depends on. -1
	// means no parent (the head of the chain).
	TransferGroupParent int32

	// PhaseID and ID are assigned by Workload.AddPhase and are not set by
	// callers constructing a WorkloadTransfer by hand.
	PhaseID int32
	ID      int32
}

// TotalBytes returns PacketSize * NumPackets.
func (t *WorkloadTransfer) TotalBytes() uint64 {
	return uint64(t.PacketSize) * uint64(t.NumPackets)
}

// HasTransferGroup reports whether this transfer is part of a multichip
// fabric chain.
func (t *WorkloadTransfer) HasTransferGroup() bool {
	return t.TransferGroupID >= 0 && t.TransferGroupIndex >= 0
}

// IsLocal reports whether src and the (unicast) dst are the same coord,
// meaning the transfer contributes no NoC traffic.
func (t *WorkloadTransfer) IsLocal() bool {
	u, ok := t.Dst.Unicast()
	return ok && u == t.Src
}

// WorkloadPhase is an ordered list of mutually-independent transfers.
type WorkloadPhase struct {
	Transfers []*WorkloadTransfer
	id        int32
}

// ID returns the phase's index within its Workload.
func (p *WorkloadPhase) ID() int32 { return p.id }

// Workload is an ordered list of phases plus the observed reference cycle
// counts used to compute prediction error.
type Workload struct {
	Phases []*WorkloadPhase

	// GoldenCycles maps device_id -> (start, end) of the observed
	// hardware reference window. MeshDevice holds the cross-device
	// window.
	GoldenCycles map[int32][2]uint64

	SourceFilePath string

	nextTransferID     int32
	numTransferGroups  int32
}

// NewWorkload returns an empty Workload ready for AddPhase.
func NewWorkload() *Workload {
	return &Workload{GoldenCycles: make(map[int32][2]uint64)}
}

// AddPhase appends a phase, assigning PhaseID and monotonic IDs to every
// transfer it contains.
func (w *Workload) AddPhase(transfers []*WorkloadTransfer) *WorkloadPhase {
	phaseID := int32(len(w.Phases))
	phase := &WorkloadPhase{Transfers: transfers, id: phaseID}
	for _, t := range transfers {
		t.PhaseID = phaseID
		t.ID = w.nextTransferID
		w.nextTransferID++
	}
	w.Phases = append(w.Phases, phase)
	return phase
}

// AllTransfers returns every transfer across every phase, in ID order.
func (w *Workload) AllTransfers() []*WorkloadTransfer {
	out := make([]*WorkloadTransfer, 0, w.nextTransferID)
	for _, p := range w.Phases {
		out = append(out, p.Transfers...)
	}
	return out
}

// RegisterTransferGroupID returns a fresh, monotonically increasing
// transfer group ID.
func (w *Workload) RegisterTransferGroupID() int32 {
	id := w.numTransferGroups
	w.numTransferGroups++
	return id
}

// SetGoldenCycles records the observed hardware reference window for a
// device (or MeshDevice for the cross-device window).
func (w *Workload) SetGoldenCycles(deviceID int32, start, end uint64) {
	w.GoldenCycles[deviceID] = [2]uint64{start, end}
}

// deviceGeometry is the subset of DeviceModel Validate needs; kept narrow
// so tests can fake it without a full device model.
type deviceGeometry interface {
	Rows() int
	Cols() int
	HasDevice(deviceID int32) bool
}

// Validate checks every structural invariant across every transfer, accumulating
// every violation found rather than stopping at the first, and returns a
// single wrapped ErrWorkloadValidation joining them.
func (w *Workload) Validate(dev deviceGeometry) error {
	var problems []string
	seenTransferIDs := make(map[int32]bool)
	seenPhaseIDs := make(map[int32]bool)

	for _, phase := range w.Phases {
		if seenPhaseIDs[phase.id] {
			problems = append(problems, fmt.Sprintf("duplicate phase id %d", phase.id))
		}
		seenPhaseIDs[phase.id] = true

		for _, t := range phase.Transfers {
			if seenTransferIDs[t.ID] {
				problems = append(problems, fmt.Sprintf("duplicate transfer id %d", t.ID))
			}
			seenTransferIDs[t.ID] = true

			if t.NumPackets == 0 {
				problems = append(problems, fmt.Sprintf("transfer %d: num_packets must be > 0", t.ID))
			}
			if t.PacketSize == 0 {
				problems = append(problems, fmt.Sprintf("transfer %d: packet_size must be > 0", t.ID))
			}
			if !dev.HasDevice(t.Src.DeviceID) {
				problems = append(problems, fmt.Sprintf("transfer %d: unknown src device_id %d", t.ID, t.Src.DeviceID))
			} else if !inRange(t.Src, dev) {
				problems = append(problems, fmt.Sprintf("transfer %d: src %s out of range", t.ID, t.Src))
			}

			if u, ok := t.Dst.Unicast(); ok {
				if !dev.HasDevice(u.DeviceID) {
					problems = append(problems, fmt.Sprintf("transfer %d: unknown dst device_id %d", t.ID, u.DeviceID))
				} else if !inRange(u, dev) {
					problems = append(problems, fmt.Sprintf("transfer %d: dst %s out of range", t.ID, u))
				}
				if u.DeviceID != t.Src.DeviceID {
					problems = append(problems, fmt.Sprintf("transfer %d: unicast src/dst device_id mismatch (a multichip fabric send must be expressed as a transfer-group chain of same-device hops, not a single cross-device transfer)", t.ID))
				}
			} else if mc, ok := t.Dst.Multicast(); ok {
				if len(mc.Rects) == 0 {
					problems = append(problems, fmt.Sprintf("transfer %d: empty multicast rectangle set", t.ID))
				}
				for _, r := range mc.Rects {
					if r.Start.DeviceID != r.End.DeviceID {
						problems = append(problems, fmt.Sprintf("transfer %d: multicast rectangle spans two devices", t.ID))
					}
					if !inRange(r.Start, dev) || !inRange(r.End, dev) {
						problems = append(problems, fmt.Sprintf("transfer %d: multicast rectangle out of range", t.ID))
					}
				}
			} else {
				problems = append(problems, fmt.Sprintf("transfer %d: destination is neither unicast nor multicast", t.ID))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", npeerr.ErrWorkloadValidation, strings.Join(problems, "; "))
	}
	return nil
}

func inRange(c Coord, dev deviceGeometry) bool {
	return c.Row >= 0 && int(c.Row) < dev.Rows() && c.Col >= 0 && int(c.Col) < dev.Cols()
}

// injectionRateSource is the narrow DeviceModel slice InferInjectionRates
// needs.
type injectionRateSource interface {
	SrcInjectionRate(c Coord) float32
}

// InferInjectionRates sets InjectionRate on every transfer whose rate is
// zero, using the device's per-core-type source rate. Idempotent: after
// the first call every rate is non-zero, so a second call is a no-op.
func (w *Workload) InferInjectionRates(dev injectionRateSource) {
	for _, t := range w.AllTransfers() {
		if t.InjectionRate == 0 {
			t.InjectionRate = dev.SrcInjectionRate(t.Src)
		}
	}
}

// ScaleWorkloadSchedule multiplies every transfer's PhaseCycleOffset by f.
// ScaleWorkloadSchedule(1.0) is a no-op; scale(a) then scale(b) is
// equivalent to a single scale(a*b).
func (w *Workload) ScaleWorkloadSchedule(f float64) {
	for _, t := range w.AllTransfers() {
		t.PhaseCycleOffset = uint32(float64(t.PhaseCycleOffset) * f)
	}
}

// RemoveLocalUnicastTransfers returns a new Workload with every
// src==dst unicast transfer dropped (pure latency, no NoC traffic), and
// IDs/phases renumbered. The receiver is untouched.
func (w *Workload) RemoveLocalUnicastTransfers() *Workload {
	out := NewWorkload()
	out.GoldenCycles = w.GoldenCycles
	out.SourceFilePath = w.SourceFilePath
	out.numTransferGroups = w.numTransferGroups
	for _, phase := range w.Phases {
		var kept []*WorkloadTransfer
		for _, t := range phase.Transfers {
			if t.IsLocal() {
				continue
			}
			cp := *t
			kept = append(kept, &cp)
		}
		out.AddPhase(kept)
	}
	return out
}
