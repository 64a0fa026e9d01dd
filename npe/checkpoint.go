package npe

import "sort"

// CheckpointID indexes into a DependencyTracker's checkpoint slice.
// UndefinedCheckpoint means "no dependency".
type CheckpointID int32

const UndefinedCheckpoint CheckpointID = -1

// Checkpoint is a reference-counted gate with an optional delay, done
// once every dependent has completed and the delay has elapsed past the
// latest completion cycle.
type Checkpoint struct {
	DepTotal     uint32
	DepCompleted uint32
	EndCycle     uint32
	Delay        uint32
}

// DependencyTracker owns every Checkpoint created for one simulation run.
type DependencyTracker struct {
	checkpoints []Checkpoint
}

// NewDependencyTracker returns an empty tracker.
func NewDependencyTracker() *DependencyTracker {
	return &DependencyTracker{}
}

// CreateCheckpoint appends a new checkpoint and returns its ID.
func (d *DependencyTracker) CreateCheckpoint(depTotal, delay uint32) CheckpointID {
	d.checkpoints = append(d.checkpoints, Checkpoint{DepTotal: depTotal, Delay: delay})
	return CheckpointID(len(d.checkpoints) - 1)
}

// Defined reports whether id names a real checkpoint.
func (d *DependencyTracker) Defined(id CheckpointID) bool {
	return id != UndefinedCheckpoint
}

// Update increments dep_completed and raises end_cycle for id. A no-op if
// id is undefined.
func (d *DependencyTracker) Update(id CheckpointID, cycle uint32) {
	if !d.Defined(id) {
		return
	}
	cp := &d.checkpoints[id]
	cp.DepCompleted++
	if cycle > cp.EndCycle {
		cp.EndCycle = cycle
	}
}

// EndCycle returns the checkpoint's end_cycle, or 0 if undefined.
func (d *DependencyTracker) EndCycle(id CheckpointID) uint32 {
	if !d.Defined(id) {
		return 0
	}
	return d.checkpoints[id].EndCycle
}

// EndCyclePlusDelay returns end_cycle + delay, or 0 if undefined.
func (d *DependencyTracker) EndCyclePlusDelay(id CheckpointID) uint32 {
	if !d.Defined(id) {
		return 0
	}
	cp := d.checkpoints[id]
	return cp.EndCycle + cp.Delay
}

// Done reports whether id is undefined, or complete and past its delay at
// currCycle.
func (d *DependencyTracker) Done(id CheckpointID, currCycle uint32) bool {
	if !d.Defined(id) {
		return true
	}
	cp := d.checkpoints[id]
	return cp.DepCompleted == cp.DepTotal && currCycle >= cp.EndCycle+cp.Delay
}

// SanityCheck reports whether dep_completed never exceeds dep_total on any
// checkpoint.
func (d *DependencyTracker) SanityCheck() bool {
	for _, cp := range d.checkpoints {
		if cp.DepCompleted > cp.DepTotal {
			return false
		}
	}
	return true
}

// AllComplete reports whether every checkpoint has dep_completed ==
// dep_total.
func (d *DependencyTracker) AllComplete() bool {
	for _, cp := range d.checkpoints {
		if cp.DepCompleted != cp.DepTotal {
			return false
		}
	}
	return true
}

// Reset zeroes dep_completed on every checkpoint, leaving end_cycle and
// delay untouched. Called once, after construction-time validation and
// before the simulation proper begins.
func (d *DependencyTracker) Reset() {
	for i := range d.checkpoints {
		d.checkpoints[i].DepCompleted = 0
	}
}

// niuBucketKey groups transfers competing for the same injection port.
// localNOC0/localNOC1 are the synthetic buckets for empty-route
// (src==dst) transfers.
type niuBucketKey struct {
	noc       NocType
	row, col  int32
	firstLink LinkType
	local     bool
	localNOC  NocType
}

const niuSerializationStride = 2

// GenNIUDependencies buckets transfers by (noc_type, src.row, src.col,
// first_link_type) — or a synthetic local bucket when the route is empty
// — sorts each bucket by start_cycle, and serializes every transfer at
// index i>=stride on the one at i-stride, approximating 2-VC contention.
func (d *DependencyTracker) GenNIUDependencies(states []*PETransferState) {
	buckets := make(map[niuBucketKey][]*PETransferState)
	for _, ts := range states {
		var key niuBucketKey
		if len(ts.Route) == 0 {
			key = niuBucketKey{local: true, localNOC: ts.Params.NocType}
		} else {
			key = niuBucketKey{
				noc:       ts.Params.NocType,
				row:       ts.Params.Src.Row,
				col:       ts.Params.Src.Col,
				firstLink: ts.firstLinkType,
			}
		}
		buckets[key] = append(buckets[key], ts)
	}

	for _, bucket := range buckets {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].StartCycle < bucket[j].StartCycle
		})
		for i := niuSerializationStride; i < len(bucket); i++ {
			parent := bucket[i-niuSerializationStride]
			child := bucket[i]
			cpID := d.CreateCheckpoint(1, 0)
			parent.RequiredBy = append(parent.RequiredBy, cpID)
			child.DependsOn = cpID
		}
	}
}

// EthHopCycleDelayBase and EthHopCycleDelayPerByte model the fixed and
// per-byte cost of crossing an ethernet hop between chips in a transfer
// group chain.
const (
	EthHopCycleDelayBase    = 600.0
	EthHopCycleDelayPerByte = 0.1055
)

// WriteLatencyFunc computes the architecture-specific NoC write latency
// for a single-chip hop; supplied by the device model.
type WriteLatencyFunc func(src Coord, dst NocDestination, noc NocType) uint32

// GenTransferGroupDependencies chains transfers sharing a
// TransferGroupID: each child depends on its TransferGroupParent's
// completion checkpoint, with a delay of writeLatency plus an ethernet-hop
// cost if the parent's source is on a different device.
func (d *DependencyTracker) GenTransferGroupDependencies(states []*PETransferState, writeLatency WriteLatencyFunc) {
	byGroup := make(map[int32][]*PETransferState)
	for _, ts := range states {
		if ts.Params.HasTransferGroup() {
			byGroup[ts.Params.TransferGroupID] = append(byGroup[ts.Params.TransferGroupID], ts)
		}
	}

	for _, group := range byGroup {
		byIndex := make(map[int32]*PETransferState, len(group))
		for _, ts := range group {
			byIndex[ts.Params.TransferGroupIndex] = ts
		}
		for _, child := range group {
			if child.Params.TransferGroupParent < 0 {
				continue
			}
			parent, ok := byIndex[child.Params.TransferGroupParent]
			if !ok {
				continue
			}
			delay := writeLatency(child.Params.Src, child.Params.Dst, child.Params.NocType)
			if child.Params.Src.DeviceID != parent.Params.Src.DeviceID {
				delay += uint32(EthHopCycleDelayBase + EthHopCycleDelayPerByte*float64(child.Params.PacketSize))
			}
			cpID := d.CreateCheckpoint(1, delay)
			parent.RequiredBy = append(parent.RequiredBy, cpID)
			child.DependsOn = cpID
		}
	}
}
