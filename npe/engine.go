package npe

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tt-npe/npe-go/internal/npeerr"
)

// RunPerfEstimation is the engine's entry point: it validates cfg, runs
// one simulation pass (or two, if cfg.EstimateCongImpact is set, to
// separately measure the congestion-free cycle count), and returns the
// resulting Stats.
func RunPerfEstimation(ctx context.Context, wl *Workload, cfg Config, dev DeviceModel) (*Stats, error) {
	stats, _, err := RunPerfEstimationDetailed(ctx, wl, cfg, dev)
	return stats, err
}

// RunPerfEstimationDetailed is RunPerfEstimation plus the final
// per-transfer runtime states of the primary (congestion-enabled, or
// cfg.CongModel-selected) pass, for callers that need start/end cycles
// per transfer (e.g. the timeline writer).
func RunPerfEstimationDetailed(ctx context.Context, wl *Workload, cfg Config, dev DeviceModel) (*Stats, []*PETransferState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	stats, states, err := runSinglePerfSim(ctx, wl, cfg, dev, cfg.enableCongestion())
	if err != nil {
		return nil, nil, err
	}

	if cfg.EstimateCongImpact {
		congFree, _, err := runSinglePerfSim(ctx, wl, cfg, dev, false)
		if err != nil {
			return nil, nil, err
		}
		for id, ds := range stats.Devices {
			if free, ok := congFree.Devices[id]; ok {
				ds.EstimatedCongFreeCycles = free.EstimatedCycles
				ds.CongestionImpact = congestionImpact(ds.EstimatedCycles, ds.EstimatedCongFreeCycles)
			}
		}
	}

	return stats, states, nil
}

// queueEntry is one (start_cycle, id) pair of the activation queue, kept
// sorted ascending so activation order is stable w.r.t. (start_cycle, id).
type queueEntry struct {
	startCycle uint32
	id         int32
}

// initTransferState flattens every phase of wl into a dense []*PETransferState
// indexed by transfer ID, precomputing each transfer's route.
func initTransferState(wl *Workload, dev DeviceModel) []*PETransferState {
	transfers := wl.AllTransfers()
	states := make([]*PETransferState, len(transfers))
	for _, t := range transfers {
		route := dev.Route(t.NocType, t.Src, t.Dst)
		var firstLinkType LinkType
		if len(route) > 0 {
			if attr, ok := dev.LinkAttrFor(route[0]); ok {
				firstLinkType = attr.Type
			}
		}
		states[t.ID] = NewPETransferState(t, route, firstLinkType)
	}
	return states
}

// createTransferQueue builds the activation queue, ascending by
// (start_cycle, id).
func createTransferQueue(states []*PETransferState) []queueEntry {
	q := make([]queueEntry, len(states))
	for i, ts := range states {
		q[i] = queueEntry{startCycle: ts.StartCycle, id: ts.Params.ID}
	}
	sort.SliceStable(q, func(i, j int) bool {
		if q[i].startCycle != q[j].startCycle {
			return q[i].startCycle < q[j].startCycle
		}
		return q[i].id < q[j].id
	})
	return q
}

// genDependencies builds the full DependencyTracker for one run: NIU
// serialization, transfer-group chaining, then a dry validation pass that
// bumps every checkpoint via required_by and confirms dep_total matches
// the number of references before resetting dep_completed to zero for
// the real simulation.
func genDependencies(states []*PETransferState, dev DeviceModel) (*DependencyTracker, error) {
	dt := NewDependencyTracker()
	dt.GenNIUDependencies(states)
	dt.GenTransferGroupDependencies(states, dev.WriteLatency)

	for _, ts := range states {
		for _, cp := range ts.RequiredBy {
			dt.Update(cp, 0)
		}
	}
	if !dt.SanityCheck() || !dt.AllComplete() {
		return nil, fmt.Errorf("%w: checkpoint dependency counts do not match required_by references", npeerr.ErrDependencyGen)
	}
	dt.Reset()
	return dt, nil
}

// runSinglePerfSim runs exactly one pass of the timestep-driven main
// loop, with or without congestion derating.
func runSinglePerfSim(ctx context.Context, wl *Workload, cfg Config, dev DeviceModel, enableCongestion bool) (*Stats, []*PETransferState, error) {
	wallStart := time.Now()

	states := initTransferState(wl, dev)
	queue := createTransferQueue(states)
	dt, err := genDependencies(states, dev)
	if err != nil {
		return nil, nil, err
	}
	deviceState := dev.InitDeviceState()

	stats := &Stats{Devices: make(map[int32]*DeviceStats)}
	stats.Devices[MeshDevice] = &DeviceStats{DeviceID: MeshDevice}
	if gc, ok := wl.GoldenCycles[MeshDevice]; ok {
		stats.Devices[MeshDevice].GoldenCycles = gc[1] - gc[0]
	}
	for _, id := range dev.DeviceIDs() {
		ds := &DeviceStats{DeviceID: id}
		if gc, ok := wl.GoldenCycles[id]; ok {
			ds.GoldenCycles = gc[1] - gc[0]
		}
		stats.Devices[id] = ds
	}

	var live []int32
	cyclesPerTimestep := cfg.CyclesPerTimestep
	currCycle := cyclesPerTimestep

	for {
		if ctx != nil && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		t0 := currCycle - cyclesPerTimestep
		t1 := currCycle

		// Activate: scan the ascending-sorted prefix whose start_cycle
		// has arrived; leave not-yet-ready entries in place for a later
		// timestep.
		i := 0
		for i < len(queue) && queue[i].startCycle <= currCycle {
			entry := queue[i]
			ts := states[entry.id]
			if !dt.Done(ts.DependsOn, currCycle) {
				i++
				continue
			}
			if dt.Defined(ts.DependsOn) {
				ts.StartCycle = maxU32(ts.StartCycle, dt.EndCyclePlusDelay(ts.DependsOn))
			}
			live = append(live, entry.id)
			queue = append(queue[:i], queue[i+1:]...)
		}

		liveIdx := make([]int, len(live))
		for k, id := range live {
			liveIdx[k] = int(id)
		}
		dev.ComputeCurrentTransferRate(t0, t1, states, liveIdx, deviceState, enableCongestion)

		updateTimestepStats(stats, dev, deviceState, liveIdx, t0, t1)

		var stillLive []int32
		for _, id := range live {
			ts := states[id]
			cyclesActive := minU32(cyclesPerTimestep, currCycle-ts.StartCycle)

			if dt.Defined(ts.DependsOn) {
				depEnd := dt.EndCycle(ts.DependsOn)
				if t0 >= cyclesPerTimestep {
					prevWindowStart := t0 - cyclesPerTimestep
					if ts.StartCycle < t0 && depEnd >= prevWindowStart && depEnd < t0 {
						cyclesActive = currCycle - maxU32(ts.StartCycle, depEnd)
					}
				}
			}

			remaining := ts.RemainingBytes()
			maxTransferable := uint64(float64(cyclesActive) * float64(ts.CurrBandwidth))
			bytesTransferred := remaining
			if maxTransferable < remaining {
				bytesTransferred = maxTransferable
			}
			ts.TotalBytesTransferred += bytesTransferred

			if ts.Complete() {
				var cyclesTransferring uint32
				if ts.CurrBandwidth > 0 {
					cyclesTransferring = uint32(math.Ceil(float64(bytesTransferred) / float64(ts.CurrBandwidth)))
				}
				startOfTransferWithinTimestep := maxU32(ts.StartCycle, t0)
				ts.EndCycle = startOfTransferWithinTimestep + cyclesTransferring
				for _, cp := range ts.RequiredBy {
					dt.Update(cp, ts.EndCycle)
				}
			} else {
				stillLive = append(stillLive, id)
			}
		}
		live = stillLive

		if len(live) == 0 && len(queue) == 0 {
			finalize(wl, dev, stats, states, cyclesPerTimestep)
			stats.NumTimesteps = len(stats.Devices[MeshDevice].Timesteps)
			stats.WallClockRuntime = time.Since(wallStart)
			return stats, states, nil
		}
		if currCycle > maxCycleLimit {
			return nil, nil, fmt.Errorf("%w: exceeded %d cycles with %d transfers still live and %d queued",
				npeerr.ErrCycleLimitExceeded, maxCycleLimit, len(live), len(queue))
		}

		if currCycle%(cyclesPerTimestep*1000) == 0 {
			logrus.Debugf("npe: timestep boundary at cycle %d (%d live, %d queued)", currCycle, len(live), len(queue))
		}
		if currCycle > uint32(float64(maxCycleLimit)*0.9) {
			logrus.Warnf("npe: approaching cycle cap (%d / %d)", currCycle, maxCycleLimit)
		}

		currCycle += cyclesPerTimestep
	}
}

// finalize computes, per device, the golden-window-bounded estimated
// cycle count and truncates that device's per-timestep stats to the
// window.
func finalize(wl *Workload, dev DeviceModel, stats *Stats, states []*PETransferState, cyclesPerTimestep uint32) {
	for deviceID, ds := range stats.Devices {
		gc, hasGolden := wl.GoldenCycles[deviceID]
		var goldenStart, goldenEnd uint64
		if hasGolden {
			goldenStart, goldenEnd = gc[0], gc[1]
		}

		var worstCaseEnd uint32
		for _, ts := range states {
			if !matchesDevice(deviceID, ts.Params.Src.DeviceID) {
				continue
			}
			if hasGolden {
				offset := uint64(ts.Params.PhaseCycleOffset)
				if offset < goldenStart || offset > goldenEnd {
					continue
				}
			}
			worstCaseEnd = maxU32(worstCaseEnd, ts.EndCycle)
		}
		ds.EstimatedCycles = uint64(worstCaseEnd)

		if hasGolden && cyclesPerTimestep > 0 {
			startIdx := int(goldenStart / uint64(cyclesPerTimestep))
			endIdx := int((uint64(worstCaseEnd) + uint64(cyclesPerTimestep) - 1) / uint64(cyclesPerTimestep))
			if startIdx < 0 {
				startIdx = 0
			}
			if endIdx > len(ds.Timesteps) {
				endIdx = len(ds.Timesteps)
			}
			if startIdx < endIdx {
				ds.Timesteps = append([]TimestepStats(nil), ds.Timesteps[startIdx:endIdx]...)
			}
		}
	}
	computeSummaryStats(wl, dev, stats)
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
