package npe_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tt-npe/npe-go/internal/npeerr"
	"github.com/tt-npe/npe-go/npe"
)

// fakeDevice is a minimal single-chip, single-link, single-NIU
// npe.DeviceModel double: every transfer's route is the one link, and
// ComputeCurrentTransferRate sets CurrBandwidth directly to bw (bypassing
// InterpolateBW/derating) so engine tests can pick an exact, predictable
// byte rate without depending on a concrete architecture's tables.
type fakeDevice struct{ bw float32 }

func (f fakeDevice) Name() string                   { return "fake" }
func (f fakeDevice) Rows() int                       { return 2 }
func (f fakeDevice) Cols() int                       { return 2 }
func (f fakeDevice) NumChips() int                   { return 1 }
func (f fakeDevice) DeviceIDs() []int32              { return []int32{0} }
func (f fakeDevice) HasDevice(id int32) bool         { return id == 0 }
func (f fakeDevice) CoreType(c npe.Coord) npe.CoreType { return npe.CoreWorker }
func (f fakeDevice) SrcInjectionRate(c npe.Coord) float32    { return 10 }
func (f fakeDevice) SinkAbsorptionRate(c npe.Coord) float32  { return 1000 }
func (f fakeDevice) WorkerSinkAbsorptionRate() float32       { return 1000 }
func (f fakeDevice) TransferBWTable() []npe.BWTableEntry {
	return []npe.BWTableEntry{{PacketSize: 1, SteadyStateBW: f.bw}}
}
func (f fakeDevice) MaxNoCTransferBW() float32           { return f.bw }
func (f fakeDevice) LinkBandwidth(id npe.LinkID) float32 { return f.bw }
func (f fakeDevice) AggregateDRAMBandwidth() float32     { return 1000 }
func (f fakeDevice) NumLinks() int                       { return 1 }
func (f fakeDevice) NumNIUs() int                        { return 1 }
func (f fakeDevice) LinkIDFor(attr npe.LinkAttr) (npe.LinkID, bool) { return 0, true }
func (f fakeDevice) LinkAttrFor(id npe.LinkID) (npe.LinkAttr, bool) { return npe.LinkAttr{}, true }
func (f fakeDevice) NIUIDFor(attr npe.NIUAttr) (npe.NIUID, bool)    { return 0, true }
func (f fakeDevice) NIUAttrFor(id npe.NIUID) (npe.NIUAttr, bool)    { return npe.NIUAttr{}, true }
func (f fakeDevice) Route(noc npe.NocType, src npe.Coord, dst npe.NocDestination) []npe.LinkID {
	return []npe.LinkID{0}
}
func (f fakeDevice) WriteLatency(src npe.Coord, dst npe.NocDestination, noc npe.NocType) uint32 {
	return 0
}
func (f fakeDevice) InitDeviceState() *npe.DeviceState { return npe.NewDeviceState(1, 1) }
func (f fakeDevice) ComputeCurrentTransferRate(t0, t1 uint32, transfers []*npe.PETransferState, live []int, state *npe.DeviceState, enableCongestion bool) {
	for _, idx := range live {
		transfers[idx].CurrBandwidth = f.bw
	}
}

func unicastWorkload(packetSize, numPackets uint32) *npe.Workload {
	wl := npe.NewWorkload()
	wl.AddPhase([]*npe.WorkloadTransfer{{
		PacketSize: packetSize, NumPackets: numPackets,
		Src: npe.Coord{DeviceID: 0, Row: 0, Col: 0},
		Dst: npe.UnicastDestination{Target: npe.Coord{DeviceID: 0, Row: 0, Col: 1}},
		NocType: npe.NOC0,
	}})
	return wl
}

func TestEngineSingleUnicastCompletes(t *testing.T) {
	// GIVEN one small transfer and a device that delivers 50 bytes/cycle
	wl := unicastWorkload(100, 1)
	cfg := npe.Config{CyclesPerTimestep: 10, CongModel: npe.CongestionNone}
	dev := fakeDevice{bw: 50}

	// WHEN simulated
	stats, err := npe.RunPerfEstimation(context.Background(), wl, cfg, dev)

	// THEN it completes well within the cycle cap, in a small number of cycles
	require.NoError(t, err)
	require.Contains(t, stats.Devices, int32(0))
	ds := stats.Devices[0]
	assert.Greater(t, ds.EstimatedCycles, uint64(0))
	assert.Less(t, ds.EstimatedCycles, uint64(100))
}

func TestEngineCycleLimitExceeded(t *testing.T) {
	// GIVEN a transfer that can never complete (zero bandwidth) and a
	// coarse per-timestep granularity, so the cycle cap is reached in a
	// small number of loop iterations
	wl := unicastWorkload(1_000_000_000, 1000)
	cfg := npe.Config{CyclesPerTimestep: 1_000_000, CongModel: npe.CongestionNone}
	dev := fakeDevice{bw: 0}

	// WHEN simulated
	_, err := npe.RunPerfEstimation(context.Background(), wl, cfg, dev)

	// THEN it fails with ErrCycleLimitExceeded rather than looping forever
	require.Error(t, err)
	assert.True(t, errors.Is(err, npeerr.ErrCycleLimitExceeded))
}

func TestEngineIsDeterministic(t *testing.T) {
	// GIVEN the same workload, config, and device model
	cfg := npe.Config{CyclesPerTimestep: 10, CongModel: npe.CongestionNone}
	dev := fakeDevice{bw: 33}

	// WHEN run twice independently
	stats1, err1 := npe.RunPerfEstimation(context.Background(), unicastWorkload(256, 3), cfg, dev)
	stats2, err2 := npe.RunPerfEstimation(context.Background(), unicastWorkload(256, 3), cfg, dev)
	require.NoError(t, err1)
	require.NoError(t, err2)

	// THEN the results are identical (modulo wall-clock timing, which is
	// inherently non-reproducible)
	stats1.WallClockRuntime = 0
	stats2.WallClockRuntime = 0
	assert.Equal(t, stats1, stats2)
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	// GIVEN a config with no cycles_per_timestep set
	wl := unicastWorkload(8, 1)
	cfg := npe.Config{CongModel: npe.CongestionNone}
	dev := fakeDevice{bw: 10}

	// WHEN simulated
	_, err := npe.RunPerfEstimation(context.Background(), wl, cfg, dev)

	// THEN validation rejects it before the main loop ever runs
	require.Error(t, err)
	assert.True(t, errors.Is(err, npeerr.ErrInvalidConfig))
}

func TestEngineContextCancellationStopsEarly(t *testing.T) {
	// GIVEN a context already canceled before the run starts
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wl := unicastWorkload(8, 1)
	cfg := npe.Config{CyclesPerTimestep: 10, CongModel: npe.CongestionNone}
	dev := fakeDevice{bw: 10}

	// WHEN simulated
	_, err := npe.RunPerfEstimation(ctx, wl, cfg, dev)

	// THEN it reports the cancellation instead of running to completion
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
