package ingest

import (
	"fmt"

	"github.com/tt-npe/npe-go/internal/npeerr"
	"github.com/tt-npe/npe-go/npe"
)

// testConfigGenerator builds a synthetic single-phase Workload against a
// concrete device, for quick smoke-testing of the engine and CLI without
// an external trace file.
type testConfigGenerator func(dev npe.DeviceModel) *npe.Workload

var testConfigs = map[string]testConfigGenerator{
	"nearest_neighbor": genNearestNeighbor,
	"all_to_all":       genAllToAll,
	"dram_read":        genDRAMRead,
}

// GetTestConfig resolves a --test-config name to a generated Workload for
// dev.
func GetTestConfig(name string, dev npe.DeviceModel) (*npe.Workload, error) {
	gen, ok := testConfigs[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown test-config %q", npeerr.ErrInvalidConfig, name)
	}
	return gen(dev), nil
}

// TestConfigNames returns every registered test-config name, for CLI
// help text.
func TestConfigNames() []string {
	names := make([]string, 0, len(testConfigs))
	for name := range testConfigs {
		names = append(names, name)
	}
	return names
}

func workerCoords(dev npe.DeviceModel) []npe.Coord {
	var out []npe.Coord
	for _, devID := range dev.DeviceIDs() {
		for row := 0; row < dev.Rows(); row++ {
			for col := 0; col < dev.Cols(); col++ {
				c := npe.Coord{DeviceID: devID, Row: int32(row), Col: int32(col)}
				if dev.CoreType(c) == npe.CoreWorker {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

// genNearestNeighbor has every WORKER core send four 2KiB packets to the
// worker one row south (wrapping), on NOC0.
func genNearestNeighbor(dev npe.DeviceModel) *npe.Workload {
	wl := npe.NewWorkload()
	workers := workerCoords(dev)
	var transfers []*npe.WorkloadTransfer
	for _, src := range workers {
		dst := npe.Coord{DeviceID: src.DeviceID, Row: (src.Row + 1) % int32(dev.Rows()), Col: src.Col}
		if dev.CoreType(dst) != npe.CoreWorker {
			continue
		}
		transfers = append(transfers, &npe.WorkloadTransfer{
			PacketSize: 2048, NumPackets: 4,
			Src: src, Dst: npe.UnicastDestination{Target: dst},
			NocType: npe.NOC0, NocEventType: "TEST_CONFIG_NEAREST_NEIGHBOR",
			TransferGroupID: -1, TransferGroupIndex: -1, TransferGroupParent: -1,
		})
	}
	wl.AddPhase(transfers)
	return wl
}

// genAllToAll has every WORKER core send one small packet to every other
// WORKER core on the same chip, on NOC0 — a worst-case congestion stress
// test. Unicast transfers never cross a device_id boundary (see
// Workload.Validate), so on a multichip device this runs independently
// within each chip rather than across the whole fabric.
func genAllToAll(dev npe.DeviceModel) *npe.Workload {
	wl := npe.NewWorkload()
	workers := workerCoords(dev)
	var transfers []*npe.WorkloadTransfer
	for _, src := range workers {
		for _, dst := range workers {
			if src == dst || src.DeviceID != dst.DeviceID {
				continue
			}
			transfers = append(transfers, &npe.WorkloadTransfer{
				PacketSize: 256, NumPackets: 1,
				Src: src, Dst: npe.UnicastDestination{Target: dst},
				NocType: npe.NOC0, NocEventType: "TEST_CONFIG_ALL_TO_ALL",
				TransferGroupID: -1, TransferGroupIndex: -1, TransferGroupParent: -1,
			})
		}
	}
	wl.AddPhase(transfers)
	return wl
}

// genDRAMRead has every WORKER core read eight 8KiB packets from the nearest
// DRAM-typed core on its own row, on NOC1.
func genDRAMRead(dev npe.DeviceModel) *npe.Workload {
	wl := npe.NewWorkload()
	workers := workerCoords(dev)
	var transfers []*npe.WorkloadTransfer
	for _, src := range workers {
		dram, ok := nearestDRAMOnRow(dev, src)
		if !ok {
			continue
		}
		transfers = append(transfers, &npe.WorkloadTransfer{
			PacketSize: 8192, NumPackets: 8,
			Src: dram, Dst: npe.UnicastDestination{Target: src},
			NocType: npe.NOC1, NocEventType: "TEST_CONFIG_DRAM_READ",
			TransferGroupID: -1, TransferGroupIndex: -1, TransferGroupParent: -1,
		})
	}
	wl.AddPhase(transfers)
	return wl
}

func nearestDRAMOnRow(dev npe.DeviceModel, src npe.Coord) (npe.Coord, bool) {
	best := npe.UnsetCoord
	bestDist := int32(-1)
	for col := int32(0); col < int32(dev.Cols()); col++ {
		c := npe.Coord{DeviceID: src.DeviceID, Row: src.Row, Col: col}
		if dev.CoreType(c) != npe.CoreDRAM {
			continue
		}
		dist := col - src.Col
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best, bestDist >= 0
}
