// Package ingest converts external workload representations (the npe
// native JSON schema and hardware noc-trace captures) into npe.Workload
// values.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tt-npe/npe-go/internal/npeerr"
	"github.com/tt-npe/npe-go/npe"
)

type jsonDocument struct {
	GoldenResult *jsonGoldenResult `json:"golden_result"`
	Phases       []jsonPhase       `json:"phases"`
}

type jsonGoldenResult struct {
	Cycles uint64 `json:"cycles"`
}

type jsonPhase struct {
	Transfers []jsonTransfer `json:"transfers"`
}

type jsonTransfer struct {
	PacketSize uint32 `json:"packet_size"`
	NumPackets uint32 `json:"num_packets"`

	SrcX     int32  `json:"src_x"`
	SrcY     int32  `json:"src_y"`
	DeviceID *int32 `json:"device_id"`

	DstX *int32 `json:"dst_x"`
	DstY *int32 `json:"dst_y"`

	McastStartX *int32 `json:"mcast_start_x"`
	McastStartY *int32 `json:"mcast_start_y"`
	McastEndX   *int32 `json:"mcast_end_x"`
	McastEndY   *int32 `json:"mcast_end_y"`

	InjectionRate    float32 `json:"injection_rate"`
	PhaseCycleOffset uint32  `json:"phase_cycle_offset"`
	NocType          string  `json:"noc_type"`
	NocEventType     string  `json:"noc_event_type"`
}

// LoadJSONWorkload reads and parses the npe native JSON workload schema.
// row<->y and col<->x throughout.
func LoadJSONWorkload(path string) (*npe.Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", npeerr.ErrTraceIngest, path, err)
	}
	return ParseJSONWorkload(data, path)
}

// ParseJSONWorkload parses raw npe native JSON workload bytes.
// sourcePath is recorded on the resulting Workload and used in error
// messages only.
func ParseJSONWorkload(data []byte, sourcePath string) (*npe.Workload, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", npeerr.ErrTraceIngest, sourcePath, err)
	}

	wl := npe.NewWorkload()
	wl.SourceFilePath = sourcePath
	if doc.GoldenResult != nil {
		wl.SetGoldenCycles(npe.MeshDevice, 0, doc.GoldenResult.Cycles)
	}

	for _, jp := range doc.Phases {
		var transfers []*npe.WorkloadTransfer
		for i, jt := range jp.Transfers {
			t, err := jsonTransferToWorkloadTransfer(jt)
			if err != nil {
				return nil, fmt.Errorf("%w: %s transfer %d: %v", npeerr.ErrTraceIngest, sourcePath, i, err)
			}
			transfers = append(transfers, t)
		}
		wl.AddPhase(transfers)
	}
	return wl, nil
}

func jsonTransferToWorkloadTransfer(jt jsonTransfer) (*npe.WorkloadTransfer, error) {
	var deviceID int32
	if jt.DeviceID != nil {
		deviceID = *jt.DeviceID
	}
	src := npe.Coord{DeviceID: deviceID, Row: jt.SrcY, Col: jt.SrcX}

	var noc npe.NocType
	switch jt.NocType {
	case "NOC_0", "":
		noc = npe.NOC0
	case "NOC_1":
		noc = npe.NOC1
	default:
		return nil, fmt.Errorf("unknown noc_type %q", jt.NocType)
	}

	var dst npe.NocDestination
	switch {
	case jt.DstX != nil && jt.DstY != nil:
		dst = npe.UnicastDestination{Target: npe.Coord{DeviceID: deviceID, Row: *jt.DstY, Col: *jt.DstX}}
	case jt.McastStartX != nil && jt.McastStartY != nil && jt.McastEndX != nil && jt.McastEndY != nil:
		rect := npe.Rectangle{
			Start: npe.Coord{DeviceID: deviceID, Row: *jt.McastStartY, Col: *jt.McastStartX},
			End:   npe.Coord{DeviceID: deviceID, Row: *jt.McastEndY, Col: *jt.McastEndX},
		}
		mc, ok := npe.NewMulticastDestination(rect)
		if !ok {
			return nil, fmt.Errorf("invalid multicast rectangle")
		}
		dst = mc
	default:
		return nil, fmt.Errorf("transfer has neither unicast (dst_x/dst_y) nor multicast (mcast_*) destination")
	}

	return &npe.WorkloadTransfer{
		PacketSize:           jt.PacketSize,
		NumPackets:           jt.NumPackets,
		Src:                  src,
		Dst:                  dst,
		InjectionRate:        jt.InjectionRate,
		PhaseCycleOffset:     jt.PhaseCycleOffset,
		NocType:              noc,
		NocEventType:         jt.NocEventType,
		TransferGroupID:      -1,
		TransferGroupIndex:   -1,
		TransferGroupParent:  -1,
	}, nil
}
