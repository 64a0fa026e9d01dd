package npe_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tt-npe/npe-go/npe"
)

func TestWriteTimelineOmitsChipsForSingleChipDevice(t *testing.T) {
	// GIVEN a completed single-chip run
	wl := unicastWorkload(100, 1)
	cfg := npe.Config{CyclesPerTimestep: 10, CongModel: npe.CongestionNone}
	dev := fakeDevice{bw: 50}
	stats, states, err := npe.RunPerfEstimationDetailed(context.Background(), wl, cfg, dev)
	require.NoError(t, err)

	// WHEN the timeline is written
	path := filepath.Join(t.TempDir(), "timeline.json")
	require.NoError(t, npe.WriteTimeline(path, dev, cfg.CyclesPerTimestep, states, stats))

	// THEN the document has no "chips" key (NumChips()==1) and each
	// transfer carries its resolved route
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	_, hasChips := doc["chips"]
	assert.False(t, hasChips)

	xfers, ok := doc["noc_transfers"].([]any)
	require.True(t, ok)
	require.Len(t, xfers, 1)
	xfer := xfers[0].(map[string]any)
	route, ok := xfer["route"].([]any)
	require.True(t, ok)
	assert.Len(t, route, 1)
}

type multichipFakeDevice struct{ fakeDevice }

func (multichipFakeDevice) NumChips() int      { return 2 }
func (multichipFakeDevice) DeviceIDs() []int32 { return []int32{0, 1} }

func TestWriteTimelineIncludesChipsForMultichipDevice(t *testing.T) {
	// GIVEN a completed run on a device reporting more than one chip
	wl := unicastWorkload(100, 1)
	cfg := npe.Config{CyclesPerTimestep: 10, CongModel: npe.CongestionNone}
	dev := multichipFakeDevice{fakeDevice{bw: 50}}
	stats, states, err := npe.RunPerfEstimationDetailed(context.Background(), wl, cfg, dev)
	require.NoError(t, err)

	// WHEN the timeline is written
	path := filepath.Join(t.TempDir(), "timeline.json")
	require.NoError(t, npe.WriteTimeline(path, dev, cfg.CyclesPerTimestep, states, stats))

	// THEN "chips" lists every device id
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	chips, ok := doc["chips"].([]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{float64(0), float64(1)}, chips)
}
