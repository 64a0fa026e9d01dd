package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tt-npe/npe-go/internal/npeerr"
	"github.com/tt-npe/npe-go/npe"
)

func TestParseJSONWorkloadUnicastAndGolden(t *testing.T) {
	doc := `{
		"golden_result": {"cycles": 500},
		"phases": [
			{"transfers": [
				{"packet_size": 2048, "num_packets": 4, "src_x": 1, "src_y": 1, "dst_x": 2, "dst_y": 1, "noc_type": "NOC_0"}
			]}
		]
	}`

	wl, err := ParseJSONWorkload([]byte(doc), "test.json")
	require.NoError(t, err)
	require.Len(t, wl.AllTransfers(), 1)

	xfer := wl.AllTransfers()[0]
	assert.Equal(t, uint32(2048), xfer.PacketSize)
	assert.Equal(t, uint32(4), xfer.NumPackets)
	assert.Equal(t, npe.Coord{Row: 1, Col: 1}, xfer.Src)
	target, ok := xfer.Dst.Unicast()
	require.True(t, ok)
	assert.Equal(t, npe.Coord{Row: 1, Col: 2}, target)
	assert.Equal(t, npe.NOC0, xfer.NocType)

	gc, ok := wl.GoldenCycles[npe.MeshDevice]
	require.True(t, ok)
	assert.Equal(t, uint64(500), gc[1]-gc[0])
}

func TestParseJSONWorkloadMulticast(t *testing.T) {
	doc := `{"phases": [{"transfers": [
		{"packet_size": 1024, "num_packets": 1, "src_x": 0, "src_y": 0,
		 "mcast_start_x": 1, "mcast_start_y": 1, "mcast_end_x": 3, "mcast_end_y": 1}
	]}]}`

	wl, err := ParseJSONWorkload([]byte(doc), "test.json")
	require.NoError(t, err)
	require.Len(t, wl.AllTransfers(), 1)

	_, ok := wl.AllTransfers()[0].Dst.Multicast()
	assert.True(t, ok)
}

func TestParseJSONWorkloadRejectsTransferWithNoDestination(t *testing.T) {
	doc := `{"phases": [{"transfers": [
		{"packet_size": 1, "num_packets": 1, "src_x": 0, "src_y": 0}
	]}]}`

	_, err := ParseJSONWorkload([]byte(doc), "test.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, npeerr.ErrTraceIngest))
}

func TestParseJSONWorkloadRejectsUnknownNocType(t *testing.T) {
	doc := `{"phases": [{"transfers": [
		{"packet_size": 1, "num_packets": 1, "src_x": 0, "src_y": 0, "dst_x": 1, "dst_y": 0, "noc_type": "NOC_7"}
	]}]}`

	_, err := ParseJSONWorkload([]byte(doc), "test.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, npeerr.ErrTraceIngest))
}

func TestParseJSONWorkloadRejectsMalformedJSON(t *testing.T) {
	_, err := ParseJSONWorkload([]byte(`not json`), "test.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, npeerr.ErrTraceIngest))
}
