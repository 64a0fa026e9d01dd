package ingest

import "github.com/tt-npe/npe-go/npe"

// startupLatencyTable holds an architecture's fixed NoC write startup
// latency, broken out by the geometric relationship between source and
// destination: issuing a transfer to your own core, a core on your row,
// a core on your column, or a general (diagonal) destination each cost
// a different number of setup cycles on real silicon before the first
// byte moves.
type startupLatencyTable struct {
	SameCore uint32
	SameRow  uint32
	SameCol  uint32
	Diagonal uint32
}

var startupLatencyTables = map[string]startupLatencyTable{
	"wormhole_b0": {SameCore: 0, SameRow: 12, SameCol: 12, Diagonal: 18},
	"wormhole_q":  {SameCore: 0, SameRow: 14, SameCol: 14, Diagonal: 20},
	"blackhole":   {SameCore: 0, SameRow: 10, SameCol: 10, Diagonal: 16},
}

// defaultStartupLatencyTable is used for any arch name not in the table
// above (including the multichip aliases, which share wormhole_b0's
// per-chip timing).
var defaultStartupLatencyTable = startupLatencyTables["wormhole_b0"]

func lookupStartupLatency(arch string, src, dst npe.Coord) uint32 {
	table, ok := startupLatencyTables[arch]
	if !ok {
		table = defaultStartupLatencyTable
	}
	switch {
	case src == dst:
		return table.SameCore
	case src.Row == dst.Row:
		return table.SameRow
	case src.Col == dst.Col:
		return table.SameCol
	default:
		return table.Diagonal
	}
}
