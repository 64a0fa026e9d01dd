package npe

import "fmt"

// MeshDevice is the sentinel device_id meaning "aggregate across every
// device in the mesh" when used as a Stats key or a finalize() filter.
const MeshDevice int32 = -1

// Coord identifies a single router on a device. Negative components mean
// "unset" (see UnsetCoord); the zero value is row 0, col 0 of device 0.
type Coord struct {
	DeviceID int32
	Row      int32
	Col      int32
}

// UnsetCoord is used as the src of a transfer that has no real source,
// and as a defensive zero value in maps keyed by Coord.
var UnsetCoord = Coord{DeviceID: -1, Row: -1, Col: -1}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.DeviceID, c.Row, c.Col)
}

// wrap reduces v into [0, n) the way a torus coordinate wraps, handling
// negative v (Go's % keeps the sign of the dividend).
func wrap(v, n int32) int32 {
	m := v % n
	if m < 0 {
		m += n
	}
	return m
}

// NocType selects a routing convention: NOC0 goes east-then-south, NOC1
// goes north-then-west.
type NocType int

const (
	NOC0 NocType = iota
	NOC1
)

func (t NocType) String() string {
	if t == NOC0 {
		return "NOC0"
	}
	return "NOC1"
}

// CoreType classifies what a grid cell is, which in turn determines its
// injection/absorption bandwidths.
type CoreType int

const (
	CoreUndef CoreType = iota
	CoreWorker
	CoreDRAM
	CoreEth
)

func (t CoreType) String() string {
	switch t {
	case CoreWorker:
		return "WORKER"
	case CoreDRAM:
		return "DRAM"
	case CoreEth:
		return "ETH"
	default:
		return "UNDEF"
	}
}

// LinkType identifies one of the four directed outgoing links a router
// has, one per (NoC, direction) combination.
type LinkType int

const (
	LinkNOC0East LinkType = iota
	LinkNOC0South
	LinkNOC1North
	LinkNOC1West
)

func (t LinkType) String() string {
	switch t {
	case LinkNOC0East:
		return "NOC0_EAST"
	case LinkNOC0South:
		return "NOC0_SOUTH"
	case LinkNOC1North:
		return "NOC1_NORTH"
	case LinkNOC1West:
		return "NOC1_WEST"
	default:
		return "UNKNOWN_LINK"
	}
}

// NIUType identifies one of the four per-router injection/ejection
// endpoints.
type NIUType int

const (
	NIUNOC0Src NIUType = iota
	NIUNOC0Sink
	NIUNOC1Src
	NIUNOC1Sink
)

func (t NIUType) String() string {
	switch t {
	case NIUNOC0Src:
		return "NOC0_SRC"
	case NIUNOC0Sink:
		return "NOC0_SINK"
	case NIUNOC1Src:
		return "NOC1_SRC"
	case NIUNOC1Sink:
		return "NOC1_SINK"
	default:
		return "UNKNOWN_NIU"
	}
}

// SrcNIUType returns the injection-endpoint type for a given NoC.
func SrcNIUType(t NocType) NIUType {
	if t == NOC0 {
		return NIUNOC0Src
	}
	return NIUNOC1Src
}

// SinkNIUType returns the ejection-endpoint type for a given NoC.
func SinkNIUType(t NocType) NIUType {
	if t == NOC0 {
		return NIUNOC0Sink
	}
	return NIUNOC1Sink
}

// LinkAttr is the (Coord, LinkType) key a device model's link bijection is
// built from.
type LinkAttr struct {
	Coord Coord
	Type  LinkType
}

// NIUAttr is the (Coord, NIUType) key a device model's NIU bijection is
// built from.
type NIUAttr struct {
	Coord Coord
	Type  NIUType
}

// LinkID and NIUID are dense indices assigned by a device model at
// construction; they are contiguous 0..N and never reassigned.
type LinkID int
type NIUID int
