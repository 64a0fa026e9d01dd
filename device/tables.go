package device

import "github.com/tt-npe/npe-go/npe"

// wormholeB0BWTable is the Wormhole-B0 per-packet-size steady-state
// bandwidth curve, in bytes/cycle.
var wormholeB0BWTable = []npe.BWTableEntry{
	{PacketSize: 0, SteadyStateBW: 0},
	{PacketSize: 128, SteadyStateBW: 5.5},
	{PacketSize: 256, SteadyStateBW: 10.1},
	{PacketSize: 512, SteadyStateBW: 18.0},
	{PacketSize: 1024, SteadyStateBW: 27.4},
	{PacketSize: 2048, SteadyStateBW: 30.0},
	{PacketSize: 8192, SteadyStateBW: 30.0},
}

const (
	wormholeB0MaxNoCTransferBW    float32 = 30.0
	wormholeB0LinkBandwidth       float32 = 30.0
	wormholeB0AggregateDRAMBW     float32 = 256.0
	wormholeB0DRAMInjectionRate   float32 = 23.2
	wormholeB0EthInjectionRate    float32 = 23.2
	wormholeB0OtherInjectionRate  float32 = 28.1
	wormholeB0DRAMAbsorptionRate  float32 = 24.0
	wormholeB0EthAbsorptionRate   float32 = 24.0
	wormholeB0OtherAbsorptionRate float32 = 28.1
)

// blackholeBWTable is the Blackhole per-packet-size steady-state
// bandwidth curve; Blackhole's wider links give it a higher ceiling than
// Wormhole-B0.
var blackholeBWTable = []npe.BWTableEntry{
	{PacketSize: 0, SteadyStateBW: 0},
	{PacketSize: 128, SteadyStateBW: 9.2},
	{PacketSize: 256, SteadyStateBW: 17.5},
	{PacketSize: 512, SteadyStateBW: 32.4},
	{PacketSize: 1024, SteadyStateBW: 50.1},
	{PacketSize: 2048, SteadyStateBW: 60.9},
	{PacketSize: 8192, SteadyStateBW: 60.9},
}

const (
	blackholeMaxNoCTransferBW    float32 = 60.9
	blackholeLinkBandwidth       float32 = 60.9
	blackholeDRAMInjectionRate   float32 = 46.4
	blackholeEthInjectionRate    float32 = 46.4
	blackholeOtherInjectionRate  float32 = 56.2
	blackholeDRAMAbsorptionRate  float32 = 48.0
	blackholeEthAbsorptionRate   float32 = 48.0
	blackholeOtherAbsorptionRate float32 = 56.2

	blackholeP100AggregateDRAMBW float32 = 7 * 32.0
	blackholeP150AggregateDRAMBW float32 = 8 * 32.0
)

// wormholeQBWTable scales Wormhole-B0's curve down to Wormhole-Q's
// lower-clocked links.
var wormholeQBWTable = []npe.BWTableEntry{
	{PacketSize: 0, SteadyStateBW: 0},
	{PacketSize: 128, SteadyStateBW: 4.7},
	{PacketSize: 256, SteadyStateBW: 8.6},
	{PacketSize: 512, SteadyStateBW: 15.3},
	{PacketSize: 1024, SteadyStateBW: 23.3},
	{PacketSize: 2048, SteadyStateBW: 25.5},
	{PacketSize: 8192, SteadyStateBW: 25.5},
}

const (
	wormholeQMaxNoCTransferBW float32 = 25.5
	wormholeQLinkBandwidth    float32 = 25.5
)

// rateFor looks up the per-core-type rate
// from a device's fixed rate table, defaulting to the "other" (WORKER /
// UNDEF) rate for anything that isn't DRAM or ETH.
func rateFor(ct npe.CoreType, dram, eth, other float32) float32 {
	switch ct {
	case npe.CoreDRAM:
		return dram
	case npe.CoreEth:
		return eth
	default:
		return other
	}
}
