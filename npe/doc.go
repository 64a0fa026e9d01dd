// Package npe implements a discrete-event, congestion-aware performance
// estimator for Network-on-Chip (NoC) traffic on a tiled AI accelerator.
//
// # Reading Guide
//
// Start with coord.go and destination.go (the geometry, ID, and
// destination types), then workload.go (the input data model), then
// device_model.go (the interface the engine queries), then engine.go
// (the timestep loop itself), and finally stats.go (what comes out).
//
// # Architecture
//
// This package defines the interfaces and the engine; concrete device
// models live in the sibling device package and register themselves into
// a name->constructor factory at init() time. npe itself never imports
// device: the CLI wires the two together through device.New.
//
// # Key Interfaces
//
//   - DeviceModel: geometry, routing, bandwidth tables, congestion derating.
//   - NocDestination: Unicast or Multicast, implemented by UnicastDestination
//     and MulticastDestination.
package npe
