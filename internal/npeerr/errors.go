// Package npeerr defines the sentinel error kinds the simulator can
// return, usable with errors.Is. Callers wrap these with fmt.Errorf and
// %w at each layer rather than constructing a parallel error hierarchy.
package npeerr

import "errors"

var (
	// ErrInvalidConfig means a Config field failed validation, e.g.
	// CyclesPerTimestep == 0 or an unrecognized congestion model name.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrDeviceModelInit means device.New was called with an unknown
	// device name.
	ErrDeviceModelInit = errors.New("device model init failed")

	// ErrWorkloadValidation means one or more transfers failed
	// Workload.Validate.
	ErrWorkloadValidation = errors.New("workload validation failed")

	// ErrCycleLimitExceeded means the simulation ran past the cycle cap
	// without all transfers completing.
	ErrCycleLimitExceeded = errors.New("exceeded simulation cycle limit")

	// ErrTraceIngest means a noc-trace or JSON workload input was
	// malformed. An architecture name with no startup-latency table of its
	// own does not produce it; such names use the wormhole_b0 table.
	ErrTraceIngest = errors.New("trace ingest failed")

	// ErrDependencyGen means an internal dependency-tracker invariant was
	// violated; this indicates a bug in genDependencies, not bad input.
	ErrDependencyGen = errors.New("dependency generation failed")
)
