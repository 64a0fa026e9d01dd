package npe

import (
	"fmt"

	"github.com/tt-npe/npe-go/internal/npeerr"
)

// CongestionModel selects whether ComputeCurrentTransferRate's bottleneck
// derating pass runs at all.
type CongestionModel string

const (
	CongestionNone CongestionModel = "none"
	CongestionFast CongestionModel = "fast"
)

// maxCycleLimit is the global cycle cap; a run that has not completed by
// this point fails with ErrCycleLimitExceeded. It is a compile-time
// constant, never reconfigured at runtime.
const maxCycleLimit uint32 = 50_000_000

// Config groups every knob RunPerfEstimation reads. It is typically
// populated from CLI flags or a YAML file by the cmd package; the zero
// value is not valid (CyclesPerTimestep must be set).
type Config struct {
	// CyclesPerTimestep is the main loop's granularity.
	CyclesPerTimestep uint32

	// CongModel selects whether congestion derating runs.
	CongModel CongestionModel

	// EstimateCongImpact, when set, runs the simulation twice (congestion
	// on, then off) and records the congestion-free cycle count for the
	// congestion_impact statistic.
	EstimateCongImpact bool

	// InferInjectionRates, when true (the default), fills in zero
	// injection rates from the device model before simulating.
	InferInjectionRates bool
}

// DefaultConfig returns the engine's documented defaults.
func DefaultConfig() Config {
	return Config{
		CyclesPerTimestep:   256,
		CongModel:           CongestionFast,
		InferInjectionRates: true,
	}
}

// Validate checks the conditions that make a Config unusable.
func (c Config) Validate() error {
	if c.CyclesPerTimestep == 0 {
		return fmt.Errorf("%w: cycles_per_timestep must be > 0", npeerr.ErrInvalidConfig)
	}
	if c.CongModel != CongestionNone && c.CongModel != CongestionFast {
		return fmt.Errorf("%w: cong_model must be %q or %q, got %q", npeerr.ErrInvalidConfig, CongestionNone, CongestionFast, c.CongModel)
	}
	return nil
}

// enableCongestion reports whether the bottleneck-derating pass should
// run for this config.
func (c Config) enableCongestion() bool {
	return c.CongModel == CongestionFast
}
