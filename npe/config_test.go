package npe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tt-npe/npe-go/internal/npeerr"
)

func TestConfigValidateRejectsZeroCyclesPerTimestep(t *testing.T) {
	// GIVEN a config with no cycles_per_timestep set
	cfg := Config{CongModel: CongestionFast}
	// WHEN validated
	err := cfg.Validate()
	// THEN it is rejected
	assert.True(t, errors.Is(err, npeerr.ErrInvalidConfig))
}

func TestConfigValidateRejectsUnknownCongModel(t *testing.T) {
	// GIVEN a config with a bogus congestion model name
	cfg := Config{CyclesPerTimestep: 256, CongModel: "bogus"}
	// WHEN validated
	err := cfg.Validate()
	// THEN it is rejected
	assert.True(t, errors.Is(err, npeerr.ErrInvalidConfig))
}

func TestDefaultConfigIsValid(t *testing.T) {
	// GIVEN the documented defaults
	cfg := DefaultConfig()
	// THEN they pass validation and congestion is enabled
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.enableCongestion())
}

func TestCongestionNoneDisablesDerating(t *testing.T) {
	// GIVEN a config with the "none" congestion model
	cfg := Config{CyclesPerTimestep: 256, CongModel: CongestionNone}
	// THEN enableCongestion reports false
	assert.False(t, cfg.enableCongestion())
}
