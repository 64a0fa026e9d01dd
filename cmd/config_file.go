package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tt-npe/npe-go/npe"
)

// fileConfig mirrors npe.Config's YAML-facing fields. A nil field means
// "not set in the file"; CLI flags that were explicitly passed still win,
// since run.go starts from npe.DefaultConfig(), lets loadConfigFile overlay
// only the fields the file sets, and only then applies the flags the user
// actually changed.
type fileConfig struct {
	CyclesPerTimestep   *uint32 `yaml:"cycles_per_timestep"`
	CongModel           *string `yaml:"cong_model"`
	EstimateCongImpact  *bool   `yaml:"estimate_cong_impact"`
	InferInjectionRates *bool   `yaml:"infer_injection_rates"`
}

// loadConfigFile strictly parses a YAML config file, rejecting unknown
// keys, and overlays any fields it sets onto cfg.
func loadConfigFile(path string, cfg npe.Config) (npe.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config file %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var fc fileConfig
	if err := dec.Decode(&fc); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if fc.CyclesPerTimestep != nil {
		cfg.CyclesPerTimestep = *fc.CyclesPerTimestep
	}
	if fc.CongModel != nil {
		cfg.CongModel = npe.CongestionModel(*fc.CongModel)
	}
	if fc.EstimateCongImpact != nil {
		cfg.EstimateCongImpact = *fc.EstimateCongImpact
	}
	if fc.InferInjectionRates != nil {
		cfg.InferInjectionRates = *fc.InferInjectionRates
	}
	return cfg, nil
}
