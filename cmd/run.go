package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tt-npe/npe-go/device"
	"github.com/tt-npe/npe-go/ingest"
	"github.com/tt-npe/npe-go/npe"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Estimate NoC performance for a workload",
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()

		dev, err := device.New(deviceName)
		if err != nil {
			return err
		}

		cfg := npe.DefaultConfig()
		if configFilePath != "" {
			var fileErr error
			cfg, fileErr = loadConfigFile(configFilePath, cfg)
			if fileErr != nil {
				return fileErr
			}
		}
		if cmd.Flags().Changed("cycles-per-timestep") {
			cfg.CyclesPerTimestep = cyclesPerTimestep
		}
		if cmd.Flags().Changed("cong-model") {
			cfg.CongModel = npe.CongestionModel(congModel)
		}
		if cmd.Flags().Changed("estimate-cong-impact") {
			cfg.EstimateCongImpact = estimateCongImpact
		}
		if cmd.Flags().Changed("no-injection-rate-inference") {
			cfg.InferInjectionRates = !noInjectionInfer
		}

		if workloadPath == "" && testConfigName == "" {
			return fmt.Errorf("one of --workload or --test-config is required")
		}

		if workloadPath != "" {
			if info, statErr := os.Stat(workloadPath); statErr == nil && info.IsDir() {
				return runBatch(cmd.Context(), workloadPath, dev, cfg)
			}
		}

		wl, err := loadWorkload(dev)
		if err != nil {
			return err
		}

		stats, err := runOne(cmd.Context(), wl, dev, cfg)
		if err != nil {
			return err
		}

		printStats(dev.Name(), stats)
		return nil
	},
}

func loadWorkload(dev npe.DeviceModel) (*npe.Workload, error) {
	if testConfigName != "" {
		return ingest.GetTestConfig(testConfigName, dev)
	}
	if workloadIsNocTrace {
		data, err := os.ReadFile(workloadPath)
		if err != nil {
			return nil, err
		}
		return ingest.ParseNocTrace(data, workloadPath, deviceName, dev)
	}
	return ingest.LoadJSONWorkload(workloadPath)
}

// runOne validates, optionally infers injection rates, runs the engine,
// and (if requested) writes the timeline file for one workload.
func runOne(ctx context.Context, wl *npe.Workload, dev npe.DeviceModel, cfg npe.Config) (*npe.Stats, error) {
	if err := wl.Validate(dev); err != nil {
		return nil, err
	}
	if cfg.InferInjectionRates {
		wl.InferInjectionRates(dev)
	}

	stats, states, err := npe.RunPerfEstimationDetailed(ctx, wl, cfg, dev)
	if err != nil {
		return nil, err
	}

	if emitStatsAsJSON {
		if err := npe.WriteTimeline(statsJSONFilepath, dev, cfg.CyclesPerTimestep, states, stats); err != nil {
			logrus.Warnf("failed to write timeline: %v", err)
		}
	}
	return stats, nil
}

func printStats(deviceName string, stats *npe.Stats) {
	for id, ds := range stats.Devices {
		label := fmt.Sprintf("device %d", id)
		if id == npe.MeshDevice {
			label = "mesh"
		}
		fmt.Printf("[%s] %s: estimated_cycles=%d golden_cycles=%d prediction_error=%.2f%% avg_link_util=%.2f%%\n",
			deviceName, label, ds.EstimatedCycles, ds.GoldenCycles, ds.CyclePredictionError, ds.OverallAvgLinkUtil)
	}
	logrus.Infof("wall clock: %s over %d timesteps", stats.WallClockRuntime, stats.NumTimesteps)
}

// runBatch discovers every regular file directly under dir and runs the
// batch runner across them.
func runBatch(ctx context.Context, dir string, dev npe.DeviceModel, cfg npe.Config) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var jobs []npe.BatchJob
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		var wl *npe.Workload
		var loadErr error
		if workloadIsNocTrace {
			data, rErr := os.ReadFile(path)
			if rErr != nil {
				loadErr = rErr
			} else {
				wl, loadErr = ingest.ParseNocTrace(data, path, deviceName, dev)
			}
		} else {
			wl, loadErr = ingest.LoadJSONWorkload(path)
		}
		if loadErr != nil {
			logrus.Warnf("skipping %s: %v", path, loadErr)
			continue
		}
		if err := wl.Validate(dev); err != nil {
			logrus.Warnf("skipping %s: %v", path, err)
			continue
		}
		if cfg.InferInjectionRates {
			wl.InferInjectionRates(dev)
		}
		jobs = append(jobs, npe.BatchJob{Name: path, Workload: wl, Config: cfg})
	}

	results := npe.RunBatch(ctx, jobs, dev, parallelWorkers)
	for _, r := range results {
		if r.Err != nil {
			logrus.Errorf("%s: %v", r.Name, r.Err)
			continue
		}
		printStats(dev.Name(), r.Stats)
	}
	return nil
}
