// cmd/root.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cyclesPerTimestep   uint32
	deviceName          string
	congModel           string
	testConfigName      string
	workloadPath        string
	workloadIsNocTrace  bool
	enableCongViz       bool
	emitStatsAsJSON     bool
	statsJSONFilepath   string
	noInjectionInfer    bool
	estimateCongImpact  bool
	parallelWorkers     int
	verbosity           int
	configFilePath      string
)

var rootCmd = &cobra.Command{
	Use:   "npe",
	Short: "Network-on-chip performance estimator",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setLogLevel() {
	switch verbosity {
	case 0:
		logrus.SetLevel(logrus.WarnLevel)
	case 1:
		logrus.SetLevel(logrus.InfoLevel)
	case 2:
		logrus.SetLevel(logrus.DebugLevel)
	default:
		logrus.SetLevel(logrus.TraceLevel)
	}
}

func init() {
	runCmd.Flags().Uint32Var(&cyclesPerTimestep, "cycles-per-timestep", 256, "Main loop granularity in cycles")
	runCmd.Flags().StringVar(&deviceName, "device", "wormhole_b0", "Device model: wormhole_b0 | N150 | N300 | T3K | blackhole | P100 | P150 | TG | GALAXY")
	runCmd.Flags().StringVar(&congModel, "cong-model", "fast", "Congestion model: none | fast")
	runCmd.Flags().StringVar(&testConfigName, "test-config", "", "Name of a built-in synthetic workload generator")
	runCmd.Flags().StringVar(&workloadPath, "workload", "", "Path to a JSON workload or raw trace file (or a directory for batch mode)")
	runCmd.Flags().BoolVar(&workloadIsNocTrace, "workload-is-noc-trace", false, "Treat --workload as a tt-metal noc-trace capture instead of npe JSON")
	runCmd.Flags().BoolVar(&enableCongViz, "enable-cong-viz", false, "Emit ASCII congestion visualization (not implemented; reserved)")
	runCmd.Flags().BoolVar(&emitStatsAsJSON, "emit-stats-as-json", false, "Write the timeline as JSON")
	runCmd.Flags().StringVar(&statsJSONFilepath, "stats-json-filepath", "npe_timeline.json", "Output path for --emit-stats-as-json")
	runCmd.Flags().BoolVar(&noInjectionInfer, "no-injection-rate-inference", false, "Skip inferring zero injection rates from the device model")
	runCmd.Flags().BoolVar(&estimateCongImpact, "estimate-cong-impact", false, "Run a second congestion-free pass to estimate congestion impact")
	runCmd.Flags().IntVar(&parallelWorkers, "parallel", 1, "Batch-runner worker count when --workload names a directory")
	runCmd.Flags().IntVarP(&verbosity, "verbose", "v", 0, "Log verbosity 0-3")
	runCmd.Flags().StringVar(&configFilePath, "config", "", "Path to a YAML config file overlaying engine defaults (CLI flags still override it)")

	rootCmd.AddCommand(runCmd)
}
