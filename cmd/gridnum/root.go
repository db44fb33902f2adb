package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gridnum/gridnum/pkg/diag"
	"github.com/gridnum/gridnum/pkg/grid"
	"github.com/gridnum/gridnum/pkg/powerflow"
	"github.com/spf13/cobra"
)

var (
	verbose       bool
	tolerance     float64
	maxIterations int
	version       = "dev"
)

var rootCmd = &cobra.Command{
	Use:     "gridnum",
	Short:   "Power-system admittance, power-flow, and sensitivity-analysis toolkit",
	Long:    `gridnum assembles network admittance models and runs AC/DC power-flow, linear sensitivity (PTDF/LODF), N-k contingency, and Ward reduction analyses.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log solver diagnostics to stderr")
	rootCmd.PersistentFlags().Float64Var(&tolerance, "tolerance", 0, "mismatch convergence tolerance (default: solver default)")
	rootCmd.PersistentFlags().IntVar(&maxIterations, "max-iterations", 0, "iteration cap (default: solver default)")

	rootCmd.AddCommand(powerflowCmd)
	rootCmd.AddCommand(linearCmd)
	rootCmd.AddCommand(contingencyCmd)
	rootCmd.AddCommand(reduceCmd)
}

// loadSnapshot resolves --file or --demo into a grid.Snapshot. One of the
// two is required; --file wins if both are given.
func loadSnapshot(cmd *cobra.Command) (grid.Snapshot, error) {
	file, _ := cmd.Flags().GetString("file")
	demo, _ := cmd.Flags().GetBool("demo")

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return grid.Snapshot{}, fmt.Errorf("opening network file: %w", err)
		}
		defer f.Close()
		var snap grid.Snapshot
		if err := json.NewDecoder(f).Decode(&snap); err != nil {
			return grid.Snapshot{}, fmt.Errorf("decoding network file: %w", err)
		}
		return snap, nil
	}
	if demo {
		return demoSnapshot(), nil
	}
	return grid.Snapshot{}, fmt.Errorf("one of --file or --demo is required")
}

func newLogger() *diag.Logger {
	if verbose {
		return diag.New(diag.Config{Level: diag.LevelInfo, Output: os.Stderr})
	}
	return diag.NewSilent()
}

func solverOptions() powerflow.Options {
	opt := powerflow.DefaultOptions()
	if tolerance > 0 {
		opt.Tolerance = tolerance
	}
	if maxIterations > 0 {
		opt.MaxIterations = maxIterations
	}
	return opt
}

func addNetworkFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "path to a JSON-encoded grid.Snapshot")
	cmd.Flags().Bool("demo", false, "use the built-in 3-bus demo network")
}
