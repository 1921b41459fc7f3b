package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/memsim/sim"
)

var (
	// CLI flags shared by every subcommand
	logLevel  string // Log verbosity level
	totalSize int64  // Size of the simulated region (addresses)
	strategy  string // Default allocation strategy (first, best, worst)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "memsim",
	Short: "Partition memory allocation simulator (first/best/worst fit, coalescing, compaction)",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := setupRun(cmd); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// setupRun applies the environment overlay and sets the log level. Environment-sourced
// settings are logged once the level is in effect.
func setupRun(cmd *cobra.Command) error {
	applied, err := applyEnv(cmd)
	if err != nil {
		return fmt.Errorf("invalid environment configuration: %w", err)
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
	for _, name := range applied {
		logrus.Debugf("--%s=%s from environment", name, cmd.Flags().Lookup(name).Value)
	}
	return nil
}

// baseConfig builds the simulator configuration from the shared flags.
func baseConfig() (sim.SimConfig, error) {
	s, err := sim.ParseStrategy(strategy)
	if err != nil {
		return sim.SimConfig{}, err
	}
	cfg := sim.DefaultSimConfig()
	cfg.TotalSize = totalSize
	cfg.Strategy = s
	if err := cfg.Check(); err != nil {
		return sim.SimConfig{}, err
	}
	return cfg, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags shared by all subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().Int64Var(&totalSize, "total-size", sim.DefaultTotalSize, "Size of the simulated memory region")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", string(sim.FirstFit), "Default allocation strategy (first, best, worst)")
}
