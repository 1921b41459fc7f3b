package cmd

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
)

// envPrefix scopes environment overrides: MEMSIM_TOTAL_SIZE, MEMSIM_STRATEGY, MEMSIM_LOG.
const envPrefix = "memsim"

// envConfig holds defaults read from the environment.
// Zero values mean "not set".
type envConfig struct {
	TotalSize int64  `envconfig:"TOTAL_SIZE"`
	Strategy  string `envconfig:"STRATEGY"`
	Log       string `envconfig:"LOG"`
}

// applyEnv overlays environment defaults onto the shared flags and returns the flags it set.
// Flags set explicitly on the command line always win.
func applyEnv(cmd *cobra.Command) ([]string, error) {
	var env envConfig
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("reading %s_* environment: %w", envPrefix, err)
	}
	flags := cmd.Flags()
	var applied []string
	if env.TotalSize != 0 && !flags.Changed("total-size") {
		totalSize = env.TotalSize
		applied = append(applied, "total-size")
	}
	if env.Strategy != "" && !flags.Changed("strategy") {
		strategy = env.Strategy
		applied = append(applied, "strategy")
	}
	if env.Log != "" && !flags.Changed("log") {
		logLevel = env.Log
		applied = append(applied, "log")
	}
	return applied, nil
}
