package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/memsim/sim"
	"github.com/inference-sim/memsim/sim/workload"
)

var (
	scenarioPath     string // Path to scenario YAML
	traceSummary     bool   // Print the decision trace summary
	metricsJSONPath  string // Optional file for metrics JSON
	quietOps         bool   // Suppress per-op lines
	runCompactOnFail bool   // Override compact_on_no_fit from the scenario
)

// runCmd replays a scenario file against a fresh region
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a YAML scenario of allocate/free/compact operations",
	Run: func(cmd *cobra.Command, args []string) {
		sc, err := workload.LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenario %s: %v", scenarioPath, err)
		}
		// explicit flags override the scenario header
		if cmd.Flags().Changed("total-size") {
			sc.TotalSize = totalSize
		}
		if cmd.Flags().Changed("strategy") {
			s, err := sim.ParseStrategy(strategy)
			if err != nil {
				logrus.Fatalf("Invalid --strategy: %v", err)
			}
			sc.Strategy = string(s)
		}
		if cmd.Flags().Changed("compact-on-no-fit") {
			sc.CompactOnNoFit = runCompactOnFail
		}
		if traceSummary && sc.TraceLevel == "" {
			sc.TraceLevel = "decisions"
		}
		if err := sc.Validate(); err != nil {
			logrus.Fatalf("Invalid scenario %s: %v", scenarioPath, err)
		}

		s, err := runScenario(sc, os.Stdout, !quietOps)
		if err != nil {
			logrus.Fatalf("Scenario failed: %v", err)
		}
		if traceSummary {
			RenderTraceSummary(os.Stdout, s.Trace())
		}
		if metricsJSONPath != "" {
			if err := writeMetricsFile(s.Metrics(), metricsJSONPath); err != nil {
				logrus.Fatalf("Failed to write metrics: %v", err)
			}
		}
		logrus.Info("Scenario complete.")
	},
}

// runScenario builds a simulator for a validated scenario, replays its operations and prints
// each outcome (when verbose), the final layout and the metrics report to out.
func runScenario(sc *workload.Scenario, out io.Writer, verbose bool) (*sim.Simulator, error) {
	ops, err := sc.Operations()
	if err != nil {
		return nil, err
	}
	s := sim.NewSimulator(sc.SimConfig())
	logrus.Infof("Replaying %d ops on a region of %d (%s fit)", len(ops), sc.TotalSize, s.Config().Strategy)

	result := workload.Replay(s, ops, func(r workload.OpResult) {
		if !verbose {
			return
		}
		fmt.Fprintf(out, "[%04d] %-40s %s\n", r.Seq, r.Op, describeOutcome(r))
		if r.Op.Kind == workload.OpSnapshot {
			RenderBlocks(out, r.Blocks)
		}
	})

	fmt.Fprintf(out, "\n%d ops applied, %d failed\n\n", result.Applied, result.Failed)
	RenderBlocks(out, s.Snapshot())
	fmt.Fprintln(out)
	s.Metrics().Print(out, s.Stats())
	return s, nil
}

func describeOutcome(r workload.OpResult) string {
	if r.Err != nil {
		return describeError(sim.OwnerID(r.Op.Owner), r.Op.Size, r.Err)
	}
	switch r.Op.Kind {
	case workload.OpAllocate:
		return fmt.Sprintf("ok start=%d", r.Start)
	case workload.OpCompact:
		return fmt.Sprintf("ok moved=%d", r.Moved)
	case workload.OpSnapshot:
		return fmt.Sprintf("%d blocks", len(r.Blocks))
	default:
		return "ok"
	}
}

func writeMetricsFile(m *sim.Metrics, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := m.WriteJSON(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to scenario YAML file")
	runCmd.Flags().BoolVar(&traceSummary, "trace-summary", false, "Print a summary of the decision trace")
	runCmd.Flags().StringVar(&metricsJSONPath, "metrics-json", "", "Write metrics as JSON to this file")
	runCmd.Flags().BoolVar(&quietOps, "quiet", false, "Only print the final layout and metrics")
	runCmd.Flags().BoolVar(&runCompactOnFail, "compact-on-no-fit", false, "Compact and retry when a request fails only because free space is fragmented")
	_ = runCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(runCmd)
}
