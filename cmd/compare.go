package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/inference-sim/memsim/sim"
	"github.com/inference-sim/memsim/sim/workload"
)

var (
	// CLI flags for workload generation
	seed            int64   // Seed for random workload generation
	numOps          int     // Number of generated operations
	freeProbability float64 // Probability an op frees a live owner
	compactEvery    int     // Compact every N ops (0 = never)
	sizeMin         int64   // Min allocation size
	sizeMax         int64   // Max allocation size
	compareCompact  bool    // Compact and retry on fragmented no-fit
)

// StrategyResult is one row of a strategy comparison.
type StrategyResult struct {
	Strategy sim.Strategy
	Metrics  *sim.Metrics
	Stats    sim.RegionStats
}

// compareCmd runs one generated workload under every strategy
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Replay one generated workload under first, best and worst fit and compare outcomes",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := baseConfig()
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		cfg.CompactOnNoFit = compareCompact
		spec := &workload.GeneratorSpec{
			Seed:            seed,
			NumOps:          numOps,
			FreeProbability: freeProbability,
			CompactEvery:    compactEvery,
			Sizes: workload.DistSpec{
				Type:   "uniform",
				Params: map[string]float64{"min": float64(sizeMin), "max": float64(sizeMax)},
			},
		}
		results, err := compareStrategies(cfg, spec)
		if err != nil {
			logrus.Fatalf("Compare failed: %v", err)
		}
		RenderComparison(os.Stdout, results)
	},
}

// compareStrategies generates the workload once and replays it on a fresh simulator per strategy.
// cfg.Strategy is ignored.
func compareStrategies(cfg sim.SimConfig, spec *workload.GeneratorSpec) ([]StrategyResult, error) {
	ops, err := workload.GenerateOps(spec)
	if err != nil {
		return nil, err
	}
	results := make([]StrategyResult, 0, 3)
	for _, strat := range []sim.Strategy{sim.FirstFit, sim.BestFit, sim.WorstFit} {
		cfg.Strategy = strat
		s := sim.NewSimulator(cfg)
		workload.Replay(s, ops, nil)
		logrus.Debugf("%s fit: %d/%d allocations succeeded", strat, s.Metrics().AllocSucceeded, s.Metrics().AllocAttempts)
		results = append(results, StrategyResult{Strategy: strat, Metrics: s.Metrics(), Stats: s.Stats()})
	}
	return results, nil
}

// RenderComparison writes one row per strategy.
func RenderComparison(w io.Writer, results []StrategyResult) {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tALLOCATED\tFAILED\tSUCCESS\tCOMPACTIONS\tPEAK USED\tLARGEST FREE\tEXT FRAG")
	for _, r := range results {
		p.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\t%d\t%d\t%d\t%.3f\n",
			r.Strategy, r.Metrics.AllocSucceeded, r.Metrics.AllocFailed(), 100*r.Metrics.SuccessRate(),
			r.Metrics.Compactions, r.Metrics.PeakUsedSize, r.Stats.LargestFree, r.Stats.ExternalFragmentation)
	}
	tw.Flush()
}

func init() {
	compareCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for random workload generation")
	compareCmd.Flags().IntVar(&numOps, "ops", 1000, "Number of generated operations")
	compareCmd.Flags().Float64Var(&freeProbability, "free-prob", 0.4, "Probability that an operation frees a live process")
	compareCmd.Flags().IntVar(&compactEvery, "compact-every", 0, "Compact every N operations (0 = never)")
	compareCmd.Flags().Int64Var(&sizeMin, "size-min", 8, "Minimum allocation size")
	compareCmd.Flags().Int64Var(&sizeMax, "size-max", 128, "Maximum allocation size")
	compareCmd.Flags().BoolVar(&compareCompact, "compact-on-no-fit", false, "Compact and retry when a request fails only because free space is fragmented")

	rootCmd.AddCommand(compareCmd)
}
