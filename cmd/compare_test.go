package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/memsim/sim"
	"github.com/inference-sim/memsim/sim/workload"
)

func compareSpec() *workload.GeneratorSpec {
	return &workload.GeneratorSpec{
		Seed:            11,
		NumOps:          200,
		FreeProbability: 0.4,
		Sizes: workload.DistSpec{
			Type:   "uniform",
			Params: map[string]float64{"min": 4, "max": 48},
		},
	}
}

func TestCompareStrategies_SameWorkloadPerStrategy(t *testing.T) {
	// GIVEN a 256-address region and one generated workload
	cfg := sim.DefaultSimConfig()
	cfg.TotalSize = 256

	// WHEN it is compared across strategies
	results, err := compareStrategies(cfg, compareSpec())

	// THEN there is one row per strategy, in fixed order, each seeing the same allocation requests
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, sim.FirstFit, results[0].Strategy)
	assert.Equal(t, sim.BestFit, results[1].Strategy)
	assert.Equal(t, sim.WorstFit, results[2].Strategy)
	for _, r := range results[1:] {
		assert.Equal(t, results[0].Metrics.AllocAttempts, r.Metrics.AllocAttempts)
	}
	for _, r := range results {
		assert.Equal(t, int64(256), r.Stats.TotalSize)
		assert.Equal(t, r.Stats.TotalSize, r.Stats.UsedSize+r.Stats.FreeSize)
	}
}

func TestCompareStrategies_Deterministic(t *testing.T) {
	cfg := sim.DefaultSimConfig()
	cfg.TotalSize = 256

	a, err := compareStrategies(cfg, compareSpec())
	require.NoError(t, err)
	b, err := compareStrategies(cfg, compareSpec())
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].Metrics, b[i].Metrics)
		assert.Equal(t, a[i].Stats, b[i].Stats)
	}
}

func TestCompareStrategies_InvalidSpec(t *testing.T) {
	spec := compareSpec()
	spec.NumOps = 0
	_, err := compareStrategies(sim.DefaultSimConfig(), spec)
	assert.Error(t, err)
}

func TestRenderComparison(t *testing.T) {
	m := sim.NewMetrics()
	m.AllocAttempts, m.AllocSucceeded = 4, 3
	m.AllocFailures[sim.ReasonNoFit] = 1
	results := []StrategyResult{{
		Strategy: sim.BestFit,
		Metrics:  m,
		Stats:    sim.RegionStats{TotalSize: 100, LargestFree: 20},
	}}

	var out bytes.Buffer
	RenderComparison(&out, results)

	assert.Contains(t, out.String(), "STRATEGY")
	assert.Contains(t, out.String(), "best")
	assert.Contains(t, out.String(), "75.0%")
}
