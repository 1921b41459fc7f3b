package workload

import (
	"fmt"
	"math"

	"github.com/inference-sim/memsim/sim"
)

// GeneratorSpec configures random workload generation.
type GeneratorSpec struct {
	Seed            int64    `yaml:"seed"`
	NumOps          int      `yaml:"num_ops"`
	FreeProbability float64  `yaml:"free_probability"`        // chance an op frees a live owner instead of allocating
	CompactEvery    int      `yaml:"compact_every,omitempty"` // insert a compaction every N ops (0 = never)
	Strategy        string   `yaml:"strategy,omitempty"`      // strategy stamped on generated allocations; empty = scenario default
	Sizes           DistSpec `yaml:"sizes"`
}

// Validate checks that all fields in the generator spec are valid.
func (g *GeneratorSpec) Validate() error {
	if g.NumOps <= 0 {
		return fmt.Errorf("num_ops must be positive, got %d", g.NumOps)
	}
	if math.IsNaN(g.FreeProbability) || g.FreeProbability < 0 || g.FreeProbability > 1 {
		return fmt.Errorf("free_probability must be in [0, 1], got %f", g.FreeProbability)
	}
	if g.CompactEvery < 0 {
		return fmt.Errorf("compact_every must be non-negative, got %d", g.CompactEvery)
	}
	if g.Strategy != "" {
		strategy, err := sim.ParseStrategy(g.Strategy)
		if err != nil {
			return fmt.Errorf("unknown strategy %q; valid: %v", g.Strategy, sim.ValidStrategyNames())
		}
		g.Strategy = string(strategy)
	}
	if _, err := NewSizeSampler(g.Sizes); err != nil {
		return fmt.Errorf("sizes: %w", err)
	}
	return nil
}

// GenerateOps creates an operation sequence from a GeneratorSpec.
// Deterministic given the same spec and seed.
//
// Allocations use owners 1, 2, 3, ... in order. Frees target a uniformly chosen owner among
// those allocated and not yet freed by the generator; the generator does not know whether an
// allocation will succeed, so replaying may yield owner-not-found outcomes for frees of owners
// whose allocation failed.
func GenerateOps(spec *GeneratorSpec) ([]Op, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator spec: %w", err)
	}
	sampler, err := NewSizeSampler(spec.Sizes)
	if err != nil {
		return nil, err
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed))
	kindRNG := rng.ForSubsystem(sim.SubsystemWorkload)
	sizeRNG := rng.ForSubsystem(sim.SubsystemSizes)
	ownerRNG := rng.ForSubsystem(sim.SubsystemOwners)

	ops := make([]Op, 0, spec.NumOps)
	live := make([]int64, 0)
	nextOwner := int64(1)
	for i := 0; i < spec.NumOps; i++ {
		if spec.CompactEvery > 0 && (i+1)%spec.CompactEvery == 0 {
			ops = append(ops, Op{Kind: OpCompact})
			continue
		}
		// draw on every op so the kind stream does not depend on how many owners are live
		u := kindRNG.Float64()
		if len(live) > 0 && u < spec.FreeProbability {
			idx := ownerRNG.Intn(len(live))
			ops = append(ops, Op{Kind: OpFree, Owner: live[idx]})
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}
		ops = append(ops, Op{
			Kind:     OpAllocate,
			Owner:    nextOwner,
			Size:     sampler.Sample(sizeRNG),
			Strategy: spec.Strategy,
		})
		live = append(live, nextOwner)
		nextOwner++
	}
	return ops, nil
}
