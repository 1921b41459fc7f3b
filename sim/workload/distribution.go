package workload

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
)

// DistSpec parameterizes an allocation size distribution.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// SizeSampler generates allocation size samples.
type SizeSampler interface {
	// Sample returns a positive size (>= 1).
	Sample(rng *rand.Rand) int64
}

// ConstantSampler always returns the same fixed value.
type ConstantSampler struct {
	value int64
}

func (s *ConstantSampler) Sample(_ *rand.Rand) int64 {
	if s.value < 1 {
		return 1
	}
	return s.value
}

// UniformSampler draws integers uniformly from [min, max].
type UniformSampler struct {
	min, max int64
}

func (s *UniformSampler) Sample(rng *rand.Rand) int64 {
	lo := max(s.min, 1)
	if s.max <= lo {
		return lo
	}
	return lo + rng.Int63n(s.max-lo+1)
}

// GaussianSampler produces clamped Gaussian sizes.
type GaussianSampler struct {
	mean, stdDev float64
	min, max     int64
}

func (s *GaussianSampler) Sample(rng *rand.Rand) int64 {
	if s.min == s.max {
		return max(s.min, 1)
	}
	val := rng.NormFloat64()*s.stdDev + s.mean
	clamped := math.Min(float64(s.max), math.Max(float64(s.min), val))
	return max(int64(math.Round(clamped)), 1)
}

// ExponentialSampler produces exponentially-distributed sizes.
type ExponentialSampler struct {
	mean float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) int64 {
	val := rng.ExpFloat64() * s.mean
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return 1
	}
	return max(int64(math.Round(val)), 1)
}

// EmpiricalSampler samples from an empirical size distribution
// using inverse CDF via binary search.
type EmpiricalSampler struct {
	values []int64    // sorted sizes
	cdf    []float64 // cumulative probabilities (same length as values)
}

// NewEmpiricalSampler creates a sampler from a PDF map (size → probability).
// Probabilities are normalized if they don't sum to 1.0; non-positive entries are skipped.
func NewEmpiricalSampler(pdf map[int64]float64) *EmpiricalSampler {
	keys := make([]int64, 0, len(pdf))
	totalProb := 0.0
	for k, p := range pdf {
		if p > 0 {
			keys = append(keys, k)
			totalProb += p
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	values := make([]int64, 0, len(keys))
	cdf := make([]float64, 0, len(keys))
	cumulative := 0.0
	for _, k := range keys {
		cumulative += pdf[k] / totalProb
		values = append(values, k)
		cdf = append(cdf, cumulative)
	}
	if len(cdf) > 0 {
		cdf[len(cdf)-1] = 1.0
	}
	return &EmpiricalSampler{values: values, cdf: cdf}
}

func (s *EmpiricalSampler) Sample(rng *rand.Rand) int64 {
	if len(s.values) == 0 {
		return 1
	}
	if len(s.values) == 1 {
		return max(s.values[0], 1)
	}
	idx := sort.SearchFloat64s(s.cdf, rng.Float64())
	if idx >= len(s.values) {
		idx = len(s.values) - 1
	}
	return max(s.values[idx], 1)
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// NewSizeSampler creates a SizeSampler from a DistSpec.
func NewSizeSampler(spec DistSpec) (SizeSampler, error) {
	for name, val := range spec.Params {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("params.%s must be a finite number, got %f", name, val)
		}
	}
	switch spec.Type {
	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		value := int64(spec.Params["value"])
		if value <= 0 {
			return nil, fmt.Errorf("constant distribution needs value >= 1, got %f", spec.Params["value"])
		}
		return &ConstantSampler{value: value}, nil

	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		lo, hi := int64(spec.Params["min"]), int64(spec.Params["max"])
		if hi < lo {
			return nil, fmt.Errorf("uniform distribution needs min <= max, got %d > %d", lo, hi)
		}
		return &UniformSampler{min: lo, max: hi}, nil

	case "gaussian":
		if err := requireParam(spec.Params, "mean", "std_dev", "min", "max"); err != nil {
			return nil, err
		}
		return &GaussianSampler{
			mean:   spec.Params["mean"],
			stdDev: spec.Params["std_dev"],
			min:    int64(spec.Params["min"]),
			max:    int64(spec.Params["max"]),
		}, nil

	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		if spec.Params["mean"] <= 0 {
			return nil, fmt.Errorf("exponential distribution needs mean > 0, got %f", spec.Params["mean"])
		}
		return &ExponentialSampler{mean: spec.Params["mean"]}, nil

	case "empirical":
		// params used as PDF (size → probability)
		pdf := make(map[int64]float64, len(spec.Params))
		positive := 0
		for k, v := range spec.Params {
			size, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("empirical PDF key %q is not an integer: %w", k, err)
			}
			if size <= 0 {
				return nil, fmt.Errorf("empirical PDF key %d must be a positive size", size)
			}
			if v < 0 {
				return nil, fmt.Errorf("empirical PDF probability for %d must be non-negative, got %f", size, v)
			}
			if v > 0 {
				positive++
			}
			pdf[size] = v
		}
		if positive == 0 {
			return nil, fmt.Errorf("empirical distribution has no bins with positive probability")
		}
		return NewEmpiricalSampler(pdf), nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q; valid: constant, uniform, gaussian, exponential, empirical", spec.Type)
	}
}
