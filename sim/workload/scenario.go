package workload

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/memsim/sim"
	"github.com/inference-sim/memsim/sim/trace"
)

// OpKind names an operation in a scenario.
type OpKind string

const (
	OpAllocate OpKind = "allocate"
	OpFree     OpKind = "free"
	OpCompact  OpKind = "compact"
	OpSnapshot OpKind = "snapshot"
)

var validOpKinds = map[OpKind]bool{
	OpAllocate: true, OpFree: true, OpCompact: true, OpSnapshot: true,
}

// Op is one scripted call against the allocator.
type Op struct {
	Kind     OpKind `yaml:"op"`
	Owner    int64  `yaml:"owner,omitempty"`
	Size     int64  `yaml:"size,omitempty"`
	Strategy string `yaml:"strategy,omitempty"` // allocate only; empty = scenario default
}

// String renders the op the way the run command echoes it.
func (o Op) String() string {
	switch o.Kind {
	case OpAllocate:
		if o.Strategy == "" {
			return fmt.Sprintf("allocate P%d size=%d", o.Owner, o.Size)
		}
		return fmt.Sprintf("allocate P%d size=%d strategy=%s", o.Owner, o.Size, o.Strategy)
	case OpFree:
		return fmt.Sprintf("free P%d", o.Owner)
	default:
		return string(o.Kind)
	}
}

// Scenario is the top-level scenario configuration.
// Loaded from YAML via LoadScenario(path).
type Scenario struct {
	Version        string         `yaml:"version"`
	TotalSize      int64          `yaml:"total_size"`
	Strategy       string         `yaml:"strategy"`
	CompactOnNoFit bool           `yaml:"compact_on_no_fit"`
	TraceLevel     string         `yaml:"trace_level"`
	AllowInvalid   bool           `yaml:"allow_invalid,omitempty"` // let ops carry sizes/strategies the allocator will reject
	Generate       *GeneratorSpec `yaml:"generate,omitempty"`      // generated ops run after the scripted ones
	Ops            []Op           `yaml:"ops"`
}

// LoadScenario reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses YAML scenario bytes with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if sc.Version == "" {
		sc.Version = "1"
	}
	return &sc, nil
}

// Validate checks that all fields in the scenario are valid.
func (s *Scenario) Validate() error {
	if s.Version != "1" {
		return fmt.Errorf("unsupported scenario version %q; valid: 1", s.Version)
	}
	if s.TotalSize <= 0 {
		return fmt.Errorf("total_size must be positive, got %d", s.TotalSize)
	}
	if s.Strategy != "" {
		strategy, err := sim.ParseStrategy(s.Strategy)
		if err != nil {
			return fmt.Errorf("unknown strategy %q; valid: %v", s.Strategy, sim.ValidStrategyNames())
		}
		s.Strategy = string(strategy)
	}
	if !trace.IsValidTraceLevel(s.TraceLevel) {
		return fmt.Errorf("unknown trace_level %q; valid: none, decisions", s.TraceLevel)
	}
	if len(s.Ops) == 0 && s.Generate == nil {
		return fmt.Errorf("at least one op or a generate section required")
	}
	for i := range s.Ops {
		if err := s.validateOp(&s.Ops[i], i); err != nil {
			return err
		}
	}
	if s.Generate != nil {
		if err := s.Generate.Validate(); err != nil {
			return fmt.Errorf("generate: %w", err)
		}
	}
	return nil
}

// validateOp checks one op and lower-cases its strategy token.
func (s *Scenario) validateOp(op *Op, idx int) error {
	prefix := fmt.Sprintf("ops[%d]", idx)
	if !validOpKinds[op.Kind] {
		return fmt.Errorf("%s: unknown op %q; valid: allocate, free, compact, snapshot", prefix, op.Kind)
	}
	if op.Kind != OpAllocate {
		if op.Size != 0 || op.Strategy != "" {
			return fmt.Errorf("%s: size and strategy apply to allocate only", prefix)
		}
		if op.Kind == OpFree && op.Owner <= 0 {
			return fmt.Errorf("%s: owner must be positive, got %d", prefix, op.Owner)
		}
		if op.Kind != OpFree && op.Owner != 0 {
			return fmt.Errorf("%s: owner does not apply to %s", prefix, op.Kind)
		}
		return nil
	}
	if op.Strategy != "" {
		if strategy, err := sim.ParseStrategy(op.Strategy); err == nil {
			op.Strategy = string(strategy)
		} else if !s.AllowInvalid {
			return fmt.Errorf("%s: unknown strategy %q; valid: %v", prefix, op.Strategy, sim.ValidStrategyNames())
		}
	}
	if s.AllowInvalid {
		return nil
	}
	if op.Owner <= 0 {
		return fmt.Errorf("%s: owner must be positive, got %d", prefix, op.Owner)
	}
	if op.Size <= 0 {
		return fmt.Errorf("%s: size must be positive, got %d", prefix, op.Size)
	}
	return nil
}

// SimConfig maps the scenario onto a simulator configuration.
func (s *Scenario) SimConfig() sim.SimConfig {
	return sim.SimConfig{
		TotalSize:      s.TotalSize,
		Strategy:       sim.Strategy(s.Strategy),
		CompactOnNoFit: s.CompactOnNoFit,
		TraceLevel:     trace.TraceLevel(s.TraceLevel),
	}
}

// Operations returns the scripted ops followed by any generated ones.
func (s *Scenario) Operations() ([]Op, error) {
	ops := append([]Op(nil), s.Ops...)
	if s.Generate == nil {
		return ops, nil
	}
	generated, err := GenerateOps(s.Generate)
	if err != nil {
		return nil, err
	}
	// generated owners start after the largest scripted owner so the two never collide
	var maxOwner int64
	for _, op := range s.Ops {
		maxOwner = max(maxOwner, op.Owner)
	}
	for i := range generated {
		if generated[i].Kind == OpAllocate || generated[i].Kind == OpFree {
			generated[i].Owner += maxOwner
		}
	}
	return append(ops, generated...), nil
}
