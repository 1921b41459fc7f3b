package sim

import (
	"fmt"

	"github.com/inference-sim/memsim/sim/trace"
)

// SimConfig groups the parameters of one allocator session.
type SimConfig struct {
	TotalSize      int64            // region size in addresses (must be > 0)
	Strategy       Strategy         // default strategy for Allocate calls that pass ""
	CompactOnNoFit bool             // compact and retry once when a request fails only because free space is fragmented
	TraceLevel     trace.TraceLevel // "none" (default) or "decisions"
	Validate       bool             // check region invariants after every mutation (panics on violation)
}

// DefaultSimConfig returns a 1024-address region with first-fit placement.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		TotalSize:  DefaultTotalSize,
		Strategy:   FirstFit,
		TraceLevel: trace.TraceLevelNone,
	}
}

// Check returns an error describing the first invalid field, or nil.
func (c SimConfig) Check() error {
	if c.TotalSize <= 0 {
		return fmt.Errorf("TotalSize must be > 0, got %d", c.TotalSize)
	}
	if c.Strategy != "" && !validStrategies[c.Strategy] {
		return fmt.Errorf("%w %q", ErrUnknownStrategy, c.Strategy)
	}
	if !trace.IsValidTraceLevel(string(c.TraceLevel)) {
		return fmt.Errorf("unknown trace level %q; valid: none, decisions", c.TraceLevel)
	}
	return nil
}
