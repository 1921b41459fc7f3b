// sim/simulator.go
package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/memsim/sim/trace"
)

// Simulator owns one Region and records every decision made against it.
// It is the object the session layer drives; the Region itself stays free of logging and bookkeeping.
//
// Thread-safety: NOT thread-safe.
type Simulator struct {
	// Seq counts operations applied so far (successful or not).
	Seq int

	config  SimConfig
	region  *Region
	metrics *Metrics
	trace   *trace.SimulationTrace
}

// NewSimulator builds a Simulator from cfg. Panics if cfg is invalid.
func NewSimulator(cfg SimConfig) *Simulator {
	if err := cfg.Check(); err != nil {
		panic(fmt.Sprintf("NewSimulator: %v", err))
	}
	if cfg.Strategy == "" {
		cfg.Strategy = FirstFit
	}
	if cfg.TraceLevel == "" {
		cfg.TraceLevel = trace.TraceLevelNone
	}
	s := &Simulator{
		config:  cfg,
		region:  NewRegion(cfg.TotalSize),
		metrics: NewMetrics(),
	}
	if cfg.TraceLevel != trace.TraceLevelNone {
		s.trace = trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.TraceLevel})
	}
	return s
}

// Config returns the configuration the simulator was built with (with defaults applied).
func (s *Simulator) Config() SimConfig {
	return s.config
}

// Allocate requests size addresses for owner. An empty strategy selects the configured default.
// Returns the start address granted, or the allocator error.
func (s *Simulator) Allocate(owner OwnerID, size int64, strategy Strategy) (int64, error) {
	s.Seq++
	if strategy == "" {
		strategy = s.config.Strategy
	}
	record := trace.AllocationRecord{
		Seq:      s.Seq,
		Owner:    int64(owner),
		Size:     size,
		Strategy: string(strategy),
	}
	if size > 0 {
		record.Candidates = countCandidates(s.region.blocks, size)
	}
	s.metrics.AllocAttempts++

	start, err := s.region.Allocate(owner, size, strategy)
	if errors.Is(err, ErrNoFitFound) && s.config.CompactOnNoFit && s.region.Stats().FreeSize >= size {
		logrus.Debugf("[op %05d] no fit for P%d (size %d), compacting and retrying", s.Seq, owner, size)
		s.compact(true)
		start, err = s.region.Allocate(owner, size, strategy)
		record.Retried = err == nil
	}
	s.checkInvariants()

	if err != nil {
		reason := ErrorReason(err)
		record.Reason = reason
		s.metrics.AllocFailures[reason]++
		logrus.Infof("[op %05d] allocation for P%d failed: %v", s.Seq, owner, err)
	} else {
		record.Start = start
		s.metrics.AllocSucceeded++
		s.metrics.AllocatedTotal += size
		s.metrics.observeUsage(s.region.Stats().UsedSize)
		logrus.Debugf("[op %05d] P%d allocated %d at %d (%s fit, %d candidates)", s.Seq, owner, size, start, strategy, record.Candidates)
	}
	if s.trace.Enabled() {
		s.trace.RecordAllocation(record)
	}
	return start, err
}

// Free releases the block held by owner.
func (s *Simulator) Free(owner OwnerID) error {
	s.Seq++
	record := trace.FreeRecord{Seq: s.Seq, Owner: int64(owner)}
	if b, held := s.region.Lookup(owner); held {
		record.Start, record.Size = b.Start, b.Size
	}

	before := len(s.region.blocks)
	err := s.region.Free(owner)
	s.checkInvariants()

	if err != nil {
		record.Reason = ErrorReason(err)
		s.metrics.FreeFailures++
		logrus.Infof("[op %05d] free for P%d failed: %v", s.Seq, owner, err)
	} else {
		// a free without merges keeps the block count; each absorbed neighbour removes one block
		record.Merged = before - len(s.region.blocks)
		s.metrics.Frees++
		s.metrics.Merges += record.Merged
		logrus.Debugf("[op %05d] P%d freed [%d, %d), %d merges", s.Seq, owner, record.Start, record.Start+record.Size, record.Merged)
	}
	if s.trace.Enabled() {
		s.trace.RecordFree(record)
	}
	return err
}

// Compact relocates all occupied blocks to the front of the region.
// Returns the number of blocks whose start address changed.
func (s *Simulator) Compact() int {
	s.Seq++
	return s.compact(false)
}

func (s *Simulator) compact(automatic bool) int {
	before := make(map[OwnerID]int64)
	for _, b := range s.region.blocks {
		if !b.Free {
			before[b.Owner] = b.Start
		}
	}

	s.region.Compact()
	s.checkInvariants()

	moved := 0
	var freeAfter int64
	for _, b := range s.region.blocks {
		if b.Free {
			freeAfter = b.Size
			continue
		}
		if before[b.Owner] != b.Start {
			moved++
		}
	}

	s.metrics.Compactions++
	s.metrics.BlocksMoved += moved
	if automatic {
		s.metrics.AutoCompactions++
	}
	logrus.Debugf("[op %05d] compacted: %d blocks moved, %d free at tail", s.Seq, moved, freeAfter)
	if s.trace.Enabled() {
		s.trace.RecordCompaction(trace.CompactionRecord{
			Seq:         s.Seq,
			BlocksMoved: moved,
			FreeAfter:   freeAfter,
			Automatic:   automatic,
		})
	}
	return moved
}

// Snapshot returns a copy of the current block list.
func (s *Simulator) Snapshot() []Block {
	return s.region.Snapshot()
}

// Stats returns the current region statistics.
func (s *Simulator) Stats() RegionStats {
	return s.region.Stats()
}

// Region exposes the underlying region for read-only inspection.
func (s *Simulator) Region() *Region {
	return s.region
}

// Metrics returns the session metrics collected so far.
func (s *Simulator) Metrics() *Metrics {
	return s.metrics
}

// Trace returns the decision trace, or nil when tracing is disabled.
func (s *Simulator) Trace() *trace.SimulationTrace {
	return s.trace
}

func (s *Simulator) checkInvariants() {
	if !s.config.Validate {
		return
	}
	if err := s.region.Validate(); err != nil {
		panic(fmt.Sprintf("[op %05d] %v", s.Seq, err))
	}
}
