package workload

import (
	"github.com/inference-sim/memsim/sim"
)

// OpResult is the outcome of applying one Op.
type OpResult struct {
	Seq    int         // 1-based position in the replayed sequence
	Op     Op          // the op applied
	Start  int64       // allocate: granted start address
	Moved  int         // compact: blocks relocated
	Blocks []sim.Block // snapshot: block list at that point
	Err    error       // allocator error; nil on success
}

// ReplayResult summarizes a replay.
type ReplayResult struct {
	Applied   int // ops applied
	Failed    int // ops whose allocator call returned an error
	Snapshots int // snapshot ops taken
}

// Replay applies ops to s in order. Allocator errors are outcomes, not aborts: every op is applied
// and reported to observe (which may be nil).
func Replay(s *sim.Simulator, ops []Op, observe func(OpResult)) ReplayResult {
	var result ReplayResult
	for i, op := range ops {
		res := Apply(s, op)
		res.Seq = i + 1
		result.Applied++
		if res.Err != nil {
			result.Failed++
		}
		if op.Kind == OpSnapshot {
			result.Snapshots++
		}
		if observe != nil {
			observe(res)
		}
	}
	return result
}

// Apply runs a single op against s.
func Apply(s *sim.Simulator, op Op) OpResult {
	res := OpResult{Op: op}
	switch op.Kind {
	case OpAllocate:
		res.Start, res.Err = s.Allocate(sim.OwnerID(op.Owner), op.Size, sim.Strategy(op.Strategy))
	case OpFree:
		res.Err = s.Free(sim.OwnerID(op.Owner))
	case OpCompact:
		res.Moved = s.Compact()
	case OpSnapshot:
		res.Blocks = s.Snapshot()
	}
	return res
}
