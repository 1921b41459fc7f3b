// Package trace provides decision-trace recording for allocator sessions.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// AllocationRecord captures a single allocation decision.
type AllocationRecord struct {
	Seq        int    // position of the operation within the session
	Owner      int64  // requesting process id
	Size       int64  // requested size
	Strategy   string // strategy applied ("first", "best", "worst")
	Candidates int    // free blocks large enough at decision time
	Start      int64  // chosen start address (meaningful only when Reason is empty)
	Reason     string // failure reason key; empty on success
	Retried    bool   // true if the request succeeded only after an automatic compaction
}

// Succeeded reports whether the allocation was granted.
func (r AllocationRecord) Succeeded() bool {
	return r.Reason == ""
}

// FreeRecord captures a single deallocation.
type FreeRecord struct {
	Seq    int
	Owner  int64
	Start  int64  // start of the released block (meaningful only on success)
	Size   int64  // size of the released block
	Merged int    // neighbouring free blocks absorbed (0, 1 or 2)
	Reason string // failure reason key; empty on success
}

// CompactionRecord captures a single compaction pass.
type CompactionRecord struct {
	Seq         int
	BlocksMoved int   // occupied blocks whose start address changed
	FreeAfter   int64 // size of the trailing free block (0 if the region is full)
	Automatic   bool  // true if triggered by a no-fit retry rather than requested
}
