// Package sim provides the partition allocator and the session layer that drives it.
//
// # Reading Guide
//
// Start with these files:
//   - block.go: Block, the contiguous address range that is either free or held by one owner
//   - region.go: Region, the ordered block list with Allocate, Free (coalescing), Compact and Snapshot
//   - strategy.go: first, best and worst fit selection over the free blocks
//   - simulator.go: Simulator, which wraps a Region with metrics, decision tracing and compact-and-retry
//
// # Invariants
//
// After every operation the blocks of a Region are sorted by start address, contiguous from 0 to
// TotalSize-1, non-empty, and no two free blocks are adjacent. A free block has no owner and an
// owner holds at most one block. Region.Validate checks all of these.
//
// # Sub-packages
//   - sim/trace/: per-operation decision records and their summary
//   - sim/workload/: YAML scenarios, seeded workload generation and replay
package sim
