// Partition allocator over a single contiguous region.

package sim

import (
	"fmt"
	"slices"
)

// DefaultTotalSize is the region size used when the caller does not pick one.
const DefaultTotalSize int64 = 1024

// Region is an ordered partition of [0, TotalSize) into free and occupied blocks.
//
// After every call the blocks cover the region without gaps or overlaps, every block is
// non-empty, no two neighbouring blocks are both free, and an owner holds at most one block.
// Failed calls leave the region exactly as it was.
//
// Thread-safety: NOT thread-safe. Callers sharing a Region must serialize whole calls.
type Region struct {
	totalSize int64
	blocks    []Block // ascending Start
}

// NewRegion creates a region of totalSize addresses holding a single free block.
// Panics if totalSize is not positive.
func NewRegion(totalSize int64) *Region {
	if totalSize <= 0 {
		panic(fmt.Sprintf("Region: totalSize must be > 0, got %d", totalSize))
	}
	return &Region{
		totalSize: totalSize,
		blocks:    []Block{freeBlock(0, totalSize)},
	}
}

// TotalSize returns the fixed size of the region.
func (r *Region) TotalSize() int64 {
	return r.totalSize
}

// Allocate reserves size addresses for owner using strategy and returns the start address.
// A chosen block larger than size is split; the free remainder follows the new occupied block.
func (r *Region) Allocate(owner OwnerID, size int64, strategy Strategy) (int64, error) {
	if size <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if !validStrategies[strategy] {
		return 0, fmt.Errorf("%w %q", ErrUnknownStrategy, strategy)
	}
	if _, held := r.indexOf(owner); held {
		return 0, fmt.Errorf("%w: P%d", ErrDuplicateOwner, owner)
	}

	i := selectBlock(r.blocks, size, strategy)
	if i < 0 {
		return 0, fmt.Errorf("%w: size %d", ErrNoFitFound, size)
	}

	chosen := r.blocks[i]
	if chosen.Size > size {
		r.blocks = slices.Insert(r.blocks, i+1, freeBlock(chosen.Start+size, chosen.Size-size))
	}
	r.blocks[i] = Block{Start: chosen.Start, Size: size, Owner: owner}
	return chosen.Start, nil
}

// Free releases the block held by owner and coalesces it with free neighbours.
func (r *Region) Free(owner OwnerID) error {
	i, held := r.indexOf(owner)
	if !held {
		return fmt.Errorf("%w: P%d", ErrOwnerNotFound, owner)
	}
	r.blocks[i] = freeBlock(r.blocks[i].Start, r.blocks[i].Size)

	// absorb the following block first, then fold into the preceding one
	if i+1 < len(r.blocks) && r.blocks[i+1].Free {
		r.blocks[i].Size += r.blocks[i+1].Size
		r.blocks = slices.Delete(r.blocks, i+1, i+2)
	}
	if i > 0 && r.blocks[i-1].Free {
		r.blocks[i-1].Size += r.blocks[i].Size
		r.blocks = slices.Delete(r.blocks, i, i+1)
	}
	return nil
}

// Compact moves every occupied block to the front of the region in address order and leaves
// a single trailing free block with the remaining space (none if the region is full).
// Addresses returned by earlier Allocate calls are invalid afterwards.
func (r *Region) Compact() {
	packed := make([]Block, 0, len(r.blocks))
	var next int64
	for _, b := range r.blocks {
		if b.Free {
			continue
		}
		b.Start = next
		packed = append(packed, b)
		next += b.Size
	}
	if remaining := r.totalSize - next; remaining > 0 {
		packed = append(packed, freeBlock(next, remaining))
	}
	r.blocks = packed
}

// Snapshot returns a copy of the block list in address order.
// This is a pure query.
func (r *Region) Snapshot() []Block {
	return slices.Clone(r.blocks)
}

// Lookup returns the block held by owner, if any.
func (r *Region) Lookup(owner OwnerID) (Block, bool) {
	i, held := r.indexOf(owner)
	if !held {
		return Block{}, false
	}
	return r.blocks[i], true
}

// Validate checks the region invariants and returns an error wrapping ErrCorrupt on the first violation.
func (r *Region) Validate() error {
	return ValidateBlocks(r.totalSize, r.blocks)
}

// ValidateBlocks checks that blocks form a valid partition of [0, totalSize).
func ValidateBlocks(totalSize int64, blocks []Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: empty block list", ErrCorrupt)
	}
	owners := make(map[OwnerID]int64, len(blocks))
	var next int64
	for i, b := range blocks {
		if b.Size <= 0 {
			return fmt.Errorf("%w: block %d has size %d", ErrCorrupt, i, b.Size)
		}
		if b.Start != next {
			return fmt.Errorf("%w: block %d starts at %d, expected %d", ErrCorrupt, i, b.Start, next)
		}
		if b.Free {
			if b.Owner != 0 {
				return fmt.Errorf("%w: free block %d carries owner P%d", ErrCorrupt, i, b.Owner)
			}
			if i > 0 && blocks[i-1].Free {
				return fmt.Errorf("%w: free blocks %d and %d are adjacent", ErrCorrupt, i-1, i)
			}
		} else {
			if start, dup := owners[b.Owner]; dup {
				return fmt.Errorf("%w: owner P%d holds blocks at %d and %d", ErrCorrupt, b.Owner, start, b.Start)
			}
			owners[b.Owner] = b.Start
		}
		next = b.Limit()
	}
	if next != totalSize {
		return fmt.Errorf("%w: blocks end at %d, region size is %d", ErrCorrupt, next, totalSize)
	}
	return nil
}

// indexOf returns the position of the occupied block held by owner.
func (r *Region) indexOf(owner OwnerID) (int, bool) {
	for i, b := range r.blocks {
		if !b.Free && b.Owner == owner {
			return i, true
		}
	}
	return -1, false
}
