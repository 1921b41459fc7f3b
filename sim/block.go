package sim

import "fmt"

// OwnerID identifies a simulated process holding an occupied block.
// The allocator treats it as opaque; it is numeric because the session layer reads process ids as integers.
type OwnerID int64

// Block is a contiguous span of the region, either free or occupied by exactly one owner.
type Block struct {
	Start int64   // offset of the first address in the block
	Size  int64   // number of addresses covered (always > 0)
	Free  bool    // true if no owner holds the block
	Owner OwnerID // owning process; zero and meaningless when Free
}

// End returns the last address covered by the block (inclusive).
func (b Block) End() int64 {
	return b.Start + b.Size - 1
}

// Limit returns the first address past the block.
func (b Block) Limit() int64 {
	return b.Start + b.Size
}

// String renders the block as "[start - end] (Free)" or "[start - end] (Used (P<owner>))".
func (b Block) String() string {
	status := "Free"
	if !b.Free {
		status = fmt.Sprintf("Used (P%d)", b.Owner)
	}
	return fmt.Sprintf("[%d - %d] (%s)", b.Start, b.End(), status)
}

// freeBlock returns a free block covering [start, start+size).
func freeBlock(start, size int64) Block {
	return Block{Start: start, Size: size, Free: true}
}
