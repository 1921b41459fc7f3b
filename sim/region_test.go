package sim

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/memsim/sim/internal/testutil"
)

// buildRegion allocates owners 1..n with the given sizes back to back from address 0
// (first-fit on a fresh region), then frees the listed owners.
func buildRegion(t *testing.T, total int64, sizes []int64, free ...OwnerID) *Region {
	t.Helper()
	r := NewRegion(total)
	for i, size := range sizes {
		_, err := r.Allocate(OwnerID(i+1), size, FirstFit)
		require.NoError(t, err, "building layout: owner %d size %d", i+1, size)
	}
	for _, owner := range free {
		require.NoError(t, r.Free(owner), "building layout: free %d", owner)
	}
	return r
}

func spans(blocks []Block) []testutil.Span {
	out := make([]testutil.Span, len(blocks))
	for i, b := range blocks {
		out[i] = testutil.Span{Start: b.Start, Size: b.Size, Free: b.Free, Owner: int64(b.Owner)}
	}
	return out
}

func TestNewRegion_SingleFreeBlock(t *testing.T) {
	r := NewRegion(DefaultTotalSize)
	assert.Equal(t, []Block{{Start: 0, Size: 1024, Free: true}}, r.Snapshot())
	assert.Equal(t, int64(1024), r.TotalSize())
	assert.NoError(t, r.Validate())
}

func TestNewRegion_NonPositiveSize_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "Region: totalSize must be > 0, got 0", func() {
		NewRegion(0)
	})
	assert.Panics(t, func() {
		NewRegion(-8)
	})
}

// === Strategy selection ===

func TestRegion_Allocate_StrategySelection(t *testing.T) {
	// GIVEN free blocks of sizes 40, 10, 25 at increasing addresses (0, 45, 60)
	sizes := []int64{40, 5, 10, 5, 25, 15}
	tests := []struct {
		strategy  Strategy
		wantStart int64
	}{
		{FirstFit, 0},
		{BestFit, 45},
		{WorstFit, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			r := buildRegion(t, 100, sizes, 1, 3, 5)

			// WHEN a request of size 10 is made
			start, err := r.Allocate(100, 10, tt.strategy)

			// THEN the strategy's block is chosen
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.NoError(t, r.Validate())
		})
	}
}

func TestRegion_Allocate_TiesBrokenByLowestAddress(t *testing.T) {
	tests := []struct {
		name      string
		sizes     []int64
		strategy  Strategy
		wantStart int64
	}{
		// free blocks 10@0, 20@11, 10@32
		{"best-fit equal smallest", []int64{10, 1, 20, 1, 10, 1}, BestFit, 0},
		{"worst-fit unique largest", []int64{10, 1, 20, 1, 10, 1}, WorstFit, 11},
		// free blocks 20@0, 10@21, 20@32
		{"worst-fit equal largest", []int64{20, 1, 10, 1, 20, 1}, WorstFit, 0},
		{"best-fit unique smallest", []int64{20, 1, 10, 1, 20, 1}, BestFit, 21},
		{"first-fit", []int64{20, 1, 10, 1, 20, 1}, FirstFit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var total int64
			for _, s := range tt.sizes {
				total += s
			}
			r := buildRegion(t, total, tt.sizes, 1, 3, 5)

			start, err := r.Allocate(100, 5, tt.strategy)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
		})
	}
}

func TestRegion_Allocate_SkipsBlocksTooSmall(t *testing.T) {
	// free blocks 10@0 and 30@15
	r := buildRegion(t, 50, []int64{10, 5, 30, 5}, 1, 3)

	start, err := r.Allocate(9, 20, BestFit)

	require.NoError(t, err)
	assert.Equal(t, int64(15), start)
}

// === Split ===

func TestRegion_Allocate_SplitsLargerBlock(t *testing.T) {
	// GIVEN a free block of size 40 at address 100
	r := buildRegion(t, 140, []int64{100, 40}, 2)

	// WHEN 10 addresses are allocated from it
	start, err := r.Allocate(3, 10, FirstFit)

	// THEN an occupied [100,109] is followed by a free block of size 30
	require.NoError(t, err)
	assert.Equal(t, int64(100), start)
	assert.Equal(t, []Block{
		{Start: 0, Size: 100, Owner: 1},
		{Start: 100, Size: 10, Owner: 3},
		{Start: 110, Size: 30, Free: true},
	}, r.Snapshot())

	var total int64
	for _, b := range r.Snapshot() {
		total += b.Size
	}
	assert.Equal(t, int64(140), total, "total size preserved")
}

func TestRegion_Allocate_ExactFit_NoSplit(t *testing.T) {
	r := buildRegion(t, 30, []int64{10, 10, 10}, 2)

	start, err := r.Allocate(4, 10, BestFit)

	require.NoError(t, err)
	assert.Equal(t, int64(10), start)
	assert.Len(t, r.Snapshot(), 3)
	b, ok := r.Lookup(4)
	require.True(t, ok)
	assert.Equal(t, Block{Start: 10, Size: 10, Owner: 4}, b)
}

func TestRegion_Allocate_WholeRegion(t *testing.T) {
	r := NewRegion(64)

	start, err := r.Allocate(1, 64, WorstFit)

	require.NoError(t, err)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, []Block{{Start: 0, Size: 64, Owner: 1}}, r.Snapshot())
}

// === Allocation failures ===

func TestRegion_Allocate_InvalidSize_Rejected(t *testing.T) {
	for _, size := range []int64{0, -1, -1024} {
		r := NewRegion(100)
		before := r.Snapshot()

		_, err := r.Allocate(1, size, FirstFit)

		assert.ErrorIs(t, err, ErrInvalidSize, "size %d", size)
		assert.Equal(t, before, r.Snapshot())
	}
}

func TestRegion_Allocate_UnknownStrategy_Rejected(t *testing.T) {
	r := NewRegion(100)

	_, err := r.Allocate(1, 10, Strategy("next"))

	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Equal(t, []Block{{Start: 0, Size: 100, Free: true}}, r.Snapshot())
}

func TestRegion_Allocate_NoFit_LeavesStateUnchanged(t *testing.T) {
	// GIVEN a fragmented region whose largest free block is 25
	r := buildRegion(t, 100, []int64{40, 5, 10, 5, 25, 15}, 3, 5)
	before := r.Snapshot()

	// WHEN a request larger than any free block is made (35 free in total)
	for _, strategy := range []Strategy{FirstFit, BestFit, WorstFit} {
		_, err := r.Allocate(50, 30, strategy)

		// THEN it fails with no fit and the layout is untouched
		assert.ErrorIs(t, err, ErrNoFitFound)
		assert.Equal(t, before, r.Snapshot())
	}
}

func TestRegion_Allocate_DuplicateOwner_Rejected(t *testing.T) {
	// An owner may hold only one block at a time.
	r := NewRegion(100)
	_, err := r.Allocate(7, 10, FirstFit)
	require.NoError(t, err)
	before := r.Snapshot()

	_, err = r.Allocate(7, 10, FirstFit)

	assert.ErrorIs(t, err, ErrDuplicateOwner)
	assert.Equal(t, before, r.Snapshot())

	// after freeing, the owner may allocate again
	require.NoError(t, r.Free(7))
	_, err = r.Allocate(7, 20, FirstFit)
	assert.NoError(t, err)
}

// === Free and coalescing ===

func TestRegion_Free_OwnerNotFound(t *testing.T) {
	r := buildRegion(t, 100, []int64{10, 20})
	before := r.Snapshot()

	err := r.Free(99)

	assert.ErrorIs(t, err, ErrOwnerNotFound)
	assert.Equal(t, before, r.Snapshot())
}

func TestRegion_Free_TwiceFails(t *testing.T) {
	r := buildRegion(t, 100, []int64{10})
	require.NoError(t, r.Free(1))
	assert.ErrorIs(t, r.Free(1), ErrOwnerNotFound)
}

func TestRegion_Free_NoFreeNeighbours(t *testing.T) {
	r := buildRegion(t, 30, []int64{10, 10, 10})

	require.NoError(t, r.Free(2))

	assert.Equal(t, []Block{
		{Start: 0, Size: 10, Owner: 1},
		{Start: 10, Size: 10, Free: true},
		{Start: 20, Size: 10, Owner: 3},
	}, r.Snapshot())
}

func TestRegion_Free_MergesWithNext(t *testing.T) {
	// trailing free space of 70 follows owner 3
	r := buildRegion(t, 100, []int64{10, 10, 10})

	require.NoError(t, r.Free(3))

	assert.Equal(t, []Block{
		{Start: 0, Size: 10, Owner: 1},
		{Start: 10, Size: 10, Owner: 2},
		{Start: 20, Size: 80, Free: true},
	}, r.Snapshot())
}

func TestRegion_Free_MergesWithPrevious(t *testing.T) {
	r := buildRegion(t, 30, []int64{10, 10, 10}, 1)

	require.NoError(t, r.Free(2))

	assert.Equal(t, []Block{
		{Start: 0, Size: 20, Free: true},
		{Start: 20, Size: 10, Owner: 3},
	}, r.Snapshot())
}

func TestRegion_Free_ThreeWayCoalesce(t *testing.T) {
	// GIVEN A[0,9], B[10,19], C[20,29]
	r := buildRegion(t, 30, []int64{10, 10, 10})

	// WHEN A, then C, then B are freed
	require.NoError(t, r.Free(1))
	require.NoError(t, r.Free(3))
	require.NoError(t, r.Free(2))

	// THEN a single free block [0,29] remains
	assert.Equal(t, []Block{{Start: 0, Size: 30, Free: true}}, r.Snapshot())
}

func TestRegion_AllocateThenFree_RoundTrip(t *testing.T) {
	layouts := []struct {
		name  string
		sizes []int64
		free  []OwnerID
	}{
		{"fresh", nil, nil},
		{"fragmented", []int64{40, 5, 10, 5, 25, 15}, []OwnerID{1, 3, 5}},
		{"tail free", []int64{10, 10}, nil},
	}
	for _, l := range layouts {
		for _, strategy := range []Strategy{FirstFit, BestFit, WorstFit} {
			t.Run(l.name+"/"+string(strategy), func(t *testing.T) {
				r := buildRegion(t, 100, l.sizes, l.free...)
				before := r.Snapshot()

				_, err := r.Allocate(77, 5, strategy)
				require.NoError(t, err)
				require.NoError(t, r.Free(77))

				assert.Equal(t, before, r.Snapshot())
			})
		}
	}
}

// === Compaction ===

func TestRegion_Compact_PacksOccupiedInOrder(t *testing.T) {
	// GIVEN Free[0,9], A[10,24], Free[25,29], B[30,39] in a region of 40
	r := buildRegion(t, 40, []int64{10, 15, 5, 10}, 1, 3)
	require.Equal(t, []Block{
		{Start: 0, Size: 10, Free: true},
		{Start: 10, Size: 15, Owner: 2},
		{Start: 25, Size: 5, Free: true},
		{Start: 30, Size: 10, Owner: 4},
	}, r.Snapshot())

	// WHEN compacted
	r.Compact()

	// THEN A[0,14], B[15,24], Free[25,39]
	assert.Equal(t, []Block{
		{Start: 0, Size: 15, Owner: 2},
		{Start: 15, Size: 10, Owner: 4},
		{Start: 25, Size: 15, Free: true},
	}, r.Snapshot())
	assert.NoError(t, r.Validate())
}

func TestRegion_Compact_FullRegion_NoTrailingFree(t *testing.T) {
	r := buildRegion(t, 30, []int64{10, 10, 10})

	r.Compact()

	snap := r.Snapshot()
	assert.Len(t, snap, 3)
	for _, b := range snap {
		assert.False(t, b.Free)
	}
}

func TestRegion_Compact_EmptyRegion(t *testing.T) {
	r := NewRegion(50)

	r.Compact()

	assert.Equal(t, []Block{{Start: 0, Size: 50, Free: true}}, r.Snapshot())
}

func TestRegion_Compact_EnablesPreviouslyFailingAllocation(t *testing.T) {
	// 35 addresses free but split into 10 and 25
	r := buildRegion(t, 100, []int64{40, 5, 10, 5, 25, 15}, 3, 5)
	_, err := r.Allocate(50, 30, FirstFit)
	require.ErrorIs(t, err, ErrNoFitFound)

	r.Compact()
	start, err := r.Allocate(50, 30, FirstFit)

	require.NoError(t, err)
	assert.Equal(t, int64(65), start)
}

// === Snapshot ===

func TestRegion_Snapshot_IsCopy(t *testing.T) {
	r := buildRegion(t, 100, []int64{10})
	snap := r.Snapshot()

	snap[0].Size = 999
	snap[0].Free = true

	assert.Equal(t, int64(10), r.Snapshot()[0].Size)
	assert.False(t, r.Snapshot()[0].Free)
}

func TestRegion_Snapshot_Idempotent(t *testing.T) {
	r := buildRegion(t, 100, []int64{10, 20, 30}, 2)
	assert.Equal(t, r.Snapshot(), r.Snapshot())
}

// === Validate ===

func TestValidateBlocks_DetectsViolations(t *testing.T) {
	tests := []struct {
		name   string
		blocks []Block
	}{
		{"empty", nil},
		{"gap", []Block{{Start: 0, Size: 5, Owner: 1}, {Start: 6, Size: 4, Free: true}}},
		{"zero size", []Block{{Start: 0, Size: 0, Free: true}, {Start: 0, Size: 10, Owner: 1}}},
		{"short", []Block{{Start: 0, Size: 9, Free: true}}},
		{"adjacent free", []Block{{Start: 0, Size: 5, Free: true}, {Start: 5, Size: 5, Free: true}}},
		{"duplicate owner", []Block{{Start: 0, Size: 5, Owner: 1}, {Start: 5, Size: 5, Owner: 1}}},
		{"free with owner", []Block{{Start: 0, Size: 10, Free: true, Owner: 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateBlocks(10, tt.blocks), ErrCorrupt)
		})
	}
}

// === Randomized invariants ===

func TestRegion_RandomOperations_PreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42)) // fixed seed for reproducibility
	strategies := []Strategy{FirstFit, BestFit, WorstFit}
	const total = 512
	r := NewRegion(total)
	live := make([]OwnerID, 0)
	nextOwner := OwnerID(1)

	for step := 0; step < 2000; step++ {
		before := r.Snapshot()
		var err error

		switch op := rng.Intn(10); {
		case op < 5:
			size := int64(1 + rng.Intn(96))
			_, err = r.Allocate(nextOwner, size, strategies[rng.Intn(len(strategies))])
			if err == nil {
				live = append(live, nextOwner)
			} else {
				require.ErrorIs(t, err, ErrNoFitFound, "step %d", step)
			}
			nextOwner++
		case op < 9:
			if len(live) == 0 {
				err = r.Free(nextOwner + 1000)
				require.ErrorIs(t, err, ErrOwnerNotFound)
				break
			}
			idx := rng.Intn(len(live))
			require.NoError(t, r.Free(live[idx]), "step %d", step)
			live = append(live[:idx], live[idx+1:]...)
		default:
			r.Compact()
		}

		if err != nil {
			require.Equal(t, before, r.Snapshot(), "step %d: failed call mutated the region", step)
		}
		require.NoError(t, r.Validate(), "step %d", step)
		testutil.AssertPartition(t, total, spans(r.Snapshot()))
		require.Equal(t, len(live), r.Stats().OccupiedBlocks, "step %d", step)
	}
}

func TestErrorReason_MapsSentinels(t *testing.T) {
	r := NewRegion(10)
	_, err := r.Allocate(1, 0, FirstFit)
	assert.Equal(t, ReasonInvalidSize, ErrorReason(err))
	_, err = r.Allocate(1, 11, FirstFit)
	assert.Equal(t, ReasonNoFit, ErrorReason(err))
	assert.Equal(t, ReasonOwnerNotFound, ErrorReason(r.Free(1)))
	assert.Equal(t, "", ErrorReason(nil))
	assert.Equal(t, "other", ErrorReason(errors.New("boom")))
}
