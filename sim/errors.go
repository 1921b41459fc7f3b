package sim

import "errors"

var (
	// ErrInvalidSize indicates a requested allocation size that is not a positive integer.
	ErrInvalidSize = errors.New("memsim: allocation size must be positive")

	// ErrNoFitFound indicates that no free block is large enough for the request.
	ErrNoFitFound = errors.New("memsim: no suitable free block")

	// ErrOwnerNotFound indicates a free targeting an owner that holds no block.
	ErrOwnerNotFound = errors.New("memsim: owner holds no block")

	// ErrDuplicateOwner indicates an allocation for an owner that already holds a block.
	ErrDuplicateOwner = errors.New("memsim: owner already holds a block")

	// ErrUnknownStrategy indicates an allocation strategy outside first/best/worst.
	ErrUnknownStrategy = errors.New("memsim: unknown allocation strategy")

	// ErrCorrupt indicates that the block list violates a region invariant.
	ErrCorrupt = errors.New("memsim: region invariant violated")
)

// ErrorReason maps an allocator error to the short reason key used by metrics and traces.
// Returns "" for nil and "other" for errors outside the allocator's taxonomy.
func ErrorReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSize):
		return ReasonInvalidSize
	case errors.Is(err, ErrNoFitFound):
		return ReasonNoFit
	case errors.Is(err, ErrOwnerNotFound):
		return ReasonOwnerNotFound
	case errors.Is(err, ErrDuplicateOwner):
		return ReasonDuplicateOwner
	case errors.Is(err, ErrUnknownStrategy):
		return ReasonUnknownStrategy
	default:
		return "other"
	}
}

// Reason keys reported by ErrorReason.
const (
	ReasonInvalidSize     = "invalid_size"
	ReasonNoFit           = "no_fit"
	ReasonOwnerNotFound   = "owner_not_found"
	ReasonDuplicateOwner  = "duplicate_owner"
	ReasonUnknownStrategy = "unknown_strategy"
)
