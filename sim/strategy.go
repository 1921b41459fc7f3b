package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Strategy selects which adequately sized free block satisfies an allocation.
type Strategy string

const (
	// FirstFit picks the free block with the lowest start address.
	FirstFit Strategy = "first"
	// BestFit picks the smallest free block, ties to the lowest address.
	BestFit Strategy = "best"
	// WorstFit picks the largest free block, ties to the lowest address.
	WorstFit Strategy = "worst"
)

// validStrategies maps accepted strategy names.
var validStrategies = map[Strategy]bool{
	FirstFit: true,
	BestFit:  true,
	WorstFit: true,
}

// IsValidStrategy returns true if name is a recognized strategy token.
func IsValidStrategy(name string) bool {
	return validStrategies[Strategy(name)]
}

// ValidStrategyNames returns the accepted strategy tokens in sorted order.
func ValidStrategyNames() []string {
	names := make([]string, 0, len(validStrategies))
	for s := range validStrategies {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return names
}

// ParseStrategy maps a textual token (case-insensitive, surrounding space ignored) to a Strategy.
func ParseStrategy(token string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(token)))
	if !validStrategies[s] {
		return "", fmt.Errorf("%w %q; valid: %s", ErrUnknownStrategy, token, strings.Join(ValidStrategyNames(), ", "))
	}
	return s, nil
}

// selectBlock returns the index in blocks of the free block chosen for a request of size bytes,
// or -1 if no free block is large enough. Candidates are visited in list order, so strict
// comparisons keep the lowest address on ties.
func selectBlock(blocks []Block, size int64, strategy Strategy) int {
	chosen := -1
	for i, b := range blocks {
		if !b.Free || b.Size < size {
			continue
		}
		if chosen < 0 {
			chosen = i
			if strategy == FirstFit {
				return chosen
			}
			continue
		}
		switch strategy {
		case BestFit:
			if b.Size < blocks[chosen].Size {
				chosen = i
			}
		case WorstFit:
			if b.Size > blocks[chosen].Size {
				chosen = i
			}
		}
	}
	return chosen
}

// countCandidates returns how many free blocks could hold a request of size bytes.
func countCandidates(blocks []Block, size int64) int {
	n := 0
	for _, b := range blocks {
		if b.Free && b.Size >= size {
			n++
		}
	}
	return n
}
