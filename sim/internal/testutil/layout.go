package testutil

import "testing"

// Span is a package-neutral view of one block: callers convert their block type into Spans.
type Span struct {
	Start int64
	Size  int64
	Free  bool
	Owner int64
}

// AssertPartition fails the test unless spans exactly partition [0, total) into non-empty
// spans, with no two adjacent free spans and no owner holding two spans.
func AssertPartition(t *testing.T, total int64, spans []Span) {
	t.Helper()
	if len(spans) == 0 {
		t.Fatalf("empty layout for region of size %d", total)
	}
	owners := make(map[int64]bool)
	var next int64
	for i, s := range spans {
		if s.Size <= 0 {
			t.Errorf("span %d: size %d, want > 0", i, s.Size)
		}
		if s.Start != next {
			t.Errorf("span %d: start %d, want %d (gap or overlap)", i, s.Start, next)
		}
		if s.Free && i > 0 && spans[i-1].Free {
			t.Errorf("spans %d and %d are both free", i-1, i)
		}
		if !s.Free {
			if owners[s.Owner] {
				t.Errorf("owner %d holds more than one span", s.Owner)
			}
			owners[s.Owner] = true
		}
		next = s.Start + s.Size
	}
	if next != total {
		t.Errorf("layout ends at %d, want %d", next, total)
	}
}
