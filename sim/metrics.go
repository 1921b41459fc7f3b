// Tracks session-wide allocator activity such as:
// allocation outcomes by reason, frees and merges, compactions, and peak usage.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Metrics aggregates counters over a simulation session for final reporting.
type Metrics struct {
	AllocAttempts   int            `json:"alloc_attempts"`
	AllocSucceeded  int            `json:"alloc_succeeded"`
	AllocFailures   map[string]int `json:"alloc_failures"` // reason key (see ErrorReason) -> count
	AllocatedTotal  int64          `json:"allocated_total"`
	Frees           int            `json:"frees"`
	FreeFailures    int            `json:"free_failures"`
	Merges          int            `json:"merges"` // neighbouring free blocks absorbed by frees
	Compactions     int            `json:"compactions"`
	AutoCompactions int            `json:"auto_compactions"` // compactions triggered by a no-fit retry
	BlocksMoved     int            `json:"blocks_moved"`
	PeakUsedSize    int64          `json:"peak_used_size"`
}

// NewMetrics returns a zeroed Metrics ready for recording.
func NewMetrics() *Metrics {
	return &Metrics{AllocFailures: make(map[string]int)}
}

// AllocFailed returns the total number of failed allocation attempts.
func (m *Metrics) AllocFailed() int {
	total := 0
	for _, n := range m.AllocFailures {
		total += n
	}
	return total
}

// SuccessRate returns AllocSucceeded / AllocAttempts, or 0 before any attempt.
func (m *Metrics) SuccessRate() float64 {
	if m.AllocAttempts == 0 {
		return 0
	}
	return float64(m.AllocSucceeded) / float64(m.AllocAttempts)
}

func (m *Metrics) observeUsage(used int64) {
	if used > m.PeakUsedSize {
		m.PeakUsedSize = used
	}
}

// Print writes a human-readable report of the metrics and the final region stats.
func (m *Metrics) Print(w io.Writer, stats RegionStats) {
	p := message.NewPrinter(language.English)
	p.Fprintln(w, "=== Allocator Metrics ===")
	p.Fprintf(w, "Allocation Attempts   : %d\n", m.AllocAttempts)
	p.Fprintf(w, "Allocations Succeeded : %d (%.1f%%)\n", m.AllocSucceeded, 100*m.SuccessRate())
	reasons := make([]string, 0, len(m.AllocFailures))
	for reason := range m.AllocFailures {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		p.Fprintf(w, "  failed (%s) : %d\n", reason, m.AllocFailures[reason])
	}
	p.Fprintf(w, "Frees                 : %d (%d failed, %d merges)\n", m.Frees, m.FreeFailures, m.Merges)
	p.Fprintf(w, "Compactions           : %d (%d automatic, %d blocks moved)\n", m.Compactions, m.AutoCompactions, m.BlocksMoved)
	p.Fprintf(w, "Peak Used             : %d / %d\n", m.PeakUsedSize, stats.TotalSize)
	p.Fprintf(w, "Used / Free           : %d / %d\n", stats.UsedSize, stats.FreeSize)
	p.Fprintf(w, "Largest Free Block    : %d\n", stats.LargestFree)
	p.Fprintf(w, "External Fragmentation: %.3f\n", stats.ExternalFragmentation)
}

// WriteJSON writes the metrics as indented JSON.
func (m *Metrics) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
