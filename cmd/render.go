package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/inference-sim/memsim/sim"
	"github.com/inference-sim/memsim/sim/trace"
)

// RenderBlocks writes one line per block with its address range, status and owner.
func RenderBlocks(w io.Writer, blocks []sim.Block) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANGE\tSIZE\tSTATUS\tOWNER")
	for _, b := range blocks {
		status, owner := "used", fmt.Sprintf("P%d", b.Owner)
		if b.Free {
			status, owner = "free", "-"
		}
		fmt.Fprintf(tw, "[%d - %d]\t%d\t%s\t%s\n", b.Start, b.End(), b.Size, status, owner)
	}
	tw.Flush()
}

// RenderStats writes a short summary of the region layout.
func RenderStats(w io.Writer, stats sim.RegionStats) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "Used %d of %d (%.1f%%), %d free in %d block(s), largest free %d, external fragmentation %.3f\n",
		stats.UsedSize, stats.TotalSize, 100*stats.Utilization,
		stats.FreeSize, stats.FreeBlocks, stats.LargestFree, stats.ExternalFragmentation)
}

// RenderTraceSummary writes the aggregate of a decision trace.
func RenderTraceSummary(w io.Writer, st *trace.SimulationTrace) {
	if st == nil {
		fmt.Fprintln(w, "Decision trace disabled.")
		return
	}
	summary := trace.Summarize(st)
	fmt.Fprintf(w, "=== Decision Trace %s ===\n", st.RunID)
	fmt.Fprintf(w, "Allocations : %d attempted, %d succeeded, %d failed (mean %.2f candidates)\n",
		summary.AllocationAttempts, summary.Succeeded, summary.Failed, summary.MeanCandidates)
	for _, key := range sortedKeys(summary.StrategyCounts) {
		fmt.Fprintf(w, "  strategy %-5s : %d\n", key, summary.StrategyCounts[key])
	}
	for _, key := range sortedKeys(summary.FailureReasons) {
		fmt.Fprintf(w, "  failed (%s) : %d\n", key, summary.FailureReasons[key])
	}
	fmt.Fprintf(w, "Frees       : %d (%d failed, %d merges)\n", summary.Frees, summary.FreeFailures, summary.Merges)
	fmt.Fprintf(w, "Compactions : %d (%d blocks moved)\n", summary.Compactions, summary.BlocksMoved)
}

// describeError turns an allocator error into the message shown to the user.
func describeError(owner sim.OwnerID, size int64, err error) string {
	switch {
	case errors.Is(err, sim.ErrNoFitFound):
		return fmt.Sprintf("Allocation failed: no free block of size %d.", size)
	case errors.Is(err, sim.ErrDuplicateOwner):
		return fmt.Sprintf("Allocation failed: process P%d already holds a block.", owner)
	case errors.Is(err, sim.ErrInvalidSize):
		return fmt.Sprintf("Allocation failed: size must be positive, got %d.", size)
	case errors.Is(err, sim.ErrUnknownStrategy):
		return fmt.Sprintf("Allocation failed: %v.", err)
	case errors.Is(err, sim.ErrOwnerNotFound):
		return fmt.Sprintf("Process P%d not found.", owner)
	default:
		return err.Error()
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
