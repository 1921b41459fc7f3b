package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	AllocationAttempts int
	Succeeded          int
	Failed             int
	FailureReasons     map[string]int // reason key -> count
	StrategyCounts     map[string]int // strategy -> attempts
	MeanCandidates     float64        // mean adequately sized free blocks per attempt
	Frees              int
	FreeFailures       int
	Merges             int
	Compactions        int
	BlocksMoved        int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		FailureReasons: make(map[string]int),
		StrategyCounts: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.AllocationAttempts = len(st.Allocations)
	totalCandidates := 0
	for _, a := range st.Allocations {
		summary.StrategyCounts[a.Strategy]++
		totalCandidates += a.Candidates
		if a.Succeeded() {
			summary.Succeeded++
		} else {
			summary.Failed++
			summary.FailureReasons[a.Reason]++
		}
	}
	if summary.AllocationAttempts > 0 {
		summary.MeanCandidates = float64(totalCandidates) / float64(summary.AllocationAttempts)
	}

	for _, f := range st.Frees {
		if f.Reason != "" {
			summary.FreeFailures++
			continue
		}
		summary.Frees++
		summary.Merges += f.Merged
	}

	summary.Compactions = len(st.Compactions)
	for _, c := range st.Compactions {
		summary.BlocksMoved += c.BlocksMoved
	}
	return summary
}
