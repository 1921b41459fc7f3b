package trace

import "github.com/google/uuid"

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every allocate, free and compact decision.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during an allocator session.
type SimulationTrace struct {
	RunID       string // unique per trace, for telling exported traces apart
	Config      TraceConfig
	Allocations []AllocationRecord
	Frees       []FreeRecord
	Compactions []CompactionRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		RunID:       uuid.NewString(),
		Config:      config,
		Allocations: make([]AllocationRecord, 0),
		Frees:       make([]FreeRecord, 0),
		Compactions: make([]CompactionRecord, 0),
	}
}

// Enabled reports whether records should be collected.
// Safe on a nil trace.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelDecisions
}

// RecordAllocation appends an allocation decision record.
func (st *SimulationTrace) RecordAllocation(record AllocationRecord) {
	st.Allocations = append(st.Allocations, record)
}

// RecordFree appends a deallocation record.
func (st *SimulationTrace) RecordFree(record FreeRecord) {
	st.Frees = append(st.Frees, record)
}

// RecordCompaction appends a compaction record.
func (st *SimulationTrace) RecordCompaction(record CompactionRecord) {
	st.Compactions = append(st.Compactions, record)
}
