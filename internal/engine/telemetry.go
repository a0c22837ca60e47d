package engine

import (
	"sync"
	"time"

	"sqldeck/internal/model"
)

// TelemetryCollector accumulates named phase timings per execution id.
// Records are created by StartQuery and removed only by Finalize or Cancel;
// the execution that started an id must always end it one of those ways.
type TelemetryCollector struct {
	mu      sync.Mutex
	records map[model.ExecutionID]*telemetryRecord
}

type telemetryRecord struct {
	isExplain bool
	started   map[model.TelemetryPhase]time.Time
	elapsed   map[model.TelemetryPhase]time.Duration
}

// NewTelemetryCollector creates an empty collector
func NewTelemetryCollector() *TelemetryCollector {
	return &TelemetryCollector{
		records: make(map[model.ExecutionID]*telemetryRecord),
	}
}

// StartQuery initializes the record for an execution
func (tc *TelemetryCollector) StartQuery(id model.ExecutionID, isExplain bool) {
	if id == "" {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.records[id] = &telemetryRecord{
		isExplain: isExplain,
		started:   make(map[model.TelemetryPhase]time.Time),
		elapsed:   make(map[model.TelemetryPhase]time.Duration),
	}
}

// StartPhase begins timing a phase. Phases restarted across repeated
// statements in one execution accumulate their durations.
func (tc *TelemetryCollector) StartPhase(id model.ExecutionID, phase model.TelemetryPhase) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	rec, ok := tc.records[id]
	if !ok {
		return
	}
	rec.started[phase] = time.Now()
}

// EndPhase stops timing a phase and adds the span to its running total
func (tc *TelemetryCollector) EndPhase(id model.ExecutionID, phase model.TelemetryPhase) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	rec, ok := tc.records[id]
	if !ok {
		return
	}
	start, ok := rec.started[phase]
	if !ok {
		return
	}
	delete(rec.started, phase)
	rec.elapsed[phase] += time.Since(start)
}

// Cancel evicts the record; a cancelled execution's telemetry is discarded
// rather than finalized, and later phase calls for the id are no-ops
func (tc *TelemetryCollector) Cancel(id model.ExecutionID) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	delete(tc.records, id)
}

// Finalize computes per-phase durations, evicts the record and returns the
// report. Returns nil for unknown or cancelled ids.
func (tc *TelemetryCollector) Finalize(id model.ExecutionID, totalRowCount int64) *model.TelemetryReport {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	rec, ok := tc.records[id]
	if !ok {
		return nil
	}
	delete(tc.records, id)

	phases := make(map[model.TelemetryPhase]int64, len(rec.elapsed))
	for phase, d := range rec.elapsed {
		phases[phase] = d.Milliseconds()
	}
	return &model.TelemetryReport{
		ExecutionID:   id,
		Phases:        phases,
		TotalRowCount: totalRowCount,
	}
}

// Pending returns the number of unfinalized records
func (tc *TelemetryCollector) Pending() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.records)
}
