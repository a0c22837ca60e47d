package engine

import (
	"testing"
	"time"

	"sqldeck/internal/model"
)

func TestNewExecutionIDsAreUnique(t *testing.T) {
	eng := New()
	seen := make(map[model.ExecutionID]bool)
	for i := 0; i < 100; i++ {
		id := eng.NewExecutionID()
		if id == "" {
			t.Fatal("Expected non-empty execution id")
		}
		if seen[id] {
			t.Fatalf("Duplicate execution id %s", id)
		}
		seen[id] = true
	}
}

func TestRegistryCancelIsBestEffortAndIdempotent(t *testing.T) {
	reg := NewQueryRegistry()
	id := model.ExecutionID("exec-1")

	calls := 0
	reg.Register(id, func() { calls++ })
	if reg.Active() != 1 {
		t.Fatalf("Expected 1 active execution, got %d", reg.Active())
	}

	if !reg.Cancel(id) {
		t.Error("Expected first cancel to find the execution")
	}
	if calls != 1 {
		t.Errorf("Expected cancel func to run once, ran %d times", calls)
	}

	// second cancel: unknown id now, no-op
	if reg.Cancel(id) {
		t.Error("Expected second cancel to report not found")
	}
	if calls != 1 {
		t.Errorf("Cancel func must not run again, ran %d times", calls)
	}

	if reg.Cancel("never-registered") {
		t.Error("Expected cancel of unknown id to report not found")
	}
}

func TestRegistryUnregisterUnknownIsSafe(t *testing.T) {
	reg := NewQueryRegistry()
	reg.Unregister("ghost")
	if reg.Active() != 0 {
		t.Errorf("Expected empty registry, got %d", reg.Active())
	}
}

func TestRegistryEmptyIDIgnored(t *testing.T) {
	reg := NewQueryRegistry()
	reg.Register("", func() {})
	if reg.Active() != 0 {
		t.Error("Empty execution ids must not be registered")
	}
}

func TestTelemetryAccumulatesRepeatedPhases(t *testing.T) {
	tc := NewTelemetryCollector()
	id := model.ExecutionID("exec-t")

	tc.StartQuery(id, false)
	for i := 0; i < 3; i++ {
		tc.StartPhase(id, model.PhaseExecution)
		time.Sleep(2 * time.Millisecond)
		tc.EndPhase(id, model.PhaseExecution)
	}

	report := tc.Finalize(id, 42)
	if report == nil {
		t.Fatal("Expected a report")
	}
	if report.TotalRowCount != 42 {
		t.Errorf("Expected row count 42, got %d", report.TotalRowCount)
	}
	if report.Phases[model.PhaseExecution] < 4 {
		t.Errorf("Expected accumulated execution time >= 4ms, got %d", report.Phases[model.PhaseExecution])
	}
	if tc.Pending() != 0 {
		t.Errorf("Finalize must evict the record, %d pending", tc.Pending())
	}
}

func TestTelemetryFinalizeUnknownReturnsNil(t *testing.T) {
	tc := NewTelemetryCollector()
	if report := tc.Finalize("ghost", 0); report != nil {
		t.Errorf("Expected nil report for unknown id, got %+v", report)
	}
}

func TestTelemetryCancelDiscardsRecord(t *testing.T) {
	tc := NewTelemetryCollector()
	id := model.ExecutionID("exec-c")

	tc.StartQuery(id, false)
	tc.StartPhase(id, model.PhaseExecution)
	tc.Cancel(id)

	if tc.Pending() != 0 {
		t.Errorf("Cancel must evict the record, %d pending", tc.Pending())
	}
	if report := tc.Finalize(id, 0); report != nil {
		t.Errorf("Cancelled execution must not finalize, got %+v", report)
	}
}

func TestTelemetryPhaseAfterCancelIsNoOp(t *testing.T) {
	tc := NewTelemetryCollector()
	id := model.ExecutionID("exec-pc")

	tc.StartQuery(id, false)
	tc.Cancel(id)

	// the executing goroutine may still report phases after a cancel
	// evicted the record; they must not resurrect it
	tc.StartPhase(id, model.PhaseExecution)
	tc.EndPhase(id, model.PhaseExecution)

	if tc.Pending() != 0 {
		t.Errorf("Phase calls after cancel must not recreate the record, %d pending", tc.Pending())
	}
	if report := tc.Finalize(id, 0); report != nil {
		t.Errorf("Expected nil report after cancel, got %+v", report)
	}
}

func TestTelemetryEndWithoutStartIsNoOp(t *testing.T) {
	tc := NewTelemetryCollector()
	id := model.ExecutionID("exec-e")

	tc.StartQuery(id, false)
	tc.EndPhase(id, model.PhaseParse)

	report := tc.Finalize(id, 0)
	if report == nil {
		t.Fatal("Expected a report")
	}
	if _, ok := report.Phases[model.PhaseParse]; ok {
		t.Error("Unstarted phase must not appear in the report")
	}
}

func TestTelemetryIgnoresUntrackedIDs(t *testing.T) {
	tc := NewTelemetryCollector()
	// executions without telemetry pass "" everywhere; nothing may leak
	tc.StartPhase("", model.PhaseExecution)
	tc.EndPhase("", model.PhaseExecution)
	if tc.Pending() != 0 {
		t.Errorf("Expected no records, got %d", tc.Pending())
	}
}

func TestSchemaCacheRoundTrip(t *testing.T) {
	cache := NewSchemaCache()
	schemas := []model.SchemaInfo{{Name: "public"}}

	if _, ok := cache.Get("fp"); ok {
		t.Fatal("Expected miss on empty cache")
	}

	cache.Set("fp", schemas)
	got, ok := cache.Get("fp")
	if !ok || len(got) != 1 || got[0].Name != "public" {
		t.Errorf("Expected cached schemas back, got %v (hit=%v)", got, ok)
	}

	// no expiry: still present later
	if _, ok := cache.Get("fp"); !ok {
		t.Error("Entries must live until invalidated")
	}

	cache.Invalidate("fp")
	if _, ok := cache.Get("fp"); ok {
		t.Error("Expected miss after invalidation")
	}
}

func TestSchemaCacheClear(t *testing.T) {
	cache := NewSchemaCache()
	cache.Set("a", nil)
	cache.Set("b", nil)
	if cache.Len() != 2 {
		t.Fatalf("Expected 2 entries, got %d", cache.Len())
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache, got %d", cache.Len())
	}
}
