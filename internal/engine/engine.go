package engine

import (
	"github.com/google/uuid"

	"sqldeck/internal/model"
)

// Engine owns the process-wide execution state: the cancellation registry,
// the telemetry collector and the schema cache. It is constructed once and
// injected wherever executions run, so each test can build a fresh one.
type Engine struct {
	registry  *QueryRegistry
	telemetry *TelemetryCollector
	schemas   *SchemaCache
}

// New creates an Engine with empty registries
func New() *Engine {
	return &Engine{
		registry:  NewQueryRegistry(),
		telemetry: NewTelemetryCollector(),
		schemas:   NewSchemaCache(),
	}
}

// NewExecutionID mints a fresh execution identifier
func (e *Engine) NewExecutionID() model.ExecutionID {
	return model.ExecutionID(uuid.New().String())
}

// Registry returns the cancellation registry
func (e *Engine) Registry() *QueryRegistry {
	return e.registry
}

// Telemetry returns the telemetry collector
func (e *Engine) Telemetry() *TelemetryCollector {
	return e.telemetry
}

// SchemaCache returns the schema cache
func (e *Engine) SchemaCache() *SchemaCache {
	return e.schemas
}
