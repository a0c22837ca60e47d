package model

import (
	"time"
)

// ExecutionID correlates one query run across the query registry and the
// telemetry collector. IDs are minted by the engine, never caller-supplied,
// so unrelated concurrent executions cannot collide.
type ExecutionID string

// QueryOptions tunes a QueryMultiple execution
type QueryOptions struct {
	// QueryTimeoutMs sets a server-side per-statement timeout before the
	// batch starts. 0 means unlimited.
	QueryTimeoutMs int `json:"queryTimeoutMs" validate:"omitempty,min=0"`

	// ExecutionID enables cancellation and telemetry for this run
	ExecutionID ExecutionID `json:"executionId,omitempty"`

	// CollectTelemetry requests a per-phase latency breakdown
	CollectTelemetry bool `json:"collectTelemetry"`
}

// FieldInfo describes one column of a result set
type FieldInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`   // normalized type vocabulary
	Native   string `json:"native"` // driver-reported type name
	Nullable bool   `json:"nullable"`
}

// StatementResult is the outcome of one statement within a script.
// Index is zero-based execution order, which equals textual order.
type StatementResult struct {
	Statement       string          `json:"statement"`
	Index           int             `json:"index"`
	Rows            [][]interface{} `json:"rows,omitempty"`
	Fields          []FieldInfo     `json:"fields,omitempty"`
	RowCount        int64           `json:"rowCount"`
	DurationMs      int64           `json:"durationMs"`
	IsDataReturning bool            `json:"isDataReturning"`
	Error           string          `json:"error,omitempty"`
}

// MultiQueryResult is the ordered outcome of one multi-statement execution
type MultiQueryResult struct {
	Results         []StatementResult `json:"results"`
	TotalDurationMs int64             `json:"totalDurationMs"`
	Telemetry       *TelemetryReport  `json:"telemetry,omitempty"`
}

// QueryResult is the single-statement convenience shape
type QueryResult struct {
	Rows     [][]interface{} `json:"rows"`
	Fields   []FieldInfo     `json:"fields"`
	RowCount int64           `json:"rowCount"`
}

// ExecResult reports a single parameterized statement
type ExecResult struct {
	RowCount int64 `json:"rowCount"`
}

// TransactionStatement is one parameterized statement inside a batch
type TransactionStatement struct {
	SQL    string        `json:"sql" validate:"required"`
	Params []interface{} `json:"params"`
}

// TransactionResult reports an all-or-nothing batch
type TransactionResult struct {
	RowsAffected int64        `json:"rowsAffected"`
	Results      []ExecResult `json:"results"`
}

// ExplainResult carries the engine's plan output
type ExplainResult struct {
	Plan       string `json:"plan"` // machine-readable plan, JSON where the dialect supports it
	DurationMs int64  `json:"durationMs"`
}

// TelemetryPhase is an enumerated sub-interval of one execution's timeline
type TelemetryPhase string

const (
	PhaseTCPHandshake TelemetryPhase = "tcp_handshake"
	PhaseDBHandshake  TelemetryPhase = "db_handshake"
	PhaseParse        TelemetryPhase = "parse"
	PhaseExecution    TelemetryPhase = "execution"
)

// TelemetryReport is the externally observable latency breakdown
type TelemetryReport struct {
	ExecutionID   ExecutionID              `json:"executionId"`
	Phases        map[TelemetryPhase]int64 `json:"phases"` // phase -> elapsed ms
	TotalRowCount int64                    `json:"totalRowCount"`
}

// QueryStats represents engine-wide execution statistics
type QueryStats struct {
	TotalQueries      int64     `json:"totalQueries"`
	SuccessfulQueries int64     `json:"successfulQueries"`
	FailedQueries     int64     `json:"failedQueries"`
	AvgExecutionTime  float64   `json:"avgExecutionTime"` // seconds
	LastQueryTime     time.Time `json:"lastQueryTime"`
}

// StandardizedType represents normalized data types across dialects
type StandardizedType string

const (
	TypeInteger   StandardizedType = "integer"
	TypeBigInt    StandardizedType = "bigint"
	TypeFloat     StandardizedType = "float"
	TypeDouble    StandardizedType = "double"
	TypeDecimal   StandardizedType = "decimal"
	TypeString    StandardizedType = "string"
	TypeText      StandardizedType = "text"
	TypeBoolean   StandardizedType = "boolean"
	TypeDate      StandardizedType = "date"
	TypeTime      StandardizedType = "time"
	TypeDateTime  StandardizedType = "datetime"
	TypeTimestamp StandardizedType = "timestamp"
	TypeBinary    StandardizedType = "binary"
	TypeJSON      StandardizedType = "json"
	TypeUUID      StandardizedType = "uuid"
	TypeArray     StandardizedType = "array"
	TypeUnknown   StandardizedType = "unknown"
)
