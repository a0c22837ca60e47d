// Package adapters executes SQL against heterogeneous database engines
// behind one shared contract, with per-dialect query text internally.
package adapters

import (
	"context"
	"database/sql"

	"sqldeck/internal/model"
)

// catalogQueries is the introspection query set for one dialect. Each query
// selects a fixed column layout so the folding code in introspect.go is
// shared across dialects. An empty string means the dialect has no notion
// of that entity and the pass is skipped.
type catalogQueries struct {
	// schema_name
	Schemas string
	// table_schema, table_name, table_type, comment (nullable)
	Tables string
	// table_schema, table_name, column_name, data_type, enum_ref (nullable),
	// is_nullable ('YES'/'NO'), column_default (nullable), ordinal_position,
	// is_primary_key (0/1)
	Columns string
	// table_schema, table_name, column_name, constraint_name,
	// referenced_schema, referenced_table, referenced_column
	ForeignKeys string
	// type_schema, type_name, kind ('ENUM'/'DOMAIN'), base_type (nullable),
	// enum_value (nullable), one row per enum value
	CustomTypes string
	// routine_schema, routine_name, specific_name, kind, return_type
	// (nullable), language (nullable)
	Routines string
	// specific_schema, specific_name, parameter_name (nullable), data_type,
	// mode, ordinal_position
	RoutineParams string
	// sequence_schema, sequence_name, data_type, start_value, min_value,
	// max_value, increment, cycles (0/1)
	Sequences string
}

// tableCatalogQueries reverse-engineers one table. All three take
// (schema, table) as their two query parameters.
type tableCatalogQueries struct {
	// column_name, data_type, is_nullable ('YES'/'NO'), column_default
	// (nullable), is_primary_key (0/1), comment (nullable)
	Columns string
	// constraint_name, constraint_type, column_name (nullable), definition
	// (nullable)
	Constraints string
	// index_name, is_unique (0/1), method (nullable), column_list (csv,
	// nullable), definition (nullable)
	Indexes string
}

// dialect is the closed per-engine variation point behind the shared
// Adapter. Every supported dialect implements all of it; the factory in
// adapter.go is the only place that constructs one.
type dialect interface {
	Name() model.Dialect
	DriverName() string
	BuildDSN(cfg *model.ConnectionConfig, host string, port int) string

	// StatementTimeoutSQL returns the session statement the engine-side
	// timeout is set with, or "" when the engine has no such mechanism
	StatementTimeoutSQL(timeoutMs int) string

	// Explain captures the engine's plan output for one statement.
	// analyze additionally runs the statement for actual statistics.
	Explain(ctx context.Context, db *sql.DB, sqlText string, analyze bool) (string, error)

	Catalog() catalogQueries
	TableCatalog() tableCatalogQueries

	// EnumValuesFromRef resolves a column's enum_ref when the enum values
	// are not found among the introspected custom types (MySQL encodes
	// them in the raw column type instead). Returns nil when enum_ref
	// carries no inline values.
	EnumValuesFromRef(ref string) []string
}
