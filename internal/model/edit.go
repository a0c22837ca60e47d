package model

// EditOpType discriminates row edit operations
type EditOpType string

const (
	EditInsert EditOpType = "insert"
	EditUpdate EditOpType = "update"
	EditDelete EditOpType = "delete"
)

// PrimaryKeyValue identifies part of the target row for update/delete.
// Values are always the ORIGINAL row values, never the edited ones.
type PrimaryKeyValue struct {
	Column string      `json:"column"`
	Value  interface{} `json:"value"`
}

// EditOperation is one insert/update/delete built from a diff against an
// original row snapshot. Consumed once inside a single transaction.
type EditOperation struct {
	Type        EditOpType             `json:"type" validate:"required,oneof=insert update delete"`
	PrimaryKeys []PrimaryKeyValue      `json:"primaryKeys,omitempty"`
	Values      map[string]interface{} `json:"values,omitempty"` // changed columns for insert/update
}

// EditContext scopes a batch to one table and carries the column metadata
// the builders need
type EditContext struct {
	Dialect          Dialect      `json:"dialect"`
	Schema           string       `json:"schema"`
	Table            string       `json:"table" validate:"required"`
	PrimaryKeyColumns []string    `json:"primaryKeyColumns"`
	Columns          []ColumnInfo `json:"columns"`
}

// EditBatch is an ordered set of operations against one (schema, table)
type EditBatch struct {
	Context    EditContext     `json:"context"`
	Operations []EditOperation `json:"operations" validate:"required,min=1,dive"`
}

// EditStatement is the built form of one valid operation
type EditStatement struct {
	SQL     string        `json:"sql"`
	Params  []interface{} `json:"params"`
	Preview string        `json:"preview"` // literals inlined, display only, never executed
}

// EditValidationError records why one operation was rejected before any
// SQL was generated for it
type EditValidationError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// EditBatchResult reports a transactional batch application. Invalid
// operations are accumulated; valid ones run only if at least one exists.
type EditBatchResult struct {
	Applied          int                   `json:"applied"`
	RowsAffected     int64                 `json:"rowsAffected"`
	ValidationErrors []EditValidationError `json:"validationErrors,omitempty"`
}
