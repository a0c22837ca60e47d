package model

// TableDefinition is a dialect-neutral structural description of a table.
// It is produced by GetTableDDL and consumed by the DDL builders.
// Primary keys live on the columns; they are never duplicated as a
// separate ConstraintDefinition entry.
type TableDefinition struct {
	Schema      string                 `json:"schema"`
	Name        string                 `json:"name" validate:"required"`
	Comment     string                 `json:"comment,omitempty"`
	Columns     []ColumnDefinition     `json:"columns" validate:"required,min=1,dive"`
	Constraints []ConstraintDefinition `json:"constraints,omitempty"`
	Indexes     []IndexDefinition      `json:"indexes,omitempty"`
}

// ColumnDefinition describes one column for DDL generation
type ColumnDefinition struct {
	Name         string `json:"name" validate:"required"`
	DataType     string `json:"dataType" validate:"required"`
	Nullable     bool   `json:"nullable"`
	IsPrimaryKey bool   `json:"isPrimaryKey"`
	Default      string `json:"default,omitempty"`
	Comment      string `json:"comment,omitempty"`
}

// ConstraintDefinition describes a non-PK table constraint
type ConstraintDefinition struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"` // UNIQUE, FOREIGN KEY, CHECK
	Columns    []string `json:"columns,omitempty"`
	Definition string   `json:"definition,omitempty"` // raw clause, e.g. CHECK (price > 0)
}

// IndexDefinition describes one index. A non-empty Expression means the
// index is built over an expression rather than a plain column list.
type IndexDefinition struct {
	Name       string   `json:"name"`
	Columns    []string `json:"columns,omitempty"`
	Expression string   `json:"expression,omitempty"`
	Unique     bool     `json:"unique"`
	Method     string   `json:"method,omitempty"` // btree, hash, gin...
}

// PrimaryKeyColumns returns the names of the PK columns in order
func (t *TableDefinition) PrimaryKeyColumns() []string {
	var cols []string
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// AlterTableOpType discriminates AlterTableOp variants
type AlterTableOpType string

const (
	AlterAddColumn      AlterTableOpType = "add_column"
	AlterDropColumn     AlterTableOpType = "drop_column"
	AlterRenameColumn   AlterTableOpType = "rename_column"
	AlterRetypeColumn   AlterTableOpType = "retype_column"
	AlterSetNullable    AlterTableOpType = "set_nullable"
	AlterSetDefault     AlterTableOpType = "set_default"
	AlterAddConstraint  AlterTableOpType = "add_constraint"
	AlterDropConstraint AlterTableOpType = "drop_constraint"
	AlterAddIndex       AlterTableOpType = "add_index"
	AlterDropIndex      AlterTableOpType = "drop_index"
)

// AlterTableOp is one discrete change. Each op emits its own ALTER
// statement because multi-change ALTER semantics differ across dialects.
type AlterTableOp struct {
	Type       AlterTableOpType      `json:"type" validate:"required"`
	Column     *ColumnDefinition     `json:"column,omitempty"`     // add_column, retype_column, set_* target
	ColumnName string                `json:"columnName,omitempty"` // drop/rename/retype source
	NewName    string                `json:"newName,omitempty"`    // rename_column
	Constraint *ConstraintDefinition `json:"constraint,omitempty"`
	Index      *IndexDefinition      `json:"index,omitempty"`
	IndexName  string                `json:"indexName,omitempty"` // drop_index
}

// AlterTableBatch is an ordered list of changes against one table
type AlterTableBatch struct {
	Schema string         `json:"schema"`
	Table  string         `json:"table" validate:"required"`
	Ops    []AlterTableOp `json:"ops" validate:"required,min=1,dive"`
}
