package sqlbuild

import (
	"fmt"
	"strings"

	"sqldeck/internal/model"
)

// BuildCreateTable emits a semicolon-joined script: the CREATE TABLE
// statement (columns, inline PK), separate COMMENT statements where the
// dialect needs them, and one CREATE INDEX per index.
func BuildCreateTable(def *model.TableDefinition, dialect model.Dialect) (string, error) {
	if err := validateTableDefinition(def); err != nil {
		return "", err
	}
	d := dialect.Family()
	table := QualifiedName(def.Schema, def.Name, dialect)

	var lines []string
	for _, col := range def.Columns {
		lines = append(lines, "  "+columnClause(&col, dialect))
	}
	if pk := def.PrimaryKeyColumns(); len(pk) > 0 {
		quoted := make([]string, len(pk))
		for i, col := range pk {
			quoted[i] = QuoteIdent(col, dialect)
		}
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}
	for _, con := range def.Constraints {
		lines = append(lines, "  "+constraintClause(&con, dialect))
	}

	var statements []string
	statements = append(statements, fmt.Sprintf("CREATE TABLE %s (\n%s\n)", table, strings.Join(lines, ",\n")))

	// postgres attaches comments with separate statements; mysql inlines
	// them in columnClause; sqlserver has no portable comment syntax
	if d == model.DialectPostgres {
		if def.Comment != "" {
			statements = append(statements, fmt.Sprintf("COMMENT ON TABLE %s IS %s", table, QuoteLiteral(def.Comment, dialect)))
		}
		for _, col := range def.Columns {
			if col.Comment != "" {
				statements = append(statements, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s",
					table, QuoteIdent(col.Name, dialect), QuoteLiteral(col.Comment, dialect)))
			}
		}
	}

	for _, idx := range def.Indexes {
		stmt, err := createIndexStatement(def.Schema, def.Name, &idx, dialect)
		if err != nil {
			return "", err
		}
		statements = append(statements, stmt)
	}

	return strings.Join(statements, ";\n") + ";", nil
}

// BuildAlterTable emits one ALTER (or index) statement per discrete change.
// existingColumns lists the table's current column names for collision
// checks on renames and adds.
func BuildAlterTable(batch *model.AlterTableBatch, existingColumns []string, dialect model.Dialect) ([]string, error) {
	if batch.Table == "" {
		return nil, &ValidationError{Message: "alter batch has no table"}
	}
	if len(batch.Ops) == 0 {
		return nil, &ValidationError{Message: "alter batch has no operations"}
	}

	names := make(map[string]bool, len(existingColumns))
	for _, col := range existingColumns {
		names[col] = true
	}

	table := QualifiedName(batch.Schema, batch.Table, dialect)
	family := dialect.Family()

	var statements []string
	for i, op := range batch.Ops {
		stmt, err := alterStatement(batch, &op, table, names, family, dialect)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("operation %d: %v", i+1, err)}
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

func alterStatement(batch *model.AlterTableBatch, op *model.AlterTableOp, table string, names map[string]bool, family, dialect model.Dialect) (string, error) {
	switch op.Type {
	case model.AlterAddColumn:
		if op.Column == nil {
			return "", fmt.Errorf("add_column requires a column definition")
		}
		if names[op.Column.Name] {
			return "", fmt.Errorf("column %s already exists", op.Column.Name)
		}
		names[op.Column.Name] = true
		if family == model.DialectSQLServer {
			return fmt.Sprintf("ALTER TABLE %s ADD %s", table, columnClause(op.Column, dialect)), nil
		}
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, columnClause(op.Column, dialect)), nil

	case model.AlterDropColumn:
		if op.ColumnName == "" {
			return "", fmt.Errorf("drop_column requires a column name")
		}
		delete(names, op.ColumnName)
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, QuoteIdent(op.ColumnName, dialect)), nil

	case model.AlterRenameColumn:
		if op.ColumnName == "" || op.NewName == "" {
			return "", fmt.Errorf("rename_column requires both names")
		}
		if names[op.NewName] {
			return "", fmt.Errorf("rename target %s collides with an existing column", op.NewName)
		}
		delete(names, op.ColumnName)
		names[op.NewName] = true
		if family == model.DialectSQLServer {
			// sp_rename takes the object as a string literal: it must be
			// schema-qualified or a non-dbo table is missed
			object := fmt.Sprintf("%s.%s", table, QuoteIdent(op.ColumnName, dialect))
			return fmt.Sprintf("EXEC sp_rename '%s', '%s', 'COLUMN'",
				strings.ReplaceAll(object, "'", "''"),
				strings.ReplaceAll(op.NewName, "'", "''")), nil
		}
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			table, QuoteIdent(op.ColumnName, dialect), QuoteIdent(op.NewName, dialect)), nil

	case model.AlterRetypeColumn:
		if op.Column == nil {
			return "", fmt.Errorf("retype_column requires a column definition")
		}
		switch family {
		case model.DialectMySQL:
			return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", table, columnClause(op.Column, dialect)), nil
		case model.DialectSQLServer:
			return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s", table, columnClause(op.Column, dialect)), nil
		default:
			return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s",
				table, QuoteIdent(op.Column.Name, dialect), op.Column.DataType), nil
		}

	case model.AlterSetNullable:
		if op.Column == nil {
			return "", fmt.Errorf("set_nullable requires a column definition")
		}
		switch family {
		case model.DialectPostgres:
			verb := "SET NOT NULL"
			if op.Column.Nullable {
				verb = "DROP NOT NULL"
			}
			return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s", table, QuoteIdent(op.Column.Name, dialect), verb), nil
		case model.DialectMySQL:
			return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", table, columnClause(op.Column, dialect)), nil
		default:
			return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s", table, columnClause(op.Column, dialect)), nil
		}

	case model.AlterSetDefault:
		if op.Column == nil {
			return "", fmt.Errorf("set_default requires a column definition")
		}
		col := QuoteIdent(op.Column.Name, dialect)
		if op.Column.Default == "" {
			return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", table, col), nil
		}
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", table, col, op.Column.Default), nil

	case model.AlterAddConstraint:
		if op.Constraint == nil {
			return "", fmt.Errorf("add_constraint requires a constraint definition")
		}
		return fmt.Sprintf("ALTER TABLE %s ADD %s", table, constraintClause(op.Constraint, dialect)), nil

	case model.AlterDropConstraint:
		if op.Constraint == nil || op.Constraint.Name == "" {
			return "", fmt.Errorf("drop_constraint requires a constraint name")
		}
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", table, QuoteIdent(op.Constraint.Name, dialect)), nil

	case model.AlterAddIndex:
		if op.Index == nil {
			return "", fmt.Errorf("add_index requires an index definition")
		}
		return createIndexStatement(batch.Schema, batch.Table, op.Index, dialect)

	case model.AlterDropIndex:
		if op.IndexName == "" {
			return "", fmt.Errorf("drop_index requires an index name")
		}
		switch family {
		case model.DialectPostgres:
			return fmt.Sprintf("DROP INDEX %s", QualifiedName(batch.Schema, op.IndexName, dialect)), nil
		default:
			return fmt.Sprintf("DROP INDEX %s ON %s", QuoteIdent(op.IndexName, dialect), table), nil
		}

	default:
		return "", fmt.Errorf("unknown alter operation type %q", op.Type)
	}
}

// BuildDropTable emits a DROP TABLE statement, with CASCADE where the
// dialect honors it
func BuildDropTable(schema, table string, cascade bool, dialect model.Dialect) (string, error) {
	if table == "" {
		return "", &ValidationError{Message: "drop requires a table name"}
	}
	stmt := "DROP TABLE " + QualifiedName(schema, table, dialect)
	if cascade && dialect.Family() == model.DialectPostgres {
		stmt += " CASCADE"
	}
	return stmt, nil
}

func validateTableDefinition(def *model.TableDefinition) error {
	if def.Name == "" {
		return &ValidationError{Message: "table definition has no name"}
	}
	if len(def.Columns) == 0 {
		return &ValidationError{Message: fmt.Sprintf("table %s has no columns", def.Name)}
	}
	seen := make(map[string]bool, len(def.Columns))
	for _, col := range def.Columns {
		if col.Name == "" {
			return &ValidationError{Message: "column with empty name"}
		}
		if col.DataType == "" {
			return &ValidationError{Message: fmt.Sprintf("column %s has no data type", col.Name)}
		}
		if seen[col.Name] {
			return &ValidationError{Message: fmt.Sprintf("duplicate column %s", col.Name)}
		}
		seen[col.Name] = true
	}
	// the PK lives on the columns; a duplicate constraint entry is a defect
	for _, con := range def.Constraints {
		if strings.EqualFold(con.Type, "PRIMARY KEY") {
			return &ValidationError{Message: "primary key must be declared on columns, not as a constraint"}
		}
	}
	return nil
}

func columnClause(col *model.ColumnDefinition, dialect model.Dialect) string {
	clause := QuoteIdent(col.Name, dialect) + " " + col.DataType
	if !col.Nullable {
		clause += " NOT NULL"
	} else if dialect.Family() == model.DialectSQLServer {
		clause += " NULL"
	}
	if col.Default != "" {
		clause += " DEFAULT " + col.Default
	}
	if col.Comment != "" && dialect.Family() == model.DialectMySQL {
		clause += " COMMENT " + QuoteLiteral(col.Comment, dialect)
	}
	return clause
}

func constraintClause(con *model.ConstraintDefinition, dialect model.Dialect) string {
	var clause string
	if con.Name != "" {
		clause = "CONSTRAINT " + QuoteIdent(con.Name, dialect) + " "
	}
	if con.Definition != "" {
		return clause + con.Definition
	}
	quoted := make([]string, len(con.Columns))
	for i, col := range con.Columns {
		quoted[i] = QuoteIdent(col, dialect)
	}
	return clause + fmt.Sprintf("%s (%s)", strings.ToUpper(con.Type), strings.Join(quoted, ", "))
}

func createIndexStatement(schema, table string, idx *model.IndexDefinition, dialect model.Dialect) (string, error) {
	if len(idx.Columns) == 0 && idx.Expression == "" {
		return "", &ValidationError{Message: fmt.Sprintf("index %s has neither columns nor an expression", idx.Name)}
	}
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	target := idx.Expression
	if target == "" {
		quoted := make([]string, len(idx.Columns))
		for i, col := range idx.Columns {
			quoted[i] = QuoteIdent(col, dialect)
		}
		target = strings.Join(quoted, ", ")
	}
	using := ""
	if idx.Method != "" && dialect.Family() == model.DialectPostgres {
		using = " USING " + idx.Method
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s%s (%s)",
		unique, QuoteIdent(idx.Name, dialect), QualifiedName(schema, table, dialect), using, target), nil
}
