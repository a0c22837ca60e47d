package sqlbuild

import (
	"fmt"
	"sort"
	"strings"

	"sqldeck/internal/model"
)

// ValidationError marks a structural rejection detected before any SQL was
// generated, distinguishable from runtime database errors.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is a pre-generation rejection
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// ValidateOperation checks one edit operation against its context before
// SQL generation. Update and delete on a table with zero primary-key
// columns are always rejected: there is no safe WHERE filter to build.
func ValidateOperation(op *model.EditOperation, ectx *model.EditContext) error {
	if ectx.Table == "" {
		return &ValidationError{Message: "edit context has no table"}
	}

	switch op.Type {
	case model.EditInsert:
		if len(op.Values) == 0 {
			return &ValidationError{Message: "insert has no column values"}
		}
		return nil

	case model.EditUpdate, model.EditDelete:
		if len(ectx.PrimaryKeyColumns) == 0 {
			return &ValidationError{Message: fmt.Sprintf("table %s has no primary key; refusing unsafe %s", ectx.Table, op.Type)}
		}
		if op.Type == model.EditUpdate && len(op.Values) == 0 {
			return &ValidationError{Message: "update has no changed columns"}
		}
		// every PK column must be present exactly once
		seen := make(map[string]bool, len(op.PrimaryKeys))
		for _, pk := range op.PrimaryKeys {
			if seen[pk.Column] {
				return &ValidationError{Message: fmt.Sprintf("duplicate primary key value for column %s", pk.Column)}
			}
			seen[pk.Column] = true
		}
		for _, col := range ectx.PrimaryKeyColumns {
			if !seen[col] {
				return &ValidationError{Message: fmt.Sprintf("missing primary key value for column %s", col)}
			}
		}
		if len(op.PrimaryKeys) != len(ectx.PrimaryKeyColumns) {
			return &ValidationError{Message: "primary key values do not match the key column set"}
		}
		return nil

	default:
		return &ValidationError{Message: fmt.Sprintf("unknown edit operation type %q", op.Type)}
	}
}

// BuildEditSQL turns one validated operation into parameterized SQL plus a
// display-only preview with literals inlined
func BuildEditSQL(op *model.EditOperation, ectx *model.EditContext) (*model.EditStatement, error) {
	if err := ValidateOperation(op, ectx); err != nil {
		return nil, err
	}

	switch op.Type {
	case model.EditInsert:
		return buildInsert(op, ectx), nil
	case model.EditUpdate:
		return buildUpdate(op, ectx), nil
	default:
		return buildDelete(op, ectx), nil
	}
}

func buildInsert(op *model.EditOperation, ectx *model.EditContext) *model.EditStatement {
	d := ectx.Dialect
	table := QualifiedName(ectx.Schema, ectx.Table, d)
	cols := orderedColumns(op.Values, ectx)

	var quoted, markers, literals []string
	var params []interface{}
	for i, col := range cols {
		quoted = append(quoted, QuoteIdent(col, d))
		markers = append(markers, Placeholder(i+1, d))
		literals = append(literals, QuoteLiteral(op.Values[col], d))
		params = append(params, op.Values[col])
	}

	return &model.EditStatement{
		SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(quoted, ", "), strings.Join(markers, ", ")),
		Params: params,
		Preview: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(quoted, ", "), strings.Join(literals, ", ")),
	}
}

func buildUpdate(op *model.EditOperation, ectx *model.EditContext) *model.EditStatement {
	d := ectx.Dialect
	table := QualifiedName(ectx.Schema, ectx.Table, d)
	cols := orderedColumns(op.Values, ectx)

	var sets, setsPreview []string
	var params []interface{}
	n := 0
	for _, col := range cols {
		n++
		sets = append(sets, fmt.Sprintf("%s = %s", QuoteIdent(col, d), Placeholder(n, d)))
		setsPreview = append(setsPreview, fmt.Sprintf("%s = %s", QuoteIdent(col, d), QuoteLiteral(op.Values[col], d)))
		params = append(params, op.Values[col])
	}

	where, wherePreview, params := buildPrimaryKeyFilter(op, ectx, n, params)

	return &model.EditStatement{
		SQL:     fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), where),
		Params:  params,
		Preview: fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(setsPreview, ", "), wherePreview),
	}
}

func buildDelete(op *model.EditOperation, ectx *model.EditContext) *model.EditStatement {
	d := ectx.Dialect
	table := QualifiedName(ectx.Schema, ectx.Table, d)

	where, wherePreview, params := buildPrimaryKeyFilter(op, ectx, 0, nil)

	return &model.EditStatement{
		SQL:     fmt.Sprintf("DELETE FROM %s WHERE %s", table, where),
		Params:  params,
		Preview: fmt.Sprintf("DELETE FROM %s WHERE %s", table, wherePreview),
	}
}

// buildPrimaryKeyFilter emits the WHERE clause over the FULL primary-key
// column set, filtering by the original row values only
func buildPrimaryKeyFilter(op *model.EditOperation, ectx *model.EditContext, offset int, params []interface{}) (string, string, []interface{}) {
	d := ectx.Dialect
	byColumn := make(map[string]interface{}, len(op.PrimaryKeys))
	for _, pk := range op.PrimaryKeys {
		byColumn[pk.Column] = pk.Value
	}

	var conds, condsPreview []string
	n := offset
	for _, col := range ectx.PrimaryKeyColumns {
		value := byColumn[col]
		n++
		if value == nil {
			conds = append(conds, fmt.Sprintf("%s IS NULL", QuoteIdent(col, d)))
			condsPreview = append(condsPreview, fmt.Sprintf("%s IS NULL", QuoteIdent(col, d)))
			n--
			continue
		}
		conds = append(conds, fmt.Sprintf("%s = %s", QuoteIdent(col, d), Placeholder(n, d)))
		condsPreview = append(condsPreview, fmt.Sprintf("%s = %s", QuoteIdent(col, d), QuoteLiteral(value, d)))
		params = append(params, value)
	}
	return strings.Join(conds, " AND "), strings.Join(condsPreview, " AND "), params
}

// orderedColumns returns the operation's value columns in table metadata
// order so generated SQL is deterministic; columns the context does not
// know about sort alphabetically at the end
func orderedColumns(values map[string]interface{}, ectx *model.EditContext) []string {
	known := make([]string, 0, len(values))
	for _, col := range ectx.Columns {
		if _, ok := values[col.Name]; ok {
			known = append(known, col.Name)
		}
	}
	seen := make(map[string]bool, len(known))
	for _, col := range known {
		seen[col] = true
	}
	var unknown []string
	for col := range values {
		if !seen[col] {
			unknown = append(unknown, col)
		}
	}
	sort.Strings(unknown)
	return append(known, unknown...)
}
