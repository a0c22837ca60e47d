package sqlbuild

import (
	"strings"
	"testing"

	"sqldeck/internal/model"
)

func editContext(dialect model.Dialect, pkCols ...string) *model.EditContext {
	return &model.EditContext{
		Dialect:           dialect,
		Schema:            "public",
		Table:             "users",
		PrimaryKeyColumns: pkCols,
		Columns: []model.ColumnInfo{
			{Name: "id"},
			{Name: "tenant"},
			{Name: "name"},
			{Name: "email"},
		},
	}
}

func TestValidateRefusesUpdateWithoutPrimaryKey(t *testing.T) {
	op := &model.EditOperation{
		Type:   model.EditUpdate,
		Values: map[string]interface{}{"name": "x"},
	}
	err := ValidateOperation(op, editContext(model.DialectPostgres))
	if err == nil {
		t.Fatal("Expected update on keyless table to be rejected")
	}
	if !IsValidationError(err) {
		t.Errorf("Expected a validation error, got %T", err)
	}
	if !strings.Contains(err.Error(), "no primary key") {
		t.Errorf("Expected refusal message to name the cause, got %q", err.Error())
	}
}

func TestValidateRefusesDeleteWithoutPrimaryKey(t *testing.T) {
	op := &model.EditOperation{Type: model.EditDelete}
	if err := ValidateOperation(op, editContext(model.DialectPostgres)); err == nil {
		t.Fatal("Expected delete on keyless table to be rejected")
	}
}

func TestValidateRequiresFullKeyCoverage(t *testing.T) {
	ctx := editContext(model.DialectPostgres, "id", "tenant")
	op := &model.EditOperation{
		Type:        model.EditDelete,
		PrimaryKeys: []model.PrimaryKeyValue{{Column: "id", Value: 1}},
	}
	err := ValidateOperation(op, ctx)
	if err == nil || !strings.Contains(err.Error(), "tenant") {
		t.Errorf("Expected missing key column tenant to be reported, got %v", err)
	}

	op.PrimaryKeys = []model.PrimaryKeyValue{
		{Column: "id", Value: 1},
		{Column: "id", Value: 2},
	}
	err = ValidateOperation(op, ctx)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Expected duplicate key value to be rejected, got %v", err)
	}
}

func TestValidateRejectsEmptyInsert(t *testing.T) {
	op := &model.EditOperation{Type: model.EditInsert}
	if err := ValidateOperation(op, editContext(model.DialectPostgres, "id")); err == nil {
		t.Error("Expected insert without values to be rejected")
	}
}

func TestBuildInsertPostgres(t *testing.T) {
	op := &model.EditOperation{
		Type: model.EditInsert,
		Values: map[string]interface{}{
			"email": "a@b.c",
			"name":  "Ada",
		},
	}
	stmt, err := BuildEditSQL(op, editContext(model.DialectPostgres, "id"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// columns follow table metadata order: name before email
	want := `INSERT INTO "public"."users" ("name", "email") VALUES ($1, $2)`
	if stmt.SQL != want {
		t.Errorf("Expected %q, got %q", want, stmt.SQL)
	}
	if len(stmt.Params) != 2 || stmt.Params[0] != "Ada" {
		t.Errorf("Params out of order: %v", stmt.Params)
	}
	if !strings.Contains(stmt.Preview, "'Ada'") {
		t.Errorf("Expected preview with inlined literal, got %q", stmt.Preview)
	}
}

func TestBuildUpdateMySQL(t *testing.T) {
	op := &model.EditOperation{
		Type:        model.EditUpdate,
		PrimaryKeys: []model.PrimaryKeyValue{{Column: "id", Value: 7}},
		Values:      map[string]interface{}{"name": "Bob"},
	}
	stmt, err := BuildEditSQL(op, editContext(model.DialectMySQL, "id"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := "UPDATE `public`.`users` SET `name` = ? WHERE `id` = ?"
	if stmt.SQL != want {
		t.Errorf("Expected %q, got %q", want, stmt.SQL)
	}
	if len(stmt.Params) != 2 || stmt.Params[1] != 7 {
		t.Errorf("Expected set value then key value, got %v", stmt.Params)
	}
}

func TestBuildDeleteSQLServer(t *testing.T) {
	op := &model.EditOperation{
		Type:        model.EditDelete,
		PrimaryKeys: []model.PrimaryKeyValue{{Column: "id", Value: 3}},
	}
	stmt, err := BuildEditSQL(op, editContext(model.DialectSQLServer, "id"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := "DELETE FROM [public].[users] WHERE [id] = @p1"
	if stmt.SQL != want {
		t.Errorf("Expected %q, got %q", want, stmt.SQL)
	}
}

func TestBuildFilterNullKeyValueUsesIsNull(t *testing.T) {
	op := &model.EditOperation{
		Type: model.EditDelete,
		PrimaryKeys: []model.PrimaryKeyValue{
			{Column: "id", Value: 1},
			{Column: "tenant", Value: nil},
		},
	}
	stmt, err := BuildEditSQL(op, editContext(model.DialectPostgres, "id", "tenant"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stmt.SQL, `"tenant" IS NULL`) {
		t.Errorf("Expected IS NULL comparison, got %q", stmt.SQL)
	}
	if len(stmt.Params) != 1 {
		t.Errorf("NULL key must not bind a parameter, got %v", stmt.Params)
	}
}

func TestBuildCompositeKeyFiltersAllColumns(t *testing.T) {
	op := &model.EditOperation{
		Type:        model.EditUpdate,
		PrimaryKeys: []model.PrimaryKeyValue{{Column: "tenant", Value: "t1"}, {Column: "id", Value: 1}},
		Values:      map[string]interface{}{"name": "x"},
	}
	stmt, err := BuildEditSQL(op, editContext(model.DialectPostgres, "id", "tenant"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stmt.SQL, `"id" = $2 AND "tenant" = $3`) {
		t.Errorf("Expected filter over the full key set in context order, got %q", stmt.SQL)
	}
}

func TestQuoteIdentEscaping(t *testing.T) {
	if got := QuoteIdent(`we"ird`, model.DialectPostgres); got != `"we""ird"` {
		t.Errorf("postgres: got %q", got)
	}
	if got := QuoteIdent("back`tick", model.DialectMySQL); got != "`back``tick`" {
		t.Errorf("mysql: got %q", got)
	}
	if got := QuoteIdent("brack]et", model.DialectSQLServer); got != "[brack]]et]" {
		t.Errorf("sqlserver: got %q", got)
	}
}

func TestQuoteLiteral(t *testing.T) {
	if got := QuoteLiteral(nil, model.DialectPostgres); got != "NULL" {
		t.Errorf("nil: got %q", got)
	}
	if got := QuoteLiteral(true, model.DialectSQLServer); got != "1" {
		t.Errorf("sqlserver bool: got %q", got)
	}
	if got := QuoteLiteral(true, model.DialectPostgres); got != "TRUE" {
		t.Errorf("postgres bool: got %q", got)
	}
	if got := QuoteLiteral("o'brien", model.DialectMySQL); got != "'o''brien'" {
		t.Errorf("string escape: got %q", got)
	}
	if got := QuoteLiteral([]byte{0xde, 0xad}, model.DialectPostgres); got != `'\xdead'` {
		t.Errorf("postgres bytes: got %q", got)
	}
	if got := QuoteLiteral([]byte{0xde, 0xad}, model.DialectMySQL); got != "0xdead" {
		t.Errorf("mysql bytes: got %q", got)
	}
}
