package sqlbuild

import (
	"strings"
	"testing"

	"sqldeck/internal/model"
)

func sampleDefinition() *model.TableDefinition {
	return &model.TableDefinition{
		Schema: "public",
		Name:   "orders",
		Columns: []model.ColumnDefinition{
			{Name: "id", DataType: "bigint", IsPrimaryKey: true},
			{Name: "tenant", DataType: "text", IsPrimaryKey: true},
			{Name: "total", DataType: "numeric(10,2)", Nullable: true, Default: "0"},
		},
	}
}

func TestBuildCreateTablePostgres(t *testing.T) {
	def := sampleDefinition()
	def.Comment = "order book"
	def.Columns[2].Comment = "gross total"
	def.Indexes = []model.IndexDefinition{
		{Name: "orders_total_idx", Columns: []string{"total"}, Method: "btree"},
	}

	script, err := BuildCreateTable(def, model.DialectPostgres)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(script, `CREATE TABLE "public"."orders"`) {
		t.Errorf("Missing create statement: %s", script)
	}
	if !strings.Contains(script, `PRIMARY KEY ("id", "tenant")`) {
		t.Errorf("Composite PK not inlined: %s", script)
	}
	if !strings.Contains(script, `COMMENT ON TABLE "public"."orders" IS 'order book'`) {
		t.Errorf("Table comment missing: %s", script)
	}
	if !strings.Contains(script, `COMMENT ON COLUMN "public"."orders"."total" IS 'gross total'`) {
		t.Errorf("Column comment missing: %s", script)
	}
	if !strings.Contains(script, `CREATE INDEX "orders_total_idx" ON "public"."orders" USING btree ("total")`) {
		t.Errorf("Index statement missing: %s", script)
	}
	if !strings.HasSuffix(script, ";") {
		t.Errorf("Script must end with a semicolon: %s", script)
	}
}

func TestBuildCreateTableMySQLInlineComments(t *testing.T) {
	def := sampleDefinition()
	def.Columns[2].Comment = "gross total"

	script, err := BuildCreateTable(def, model.DialectMySQL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(script, "COMMENT 'gross total'") {
		t.Errorf("mysql column comment must be inline: %s", script)
	}
	if strings.Contains(script, "COMMENT ON") {
		t.Errorf("COMMENT ON is postgres-only: %s", script)
	}
}

func TestBuildCreateTableRejectsPKConstraintEntry(t *testing.T) {
	def := sampleDefinition()
	def.Constraints = []model.ConstraintDefinition{
		{Type: "PRIMARY KEY", Columns: []string{"id"}},
	}
	if _, err := BuildCreateTable(def, model.DialectPostgres); err == nil {
		t.Error("Expected PK-as-constraint to be rejected")
	}
}

func TestBuildCreateTableRejectsDuplicateColumns(t *testing.T) {
	def := sampleDefinition()
	def.Columns = append(def.Columns, model.ColumnDefinition{Name: "id", DataType: "int"})
	if _, err := BuildCreateTable(def, model.DialectPostgres); err == nil {
		t.Error("Expected duplicate column to be rejected")
	}
}

func TestBuildAlterTableStatements(t *testing.T) {
	batch := &model.AlterTableBatch{
		Schema: "public",
		Table:  "orders",
		Ops: []model.AlterTableOp{
			{Type: model.AlterAddColumn, Column: &model.ColumnDefinition{Name: "note", DataType: "text", Nullable: true}},
			{Type: model.AlterRenameColumn, ColumnName: "total", NewName: "amount"},
			{Type: model.AlterDropColumn, ColumnName: "tenant"},
		},
	}
	got, err := BuildAlterTable(batch, []string{"id", "tenant", "total"}, model.DialectPostgres)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []string{
		`ALTER TABLE "public"."orders" ADD COLUMN "note" text`,
		`ALTER TABLE "public"."orders" RENAME COLUMN "total" TO "amount"`,
		`ALTER TABLE "public"."orders" DROP COLUMN "tenant"`,
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d statements, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Statement %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestBuildAlterTableCollisionChecks(t *testing.T) {
	batch := &model.AlterTableBatch{
		Table: "orders",
		Ops: []model.AlterTableOp{
			{Type: model.AlterAddColumn, Column: &model.ColumnDefinition{Name: "id", DataType: "int"}},
		},
	}
	if _, err := BuildAlterTable(batch, []string{"id"}, model.DialectPostgres); err == nil {
		t.Error("Expected add of an existing column to be rejected")
	}

	batch.Ops = []model.AlterTableOp{
		{Type: model.AlterRenameColumn, ColumnName: "total", NewName: "id"},
	}
	if _, err := BuildAlterTable(batch, []string{"id", "total"}, model.DialectPostgres); err == nil {
		t.Error("Expected rename onto an existing column to be rejected")
	}

	// collision checks track the batch's own effects: dropping first
	// frees the name for a later rename
	batch.Ops = []model.AlterTableOp{
		{Type: model.AlterDropColumn, ColumnName: "id"},
		{Type: model.AlterRenameColumn, ColumnName: "total", NewName: "id"},
	}
	if _, err := BuildAlterTable(batch, []string{"id", "total"}, model.DialectPostgres); err != nil {
		t.Errorf("Expected drop-then-rename to pass, got %v", err)
	}
}

func TestBuildAlterTableDialectSyntax(t *testing.T) {
	retype := &model.AlterTableBatch{
		Table: "orders",
		Ops: []model.AlterTableOp{
			{Type: model.AlterRetypeColumn, Column: &model.ColumnDefinition{Name: "total", DataType: "bigint"}},
		},
	}

	got, err := BuildAlterTable(retype, []string{"total"}, model.DialectMySQL)
	if err != nil {
		t.Fatalf("mysql: %v", err)
	}
	if !strings.Contains(got[0], "MODIFY COLUMN") {
		t.Errorf("mysql retype must use MODIFY COLUMN: %q", got[0])
	}

	got, err = BuildAlterTable(retype, []string{"total"}, model.DialectPostgres)
	if err != nil {
		t.Fatalf("postgres: %v", err)
	}
	if !strings.Contains(got[0], `ALTER COLUMN "total" TYPE bigint`) {
		t.Errorf("postgres retype syntax wrong: %q", got[0])
	}

	rename := &model.AlterTableBatch{
		Table: "orders",
		Ops: []model.AlterTableOp{
			{Type: model.AlterRenameColumn, ColumnName: "total", NewName: "amount"},
		},
	}
	got, err = BuildAlterTable(rename, []string{"total"}, model.DialectSQLServer)
	if err != nil {
		t.Fatalf("sqlserver: %v", err)
	}
	if !strings.HasPrefix(got[0], "EXEC sp_rename") {
		t.Errorf("sqlserver rename must use sp_rename: %q", got[0])
	}
}

func TestBuildAlterTableSPRenameQualifiedAndEscaped(t *testing.T) {
	rename := &model.AlterTableBatch{
		Schema: "sales",
		Table:  "orders",
		Ops: []model.AlterTableOp{
			{Type: model.AlterRenameColumn, ColumnName: "total", NewName: "gross'amount"},
		},
	}
	got, err := BuildAlterTable(rename, []string{"total"}, model.DialectSQLServer)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := `EXEC sp_rename '[sales].[orders].[total]', 'gross''amount', 'COLUMN'`
	if got[0] != want {
		t.Errorf("Expected %q, got %q", want, got[0])
	}
}

func TestBuildDropTable(t *testing.T) {
	got, err := BuildDropTable("public", "orders", true, model.DialectPostgres)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != `DROP TABLE "public"."orders" CASCADE` {
		t.Errorf("postgres cascade drop wrong: %q", got)
	}

	got, err = BuildDropTable("", "orders", true, model.DialectMySQL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "DROP TABLE `orders`" {
		t.Errorf("cascade must be postgres-only: %q", got)
	}
}

func TestCreateIndexValidation(t *testing.T) {
	def := sampleDefinition()
	def.Indexes = []model.IndexDefinition{{Name: "bad_idx"}}
	if _, err := BuildCreateTable(def, model.DialectPostgres); err == nil {
		t.Error("Expected index without columns or expression to be rejected")
	}

	def.Indexes = []model.IndexDefinition{
		{Name: "expr_idx", Expression: "lower(tenant)", Unique: true},
	}
	script, err := BuildCreateTable(def, model.DialectPostgres)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(script, `CREATE UNIQUE INDEX "expr_idx" ON "public"."orders" (lower(tenant))`) {
		t.Errorf("Expression index statement wrong: %s", script)
	}
}
