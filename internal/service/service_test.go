package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"sqldeck/internal/config"
	"sqldeck/internal/engine"
	"sqldeck/internal/engine/adapters"
	"sqldeck/internal/model"
	"sqldeck/internal/utils"
)

// fakeAdapter records every call the services make so the orchestration can
// be checked without a database
type fakeAdapter struct {
	dialect model.Dialect

	connectErr  error
	queryErr    error
	txErr       error
	tableDDLErr error

	queryScripts   []string
	execStatements []string
	txBatches      [][]model.TransactionStatement
	lastOpts       *model.QueryOptions
	tableDDL       *model.TableDefinition
}

func (f *fakeAdapter) Dialect() model.Dialect { return f.dialect }

func (f *fakeAdapter) Connect(ctx context.Context, cfg *model.ConnectionConfig) error {
	return f.connectErr
}

func (f *fakeAdapter) Query(ctx context.Context, cfg *model.ConnectionConfig, sqlText string) (*model.QueryResult, error) {
	return &model.QueryResult{}, nil
}

func (f *fakeAdapter) QueryMultiple(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, opts *model.QueryOptions) (*model.MultiQueryResult, error) {
	f.queryScripts = append(f.queryScripts, sqlText)
	f.lastOpts = opts
	return &model.MultiQueryResult{}, f.queryErr
}

func (f *fakeAdapter) Execute(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, params []interface{}) (*model.ExecResult, error) {
	f.execStatements = append(f.execStatements, sqlText)
	return &model.ExecResult{}, nil
}

func (f *fakeAdapter) ExecuteTransaction(ctx context.Context, cfg *model.ConnectionConfig, statements []model.TransactionStatement) (*model.TransactionResult, error) {
	f.txBatches = append(f.txBatches, statements)
	if f.txErr != nil {
		return nil, f.txErr
	}
	return &model.TransactionResult{}, nil
}

func (f *fakeAdapter) Explain(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, analyze bool) (*model.ExplainResult, error) {
	return &model.ExplainResult{}, nil
}

func (f *fakeAdapter) GetSchemas(ctx context.Context, cfg *model.ConnectionConfig) ([]model.SchemaInfo, error) {
	return nil, nil
}

func (f *fakeAdapter) GetTableDDL(ctx context.Context, cfg *model.ConnectionConfig, schema, table string) (*model.TableDefinition, error) {
	if f.tableDDLErr != nil {
		return nil, f.tableDDLErr
	}
	return f.tableDDL, nil
}

func (f *fakeAdapter) GetSequences(ctx context.Context, cfg *model.ConnectionConfig) ([]model.SequenceInfo, error) {
	return nil, nil
}

func (f *fakeAdapter) GetTypes(ctx context.Context, cfg *model.ConnectionConfig) ([]model.CustomTypeInfo, error) {
	return nil, nil
}

func newTestQueryService(fa *fakeAdapter, defaults config.QueryConfig) (*queryService, *engine.Engine) {
	eng := engine.New()
	qs := NewQueryService(eng, defaults).(*queryService)
	qs.newAdapter = func(d model.Dialect) (adapters.Adapter, error) {
		fa.dialect = d
		return fa, nil
	}
	return qs, eng
}

func serviceConfig() *model.ConnectionConfig {
	return &model.ConnectionConfig{
		Dialect:  model.DialectPostgres,
		Host:     "localhost",
		Database: "testdb",
		Username: "tester",
	}
}

func TestCreateTableRunsInOneTransaction(t *testing.T) {
	fa := &fakeAdapter{}
	qs, eng := newTestQueryService(fa, config.QueryConfig{})
	cfg := serviceConfig()
	eng.SchemaCache().Set(cfg.Fingerprint(), []model.SchemaInfo{{Name: "public"}})

	def := &model.TableDefinition{
		Schema: "public",
		Name:   "orders",
		Columns: []model.ColumnDefinition{
			{Name: "id", DataType: "bigint", IsPrimaryKey: true},
		},
		Indexes: []model.IndexDefinition{
			{Name: "orders_id_idx", Columns: []string{"id"}},
		},
	}
	if err := qs.CreateTable(context.Background(), cfg, def); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(fa.txBatches) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(fa.txBatches))
	}
	batch := fa.txBatches[0]
	if len(batch) != 2 {
		t.Fatalf("Expected 2 statements in the transaction, got %v", batch)
	}
	if !strings.HasPrefix(batch[0].SQL, "CREATE TABLE") || !strings.HasPrefix(batch[1].SQL, "CREATE INDEX") {
		t.Errorf("Unexpected transaction statements: %v", batch)
	}
	if len(fa.queryScripts) != 0 || len(fa.execStatements) != 0 {
		t.Error("DDL must run only inside the transaction")
	}
	if _, ok := eng.SchemaCache().Get(cfg.Fingerprint()); ok {
		t.Error("Schema cache must be invalidated after DDL")
	}
}

func TestCreateTableFailureKeepsCache(t *testing.T) {
	fa := &fakeAdapter{txErr: errors.New("index exists")}
	qs, eng := newTestQueryService(fa, config.QueryConfig{})
	cfg := serviceConfig()
	eng.SchemaCache().Set(cfg.Fingerprint(), []model.SchemaInfo{{Name: "public"}})

	def := &model.TableDefinition{
		Name:    "orders",
		Columns: []model.ColumnDefinition{{Name: "id", DataType: "bigint"}},
	}
	err := qs.CreateTable(context.Background(), cfg, def)
	if err == nil {
		t.Fatal("Expected an error")
	}
	appErr, ok := err.(*utils.AppError)
	if !ok || appErr.Code != utils.ErrCodeTransactionFailed {
		t.Errorf("Expected %s, got %v", utils.ErrCodeTransactionFailed, err)
	}
	// the rolled-back DDL changed nothing, so the cached schema stays valid
	if _, ok := eng.SchemaCache().Get(cfg.Fingerprint()); !ok {
		t.Error("Cache must survive a failed DDL transaction")
	}
}

func TestAlterTableRunsInOneTransaction(t *testing.T) {
	fa := &fakeAdapter{
		tableDDL: &model.TableDefinition{
			Schema:  "public",
			Name:    "orders",
			Columns: []model.ColumnDefinition{{Name: "id"}, {Name: "total"}},
		},
	}
	qs, eng := newTestQueryService(fa, config.QueryConfig{})
	cfg := serviceConfig()
	eng.SchemaCache().Set(cfg.Fingerprint(), []model.SchemaInfo{{Name: "public"}})

	batch := &model.AlterTableBatch{
		Schema: "public",
		Table:  "orders",
		Ops: []model.AlterTableOp{
			{Type: model.AlterAddColumn, Column: &model.ColumnDefinition{Name: "note", DataType: "text", Nullable: true}},
			{Type: model.AlterDropColumn, ColumnName: "total"},
		},
	}
	if err := qs.AlterTable(context.Background(), cfg, batch); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(fa.txBatches) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(fa.txBatches))
	}
	if len(fa.txBatches[0]) != 2 {
		t.Fatalf("Expected both alterations in one transaction, got %v", fa.txBatches[0])
	}
	if len(fa.execStatements) != 0 {
		t.Errorf("Alterations must not run as separate statements: %v", fa.execStatements)
	}
	if _, ok := eng.SchemaCache().Get(cfg.Fingerprint()); ok {
		t.Error("Schema cache must be invalidated after DDL")
	}
}

func TestDropTableRunsInTransaction(t *testing.T) {
	fa := &fakeAdapter{}
	qs, _ := newTestQueryService(fa, config.QueryConfig{})

	if err := qs.DropTable(context.Background(), serviceConfig(), "public", "orders", false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(fa.txBatches) != 1 || len(fa.txBatches[0]) != 1 {
		t.Fatalf("Expected a single-statement transaction, got %v", fa.txBatches)
	}
	if !strings.HasPrefix(fa.txBatches[0][0].SQL, "DROP TABLE") {
		t.Errorf("Unexpected statement: %q", fa.txBatches[0][0].SQL)
	}
}

func TestExecuteQueryAppliesConfigDefaults(t *testing.T) {
	fa := &fakeAdapter{}
	qs, _ := newTestQueryService(fa, config.QueryConfig{DefaultTimeoutMs: 1500, CollectTelemetry: true})

	opts := &model.QueryOptions{}
	if _, err := qs.ExecuteQuery(context.Background(), serviceConfig(), "SELECT 1", opts); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fa.lastOpts.QueryTimeoutMs != 1500 {
		t.Errorf("Expected configured timeout fallback 1500, got %d", fa.lastOpts.QueryTimeoutMs)
	}
	if !fa.lastOpts.CollectTelemetry {
		t.Error("Expected configured telemetry default to apply")
	}

	// an explicit request timeout wins over the configured fallback
	opts = &model.QueryOptions{QueryTimeoutMs: 20}
	if _, err := qs.ExecuteQuery(context.Background(), serviceConfig(), "SELECT 1", opts); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fa.lastOpts.QueryTimeoutMs != 20 {
		t.Errorf("Expected request timeout 20 to win, got %d", fa.lastOpts.QueryTimeoutMs)
	}
}

func TestExecuteQueryMapsContextErrors(t *testing.T) {
	cases := []struct {
		cause error
		code  string
	}{
		{fmt.Errorf("statement 1 of 1 failed: %w", context.Canceled), utils.ErrCodeQueryCancelled},
		{fmt.Errorf("statement 1 of 1 failed: %w", context.DeadlineExceeded), utils.ErrCodeQueryTimeout},
		{errors.New("syntax error"), utils.ErrCodeQueryFailed},
	}
	for _, tc := range cases {
		fa := &fakeAdapter{queryErr: tc.cause}
		qs, _ := newTestQueryService(fa, config.QueryConfig{})

		_, err := qs.ExecuteQuery(context.Background(), serviceConfig(), "SELECT 1", nil)
		if err == nil {
			t.Fatalf("%s: expected an error", tc.code)
		}
		appErr, ok := err.(*utils.AppError)
		if !ok {
			t.Fatalf("%s: expected an AppError, got %T", tc.code, err)
		}
		if appErr.Code != tc.code {
			t.Errorf("Expected code %s, got %s", tc.code, appErr.Code)
		}
	}
}

func TestTunnelErrorCodePassesThrough(t *testing.T) {
	cause := errors.New("ssh dial bastion:22: connection refused")
	fa := &fakeAdapter{connectErr: utils.NewAppErrorWithDetails(utils.ErrCodeTunnelFailed, cause.Error(), cause)}
	qs, _ := newTestQueryService(fa, config.QueryConfig{})

	err := qs.TestConnection(context.Background(), serviceConfig())
	if err == nil {
		t.Fatal("Expected an error")
	}
	appErr, ok := err.(*utils.AppError)
	if !ok {
		t.Fatalf("Expected an AppError, got %T", err)
	}
	if appErr.Code != utils.ErrCodeTunnelFailed {
		t.Errorf("Tunnel failures must keep their code, got %s", appErr.Code)
	}
}

func TestGetTableDDLNotFoundCode(t *testing.T) {
	fa := &fakeAdapter{tableDDLErr: fmt.Errorf("%w: public.ghost", adapters.ErrTableNotFound)}
	eng := engine.New()
	ss := NewSchemaService(eng).(*schemaService)
	ss.newAdapter = func(d model.Dialect) (adapters.Adapter, error) { return fa, nil }

	_, err := ss.GetTableDDL(context.Background(), serviceConfig(), "public", "ghost")
	if err == nil {
		t.Fatal("Expected an error")
	}
	appErr, ok := err.(*utils.AppError)
	if !ok || appErr.Code != utils.ErrCodeNotFound {
		t.Errorf("Expected %s, got %v", utils.ErrCodeNotFound, err)
	}
}
