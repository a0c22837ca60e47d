package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sqldeck/internal/engine"
	"sqldeck/internal/engine/sqlsplit"
	"sqldeck/internal/engine/tunnel"
	"sqldeck/internal/model"
	"sqldeck/internal/utils"
)

// Adapter is the uniform execution surface over one database dialect.
// Connection details travel with every call; an adapter holds no sockets
// between calls and is safe for concurrent use.
type Adapter interface {
	Dialect() model.Dialect
	Connect(ctx context.Context, cfg *model.ConnectionConfig) error
	Query(ctx context.Context, cfg *model.ConnectionConfig, sqlText string) (*model.QueryResult, error)
	QueryMultiple(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, opts *model.QueryOptions) (*model.MultiQueryResult, error)
	Execute(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, params []interface{}) (*model.ExecResult, error)
	ExecuteTransaction(ctx context.Context, cfg *model.ConnectionConfig, statements []model.TransactionStatement) (*model.TransactionResult, error)
	Explain(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, analyze bool) (*model.ExplainResult, error)
	GetSchemas(ctx context.Context, cfg *model.ConnectionConfig) ([]model.SchemaInfo, error)
	GetTableDDL(ctx context.Context, cfg *model.ConnectionConfig, schema, table string) (*model.TableDefinition, error)
	GetSequences(ctx context.Context, cfg *model.ConnectionConfig) ([]model.SequenceInfo, error)
	GetTypes(ctx context.Context, cfg *model.ConnectionConfig) ([]model.CustomTypeInfo, error)
}

// New builds the adapter for a dialect. The dialect set is closed: anything
// outside it is rejected here rather than discovered at call time.
func New(d model.Dialect, eng *engine.Engine) (Adapter, error) {
	if !model.IsValidDialect(d) {
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
	var impl dialect
	switch d.Family() {
	case model.DialectPostgres:
		impl = &postgresDialect{tag: d}
	case model.DialectMySQL:
		impl = &mysqlDialect{tag: d}
	case model.DialectSQLServer:
		impl = &sqlserverDialect{}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
	return &adapter{dialect: impl, engine: eng}, nil
}

type adapter struct {
	dialect dialect
	engine  *engine.Engine
}

func (a *adapter) Dialect() model.Dialect {
	return a.dialect.Name()
}

// withConnection opens the tunnel (if configured) and a single database
// connection, runs fn, then tears everything down. Every adapter operation
// goes through here so that cancellation registration, handshake telemetry
// and resource release are paired on all code paths.
func (a *adapter) withConnection(ctx context.Context, cfg *model.ConnectionConfig, execID model.ExecutionID, fn func(ctx context.Context, db *sql.DB) error) error {
	if execID != "" {
		cancelCtx, cancel := context.WithCancel(ctx)
		ctx = cancelCtx
		defer cancel()
		a.engine.Registry().Register(execID, cancel)
		defer a.engine.Registry().Unregister(execID)
	}
	tel := a.engine.Telemetry()

	host, port := cfg.Host, cfg.EffectivePort()
	if cfg.SSHTunnel != nil {
		tel.StartPhase(execID, model.PhaseTCPHandshake)
		sess, err := tunnel.Open(cfg.SSHTunnel, host, port)
		tel.EndPhase(execID, model.PhaseTCPHandshake)
		if err != nil {
			return utils.NewAppErrorWithDetails(utils.ErrCodeTunnelFailed, err.Error(), err)
		}
		defer sess.Close()
		host, port = sess.Addr()
	}

	db, err := sql.Open(a.dialect.DriverName(), a.dialect.BuildDSN(cfg, host, port))
	if err != nil {
		return fmt.Errorf("open %s connection: %w", a.dialect.Name(), err)
	}
	defer db.Close()
	// one connection per call: session-level settings (timeouts, SHOWPLAN)
	// must land on the same connection the statements run on
	db.SetMaxOpenConns(1)

	tel.StartPhase(execID, model.PhaseDBHandshake)
	err = db.PingContext(ctx)
	tel.EndPhase(execID, model.PhaseDBHandshake)
	if err != nil {
		return fmt.Errorf("connect to %s at %s:%d: %w", a.dialect.Name(), cfg.Host, cfg.EffectivePort(), err)
	}

	return fn(ctx, db)
}

// Connect verifies the target is reachable and the credentials work
func (a *adapter) Connect(ctx context.Context, cfg *model.ConnectionConfig) error {
	return a.withConnection(ctx, cfg, "", func(ctx context.Context, db *sql.DB) error {
		return nil
	})
}

// Query runs one data-returning statement and scans the full result set
func (a *adapter) Query(ctx context.Context, cfg *model.ConnectionConfig, sqlText string) (*model.QueryResult, error) {
	var out *model.QueryResult
	err := a.withConnection(ctx, cfg, "", func(ctx context.Context, db *sql.DB) error {
		rows, err := db.QueryContext(ctx, sqlText)
		if err != nil {
			return err
		}
		defer rows.Close()

		fields, data, err := a.scanAll(rows)
		if err != nil {
			return err
		}
		out = &model.QueryResult{Rows: data, Fields: fields, RowCount: int64(len(data))}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryMultiple splits a script and executes its statements strictly in
// order. On the first failure a synthetic error result is appended for the
// failing statement and execution stops; results already produced are
// returned alongside the error.
func (a *adapter) QueryMultiple(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, opts *model.QueryOptions) (*model.MultiQueryResult, error) {
	if opts == nil {
		opts = &model.QueryOptions{}
	}
	execID := opts.ExecutionID
	tel := a.engine.Telemetry()
	if opts.CollectTelemetry {
		tel.StartQuery(execID, false)
	}

	out := &model.MultiQueryResult{}
	start := time.Now()
	var totalRows int64

	err := a.withConnection(ctx, cfg, execID, func(ctx context.Context, db *sql.DB) error {
		if opts.QueryTimeoutMs > 0 {
			if stmt := a.dialect.StatementTimeoutSQL(opts.QueryTimeoutMs); stmt != "" {
				if _, err := db.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("set statement timeout: %w", err)
				}
			}
		}

		tel.StartPhase(execID, model.PhaseParse)
		statements := sqlsplit.Split(sqlText, a.dialect.Name())
		tel.EndPhase(execID, model.PhaseParse)

		for i, stmt := range statements {
			tel.StartPhase(execID, model.PhaseExecution)
			res, err := a.runStatement(ctx, db, stmt, i)
			tel.EndPhase(execID, model.PhaseExecution)
			if err != nil {
				out.Results = append(out.Results, model.StatementResult{
					Statement:       stmt,
					Index:           i,
					IsDataReturning: sqlsplit.IsDataReturning(stmt, a.dialect.Name()),
					Error:           err.Error(),
				})
				return fmt.Errorf("statement %d of %d failed: %q: %w", i+1, len(statements), stmt, err)
			}
			totalRows += res.RowCount
			out.Results = append(out.Results, *res)
		}
		return nil
	})

	out.TotalDurationMs = time.Since(start).Milliseconds()
	if opts.CollectTelemetry {
		out.Telemetry = tel.Finalize(execID, totalRows)
	}
	if err != nil {
		return out, err
	}
	return out, nil
}

// runStatement executes one statement, scanning rows for data-returning
// statements and collecting the affected-row count otherwise
func (a *adapter) runStatement(ctx context.Context, db *sql.DB, stmt string, index int) (*model.StatementResult, error) {
	start := time.Now()
	res := &model.StatementResult{
		Statement:       stmt,
		Index:           index,
		IsDataReturning: sqlsplit.IsDataReturning(stmt, a.dialect.Name()),
	}

	if res.IsDataReturning {
		rows, err := db.QueryContext(ctx, stmt)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		fields, data, err := a.scanAll(rows)
		if err != nil {
			return nil, err
		}
		res.Fields = fields
		res.Rows = data
		res.RowCount = int64(len(data))
	} else {
		result, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return nil, err
		}
		// some drivers cannot report affected rows for DDL; 0 is fine then
		if n, err := result.RowsAffected(); err == nil {
			res.RowCount = n
		}
	}

	res.DurationMs = time.Since(start).Milliseconds()
	return res, nil
}

// Execute runs one parameterized side-effecting statement
func (a *adapter) Execute(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, params []interface{}) (*model.ExecResult, error) {
	var out *model.ExecResult
	err := a.withConnection(ctx, cfg, "", func(ctx context.Context, db *sql.DB) error {
		result, err := db.ExecContext(ctx, sqlText, params...)
		if err != nil {
			return err
		}
		n, _ := result.RowsAffected()
		out = &model.ExecResult{RowCount: n}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExecuteTransaction runs parameterized statements inside a single
// transaction: all commit together or the whole batch rolls back
func (a *adapter) ExecuteTransaction(ctx context.Context, cfg *model.ConnectionConfig, statements []model.TransactionStatement) (*model.TransactionResult, error) {
	if len(statements) == 0 {
		return nil, fmt.Errorf("transaction has no statements")
	}

	var out *model.TransactionResult
	err := a.withConnection(ctx, cfg, "", func(ctx context.Context, db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		result := &model.TransactionResult{}
		for i, stmt := range statements {
			r, err := tx.ExecContext(ctx, stmt.SQL, stmt.Params...)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("transaction statement %d failed, rolled back: %w", i+1, err)
			}
			n, _ := r.RowsAffected()
			result.RowsAffected += n
			result.Results = append(result.Results, model.ExecResult{RowCount: n})
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		out = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Explain captures the engine's execution plan for one statement. With
// analyze the statement actually runs, so side effects apply.
func (a *adapter) Explain(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, analyze bool) (*model.ExplainResult, error) {
	start := time.Now()
	var plan string
	err := a.withConnection(ctx, cfg, "", func(ctx context.Context, db *sql.DB) error {
		p, err := a.dialect.Explain(ctx, db, sqlText, analyze)
		if err != nil {
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &model.ExplainResult{Plan: plan, DurationMs: time.Since(start).Milliseconds()}, nil
}

// scanAll drains a result set into field metadata and row values. Byte
// slices become strings: drivers (MySQL in particular) report text columns
// as []byte, which would otherwise serialize as base64.
func (a *adapter) scanAll(rows *sql.Rows) ([]model.FieldInfo, [][]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}

	fields := make([]model.FieldInfo, len(cols))
	for i, ct := range types {
		nullable, _ := ct.Nullable()
		fields[i] = model.FieldInfo{
			Name:     cols[i],
			Native:   ct.DatabaseTypeName(),
			Type:     string(utils.MapDataType(a.dialect.Name(), ct.DatabaseTypeName())),
			Nullable: nullable,
		}
	}

	var data [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		data = append(data, values)
	}
	return fields, data, rows.Err()
}
