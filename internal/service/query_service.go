package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"sqldeck/internal/config"
	"sqldeck/internal/engine"
	"sqldeck/internal/engine/adapters"
	"sqldeck/internal/engine/sqlbuild"
	"sqldeck/internal/engine/sqlsplit"
	"sqldeck/internal/model"
	"sqldeck/internal/utils"
)

type QueryService interface {
	TestConnection(ctx context.Context, cfg *model.ConnectionConfig) error
	NewExecutionID() model.ExecutionID
	ExecuteQuery(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, opts *model.QueryOptions) (*model.MultiQueryResult, error)
	CancelQuery(id model.ExecutionID) bool
	ExplainQuery(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, analyze bool) (*model.ExplainResult, error)
	PreviewEdits(batch *model.EditBatch) ([]model.EditStatement, []model.EditValidationError)
	ApplyEdits(ctx context.Context, cfg *model.ConnectionConfig, batch *model.EditBatch) (*model.EditBatchResult, error)
	CreateTable(ctx context.Context, cfg *model.ConnectionConfig, def *model.TableDefinition) error
	AlterTable(ctx context.Context, cfg *model.ConnectionConfig, batch *model.AlterTableBatch) error
	DropTable(ctx context.Context, cfg *model.ConnectionConfig, schema, table string, cascade bool) error
	GetQueryStats(ctx context.Context) (*model.QueryStats, error)
	ActiveQueries() int
}

type queryService struct {
	engine     *engine.Engine
	defaults   config.QueryConfig
	newAdapter func(d model.Dialect) (adapters.Adapter, error)
	stats      *queryStats
}

type queryStats struct {
	totalQueries       int64
	successfulQueries  int64
	failedQueries      int64
	totalExecutionTime int64 // nanoseconds
	lastQueryTime      time.Time
	mutex              sync.RWMutex
}

// NewQueryService creates a new instance of QueryService. defaults supplies
// the configured fallbacks applied when a request carries no options of its
// own.
func NewQueryService(eng *engine.Engine, defaults config.QueryConfig) QueryService {
	qs := &queryService{
		engine:   eng,
		defaults: defaults,
		stats:    &queryStats{},
	}
	qs.newAdapter = func(d model.Dialect) (adapters.Adapter, error) {
		return adapters.New(d, eng)
	}
	return qs
}

func (qs *queryService) adapter(d model.Dialect) (adapters.Adapter, error) {
	ad, err := qs.newAdapter(d)
	if err != nil {
		return nil, utils.NewAppErrorWithDetails(utils.ErrCodeUnsupportedDialect, string(d), err)
	}
	return ad, nil
}

// wrapServiceError tags err with an error code for the facade, passing an
// AppError already in the chain through unchanged (the adapters tag tunnel
// failures themselves)
func wrapServiceError(code string, err error) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return utils.NewAppErrorWithDetails(code, err.Error(), err)
}

func (qs *queryService) TestConnection(ctx context.Context, cfg *model.ConnectionConfig) error {
	ad, err := qs.adapter(cfg.Dialect)
	if err != nil {
		return err
	}
	if err := ad.Connect(ctx, cfg); err != nil {
		return wrapServiceError(utils.ErrCodeConnectionFailed, err)
	}
	return nil
}

// NewExecutionID mints an id for a run the client wants to be able to
// cancel. Ids always come from the engine, never from the caller.
func (qs *queryService) NewExecutionID() model.ExecutionID {
	return qs.engine.NewExecutionID()
}

func (qs *queryService) ExecuteQuery(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, opts *model.QueryOptions) (*model.MultiQueryResult, error) {
	startTime := time.Now()

	if opts == nil {
		opts = &model.QueryOptions{}
	}
	// configured fallbacks: the timeout applies when the request carries
	// none, and config can force telemetry collection on
	if opts.QueryTimeoutMs == 0 {
		opts.QueryTimeoutMs = qs.defaults.DefaultTimeoutMs
	}
	if qs.defaults.CollectTelemetry {
		opts.CollectTelemetry = true
	}

	ad, err := qs.adapter(cfg.Dialect)
	if err != nil {
		qs.recordQueryStats(false, time.Since(startTime))
		return nil, err
	}

	result, err := ad.QueryMultiple(ctx, cfg, sqlText, opts)
	qs.recordQueryStats(err == nil, time.Since(startTime))
	if err != nil {
		// partial results travel with the error so the caller can show
		// what did complete
		switch {
		case errors.Is(err, context.Canceled):
			return result, utils.NewAppError(utils.ErrCodeQueryCancelled, err)
		case errors.Is(err, context.DeadlineExceeded):
			return result, utils.NewAppError(utils.ErrCodeQueryTimeout, err)
		}
		return result, wrapServiceError(utils.ErrCodeQueryFailed, err)
	}
	return result, nil
}

// CancelQuery aborts an in-flight execution. Best effort and idempotent:
// cancelling an unknown or finished id reports false and changes nothing.
func (qs *queryService) CancelQuery(id model.ExecutionID) bool {
	found := qs.engine.Registry().Cancel(id)
	qs.engine.Telemetry().Cancel(id)
	return found
}

func (qs *queryService) ExplainQuery(ctx context.Context, cfg *model.ConnectionConfig, sqlText string, analyze bool) (*model.ExplainResult, error) {
	startTime := time.Now()

	ad, err := qs.adapter(cfg.Dialect)
	if err != nil {
		qs.recordQueryStats(false, time.Since(startTime))
		return nil, err
	}

	result, err := ad.Explain(ctx, cfg, sqlText, analyze)
	qs.recordQueryStats(err == nil, time.Since(startTime))
	if err != nil {
		return nil, wrapServiceError(utils.ErrCodeQueryFailed, err)
	}
	return result, nil
}

// PreviewEdits builds display SQL for a batch without touching the
// database. Invalid operations surface as indexed validation errors.
func (qs *queryService) PreviewEdits(batch *model.EditBatch) ([]model.EditStatement, []model.EditValidationError) {
	var statements []model.EditStatement
	var invalid []model.EditValidationError
	for i := range batch.Operations {
		built, err := sqlbuild.BuildEditSQL(&batch.Operations[i], &batch.Context)
		if err != nil {
			invalid = append(invalid, model.EditValidationError{Index: i, Message: err.Error()})
			continue
		}
		statements = append(statements, *built)
	}
	return statements, invalid
}

// ApplyEdits validates every operation, then applies the valid ones in one
// transaction. When every operation is invalid nothing is sent to the
// database at all.
func (qs *queryService) ApplyEdits(ctx context.Context, cfg *model.ConnectionConfig, batch *model.EditBatch) (*model.EditBatchResult, error) {
	result := &model.EditBatchResult{}

	var statements []model.TransactionStatement
	for i := range batch.Operations {
		built, err := sqlbuild.BuildEditSQL(&batch.Operations[i], &batch.Context)
		if err != nil {
			result.ValidationErrors = append(result.ValidationErrors, model.EditValidationError{Index: i, Message: err.Error()})
			continue
		}
		statements = append(statements, model.TransactionStatement{SQL: built.SQL, Params: built.Params})
	}
	if len(statements) == 0 {
		return result, nil
	}

	ad, err := qs.adapter(cfg.Dialect)
	if err != nil {
		return result, err
	}
	txResult, err := ad.ExecuteTransaction(ctx, cfg, statements)
	if err != nil {
		return result, wrapServiceError(utils.ErrCodeTransactionFailed, err)
	}

	result.Applied = len(statements)
	result.RowsAffected = txResult.RowsAffected
	return result, nil
}

func (qs *queryService) CreateTable(ctx context.Context, cfg *model.ConnectionConfig, def *model.TableDefinition) error {
	script, err := sqlbuild.BuildCreateTable(def, cfg.Dialect)
	if err != nil {
		return utils.NewAppErrorWithDetails(utils.ErrCodeValidationFailed, err.Error(), err)
	}
	return qs.runDDL(ctx, cfg, script)
}

func (qs *queryService) AlterTable(ctx context.Context, cfg *model.ConnectionConfig, batch *model.AlterTableBatch) error {
	ad, err := qs.adapter(cfg.Dialect)
	if err != nil {
		return err
	}

	// current column names feed the builders' collision checks
	current, err := ad.GetTableDDL(ctx, cfg, batch.Schema, batch.Table)
	if err != nil {
		return wrapServiceError(utils.ErrCodeQueryFailed, err)
	}
	existing := make([]string, 0, len(current.Columns))
	for _, col := range current.Columns {
		existing = append(existing, col.Name)
	}

	statements, err := sqlbuild.BuildAlterTable(batch, existing, cfg.Dialect)
	if err != nil {
		return utils.NewAppErrorWithDetails(utils.ErrCodeValidationFailed, err.Error(), err)
	}
	return qs.runDDLStatements(ctx, cfg, statements)
}

func (qs *queryService) DropTable(ctx context.Context, cfg *model.ConnectionConfig, schema, table string, cascade bool) error {
	stmt, err := sqlbuild.BuildDropTable(schema, table, cascade, cfg.Dialect)
	if err != nil {
		return utils.NewAppErrorWithDetails(utils.ErrCodeValidationFailed, err.Error(), err)
	}
	return qs.runDDL(ctx, cfg, stmt)
}

// runDDL splits a DDL script and applies it through runDDLStatements
func (qs *queryService) runDDL(ctx context.Context, cfg *model.ConnectionConfig, script string) error {
	return qs.runDDLStatements(ctx, cfg, sqlsplit.Split(script, cfg.Dialect))
}

// runDDLStatements executes DDL in a single transaction, so a failing
// statement rolls the earlier ones back where the engine supports
// transactional DDL, and invalidates the connection's cached schema
func (qs *queryService) runDDLStatements(ctx context.Context, cfg *model.ConnectionConfig, statements []string) error {
	ad, err := qs.adapter(cfg.Dialect)
	if err != nil {
		return err
	}

	batch := make([]model.TransactionStatement, len(statements))
	for i, stmt := range statements {
		batch[i] = model.TransactionStatement{SQL: stmt}
	}
	if _, err := ad.ExecuteTransaction(ctx, cfg, batch); err != nil {
		return wrapServiceError(utils.ErrCodeTransactionFailed, err)
	}
	qs.engine.SchemaCache().Invalidate(cfg.Fingerprint())
	return nil
}

func (qs *queryService) GetQueryStats(ctx context.Context) (*model.QueryStats, error) {
	qs.stats.mutex.RLock()
	defer qs.stats.mutex.RUnlock()

	avgSeconds := 0.0
	if qs.stats.totalQueries > 0 {
		avgSeconds = float64(qs.stats.totalExecutionTime) / float64(qs.stats.totalQueries) / float64(time.Second)
	}
	return &model.QueryStats{
		TotalQueries:      qs.stats.totalQueries,
		SuccessfulQueries: qs.stats.successfulQueries,
		FailedQueries:     qs.stats.failedQueries,
		AvgExecutionTime:  avgSeconds,
		LastQueryTime:     qs.stats.lastQueryTime,
	}, nil
}

func (qs *queryService) ActiveQueries() int {
	return qs.engine.Registry().Active()
}

func (qs *queryService) recordQueryStats(success bool, duration time.Duration) {
	qs.stats.mutex.Lock()
	defer qs.stats.mutex.Unlock()

	qs.stats.totalQueries++
	if success {
		qs.stats.successfulQueries++
	} else {
		qs.stats.failedQueries++
	}
	qs.stats.totalExecutionTime += duration.Nanoseconds()
	qs.stats.lastQueryTime = time.Now()
}
