package service

import (
	"context"
	"errors"

	"sqldeck/internal/engine"
	"sqldeck/internal/engine/adapters"
	"sqldeck/internal/model"
	"sqldeck/internal/utils"
)

type SchemaService interface {
	GetSchemas(ctx context.Context, cfg *model.ConnectionConfig, forceRefresh bool) ([]model.SchemaInfo, error)
	GetTableDDL(ctx context.Context, cfg *model.ConnectionConfig, schema, table string) (*model.TableDefinition, error)
	GetSequences(ctx context.Context, cfg *model.ConnectionConfig) ([]model.SequenceInfo, error)
	GetTypes(ctx context.Context, cfg *model.ConnectionConfig) ([]model.CustomTypeInfo, error)
	InvalidateCache(cfg *model.ConnectionConfig)
}

type schemaService struct {
	engine     *engine.Engine
	newAdapter func(d model.Dialect) (adapters.Adapter, error)
}

// NewSchemaService creates a new instance of SchemaService
func NewSchemaService(eng *engine.Engine) SchemaService {
	ss := &schemaService{engine: eng}
	ss.newAdapter = func(d model.Dialect) (adapters.Adapter, error) {
		return adapters.New(d, eng)
	}
	return ss
}

func (ss *schemaService) adapter(d model.Dialect) (adapters.Adapter, error) {
	ad, err := ss.newAdapter(d)
	if err != nil {
		return nil, utils.NewAppErrorWithDetails(utils.ErrCodeUnsupportedDialect, string(d), err)
	}
	return ad, nil
}

// GetSchemas returns the connection's schema graph, serving from the cache
// unless forceRefresh bypasses it. Cache entries never expire on their own;
// DDL through the query service invalidates them.
func (ss *schemaService) GetSchemas(ctx context.Context, cfg *model.ConnectionConfig, forceRefresh bool) ([]model.SchemaInfo, error) {
	fingerprint := cfg.Fingerprint()
	if !forceRefresh {
		if schemas, ok := ss.engine.SchemaCache().Get(fingerprint); ok {
			return schemas, nil
		}
	}

	ad, err := ss.adapter(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	schemas, err := ad.GetSchemas(ctx, cfg)
	if err != nil {
		return nil, wrapServiceError(utils.ErrCodeQueryFailed, err)
	}

	ss.engine.SchemaCache().Set(fingerprint, schemas)
	return schemas, nil
}

func (ss *schemaService) GetTableDDL(ctx context.Context, cfg *model.ConnectionConfig, schema, table string) (*model.TableDefinition, error) {
	ad, err := ss.adapter(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	def, err := ad.GetTableDDL(ctx, cfg, schema, table)
	if err != nil {
		if errors.Is(err, adapters.ErrTableNotFound) {
			return nil, utils.NewAppErrorWithDetails(utils.ErrCodeNotFound, err.Error(), err)
		}
		return nil, wrapServiceError(utils.ErrCodeQueryFailed, err)
	}
	return def, nil
}

func (ss *schemaService) GetSequences(ctx context.Context, cfg *model.ConnectionConfig) ([]model.SequenceInfo, error) {
	ad, err := ss.adapter(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	sequences, err := ad.GetSequences(ctx, cfg)
	if err != nil {
		return nil, wrapServiceError(utils.ErrCodeQueryFailed, err)
	}
	return sequences, nil
}

func (ss *schemaService) GetTypes(ctx context.Context, cfg *model.ConnectionConfig) ([]model.CustomTypeInfo, error) {
	ad, err := ss.adapter(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	types, err := ad.GetTypes(ctx, cfg)
	if err != nil {
		return nil, wrapServiceError(utils.ErrCodeQueryFailed, err)
	}
	return types, nil
}

func (ss *schemaService) InvalidateCache(cfg *model.ConnectionConfig) {
	ss.engine.SchemaCache().Invalidate(cfg.Fingerprint())
}
