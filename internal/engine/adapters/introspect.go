package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"sqldeck/internal/model"
)

// ErrTableNotFound reports a GetTableDDL target that does not exist; callers
// match it with errors.Is to distinguish a missing table from query failures
var ErrTableNotFound = errors.New("table not found")

// GetSchemas introspects the full catalog: schemas, tables, views, columns
// with primary-key/foreign-key/enum annotations, routines, sequences and
// custom types. All lookups during folding are composite-key map hits, so
// the pass stays linear in catalog size.
func (a *adapter) GetSchemas(ctx context.Context, cfg *model.ConnectionConfig) ([]model.SchemaInfo, error) {
	var out []model.SchemaInfo
	err := a.withConnection(ctx, cfg, "", func(ctx context.Context, db *sql.DB) error {
		schemas, err := a.foldCatalog(ctx, db)
		if err != nil {
			return err
		}
		out = schemas
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *adapter) foldCatalog(ctx context.Context, db *sql.DB) ([]model.SchemaInfo, error) {
	q := a.dialect.Catalog()

	// pass 1: schema list, in catalog order
	var schemaOrder []string
	schemaByName := make(map[string]*model.SchemaInfo)
	err := forEachRow(ctx, db, q.Schemas, func(scan scanFunc) error {
		var name string
		if err := scan(&name); err != nil {
			return err
		}
		schemaOrder = append(schemaOrder, name)
		schemaByName[name] = &model.SchemaInfo{Name: name}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("introspect schemas: %w", err)
	}

	// pass 2: custom types; also builds the enum lookup columns resolve
	// their enum_ref against
	enumValues := make(map[string][]string)
	if q.CustomTypes != "" {
		typeByKey := make(map[string]*model.CustomTypeInfo)
		var typeOrder []string
		err = forEachRow(ctx, db, q.CustomTypes, func(scan scanFunc) error {
			var schema, name, kind string
			var baseType, value sql.NullString
			if err := scan(&schema, &name, &kind, &baseType, &value); err != nil {
				return err
			}
			key := schema + "." + name
			t, ok := typeByKey[key]
			if !ok {
				t = &model.CustomTypeInfo{Schema: schema, Name: name, Kind: kind, BaseType: baseType.String}
				typeByKey[key] = t
				typeOrder = append(typeOrder, key)
			}
			if value.Valid {
				t.EnumValues = append(t.EnumValues, value.String)
				enumValues[key] = t.EnumValues
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("introspect types: %w", err)
		}
		for _, key := range typeOrder {
			t := typeByKey[key]
			if s, ok := schemaByName[t.Schema]; ok {
				s.Types = append(s.Types, *t)
			}
		}
	}

	// pass 3: tables and views
	var tableOrder []string
	tableByKey := make(map[string]*model.TableInfo)
	err = forEachRow(ctx, db, q.Tables, func(scan scanFunc) error {
		var schema, name, tableType string
		var comment sql.NullString
		if err := scan(&schema, &name, &tableType, &comment); err != nil {
			return err
		}
		key := schema + "." + name
		tableOrder = append(tableOrder, key)
		tableByKey[key] = &model.TableInfo{
			Schema:  schema,
			Name:    name,
			Type:    tableType,
			Comment: comment.String,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}

	// pass 4: columns, with enum resolution
	err = forEachRow(ctx, db, q.Columns, func(scan scanFunc) error {
		var schema, table, column, dataType, isNullable string
		var enumRef, columnDefault sql.NullString
		var ordinal, isPK int
		if err := scan(&schema, &table, &column, &dataType, &enumRef, &isNullable, &columnDefault, &ordinal, &isPK); err != nil {
			return err
		}
		t, ok := tableByKey[schema+"."+table]
		if !ok {
			return nil
		}
		col := model.ColumnInfo{
			Name:            column,
			DataType:        dataType,
			Nullable:        isNullable == "YES",
			IsPrimaryKey:    isPK != 0,
			Default:         columnDefault.String,
			OrdinalPosition: ordinal,
		}
		if enumRef.Valid && enumRef.String != "" {
			if values, ok := enumValues[enumRef.String]; ok {
				col.EnumValues = values
			} else {
				col.EnumValues = a.dialect.EnumValuesFromRef(enumRef.String)
			}
		}
		t.Columns = append(t.Columns, col)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}

	// column pointers are taken only after every append, so slice growth
	// cannot invalidate them
	columnByKey := make(map[string]*model.ColumnInfo)
	for key, t := range tableByKey {
		for i := range t.Columns {
			columnByKey[key+"."+t.Columns[i].Name] = &t.Columns[i]
		}
	}

	// pass 5: foreign keys annotate columns in place
	err = forEachRow(ctx, db, q.ForeignKeys, func(scan scanFunc) error {
		var schema, table, column, constraint, refSchema, refTable, refColumn string
		if err := scan(&schema, &table, &column, &constraint, &refSchema, &refTable, &refColumn); err != nil {
			return err
		}
		if col, ok := columnByKey[schema+"."+table+"."+column]; ok {
			col.ForeignKey = &model.ForeignKeyInfo{
				ConstraintName:   constraint,
				ReferencedSchema: refSchema,
				ReferencedTable:  refTable,
				ReferencedColumn: refColumn,
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("introspect foreign keys: %w", err)
	}

	// pass 6: routines, then their parameters keyed by specific name
	if q.Routines != "" {
		routineByKey := make(map[string]*model.RoutineInfo)
		var routineOrder []string
		err = forEachRow(ctx, db, q.Routines, func(scan scanFunc) error {
			var schema, name, specific, kind string
			var returnType, language sql.NullString
			if err := scan(&schema, &name, &specific, &kind, &returnType, &language); err != nil {
				return err
			}
			key := schema + "." + specific
			routineByKey[key] = &model.RoutineInfo{
				Schema:       schema,
				Name:         name,
				SpecificName: specific,
				Kind:         kind,
				ReturnType:   returnType.String,
				Language:     language.String,
			}
			routineOrder = append(routineOrder, key)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("introspect routines: %w", err)
		}

		if q.RoutineParams != "" {
			err = forEachRow(ctx, db, q.RoutineParams, func(scan scanFunc) error {
				var schema, specific, dataType, mode string
				var paramName sql.NullString
				var ordinal int
				if err := scan(&schema, &specific, &paramName, &dataType, &mode, &ordinal); err != nil {
					return err
				}
				if r, ok := routineByKey[schema+"."+specific]; ok {
					r.Parameters = append(r.Parameters, model.RoutineParam{
						Name:     paramName.String,
						DataType: dataType,
						Mode:     mode,
						Ordinal:  ordinal,
					})
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("introspect routine parameters: %w", err)
			}
		}

		for _, key := range routineOrder {
			r := routineByKey[key]
			if s, ok := schemaByName[r.Schema]; ok {
				s.Routines = append(s.Routines, *r)
			}
		}
	}

	// pass 7: sequences
	if q.Sequences != "" {
		err = forEachRow(ctx, db, q.Sequences, func(scan scanFunc) error {
			seq, schema, err := scanSequence(scan)
			if err != nil {
				return err
			}
			if s, ok := schemaByName[schema]; ok {
				s.Sequences = append(s.Sequences, seq)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("introspect sequences: %w", err)
		}
	}

	// assemble in catalog order
	for _, key := range tableOrder {
		t := tableByKey[key]
		s, ok := schemaByName[t.Schema]
		if !ok {
			continue
		}
		if strings.EqualFold(t.Type, "VIEW") {
			s.Views = append(s.Views, *t)
		} else {
			s.Tables = append(s.Tables, *t)
		}
	}

	out := make([]model.SchemaInfo, 0, len(schemaOrder))
	for _, name := range schemaOrder {
		out = append(out, *schemaByName[name])
	}
	return out, nil
}

// GetTableDDL reverse-engineers one table into a dialect-neutral definition
// that BuildCreateTable can round-trip
func (a *adapter) GetTableDDL(ctx context.Context, cfg *model.ConnectionConfig, schema, table string) (*model.TableDefinition, error) {
	q := a.dialect.TableCatalog()
	def := &model.TableDefinition{Schema: schema, Name: table}

	err := a.withConnection(ctx, cfg, "", func(ctx context.Context, db *sql.DB) error {
		err := forEachRowArgs(ctx, db, q.Columns, []interface{}{schema, table}, func(scan scanFunc) error {
			var name, dataType, isNullable string
			var columnDefault, comment sql.NullString
			var isPK int
			if err := scan(&name, &dataType, &isNullable, &columnDefault, &isPK, &comment); err != nil {
				return err
			}
			def.Columns = append(def.Columns, model.ColumnDefinition{
				Name:         name,
				DataType:     dataType,
				Nullable:     isNullable == "YES",
				IsPrimaryKey: isPK != 0,
				Default:      columnDefault.String,
				Comment:      comment.String,
			})
			return nil
		})
		if err != nil {
			return fmt.Errorf("introspect table columns: %w", err)
		}
		if len(def.Columns) == 0 {
			return fmt.Errorf("%w: %s.%s", ErrTableNotFound, schema, table)
		}

		// constraints arrive one row per member column; fold by name.
		// The primary key is already expressed on the columns, so its
		// constraint row is dropped rather than duplicated.
		constraintNames := make(map[string]bool)
		constraintByName := make(map[string]*model.ConstraintDefinition)
		var constraintOrder []string
		err = forEachRowArgs(ctx, db, q.Constraints, []interface{}{schema, table}, func(scan scanFunc) error {
			var name, conType string
			var column, definition sql.NullString
			if err := scan(&name, &conType, &column, &definition); err != nil {
				return err
			}
			constraintNames[name] = true
			if strings.EqualFold(conType, "PRIMARY KEY") {
				return nil
			}
			c, ok := constraintByName[name]
			if !ok {
				c = &model.ConstraintDefinition{Name: name, Type: conType, Definition: definition.String}
				constraintByName[name] = c
				constraintOrder = append(constraintOrder, name)
			}
			if column.Valid {
				c.Columns = append(c.Columns, column.String)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("introspect constraints: %w", err)
		}
		for _, name := range constraintOrder {
			def.Constraints = append(def.Constraints, *constraintByName[name])
		}

		// secondary indexes; ones backing a constraint are already covered
		err = forEachRowArgs(ctx, db, q.Indexes, []interface{}{schema, table}, func(scan scanFunc) error {
			var name string
			var isUnique int
			var method, columnList, definition sql.NullString
			if err := scan(&name, &isUnique, &method, &columnList, &definition); err != nil {
				return err
			}
			if constraintNames[name] {
				return nil
			}
			idx := model.IndexDefinition{
				Name:   name,
				Unique: isUnique != 0,
				Method: method.String,
			}
			if columnList.Valid && columnList.String != "" {
				idx.Columns = splitColumnList(columnList.String)
			} else if definition.Valid {
				idx.Expression = mineIndexExpression(definition.String)
			}
			def.Indexes = append(def.Indexes, idx)
			return nil
		})
		if err != nil {
			return fmt.Errorf("introspect indexes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return def, nil
}

// GetSequences lists sequences across all user schemas
func (a *adapter) GetSequences(ctx context.Context, cfg *model.ConnectionConfig) ([]model.SequenceInfo, error) {
	q := a.dialect.Catalog()
	if q.Sequences == "" {
		return nil, nil
	}
	var out []model.SequenceInfo
	err := a.withConnection(ctx, cfg, "", func(ctx context.Context, db *sql.DB) error {
		return forEachRow(ctx, db, q.Sequences, func(scan scanFunc) error {
			seq, _, err := scanSequence(scan)
			if err != nil {
				return err
			}
			out = append(out, seq)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("introspect sequences: %w", err)
	}
	return out, nil
}

// GetTypes lists user-defined enum and domain types
func (a *adapter) GetTypes(ctx context.Context, cfg *model.ConnectionConfig) ([]model.CustomTypeInfo, error) {
	q := a.dialect.Catalog()
	if q.CustomTypes == "" {
		return nil, nil
	}
	typeByKey := make(map[string]*model.CustomTypeInfo)
	var order []string
	err := a.withConnection(ctx, cfg, "", func(ctx context.Context, db *sql.DB) error {
		return forEachRow(ctx, db, q.CustomTypes, func(scan scanFunc) error {
			var schema, name, kind string
			var baseType, value sql.NullString
			if err := scan(&schema, &name, &kind, &baseType, &value); err != nil {
				return err
			}
			key := schema + "." + name
			t, ok := typeByKey[key]
			if !ok {
				t = &model.CustomTypeInfo{Schema: schema, Name: name, Kind: kind, BaseType: baseType.String}
				typeByKey[key] = t
				order = append(order, key)
			}
			if value.Valid {
				t.EnumValues = append(t.EnumValues, value.String)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("introspect types: %w", err)
	}
	out := make([]model.CustomTypeInfo, 0, len(order))
	for _, key := range order {
		out = append(out, *typeByKey[key])
	}
	return out, nil
}

type scanFunc func(dest ...interface{}) error

func forEachRow(ctx context.Context, db *sql.DB, query string, fn func(scan scanFunc) error) error {
	return forEachRowArgs(ctx, db, query, nil, fn)
}

func forEachRowArgs(ctx context.Context, db *sql.DB, query string, args []interface{}, fn func(scan scanFunc) error) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows.Scan); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanSequence(scan scanFunc) (model.SequenceInfo, string, error) {
	var schema, name string
	var dataType sql.NullString
	var startsAt, minValue, maxValue, increment sql.NullInt64
	var cycles int
	if err := scan(&schema, &name, &dataType, &startsAt, &minValue, &maxValue, &increment, &cycles); err != nil {
		return model.SequenceInfo{}, "", err
	}
	return model.SequenceInfo{
		Schema:    schema,
		Name:      name,
		DataType:  dataType.String,
		StartsAt:  startsAt.Int64,
		MinValue:  minValue.Int64,
		MaxValue:  maxValue.Int64,
		Increment: increment.Int64,
		Cycles:    cycles != 0,
	}, schema, nil
}

// splitColumnList parses the comma-separated column list emitted by the
// index introspection queries
func splitColumnList(list string) []string {
	parts := strings.Split(list, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cols = append(cols, trimmed)
		}
	}
	return cols
}

// mineIndexExpression extracts the indexed expression from a full index
// definition such as "CREATE INDEX i ON t USING btree (lower(name))"
func mineIndexExpression(definition string) string {
	open := strings.Index(definition, "(")
	end := strings.LastIndex(definition, ")")
	if open < 0 || end <= open {
		return strings.TrimSpace(definition)
	}
	return strings.TrimSpace(definition[open+1 : end])
}
