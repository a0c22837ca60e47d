package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/lib/pq"

	"sqldeck/internal/model"
)

// postgresDialect serves postgres and its wire-compatible relatives
// (redshift, cockroachdb). tag keeps the dialect the caller asked for.
type postgresDialect struct {
	tag model.Dialect
}

var _ dialect = (*postgresDialect)(nil)

func (d *postgresDialect) Name() model.Dialect {
	return d.tag
}

func (d *postgresDialect) DriverName() string {
	return "postgres"
}

func (d *postgresDialect) BuildDSN(cfg *model.ConnectionConfig, host string, port int) string {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(cfg.Username), url.QueryEscape(cfg.Password),
		host, port, url.PathEscape(cfg.Database))
	if cfg.SSLMode != "" {
		dsn += "?sslmode=" + url.QueryEscape(cfg.SSLMode)
	}
	return dsn
}

func (d *postgresDialect) StatementTimeoutSQL(timeoutMs int) string {
	return fmt.Sprintf("SET statement_timeout = %d", timeoutMs)
}

func (d *postgresDialect) Explain(ctx context.Context, db *sql.DB, sqlText string, analyze bool) (string, error) {
	prefix := "EXPLAIN (FORMAT JSON) "
	if analyze {
		prefix = "EXPLAIN (ANALYZE, FORMAT JSON) "
	}
	rows, err := db.QueryContext(ctx, prefix+sqlText)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), rows.Err()
}

func (d *postgresDialect) EnumValuesFromRef(ref string) []string {
	// enum values are resolved against the introspected pg_enum catalog
	return nil
}

const pgSystemSchemas = `'pg_catalog', 'information_schema', 'pg_toast'`

const pgPrimaryKeyColumns = `
		SELECT kcu.table_schema, kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = tc.constraint_name
		 AND kcu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'`

func (d *postgresDialect) Catalog() catalogQueries {
	return catalogQueries{
		Schemas: `
			SELECT schema_name
			FROM information_schema.schemata
			WHERE schema_name NOT IN (` + pgSystemSchemas + `)
			  AND schema_name NOT LIKE 'pg_temp_%'
			  AND schema_name NOT LIKE 'pg_toast_temp_%'
			ORDER BY schema_name`,

		Tables: `
			SELECT t.table_schema, t.table_name, t.table_type,
			       obj_description(c.oid, 'pg_class')
			FROM information_schema.tables t
			LEFT JOIN pg_namespace n ON n.nspname = t.table_schema
			LEFT JOIN pg_class c ON c.relname = t.table_name AND c.relnamespace = n.oid
			WHERE t.table_schema NOT IN (` + pgSystemSchemas + `)
			ORDER BY t.table_schema, t.table_name`,

		Columns: `
			SELECT c.table_schema, c.table_name, c.column_name, c.data_type,
			       CASE WHEN c.data_type = 'USER-DEFINED'
			            THEN c.udt_schema || '.' || c.udt_name END,
			       c.is_nullable, c.column_default,
			       c.ordinal_position::int,
			       CASE WHEN pk.column_name IS NOT NULL THEN 1 ELSE 0 END
			FROM information_schema.columns c
			LEFT JOIN (` + pgPrimaryKeyColumns + `) pk
			  ON pk.table_schema = c.table_schema
			 AND pk.table_name = c.table_name
			 AND pk.column_name = c.column_name
			WHERE c.table_schema NOT IN (` + pgSystemSchemas + `)
			ORDER BY c.table_schema, c.table_name, c.ordinal_position`,

		ForeignKeys: `
			SELECT tc.table_schema, tc.table_name, kcu.column_name,
			       tc.constraint_name,
			       ccu.table_schema, ccu.table_name, ccu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
			  ON kcu.constraint_name = tc.constraint_name
			 AND kcu.table_schema = tc.table_schema
			JOIN information_schema.constraint_column_usage ccu
			  ON ccu.constraint_name = tc.constraint_name
			 AND ccu.table_schema = tc.table_schema
			WHERE tc.constraint_type = 'FOREIGN KEY'
			  AND tc.table_schema NOT IN (` + pgSystemSchemas + `)`,

		CustomTypes: `
			SELECT n.nspname, t.typname,
			       CASE t.typtype WHEN 'e' THEN 'ENUM' ELSE 'DOMAIN' END,
			       bt.typname, e.enumlabel
			FROM pg_type t
			JOIN pg_namespace n ON n.oid = t.typnamespace
			LEFT JOIN pg_type bt ON bt.oid = t.typbasetype AND t.typtype = 'd'
			LEFT JOIN pg_enum e ON e.enumtypid = t.oid
			WHERE t.typtype IN ('e', 'd')
			  AND n.nspname NOT IN (` + pgSystemSchemas + `)
			ORDER BY n.nspname, t.typname, e.enumsortorder`,

		Routines: `
			SELECT r.routine_schema, r.routine_name, r.specific_name,
			       r.routine_type, NULLIF(r.data_type, ''), r.external_language
			FROM information_schema.routines r
			WHERE r.routine_schema NOT IN (` + pgSystemSchemas + `)
			ORDER BY r.routine_schema, r.routine_name`,

		RoutineParams: `
			SELECT p.specific_schema, p.specific_name, p.parameter_name,
			       COALESCE(p.data_type, ''), COALESCE(p.parameter_mode, 'IN'),
			       p.ordinal_position::int
			FROM information_schema.parameters p
			WHERE p.specific_schema NOT IN (` + pgSystemSchemas + `)
			ORDER BY p.specific_schema, p.specific_name, p.ordinal_position`,

		Sequences: `
			SELECT sequence_schema, sequence_name, data_type,
			       start_value::bigint, minimum_value::bigint,
			       maximum_value::bigint, increment::bigint,
			       CASE WHEN cycle_option = 'YES' THEN 1 ELSE 0 END
			FROM information_schema.sequences
			WHERE sequence_schema NOT IN (` + pgSystemSchemas + `)
			ORDER BY sequence_schema, sequence_name`,
	}
}

func (d *postgresDialect) TableCatalog() tableCatalogQueries {
	return tableCatalogQueries{
		Columns: `
			SELECT c.column_name,
			       CASE WHEN c.data_type = 'USER-DEFINED' THEN c.udt_name
			            ELSE c.data_type END,
			       c.is_nullable, c.column_default,
			       CASE WHEN pk.column_name IS NOT NULL THEN 1 ELSE 0 END,
			       col_description(cls.oid, c.ordinal_position::int)
			FROM information_schema.columns c
			LEFT JOIN pg_namespace n ON n.nspname = c.table_schema
			LEFT JOIN pg_class cls ON cls.relname = c.table_name AND cls.relnamespace = n.oid
			LEFT JOIN (` + pgPrimaryKeyColumns + `) pk
			  ON pk.table_schema = c.table_schema
			 AND pk.table_name = c.table_name
			 AND pk.column_name = c.column_name
			WHERE c.table_schema = $1 AND c.table_name = $2
			ORDER BY c.ordinal_position`,

		// the synthetic NOT NULL checks postgres generates are dropped:
		// nullability is already on the column definitions
		Constraints: `
			SELECT tc.constraint_name, tc.constraint_type, kcu.column_name,
			       CASE WHEN tc.constraint_type = 'CHECK'
			            THEN 'CHECK (' || cc.check_clause || ')' END
			FROM information_schema.table_constraints tc
			LEFT JOIN information_schema.key_column_usage kcu
			  ON kcu.constraint_name = tc.constraint_name
			 AND kcu.table_schema = tc.table_schema
			LEFT JOIN information_schema.check_constraints cc
			  ON cc.constraint_name = tc.constraint_name
			 AND cc.constraint_schema = tc.constraint_schema
			WHERE tc.table_schema = $1 AND tc.table_name = $2
			  AND (tc.constraint_type <> 'CHECK' OR cc.check_clause NOT LIKE '%IS NOT NULL')
			ORDER BY tc.constraint_name, kcu.ordinal_position`,

		Indexes: `
			SELECT c.relname,
			       CASE WHEN i.indisunique THEN 1 ELSE 0 END,
			       am.amname,
			       CASE WHEN i.indexprs IS NULL THEN
			         (SELECT string_agg(a.attname, ',' ORDER BY x.ord)
			            FROM unnest(i.indkey::int2[]) WITH ORDINALITY AS x(attnum, ord)
			            JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = x.attnum)
			       END,
			       pg_get_indexdef(i.indexrelid)
			FROM pg_index i
			JOIN pg_class c ON c.oid = i.indexrelid
			JOIN pg_class t ON t.oid = i.indrelid
			JOIN pg_namespace n ON n.oid = t.relnamespace
			JOIN pg_am am ON am.oid = c.relam
			WHERE n.nspname = $1 AND t.relname = $2 AND NOT i.indisprimary
			ORDER BY c.relname`,
	}
}
