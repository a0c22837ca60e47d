package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"sqldeck/internal/model"
)

// mysqlDialect serves mysql and mariadb
type mysqlDialect struct {
	tag model.Dialect
}

var _ dialect = (*mysqlDialect)(nil)

func (d *mysqlDialect) Name() model.Dialect {
	return d.tag
}

func (d *mysqlDialect) DriverName() string {
	return "mysql"
}

func (d *mysqlDialect) BuildDSN(cfg *model.ConnectionConfig, host string, port int) string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.Username, cfg.Password, host, port, cfg.Database)
	if cfg.SSLMode != "" {
		dsn += "&tls=" + url.QueryEscape(cfg.SSLMode)
	}
	return dsn
}

func (d *mysqlDialect) StatementTimeoutSQL(timeoutMs int) string {
	return fmt.Sprintf("SET SESSION MAX_EXECUTION_TIME = %d", timeoutMs)
}

func (d *mysqlDialect) Explain(ctx context.Context, db *sql.DB, sqlText string, analyze bool) (string, error) {
	// EXPLAIN ANALYZE runs the statement and reports the actual plan as
	// text; the plain variant yields the optimizer's JSON estimate
	prefix := "EXPLAIN FORMAT=JSON "
	if analyze {
		prefix = "EXPLAIN ANALYZE "
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

// EnumValuesFromRef parses the values out of a raw column type such as
// enum('open','closed'), honoring doubled-quote escapes
func (d *mysqlDialect) EnumValuesFromRef(ref string) []string {
	lower := strings.ToLower(ref)
	if !strings.HasPrefix(lower, "enum(") && !strings.HasPrefix(lower, "set(") {
		return nil
	}
	body := ref[strings.IndexByte(ref, '(')+1:]
	if i := strings.LastIndexByte(body, ')'); i >= 0 {
		body = body[:i]
	}

	var values []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\'':
			if inQuote && i+1 < len(body) && body[i+1] == '\'' {
				cur.WriteByte('\'')
				i++
			} else if inQuote {
				inQuote = false
				values = append(values, cur.String())
				cur.Reset()
			} else {
				inQuote = true
			}
		case inQuote:
			cur.WriteByte(c)
		}
	}
	return values
}

const mysqlSystemSchemas = `'information_schema', 'mysql', 'performance_schema', 'sys'`

func (d *mysqlDialect) Catalog() catalogQueries {
	return catalogQueries{
		Schemas: `
			SELECT schema_name
			FROM information_schema.schemata
			WHERE schema_name NOT IN (` + mysqlSystemSchemas + `)
			ORDER BY schema_name`,

		Tables: `
			SELECT table_schema, table_name,
			       IF(table_type = 'VIEW', 'VIEW', 'BASE TABLE'),
			       NULLIF(table_comment, '')
			FROM information_schema.tables
			WHERE table_schema NOT IN (` + mysqlSystemSchemas + `)
			ORDER BY table_schema, table_name`,

		// enum_ref carries the raw column_type for enum and set columns;
		// EnumValuesFromRef unpacks it
		Columns: `
			SELECT c.table_schema, c.table_name, c.column_name, c.data_type,
			       CASE WHEN c.data_type IN ('enum', 'set') THEN c.column_type END,
			       c.is_nullable, c.column_default, c.ordinal_position,
			       IF(c.column_key = 'PRI', 1, 0)
			FROM information_schema.columns c
			WHERE c.table_schema NOT IN (` + mysqlSystemSchemas + `)
			ORDER BY c.table_schema, c.table_name, c.ordinal_position`,

		ForeignKeys: `
			SELECT kcu.table_schema, kcu.table_name, kcu.column_name,
			       kcu.constraint_name,
			       kcu.referenced_table_schema, kcu.referenced_table_name,
			       kcu.referenced_column_name
			FROM information_schema.key_column_usage kcu
			WHERE kcu.referenced_table_name IS NOT NULL
			  AND kcu.table_schema NOT IN (` + mysqlSystemSchemas + `)`,

		Routines: `
			SELECT routine_schema, routine_name, specific_name, routine_type,
			       NULLIF(data_type, ''), 'SQL'
			FROM information_schema.routines
			WHERE routine_schema NOT IN (` + mysqlSystemSchemas + `)
			ORDER BY routine_schema, routine_name`,

		// ordinal 0 is the function return slot, not a parameter
		RoutineParams: `
			SELECT specific_schema, specific_name, parameter_name,
			       COALESCE(data_type, ''), COALESCE(parameter_mode, 'IN'),
			       ordinal_position
			FROM information_schema.parameters
			WHERE specific_schema NOT IN (` + mysqlSystemSchemas + `)
			  AND ordinal_position > 0
			ORDER BY specific_schema, specific_name, ordinal_position`,
	}
}

func (d *mysqlDialect) TableCatalog() tableCatalogQueries {
	return tableCatalogQueries{
		// column_type keeps the display width and enum values, which the
		// DDL builders need verbatim
		Columns: `
			SELECT column_name, column_type, is_nullable, column_default,
			       IF(column_key = 'PRI', 1, 0), NULLIF(column_comment, '')
			FROM information_schema.columns
			WHERE table_schema = ? AND table_name = ?
			ORDER BY ordinal_position`,

		Constraints: `
			SELECT tc.constraint_name, tc.constraint_type, kcu.column_name,
			       CASE WHEN tc.constraint_type = 'CHECK' THEN
			         (SELECT CONCAT('CHECK (', cc.check_clause, ')')
			            FROM information_schema.check_constraints cc
			           WHERE cc.constraint_schema = tc.table_schema
			             AND cc.constraint_name = tc.constraint_name)
			       END
			FROM information_schema.table_constraints tc
			LEFT JOIN information_schema.key_column_usage kcu
			  ON kcu.constraint_name = tc.constraint_name
			 AND kcu.table_schema = tc.table_schema
			 AND kcu.table_name = tc.table_name
			WHERE tc.table_schema = ? AND tc.table_name = ?
			ORDER BY tc.constraint_name, kcu.ordinal_position`,

		// functional index parts have NULL column_name; the expression is
		// wrapped in parens so the definition miner finds it
		Indexes: `
			SELECT index_name, IF(MAX(non_unique) = 0, 1, 0),
			       LOWER(MAX(index_type)),
			       GROUP_CONCAT(column_name ORDER BY seq_in_index SEPARATOR ','),
			       MAX(CONCAT('(', expression, ')'))
			FROM information_schema.statistics
			WHERE table_schema = ? AND table_name = ? AND index_name <> 'PRIMARY'
			GROUP BY index_name
			ORDER BY index_name`,
	}
}
