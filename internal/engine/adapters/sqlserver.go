package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"

	"sqldeck/internal/model"
)

type sqlserverDialect struct{}

var _ dialect = (*sqlserverDialect)(nil)

func (d *sqlserverDialect) Name() model.Dialect {
	return model.DialectSQLServer
}

func (d *sqlserverDialect) DriverName() string {
	return "sqlserver"
}

func (d *sqlserverDialect) BuildDSN(cfg *model.ConnectionConfig, host string, port int) string {
	dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
		url.QueryEscape(cfg.Username), url.QueryEscape(cfg.Password),
		host, port, url.QueryEscape(cfg.Database))
	if cfg.SSLMode != "" {
		dsn += "&encrypt=" + url.QueryEscape(cfg.SSLMode)
	}
	return dsn
}

// SQL Server has no session-level statement timeout; timeouts are enforced
// by context cancellation only
func (d *sqlserverDialect) StatementTimeoutSQL(timeoutMs int) string {
	return ""
}

// Explain toggles SHOWPLAN_XML (estimated) or STATISTICS XML (actual, runs
// the statement) on the session, executes, and collects the plan documents
// from the result sets.
func (d *sqlserverDialect) Explain(ctx context.Context, db *sql.DB, sqlText string, analyze bool) (string, error) {
	toggle := "SHOWPLAN_XML"
	if analyze {
		toggle = "STATISTICS XML"
	}
	if _, err := db.ExecContext(ctx, "SET "+toggle+" ON"); err != nil {
		return "", err
	}
	// reset even when the statement itself failed or ctx was cancelled
	defer db.ExecContext(context.WithoutCancel(ctx), "SET "+toggle+" OFF")

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var plans []string
	for {
		cols, err := rows.Columns()
		if err != nil {
			return "", err
		}
		if len(cols) == 1 {
			for rows.Next() {
				var cell sql.NullString
				if err := rows.Scan(&cell); err != nil {
					return "", err
				}
				if cell.Valid && strings.Contains(cell.String, "ShowPlanXML") {
					plans = append(plans, cell.String)
				}
			}
		} else {
			// with STATISTICS XML the statement's own result sets
			// interleave with the plans; drain them
			for rows.Next() {
			}
		}
		if err := rows.Err(); err != nil {
			return "", err
		}
		if !rows.NextResultSet() {
			break
		}
	}
	if len(plans) == 0 {
		return "", fmt.Errorf("no execution plan returned")
	}
	return strings.Join(plans, "\n"), nil
}

func (d *sqlserverDialect) EnumValuesFromRef(ref string) []string {
	return nil
}

const mssqlSystemSchemas = `'sys', 'INFORMATION_SCHEMA', 'guest',
			'db_owner', 'db_accessadmin', 'db_securityadmin', 'db_ddladmin',
			'db_backupoperator', 'db_datareader', 'db_datawriter',
			'db_denydatareader', 'db_denydatawriter'`

const mssqlPrimaryKeyColumns = `
		SELECT kcu.table_schema, kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = tc.constraint_name
		 AND kcu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'`

func (d *sqlserverDialect) Catalog() catalogQueries {
	return catalogQueries{
		Schemas: `
			SELECT name FROM sys.schemas
			WHERE name NOT IN (` + mssqlSystemSchemas + `)
			ORDER BY name`,

		Tables: `
			SELECT table_schema, table_name, table_type, CAST(NULL AS nvarchar(1))
			FROM information_schema.tables
			WHERE table_schema NOT IN (` + mssqlSystemSchemas + `)
			ORDER BY table_schema, table_name`,

		Columns: `
			SELECT c.table_schema, c.table_name, c.column_name, c.data_type,
			       CAST(NULL AS nvarchar(1)),
			       c.is_nullable, c.column_default, c.ordinal_position,
			       CASE WHEN pk.column_name IS NOT NULL THEN 1 ELSE 0 END
			FROM information_schema.columns c
			LEFT JOIN (` + mssqlPrimaryKeyColumns + `) pk
			  ON pk.table_schema = c.table_schema
			 AND pk.table_name = c.table_name
			 AND pk.column_name = c.column_name
			WHERE c.table_schema NOT IN (` + mssqlSystemSchemas + `)
			ORDER BY c.table_schema, c.table_name, c.ordinal_position`,

		ForeignKeys: `
			SELECT fk.table_schema, fk.table_name, fk.column_name,
			       fk.constraint_name,
			       pk.table_schema, pk.table_name, pk.column_name
			FROM information_schema.referential_constraints rc
			JOIN information_schema.key_column_usage fk
			  ON fk.constraint_name = rc.constraint_name
			 AND fk.constraint_schema = rc.constraint_schema
			JOIN information_schema.key_column_usage pk
			  ON pk.constraint_name = rc.unique_constraint_name
			 AND pk.constraint_schema = rc.unique_constraint_schema
			 AND pk.ordinal_position = fk.ordinal_position`,

		Routines: `
			SELECT routine_schema, routine_name, specific_name, routine_type,
			       NULLIF(data_type, ''), CAST(NULL AS nvarchar(1))
			FROM information_schema.routines
			WHERE routine_schema NOT IN (` + mssqlSystemSchemas + `)
			ORDER BY routine_schema, routine_name`,

		RoutineParams: `
			SELECT specific_schema, specific_name, parameter_name,
			       COALESCE(data_type, ''), COALESCE(parameter_mode, 'IN'),
			       ordinal_position
			FROM information_schema.parameters
			WHERE specific_schema NOT IN (` + mssqlSystemSchemas + `)
			  AND ordinal_position > 0
			ORDER BY specific_schema, specific_name, ordinal_position`,

		Sequences: `
			SELECT s.name, seq.name, TYPE_NAME(seq.system_type_id),
			       CAST(seq.start_value AS bigint),
			       CAST(seq.minimum_value AS bigint),
			       CAST(seq.maximum_value AS bigint),
			       CAST(seq.increment AS bigint),
			       CAST(seq.is_cycling AS int)
			FROM sys.sequences seq
			JOIN sys.schemas s ON s.schema_id = seq.schema_id
			ORDER BY s.name, seq.name`,
	}
}

func (d *sqlserverDialect) TableCatalog() tableCatalogQueries {
	return tableCatalogQueries{
		Columns: `
			SELECT c.column_name, c.data_type, c.is_nullable, c.column_default,
			       CASE WHEN pk.column_name IS NOT NULL THEN 1 ELSE 0 END,
			       CAST(NULL AS nvarchar(1))
			FROM information_schema.columns c
			LEFT JOIN (` + mssqlPrimaryKeyColumns + `) pk
			  ON pk.table_schema = c.table_schema
			 AND pk.table_name = c.table_name
			 AND pk.column_name = c.column_name
			WHERE c.table_schema = @p1 AND c.table_name = @p2
			ORDER BY c.ordinal_position`,

		// check_clause already carries its own parentheses here
		Constraints: `
			SELECT tc.constraint_name, tc.constraint_type, kcu.column_name,
			       CASE WHEN tc.constraint_type = 'CHECK' THEN
			         (SELECT 'CHECK ' + cc.check_clause
			            FROM information_schema.check_constraints cc
			           WHERE cc.constraint_schema = tc.constraint_schema
			             AND cc.constraint_name = tc.constraint_name)
			       END
			FROM information_schema.table_constraints tc
			LEFT JOIN information_schema.key_column_usage kcu
			  ON kcu.constraint_name = tc.constraint_name
			 AND kcu.table_schema = tc.table_schema
			WHERE tc.table_schema = @p1 AND tc.table_name = @p2
			ORDER BY tc.constraint_name, kcu.ordinal_position`,

		Indexes: `
			SELECT i.name, CAST(i.is_unique AS int), LOWER(i.type_desc),
			       STRING_AGG(col.name, ',') WITHIN GROUP (ORDER BY ic.key_ordinal),
			       CAST(NULL AS nvarchar(1))
			FROM sys.indexes i
			JOIN sys.tables t ON t.object_id = i.object_id
			JOIN sys.schemas s ON s.schema_id = t.schema_id
			JOIN sys.index_columns ic
			  ON ic.object_id = i.object_id AND ic.index_id = i.index_id
			JOIN sys.columns col
			  ON col.object_id = ic.object_id AND col.column_id = ic.column_id
			WHERE s.name = @p1 AND t.name = @p2
			  AND i.is_primary_key = 0 AND i.type > 0
			GROUP BY i.name, i.is_unique, i.type_desc
			ORDER BY i.name`,
	}
}
