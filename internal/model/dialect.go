// Package model defines the shared data structures exchanged between the
// adapters, the execution engine and the API surface.
package model

// Dialect identifies a supported database engine flavor
type Dialect string

const (
	DialectPostgres    Dialect = "postgres"
	DialectRedshift    Dialect = "redshift"
	DialectCockroachDB Dialect = "cockroachdb"
	DialectMySQL       Dialect = "mysql"
	DialectMariaDB     Dialect = "mariadb"
	DialectSQLServer   Dialect = "sqlserver"
)

// IsValidDialect reports whether d names a supported dialect
func IsValidDialect(d Dialect) bool {
	switch d {
	case DialectPostgres, DialectRedshift, DialectCockroachDB,
		DialectMySQL, DialectMariaDB, DialectSQLServer:
		return true
	}
	return false
}

// Family collapses wire-compatible dialects onto the engine whose driver
// and SQL surface they share: redshift and cockroachdb speak the postgres
// protocol, mariadb speaks mysql's.
func (d Dialect) Family() Dialect {
	switch d {
	case DialectRedshift, DialectCockroachDB:
		return DialectPostgres
	case DialectMariaDB:
		return DialectMySQL
	default:
		return d
	}
}

// DefaultPort returns the conventional port for the dialect
func (d Dialect) DefaultPort() int {
	switch d.Family() {
	case DialectPostgres:
		if d == DialectCockroachDB {
			return 26257
		}
		if d == DialectRedshift {
			return 5439
		}
		return 5432
	case DialectMySQL:
		return 3306
	case DialectSQLServer:
		return 1433
	default:
		return 0
	}
}
