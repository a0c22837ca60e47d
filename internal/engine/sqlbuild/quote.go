// Package sqlbuild generates dialect-correct SQL from structured edit and
// DDL descriptions. All builders are pure: no I/O, deterministic output.
package sqlbuild

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sqldeck/internal/model"
)

// QuoteIdent quotes an identifier for the dialect
func QuoteIdent(name string, dialect model.Dialect) string {
	switch dialect.Family() {
	case model.DialectMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case model.DialectSQLServer:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// QualifiedName quotes schema.table, omitting an empty schema
func QualifiedName(schema, table string, dialect model.Dialect) string {
	if schema == "" {
		return QuoteIdent(table, dialect)
	}
	return QuoteIdent(schema, dialect) + "." + QuoteIdent(table, dialect)
}

// Placeholder returns the dialect's parameter marker for 1-based position n
func Placeholder(n int, dialect model.Dialect) string {
	switch dialect.Family() {
	case model.DialectPostgres:
		return "$" + strconv.Itoa(n)
	case model.DialectSQLServer:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// QuoteLiteral renders a value as an inline SQL literal. Used only for
// human-readable previews, never for executed SQL.
func QuoteLiteral(value interface{}, dialect model.Dialect) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case bool:
		if dialect.Family() == model.DialectSQLServer {
			if v {
				return "1"
			}
			return "0"
		}
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return "'" + v.Format("2006-01-02 15:04:05.999999") + "'"
	case []byte:
		switch dialect.Family() {
		case model.DialectPostgres:
			return `'\x` + hex.EncodeToString(v) + "'"
		default:
			return "0x" + hex.EncodeToString(v)
		}
	default:
		s := fmt.Sprintf("%v", v)
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
}
