package sqlsplit

import (
	"strings"

	"sqldeck/internal/model"
)

// IsDataReturning reports whether a statement produces a result set, as
// opposed to a side-effecting statement reporting an affected-row count.
// The classification depends on dialect grammar (RETURNING vs OUTPUT), so
// it is computed by the engine rather than guessed by callers.
func IsDataReturning(stmt string, dialect model.Dialect) bool {
	head := strings.ToUpper(firstKeyword(stmt))

	switch head {
	case "SELECT", "WITH", "TABLE", "VALUES", "SHOW", "EXPLAIN", "DESCRIBE", "DESC":
		return true
	}

	upper := strings.ToUpper(stmt)
	switch dialect.Family() {
	case model.DialectPostgres:
		return containsKeyword(upper, "RETURNING")
	case model.DialectSQLServer:
		return containsKeyword(upper, "OUTPUT")
	default:
		return false
	}
}

// firstKeyword returns the first bare word of a statement, skipping
// leading comments and opening parentheses
func firstKeyword(stmt string) string {
	s := stmt
	for {
		s = strings.TrimLeft(s, " \t\r\n(")
		switch {
		case strings.HasPrefix(s, "--"):
			if idx := strings.IndexByte(s, '\n'); idx >= 0 {
				s = s[idx+1:]
				continue
			}
			return ""
		case strings.HasPrefix(s, "/*"):
			if idx := strings.Index(s, "*/"); idx >= 0 {
				s = s[idx+2:]
				continue
			}
			return ""
		}
		break
	}

	end := 0
	for end < len(s) {
		c := s[end]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			break
		}
		end++
	}
	return s[:end]
}

// containsKeyword looks for a whole-word keyword outside string literals
func containsKeyword(upperSQL, keyword string) bool {
	inString := false
	for i := 0; i+len(keyword) <= len(upperSQL); i++ {
		if upperSQL[i] == '\'' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if upperSQL[i:i+len(keyword)] != keyword {
			continue
		}
		beforeOK := i == 0 || !isWordChar(upperSQL[i-1])
		afterIdx := i + len(keyword)
		afterOK := afterIdx == len(upperSQL) || !isWordChar(upperSQL[afterIdx])
		if beforeOK && afterOK {
			return true
		}
	}
	return false
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
