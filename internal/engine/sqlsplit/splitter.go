// Package sqlsplit lexically splits SQL scripts into ordered statements.
package sqlsplit

import (
	"strings"

	"sqldeck/internal/model"
)

// Split divides a script into ordered statement strings, respecting string
// literals, quoted identifiers, comments and dialect-specific quoting
// (dollar-quoted bodies for PostgreSQL, backticks and # comments for MySQL,
// bracketed identifiers for SQL Server). Empty segments are dropped.
//
// Unterminated strings or comments are not an error here: the remainder of
// the script becomes one final statement and the engine reports the syntax
// error at execution time.
func Split(sqlText string, dialect model.Dialect) []string {
	family := dialect.Family()

	var statements []string
	var buf strings.Builder
	src := sqlText
	i := 0

	flush := func() {
		stmt := strings.TrimSpace(buf.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
		buf.Reset()
	}

	for i < len(src) {
		c := src[i]

		switch {
		case c == ';':
			flush()
			i++

		case c == '\'':
			i = consumeQuoted(src, i, '\'', family == model.DialectMySQL, &buf)

		case c == '"':
			// quoted identifier in postgres and sqlserver, string in mysql
			i = consumeQuoted(src, i, '"', family == model.DialectMySQL, &buf)

		case c == '`' && family == model.DialectMySQL:
			i = consumeQuoted(src, i, '`', false, &buf)

		case c == '[' && family == model.DialectSQLServer:
			i = consumeBracketed(src, i, &buf)

		case c == '$' && family == model.DialectPostgres:
			if end, ok := consumeDollarQuoted(src, i, &buf); ok {
				i = end
			} else {
				buf.WriteByte(c)
				i++
			}

		case c == '-' && i+1 < len(src) && src[i+1] == '-':
			i = consumeLineComment(src, i, &buf)

		case c == '#' && family == model.DialectMySQL:
			i = consumeLineComment(src, i, &buf)

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			// postgres block comments nest; mysql and sqlserver ones do not
			i = consumeBlockComment(src, i, family == model.DialectPostgres, &buf)

		default:
			buf.WriteByte(c)
			i++
		}
	}
	flush()

	return statements
}

// consumeQuoted copies a quoted region starting at src[start] (the opening
// quote). Doubled quotes always escape; backslash escapes only when the
// dialect treats backslash as an escape character (MySQL).
func consumeQuoted(src string, start int, quote byte, backslashEscapes bool, buf *strings.Builder) int {
	buf.WriteByte(src[start])
	i := start + 1
	for i < len(src) {
		c := src[i]
		if backslashEscapes && c == '\\' && i+1 < len(src) {
			buf.WriteByte(c)
			buf.WriteByte(src[i+1])
			i += 2
			continue
		}
		buf.WriteByte(c)
		i++
		if c == quote {
			if i < len(src) && src[i] == quote {
				// doubled quote, still inside
				buf.WriteByte(src[i])
				i++
				continue
			}
			return i
		}
	}
	return i // unterminated: rest of script stays in the current statement
}

// consumeBracketed copies a [bracketed] identifier; ]] escapes a bracket
func consumeBracketed(src string, start int, buf *strings.Builder) int {
	buf.WriteByte(src[start])
	i := start + 1
	for i < len(src) {
		c := src[i]
		buf.WriteByte(c)
		i++
		if c == ']' {
			if i < len(src) && src[i] == ']' {
				buf.WriteByte(src[i])
				i++
				continue
			}
			return i
		}
	}
	return i
}

// consumeDollarQuoted copies a $tag$...$tag$ region. Returns ok=false when
// src[start] does not open a valid dollar-quote tag.
func consumeDollarQuoted(src string, start int, buf *strings.Builder) (int, bool) {
	// scan the opening tag: $ [A-Za-z0-9_]* $
	j := start + 1
	for j < len(src) && (isTagChar(src[j])) {
		j++
	}
	if j >= len(src) || src[j] != '$' {
		return start, false
	}
	tag := src[start : j+1]

	buf.WriteString(tag)
	i := j + 1
	for i < len(src) {
		if src[i] == '$' && strings.HasPrefix(src[i:], tag) {
			buf.WriteString(tag)
			return i + len(tag), true
		}
		buf.WriteByte(src[i])
		i++
	}
	return i, true // unterminated body swallows the rest
}

func isTagChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// consumeLineComment copies a -- or # comment through the newline
func consumeLineComment(src string, start int, buf *strings.Builder) int {
	i := start
	for i < len(src) && src[i] != '\n' {
		buf.WriteByte(src[i])
		i++
	}
	return i
}

// consumeBlockComment copies a /* */ comment, honoring nesting when the
// dialect supports it
func consumeBlockComment(src string, start int, nests bool, buf *strings.Builder) int {
	buf.WriteString("/*")
	i := start + 2
	depth := 1
	for i < len(src) && depth > 0 {
		if src[i] == '*' && i+1 < len(src) && src[i+1] == '/' {
			buf.WriteString("*/")
			i += 2
			depth--
			continue
		}
		if nests && src[i] == '/' && i+1 < len(src) && src[i+1] == '*' {
			buf.WriteString("/*")
			i += 2
			depth++
			continue
		}
		buf.WriteByte(src[i])
		i++
	}
	return i
}
