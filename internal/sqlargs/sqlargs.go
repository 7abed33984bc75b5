// Package sqlargs interpolates bound parameters into SQL text. The DuckDB
// HTTP extension accepts only raw statements, so placeholders are resolved
// client-side into literals before the request is built.
package sqlargs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interpolate replaces each ? placeholder in query with the literal
// rendering of the corresponding argument. Placeholders inside quoted
// strings, quoted identifiers and comments are left untouched. It is an
// error for the number of placeholders and arguments to differ.
func Interpolate(query string, args []any) (string, error) {
	if len(args) == 0 {
		if n := countPlaceholders(query); n != 0 {
			return "", fmt.Errorf("sqlargs: statement has %d placeholders but no arguments", n)
		}
		return query, nil
	}

	var sb strings.Builder
	sb.Grow(len(query) + 16*len(args))

	next := 0
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch c {
		case '\'', '"':
			end := skipQuoted(query, i)
			sb.WriteString(query[i:end])
			i = end - 1
		case '-':
			if i+1 < len(query) && query[i+1] == '-' {
				end := skipLineComment(query, i)
				sb.WriteString(query[i:end])
				i = end - 1
			} else {
				sb.WriteByte(c)
			}
		case '/':
			if i+1 < len(query) && query[i+1] == '*' {
				end := skipBlockComment(query, i)
				sb.WriteString(query[i:end])
				i = end - 1
			} else {
				sb.WriteByte(c)
			}
		case '?':
			if next >= len(args) {
				return "", fmt.Errorf("sqlargs: statement has more placeholders than the %d arguments given", len(args))
			}
			lit, err := Literal(args[next])
			if err != nil {
				return "", err
			}
			sb.WriteString(lit)
			next++
		default:
			sb.WriteByte(c)
		}
	}

	if next != len(args) {
		return "", fmt.Errorf("sqlargs: %d arguments given but statement has %d placeholders", len(args), next)
	}
	return sb.String(), nil
}

// Literal renders a single Go value as a DuckDB SQL literal.
func Literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	case string:
		return quoteString(x), nil
	case []byte:
		return blobLiteral(x), nil
	case time.Time:
		return timeLiteral(x), nil
	default:
		return "", fmt.Errorf("sqlargs: cannot encode %T as a SQL literal", v)
	}
}

func formatFloat(f float64) (string, error) {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// NaN and infinities have no literal spelling the server accepts.
	if s == "NaN" || s == "+Inf" || s == "-Inf" {
		return "", fmt.Errorf("sqlargs: cannot encode %s as a SQL literal", s)
	}
	return s, nil
}

// quoteString renders s as a single-quoted literal, doubling embedded
// quotes.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// blobLiteral renders raw bytes using DuckDB's escaped-blob syntax.
func blobLiteral(b []byte) string {
	var sb strings.Builder
	sb.Grow(4*len(b) + 9)
	sb.WriteByte('\'')
	for _, c := range b {
		fmt.Fprintf(&sb, "\\x%02X", c)
	}
	sb.WriteString("'::BLOB")
	return sb.String()
}

// timeLiteral renders midnight instants as DATE and everything else as
// TIMESTAMP, both in UTC.
func timeLiteral(t time.Time) string {
	u := t.UTC()
	if h, m, s := u.Clock(); h == 0 && m == 0 && s == 0 && u.Nanosecond() == 0 {
		return "DATE '" + u.Format("2006-01-02") + "'"
	}
	return "TIMESTAMP '" + u.Format("2006-01-02 15:04:05.999999") + "'"
}

func countPlaceholders(query string) int {
	n := 0
	for i := 0; i < len(query); i++ {
		switch query[i] {
		case '\'', '"':
			i = skipQuoted(query, i) - 1
		case '-':
			if i+1 < len(query) && query[i+1] == '-' {
				i = skipLineComment(query, i) - 1
			}
		case '/':
			if i+1 < len(query) && query[i+1] == '*' {
				i = skipBlockComment(query, i) - 1
			}
		case '?':
			n++
		}
	}
	return n
}

// skipQuoted returns the index just past a quoted region starting at
// start. Doubled quotes inside the region are treated as escapes.
func skipQuoted(query string, start int) int {
	q := query[start]
	for i := start + 1; i < len(query); i++ {
		if query[i] != q {
			continue
		}
		if i+1 < len(query) && query[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(query)
}

func skipLineComment(query string, start int) int {
	for i := start + 2; i < len(query); i++ {
		if query[i] == '\n' {
			return i + 1
		}
	}
	return len(query)
}

func skipBlockComment(query string, start int) int {
	for i := start + 2; i+1 < len(query); i++ {
		if query[i] == '*' && query[i+1] == '/' {
			return i + 2
		}
	}
	return len(query)
}
