package core

import "strings"

// KindOf classifies a declared DuckDB type name into a TypeKind. Type
// parameters (DECIMAL(18,3), VARCHAR(32)) and case are ignored. Unknown
// types classify as strings so callers can always render them.
func KindOf(databaseType string) TypeKind {
	t := strings.ToUpper(strings.TrimSpace(databaseType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "":
		return KindString
	case "INTERVAL", "UUID", "JSON", "ENUM":
		return KindString
	case "BLOB", "BYTEA", "BINARY", "VARBINARY", "BIT":
		return KindBytes
	case "DATE":
		return KindDate
	case "DATETIME":
		return KindTimestamp
	case "BOOLEAN", "BOOL", "LOGICAL":
		return KindBool
	}

	switch {
	case strings.HasPrefix(t, "TIMESTAMP"):
		// Covers TIMESTAMP, TIMESTAMPTZ and TIMESTAMP WITH TIME ZONE.
		return KindTimestamp
	case strings.Contains(t, "INT"):
		// TINYINT through HUGEINT, signed and unsigned.
		return KindInt
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), t == "STRING":
		return KindString
	case strings.Contains(t, "DOUBLE"), strings.Contains(t, "FLOAT"), t == "REAL", strings.Contains(t, "DECIMAL"), t == "NUMERIC":
		return KindFloat
	default:
		return KindString
	}
}
