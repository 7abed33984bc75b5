package mockserver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/oraichain/duckdb-http/pkg/core"
)

// queryError is an execution failure the server reports with an HTTP
// status and a body-level error message, the way the extension does.
type queryError struct {
	status  int
	message string
}

func (e *queryError) Error() string { return e.message }

func parserError(format string, args ...any) *queryError {
	return &queryError{status: fiber.StatusBadRequest, message: "Parser Error: " + fmt.Sprintf(format, args...)}
}

func binderError(format string, args ...any) *queryError {
	return &queryError{status: fiber.StatusBadRequest, message: "Binder Error: " + fmt.Sprintf(format, args...)}
}

func catalogError(table string) *queryError {
	return &queryError{
		status:  fiber.StatusBadRequest,
		message: fmt.Sprintf("Catalog Error: Table with name %s does not exist!", table),
	}
}

// engine matches incoming statements against the fixture catalog. It is
// not a SQL executor: it answers exactly the statement families the
// adapter issues.
type engine struct {
	catalog *Catalog
	version string
	now     func() time.Time
}

func newEngine(catalog *Catalog, version string) *engine {
	return &engine{catalog: catalog, version: version, now: time.Now}
}

var (
	selectLiteralRe = regexp.MustCompile(`(?i)^select\s+(\d+)$`)
	describeRe      = regexp.MustCompile(`(?i)^describe\s+(.+)$`)
	pragmaInfoRe    = regexp.MustCompile(`(?i)^pragma\s+table_info\s*\(\s*'?"?([^'")]+)'?"?\s*\)$`)
	probeRe         = regexp.MustCompile(`(?i)^select\s+\*\s+from\s+\((.+)\)\s+limit\s+(\d+)$`)
	scanRe          = regexp.MustCompile(`(?i)^(?:select\s+(.+?)\s+)?from\s+("?[^\s";()]+"?(?:\."?[^\s";()]+"?)*)(\s+limit\s+(\d+))?$`)
	valuesRe        = regexp.MustCompile(`(?i)\bvalues\b`)

	dbFilterRe          = regexp.MustCompile(`(?i)database_name\s*=\s*'([^']*)'`)
	schemaFilterRe      = regexp.MustCompile(`(?i)\bschema_name\s*=\s*'([^']*)'`)
	tableSchemaFilterRe = regexp.MustCompile(`(?i)table_schema\s*=\s*'([^']*)'`)
)

// Execute answers one statement. Errors are always *queryError.
func (e *engine) Execute(sql string) (*core.ResultSet, error) {
	stmt := strings.TrimSpace(sql)
	stmt = strings.TrimSuffix(stmt, ";")
	stmt = strings.Join(strings.Fields(stmt), " ")
	if stmt == "" {
		return nil, parserError("empty statement")
	}
	lower := strings.ToLower(stmt)

	switch {
	case selectLiteralRe.MatchString(stmt):
		return e.selectLiteral(stmt), nil

	case lower == "select version()":
		return scalarResult("version()", "VARCHAR", core.KindString, e.version), nil

	case lower == "select now()":
		now := e.now().UTC().Format("2006-01-02 15:04:05.999999")
		return scalarResult("now()", "TIMESTAMP", core.KindTimestamp, now), nil

	case strings.Contains(lower, "from duckdb_schemas()"):
		return e.listSchemas(stmt), nil

	case strings.Contains(lower, "from duckdb_tables()"):
		return e.listTables(stmt), nil

	case strings.Contains(lower, "information_schema.tables"):
		return e.listViews(stmt), nil

	case describeRe.MatchString(stmt):
		return e.describe(describeRe.FindStringSubmatch(stmt)[1])

	case pragmaInfoRe.MatchString(stmt):
		return e.tableInfo(pragmaInfoRe.FindStringSubmatch(stmt)[1])

	case isWriteStatement(lower):
		return e.acknowledgeWrite(stmt), nil

	case probeRe.MatchString(stmt):
		// A zero-row wrapper probes a statement's column layout.
		m := probeRe.FindStringSubmatch(stmt)
		rs, err := e.Execute(m[1])
		if err != nil {
			return nil, err
		}
		if n, err := strconv.Atoi(m[2]); err == nil && n < len(rs.Rows) {
			rs.Rows = rs.Rows[:n]
		}
		return rs, nil

	case scanRe.MatchString(stmt):
		m := scanRe.FindStringSubmatch(stmt)
		return e.scan(m[1], m[2], m[4])
	}

	return nil, parserError("unsupported statement: %s", truncateSQL(stmt))
}

func (e *engine) selectLiteral(stmt string) *core.ResultSet {
	literal := selectLiteralRe.FindStringSubmatch(stmt)[1]
	n, _ := strconv.ParseInt(literal, 10, 64)
	return scalarResult(literal, "INTEGER", core.KindInt, n)
}

// listSchemas answers duckdb_schemas(), honoring a database_name filter.
func (e *engine) listSchemas(stmt string) *core.ResultSet {
	dbFilter := firstSubmatch(dbFilterRe, stmt)

	seen := make(map[string]bool)
	var rows [][]any
	for _, t := range e.catalog.All() {
		if dbFilter != "" && !strings.EqualFold(t.Database, dbFilter) {
			continue
		}
		key := t.Database + "\x00" + t.Schema
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, []any{t.Database, t.Schema})
	}
	sortRowsByStrings(rows)

	return &core.ResultSet{
		Columns: []core.Column{
			{Name: "database_name", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "schema_name", DatabaseType: "VARCHAR", Kind: core.KindString},
		},
		Rows: rows,
	}
}

// listTables answers duckdb_tables(), honoring database and schema
// filters. Views are excluded, matching DuckDB.
func (e *engine) listTables(stmt string) *core.ResultSet {
	dbFilter := firstSubmatch(dbFilterRe, stmt)
	schemaFilter := firstSubmatch(schemaFilterRe, stmt)

	var rows [][]any
	for _, t := range e.catalog.All() {
		if t.View {
			continue
		}
		if dbFilter != "" && !strings.EqualFold(t.Database, dbFilter) {
			continue
		}
		if schemaFilter != "" && !strings.EqualFold(t.Schema, schemaFilter) {
			continue
		}
		rows = append(rows, []any{t.Database, t.Schema, t.Name})
	}
	sortRowsByStrings(rows)

	return &core.ResultSet{
		Columns: []core.Column{
			{Name: "database_name", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "schema_name", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "table_name", DatabaseType: "VARCHAR", Kind: core.KindString},
		},
		Rows: rows,
	}
}

// listViews answers the information_schema view listing.
func (e *engine) listViews(stmt string) *core.ResultSet {
	schemaFilter := firstSubmatch(tableSchemaFilterRe, stmt)

	var rows [][]any
	for _, t := range e.catalog.All() {
		if !t.View {
			continue
		}
		if schemaFilter != "" && !strings.EqualFold(t.Schema, schemaFilter) {
			continue
		}
		rows = append(rows, []any{t.Schema, t.Name})
	}
	sortRowsByStrings(rows)

	return &core.ResultSet{
		Columns: []core.Column{
			{Name: "table_schema", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "table_name", DatabaseType: "VARCHAR", Kind: core.KindString},
		},
		Rows: rows,
	}
}

// describe answers DESCRIBE with DuckDB's six-column layout.
func (e *engine) describe(target string) (*core.ResultSet, error) {
	schemaName, name := parseQualified(target)
	t, ok := e.catalog.lookup(schemaName, name)
	if !ok {
		return nil, catalogError(name)
	}

	rows := make([][]any, 0, len(t.Columns))
	for _, col := range t.Columns {
		null := "NO"
		if col.Nullable {
			null = "YES"
		}
		var key any
		if t.isPrimaryKey(col.Name) {
			key = "PRI"
		}
		var dflt any
		if col.Default != "" {
			dflt = col.Default
		}
		rows = append(rows, []any{col.Name, col.DatabaseType, null, key, dflt, nil})
	}

	return &core.ResultSet{
		Columns: []core.Column{
			{Name: "column_name", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "column_type", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "null", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "key", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "default", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "extra", DatabaseType: "VARCHAR", Kind: core.KindString},
		},
		Rows: rows,
	}, nil
}

// tableInfo answers PRAGMA table_info with DuckDB's layout.
func (e *engine) tableInfo(name string) (*core.ResultSet, error) {
	schemaName, bare := parseQualified(name)
	t, ok := e.catalog.lookup(schemaName, bare)
	if !ok {
		return nil, catalogError(name)
	}

	rows := make([][]any, 0, len(t.Columns))
	for i, col := range t.Columns {
		var dflt any
		if col.Default != "" {
			dflt = col.Default
		}
		rows = append(rows, []any{
			int64(i), col.Name, col.DatabaseType, !col.Nullable, dflt, t.isPrimaryKey(col.Name),
		})
	}

	return &core.ResultSet{
		Columns: []core.Column{
			{Name: "cid", DatabaseType: "INTEGER", Kind: core.KindInt},
			{Name: "name", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "type", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "notnull", DatabaseType: "BOOLEAN", Kind: core.KindBool},
			{Name: "dflt_value", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "pk", DatabaseType: "BOOLEAN", Kind: core.KindBool},
		},
		Rows: rows,
	}, nil
}

// scan answers a plain table scan with optional column projection and
// LIMIT. Expressions are not supported.
func (e *engine) scan(selectList, target, limit string) (*core.ResultSet, error) {
	schemaName, name := parseQualified(target)
	t, ok := e.catalog.lookup(schemaName, name)
	if !ok {
		return nil, catalogError(name)
	}

	indices, err := resolveProjection(t, selectList)
	if err != nil {
		return nil, err
	}

	rows := t.Rows
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err == nil && n < len(rows) {
			rows = rows[:n]
		}
	}

	allCols := t.resultColumns()
	cols := make([]core.Column, len(indices))
	for i, idx := range indices {
		cols[i] = allCols[idx]
	}

	projected := make([][]any, len(rows))
	for r, row := range rows {
		out := make([]any, len(indices))
		for i, idx := range indices {
			if idx < len(row) {
				out[i] = row[idx]
			}
		}
		projected[r] = out
	}

	return &core.ResultSet{Columns: cols, Rows: projected}, nil
}

// resolveProjection maps a select list onto column indices. "*" or an
// empty list selects every column.
func resolveProjection(t *Table, selectList string) ([]int, error) {
	selectList = strings.TrimSpace(selectList)
	if selectList == "" || selectList == "*" {
		indices := make([]int, len(t.Columns))
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	parts := strings.Split(selectList, ",")
	indices := make([]int, 0, len(parts))
	for _, part := range parts {
		name := unquoteIdent(strings.TrimSpace(part))
		idx := -1
		for i, col := range t.Columns {
			if strings.EqualFold(col.Name, name) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, binderError("Referenced column %q not found in FROM clause!", name)
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// acknowledgeWrite answers a write statement with a Count cell, counting
// VALUES tuples for inserts. The catalog itself is never mutated.
func (e *engine) acknowledgeWrite(stmt string) *core.ResultSet {
	var count int64
	if strings.HasPrefix(strings.ToLower(stmt), "insert") {
		if loc := valuesRe.FindStringIndex(stmt); loc != nil {
			tuples := strings.ReplaceAll(stmt[loc[1]:], " ", "")
			count = int64(1 + strings.Count(tuples, "),("))
		}
	}
	return scalarResult("Count", "BIGINT", core.KindInt, count)
}

func isWriteStatement(lower string) bool {
	for _, prefix := range []string{"insert", "create", "update", "delete", "drop", "alter", "set ", "copy"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func scalarResult(name, dbType string, kind core.TypeKind, v any) *core.ResultSet {
	return &core.ResultSet{
		Columns: []core.Column{{Name: name, DatabaseType: dbType, Kind: kind}},
		Rows:    [][]any{{v}},
	}
}

// parseQualified splits an optionally schema-qualified identifier. Three
// part names keep only the schema and table.
func parseQualified(target string) (schemaName, name string) {
	parts := strings.Split(target, ".")
	for i, p := range parts {
		parts[i] = unquoteIdent(strings.TrimSpace(p))
	}
	switch len(parts) {
	case 1:
		return "", parts[0]
	case 2:
		return parts[0], parts[1]
	default:
		return parts[len(parts)-2], parts[len(parts)-1]
	}
}

func unquoteIdent(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func sortRowsByStrings(rows [][]any) {
	sort.Slice(rows, func(i, j int) bool {
		for k := range rows[i] {
			a, _ := rows[i][k].(string)
			b, _ := rows[j][k].(string)
			if a != b {
				return a < b
			}
		}
		return false
	})
}

func truncateSQL(sql string) string {
	if len(sql) > 120 {
		return sql[:120] + "..."
	}
	return sql
}
