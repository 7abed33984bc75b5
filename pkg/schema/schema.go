// Package schema introspects a remote DuckDB instance through the same
// metadata statements a schema browser would issue: duckdb_schemas(),
// duckdb_tables(), information_schema and DESCRIBE/PRAGMA probes. Results
// come back in the adapter's plain result shape, reduced here to typed
// values.
//
// The extension server exposes no foreign keys or secondary indexes, so
// those lookups always return empty results rather than errors.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/oraichain/duckdb-http/internal/sqlargs"
	"github.com/oraichain/duckdb-http/pkg/core"
)

// SchemaRef identifies a schema within a database.
type SchemaRef struct {
	// Database is the catalog holding the schema.
	Database string

	// Name is the schema name.
	Name string
}

// TableRef identifies a table within a schema.
type TableRef struct {
	// Database is the catalog holding the table.
	Database string

	// Schema is the schema holding the table.
	Schema string

	// Name is the table name.
	Name string
}

// ColumnInfo describes one column of an introspected table.
type ColumnInfo struct {
	// Name is the column name.
	Name string

	// DatabaseType is the declared DuckDB type.
	DatabaseType string

	// Kind is the portable classification of DatabaseType.
	Kind core.TypeKind

	// Nullable reports whether the column accepts NULLs.
	Nullable bool

	// Default is the column's default expression, empty when none.
	Default string
}

// Introspector runs metadata queries over any statement executor.
type Introspector struct {
	q        core.Querier
	database string
}

// NewIntrospector builds an Introspector. A non-empty database scopes
// schema and table listings to that catalog.
func NewIntrospector(q core.Querier, database string) *Introspector {
	return &Introspector{q: q, database: database}
}

// Schemas lists the schemas visible on the server, ordered by database
// then schema name. An empty listing is a valid result.
func (in *Introspector) Schemas(ctx context.Context) ([]SchemaRef, error) {
	sql := "SELECT database_name, schema_name FROM duckdb_schemas()"
	if in.database != "" {
		sql += " WHERE database_name = " + stringLiteral(in.database)
	}
	sql += " ORDER BY database_name, schema_name"

	rs, err := in.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}

	schemas := make([]SchemaRef, 0, rs.RowCount())
	for _, row := range rs.FetchAll() {
		schemas = append(schemas, SchemaRef{
			Database: asString(cell(row, 0)),
			Name:     asString(cell(row, 1)),
		})
	}
	return schemas, nil
}

// Tables lists base tables, optionally restricted to one schema.
func (in *Introspector) Tables(ctx context.Context, schemaName string) ([]TableRef, error) {
	sql := "SELECT database_name, schema_name, table_name FROM duckdb_tables()"
	sql += in.scopeClause(schemaName, "schema_name", "database_name")
	sql += " ORDER BY database_name, schema_name, table_name"

	rs, err := in.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}

	tables := make([]TableRef, 0, rs.RowCount())
	for _, row := range rs.FetchAll() {
		tables = append(tables, TableRef{
			Database: asString(cell(row, 0)),
			Schema:   asString(cell(row, 1)),
			Name:     asString(cell(row, 2)),
		})
	}
	return tables, nil
}

// Views lists views, optionally restricted to one schema.
func (in *Introspector) Views(ctx context.Context, schemaName string) ([]TableRef, error) {
	sql := "SELECT table_schema, table_name FROM information_schema.tables WHERE table_type = 'VIEW'"
	if schemaName != "" {
		sql += " AND table_schema = " + stringLiteral(schemaName)
	}
	sql += " ORDER BY table_schema, table_name"

	rs, err := in.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}

	views := make([]TableRef, 0, rs.RowCount())
	for _, row := range rs.FetchAll() {
		views = append(views, TableRef{
			Schema: asString(cell(row, 0)),
			Name:   asString(cell(row, 1)),
		})
	}
	return views, nil
}

// Columns describes the columns of one table via DESCRIBE.
func (in *Introspector) Columns(ctx context.Context, schemaName, table string) ([]ColumnInfo, error) {
	target := quoteIdent(table)
	if schemaName != "" {
		target = quoteIdent(schemaName) + "." + target
	}

	rs, err := in.q.Query(ctx, "DESCRIBE "+target)
	if err != nil {
		return nil, err
	}

	// DESCRIBE yields column_name, column_type, null, key, default, extra.
	nameIdx := columnIndex(rs, "column_name", 0)
	typeIdx := columnIndex(rs, "column_type", 1)
	nullIdx := columnIndex(rs, "null", 2)
	defaultIdx := columnIndex(rs, "default", 4)

	columns := make([]ColumnInfo, 0, rs.RowCount())
	for _, row := range rs.FetchAll() {
		declared := asString(cell(row, typeIdx))
		columns = append(columns, ColumnInfo{
			Name:         asString(cell(row, nameIdx)),
			DatabaseType: declared,
			Kind:         core.KindOf(declared),
			Nullable:     asBool(cell(row, nullIdx)),
			Default:      asString(cell(row, defaultIdx)),
		})
	}
	return columns, nil
}

// PrimaryKey returns the primary key column names of a table, in
// definition order, via PRAGMA table_info.
func (in *Introspector) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	rs, err := in.q.Query(ctx, "PRAGMA table_info("+stringLiteral(table)+")")
	if err != nil {
		return nil, err
	}

	// table_info yields cid, name, type, notnull, dflt_value, pk.
	nameIdx := columnIndex(rs, "name", 1)
	pkIdx := columnIndex(rs, "pk", 5)

	keys := []string{}
	for _, row := range rs.FetchAll() {
		if asBool(cell(row, pkIdx)) {
			keys = append(keys, asString(cell(row, nameIdx)))
		}
	}
	return keys, nil
}

// HasTable reports whether a table exists in the given schema.
func (in *Introspector) HasTable(ctx context.Context, schemaName, table string) (bool, error) {
	tables, err := in.Tables(ctx, schemaName)
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if t.Name == table {
			return true, nil
		}
	}
	return false, nil
}

// ForeignKeys always returns an empty result: the extension server does
// not expose foreign key metadata.
func (in *Introspector) ForeignKeys(ctx context.Context, schemaName, table string) ([]string, error) {
	return []string{}, nil
}

// Indexes always returns an empty result: the extension server does not
// expose index metadata.
func (in *Introspector) Indexes(ctx context.Context, schemaName, table string) ([]string, error) {
	return []string{}, nil
}

// scopeClause assembles the WHERE clause scoping a listing to the
// configured database and an optional schema.
func (in *Introspector) scopeClause(schemaName, schemaCol, dbCol string) string {
	var conds []string
	if in.database != "" {
		conds = append(conds, dbCol+" = "+stringLiteral(in.database))
	}
	if schemaName != "" {
		conds = append(conds, schemaCol+" = "+stringLiteral(schemaName))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// quoteIdent renders an identifier with double quotes, doubling embedded
// quotes.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// stringLiteral renders a string literal; the value is always a plain
// string, so the error path cannot trigger.
func stringLiteral(s string) string {
	lit, err := sqlargs.Literal(s)
	if err != nil {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return lit
}

// columnIndex locates a column by name, falling back to the positional
// layout when the response carried no usable names.
func columnIndex(rs *core.ResultSet, name string, fallback int) int {
	for i, c := range rs.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return fallback
}

func cell(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

// asString renders an introspection cell as a string.
func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

// asBool interprets the truthy spellings DuckDB uses across builds:
// booleans, 0/1 and YES/NO/true/false strings.
func asBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1", "y":
			return true
		}
	}
	return false
}
