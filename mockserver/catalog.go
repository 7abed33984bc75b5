// Package mockserver emulates a DuckDB HTTP extension endpoint for demos
// and tests: GET /ping answers the reachability probe and POST / executes
// statements against registered fixture tables. The engine understands
// the introspection statements the adapter issues, scalar probes, and
// plain fixture scans; write statements are acknowledged but not applied.
package mockserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/oraichain/duckdb-http/pkg/arrowio"
	"github.com/oraichain/duckdb-http/pkg/core"
	"github.com/oraichain/duckdb-http/pkg/readers"
	"github.com/oraichain/duckdb-http/pkg/schema"
)

// Table is a fixture table served by the mock endpoint.
type Table struct {
	// Database is the catalog name, "memory" when empty.
	Database string

	// Schema is the schema name, "main" when empty.
	Schema string

	// Name is the table name. Lookups are case-insensitive.
	Name string

	// Columns describe the table layout, including what DESCRIBE and
	// PRAGMA table_info report.
	Columns []schema.ColumnInfo

	// Rows hold the fixture data, one slice per row.
	Rows [][]any

	// View marks the table as a view for information_schema listings.
	View bool

	// PrimaryKey names the primary key columns, if any.
	PrimaryKey []string
}

func (t *Table) resultColumns() []core.Column {
	cols := make([]core.Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = core.Column{Name: c.Name, DatabaseType: c.DatabaseType, Kind: c.Kind}
	}
	return cols
}

func (t *Table) isPrimaryKey(column string) bool {
	for _, k := range t.PrimaryKey {
		if strings.EqualFold(k, column) {
			return true
		}
	}
	return false
}

// Catalog holds the fixture tables the mock endpoint scans and
// introspects. It is safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	tables []*Table
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Register adds a fixture table, replacing any table already registered
// under the same schema and name.
func (c *Catalog) Register(t Table) error {
	if t.Name == "" {
		return errors.New("mockserver: table name is required")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("mockserver: table %q needs at least one column", t.Name)
	}
	if t.Database == "" {
		t.Database = "memory"
	}
	if t.Schema == "" {
		t.Schema = "main"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.tables {
		if strings.EqualFold(existing.Schema, t.Schema) && strings.EqualFold(existing.Name, t.Name) {
			c.tables[i] = &t
			return nil
		}
	}
	c.tables = append(c.tables, &t)
	return nil
}

// LoadFile registers a fixture table read from a CSV, Parquet or Arrow
// file, with the reader chosen by extension. The table is named after
// name, or the file's base name when name is empty.
func (c *Catalog) LoadFile(ctx context.Context, name, path string) error {
	if name == "" {
		name = tableNameFromPath(path)
	}

	r, err := readers.DefaultFactory.Create(core.ReaderConfig{Path: path})
	if err != nil {
		return fmt.Errorf("mockserver: load fixture %q: %w", path, err)
	}
	defer r.Close()

	var cols []schema.ColumnInfo
	var rows [][]any
	for {
		rec, err := r.Read(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("mockserver: load fixture %q: %w", path, err)
		}
		if cols == nil {
			fields := rec.Schema().Fields()
			mapped := arrowio.ColumnsFromSchema(rec.Schema())
			cols = make([]schema.ColumnInfo, len(mapped))
			for i, m := range mapped {
				cols[i] = schema.ColumnInfo{
					Name:         m.Name,
					DatabaseType: m.DatabaseType,
					Kind:         m.Kind,
					Nullable:     fields[i].Nullable,
				}
			}
		}
		rows = append(rows, arrowio.RowsFromRecord(rec)...)
		rec.Release()
	}
	if cols == nil {
		return fmt.Errorf("mockserver: fixture %q holds no rows", path)
	}

	return c.Register(Table{Name: name, Columns: cols, Rows: rows})
}

// lookup resolves a table by name, optionally scoped to one schema.
func (c *Catalog) lookup(schemaName, name string) (*Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tables {
		if schemaName != "" && !strings.EqualFold(t.Schema, schemaName) {
			continue
		}
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return nil, false
}

// All returns the registered tables ordered by database, schema and name.
func (c *Catalog) All() []*Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Table, len(c.tables))
	copy(out, c.tables)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Database != out[j].Database {
			return out[i].Database < out[j].Database
		}
		if out[i].Schema != out[j].Schema {
			return out[i].Schema < out[j].Schema
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func tableNameFromPath(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

// DemoCatalog returns the fixture served when nothing else is registered:
// a small events table and a view over it.
func DemoCatalog() *Catalog {
	c := NewCatalog()
	fixtures := []Table{
		{
			Name:       "events",
			PrimaryKey: []string{"id"},
			Columns: []schema.ColumnInfo{
				{Name: "id", DatabaseType: "BIGINT", Kind: core.KindInt},
				{Name: "name", DatabaseType: "VARCHAR", Kind: core.KindString, Nullable: true},
				{Name: "score", DatabaseType: "DOUBLE", Kind: core.KindFloat, Nullable: true},
				{Name: "created_at", DatabaseType: "TIMESTAMP", Kind: core.KindTimestamp, Nullable: true},
			},
			Rows: [][]any{
				{int64(1), "signup", 9.5, "2025-02-20 10:30:00"},
				{int64(2), "login", 8.25, "2025-02-20 10:31:00"},
				{int64(3), "purchase", 7.0, "2025-02-20 10:32:00"},
			},
		},
		{
			Name: "recent_events",
			View: true,
			Columns: []schema.ColumnInfo{
				{Name: "id", DatabaseType: "BIGINT", Kind: core.KindInt},
				{Name: "name", DatabaseType: "VARCHAR", Kind: core.KindString, Nullable: true},
			},
			Rows: [][]any{
				{int64(2), "login"},
				{int64(3), "purchase"},
			},
		},
	}
	for _, t := range fixtures {
		if err := c.Register(t); err != nil {
			panic(err) // the built-in fixtures are statically valid
		}
	}
	return c
}
