// Package core provides the core types shared by the duckdb-http adapter:
// column metadata, in-memory result sets, query statistics, and the two
// error kinds every caller sees.
package core

import (
	"context"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// TypeKind is the adapter's portable classification of a column type.
// Declared DuckDB types are mapped onto these kinds so callers can render
// scalars without parsing DuckDB's type grammar.
type TypeKind string

const (
	// KindInt covers the DuckDB integer family (TINYINT through HUGEINT).
	KindInt TypeKind = "int"

	// KindFloat covers DOUBLE, FLOAT, REAL and DECIMAL.
	KindFloat TypeKind = "float"

	// KindString covers VARCHAR, CHAR, TEXT and unknown declared types.
	KindString TypeKind = "string"

	// KindBool covers BOOLEAN.
	KindBool TypeKind = "bool"

	// KindDate covers DATE.
	KindDate TypeKind = "date"

	// KindTimestamp covers TIMESTAMP and DATETIME.
	KindTimestamp TypeKind = "timestamp"

	// KindBytes covers BLOB and BIT.
	KindBytes TypeKind = "bytes"
)

// Column describes one column of a query response.
type Column struct {
	// Name is the column name as reported by the server, or a synthesized
	// name (col0, col1, ...) when the response carries none.
	Name string

	// DatabaseType is the declared DuckDB type, verbatim, when the server
	// reported one. Empty when the response shape carries no types.
	DatabaseType string

	// Kind is the portable classification of DatabaseType.
	Kind TypeKind
}

// ResultSet is the in-memory representation of one completed query:
// ordered column metadata plus ordered rows. It is built entirely from a
// single HTTP response body and is owned by the caller that produced it.
//
// A ResultSet is a finite, forward-only cursor: once a row has been
// consumed through Next, Fetch or FetchAll it is not revisited. A
// ResultSet is not safe for concurrent use.
type ResultSet struct {
	// Columns is the ordered column metadata.
	Columns []Column

	// Rows is the ordered row data. Each row has len(Columns) values.
	Rows [][]any

	pos int
}

// ColumnNames returns the ordered column names.
func (rs *ResultSet) ColumnNames() []string {
	names := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		names[i] = c.Name
	}
	return names
}

// RowCount returns the total number of rows in the result, consumed or not.
func (rs *ResultSet) RowCount() int {
	return len(rs.Rows)
}

// Next returns the next unconsumed row, or false when the result is
// exhausted.
func (rs *ResultSet) Next() ([]any, bool) {
	if rs.pos >= len(rs.Rows) {
		return nil, false
	}
	row := rs.Rows[rs.pos]
	rs.pos++
	return row, true
}

// Fetch returns up to n unconsumed rows, advancing the cursor. It returns
// an empty slice once the result is exhausted.
func (rs *ResultSet) Fetch(n int) [][]any {
	if n < 0 {
		n = 0
	}
	end := rs.pos + n
	if end > len(rs.Rows) {
		end = len(rs.Rows)
	}
	rows := rs.Rows[rs.pos:end]
	rs.pos = end
	return rows
}

// FetchAll returns all remaining unconsumed rows and exhausts the cursor.
func (rs *ResultSet) FetchAll() [][]any {
	rows := rs.Rows[rs.pos:]
	rs.pos = len(rs.Rows)
	return rows
}

// Value returns the single cell of a one-row, one-column result. It is a
// convenience for scalar probes such as SELECT 1 and does not advance the
// cursor.
func (rs *ResultSet) Value() (any, bool) {
	if len(rs.Rows) != 1 || len(rs.Columns) != 1 {
		return nil, false
	}
	return rs.Rows[0][0], true
}

// QueryStats records the observable cost of one request/response cycle.
type QueryStats struct {
	// SQL is the statement text, truncated for logging.
	SQL string

	// StartedAt is when the HTTP request was issued.
	StartedAt time.Time

	// Duration is the full request/decode wall time.
	Duration time.Duration

	// StatusCode is the HTTP status, or 0 when the request never
	// completed.
	StatusCode int

	// BytesIn is the size of the response body in bytes.
	BytesIn int64

	// Rows is the number of decoded rows.
	Rows int

	// Failed reports whether the cycle ended in an error.
	Failed bool
}

// Querier is the capability schema introspection and health checks need
// from a connection handle: one statement in, one result out.
type Querier interface {
	// Query executes a single SQL statement and returns its decoded
	// result.
	Query(ctx context.Context, sql string) (*ResultSet, error)
}

// DatasetWriter defines an interface for writing query results to various
// destinations, one record batch at a time.
type DatasetWriter interface {
	// Write writes a record to the destination.
	Write(ctx context.Context, record arrow.Record) error

	// Close closes the writer and flushes any pending data.
	Close() error
}

// WriterConfig provides configuration for creating a dataset writer.
type WriterConfig struct {
	// Type is the writer type (json, ndjson, csv, parquet, arrow).
	Type string

	// Path is the destination file path.
	Path string
}

// DatasetReader defines an interface for reading tabular data from a
// source, one record batch at a time.
type DatasetReader interface {
	// Schema returns the schema of the records this reader produces.
	// Readers that infer their schema return nil until the first Read.
	Schema() *arrow.Schema

	// Read returns the next record, or io.EOF when the source is
	// exhausted. The caller owns the record and must release it.
	Read(ctx context.Context) (arrow.Record, error)

	// Close releases the underlying file or connection.
	Close() error
}

// ReaderConfig provides configuration for creating a dataset reader.
type ReaderConfig struct {
	// Type is the reader type (csv, parquet, arrow, endpoint). Inferred
	// from the Path extension when empty.
	Type string

	// Path is the source file path.
	Path string

	// DSN is the connection string for the endpoint reader.
	DSN string

	// Query is the statement the endpoint reader runs. When empty, a
	// full scan of Table is issued.
	Query string

	// Table is the table the endpoint reader scans when Query is empty.
	Table string

	// BatchSize caps the rows returned per record batch. Zero selects
	// the reader's default.
	BatchSize int64
}
