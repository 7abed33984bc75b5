package readers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/oraichain/duckdb-http/pkg/arrowio"
	"github.com/oraichain/duckdb-http/pkg/core"
	"github.com/oraichain/duckdb-http/pkg/duckhttp"
)

// EndpointReader streams a query result from a live DuckDB HTTP endpoint
// through the duckhttp database/sql driver.
type EndpointReader struct {
	db        *sql.DB
	query     string
	columns   []core.Column
	schema    *arrow.Schema
	batchSize int64
	alloc     memory.Allocator
	rows      *sql.Rows
	mu        sync.Mutex
	closed    bool
}

// NewEndpointReader creates a reader over a remote endpoint. Either a
// query or a table to scan is required.
func NewEndpointReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.DSN == "" {
		return nil, errors.New("dsn is required for endpoint reader")
	}

	query := config.Query
	if query == "" && config.Table != "" {
		query = fmt.Sprintf("SELECT * FROM %s", config.Table)
	}
	if query == "" {
		return nil, errors.New("either query or table is required for endpoint reader")
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	db, err := sql.Open(duckhttp.DriverName, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open endpoint: %w", err)
	}

	// A zero-row probe yields the column layout before any data moves.
	probe := fmt.Sprintf("SELECT * FROM (%s) LIMIT 0", query)
	rows, err := db.QueryContext(context.Background(), probe)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to probe result shape: %w", err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	columns := make([]core.Column, len(columnTypes))
	for i, colType := range columnTypes {
		declared := colType.DatabaseTypeName()
		columns[i] = core.Column{
			Name:         colType.Name(),
			DatabaseType: declared,
			Kind:         core.KindOf(declared),
		}
	}

	return &EndpointReader{
		db:        db,
		query:     query,
		columns:   columns,
		schema:    arrowio.SchemaFromColumns(columns),
		batchSize: batchSize,
		alloc:     memory.NewGoAllocator(),
	}, nil
}

// Schema returns the Arrow schema derived from the probed column types.
func (r *EndpointReader) Schema() *arrow.Schema {
	return r.schema
}

// Read returns the next batch of rows as one record.
func (r *EndpointReader) Read(ctx context.Context) (arrow.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.closed {
		return nil, io.EOF
	}

	if r.rows == nil {
		rows, err := r.db.QueryContext(ctx, r.query)
		if err != nil {
			return nil, fmt.Errorf("failed to execute query: %w", err)
		}
		r.rows = rows
	}

	batch := make([][]any, 0, r.batchSize)
	for int64(len(batch)) < r.batchSize && r.rows.Next() {
		values := make([]any, len(r.columns))
		scanValues := make([]any, len(values))
		for i := range values {
			scanValues[i] = &values[i]
		}
		if err := r.rows.Scan(scanValues...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		batch = append(batch, values)
	}
	if err := r.rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if len(batch) == 0 {
		return nil, io.EOF
	}

	rs := &core.ResultSet{Columns: r.columns, Rows: batch}
	return arrowio.RecordFromResultSet(r.alloc, rs), nil
}

// Close closes the open cursor, if any, and the database handle.
func (r *EndpointReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.rows != nil {
		err = r.rows.Close()
		r.rows = nil
	}
	if cerr := r.db.Close(); err == nil {
		err = cerr
	}
	return err
}
