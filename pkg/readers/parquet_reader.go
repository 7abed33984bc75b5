package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/oraichain/duckdb-http/pkg/core"
)

// ParquetReader reads a Parquet file as Arrow records.
type ParquetReader struct {
	schema      *arrow.Schema
	fileReader  *file.Reader
	arrowReader *pqarrow.FileReader
	batchSize   int64
	file        *os.File

	// table materializes on first Read and lives until Close so the
	// returned records keep valid buffers.
	table       arrow.Table
	tableReader *array.TableReader
}

// NewParquetReader creates a new Parquet reader.
func NewParquetReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet reader")
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	f, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}

	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Parquet file reader: %w", err)
	}

	arrowReader, err := pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: batchSize,
	}, memory.NewGoAllocator())
	if err != nil {
		parquetReader.Close()
		f.Close()
		return nil, fmt.Errorf("failed to create Arrow reader: %w", err)
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		parquetReader.Close()
		f.Close()
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	return &ParquetReader{
		schema:      schema,
		fileReader:  parquetReader,
		arrowReader: arrowReader,
		batchSize:   batchSize,
		file:        f,
	}, nil
}

// Schema returns the file's Arrow schema.
func (r *ParquetReader) Schema() *arrow.Schema {
	return r.schema
}

// Read returns the next batch of rows.
func (r *ParquetReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.tableReader == nil {
		table, err := r.arrowReader.ReadTable(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read Parquet table: %w", err)
		}
		r.table = table
		r.tableReader = array.NewTableReader(table, r.batchSize)
	}

	if !r.tableReader.Next() {
		if err := r.tableReader.Err(); err != nil {
			return nil, fmt.Errorf("failed to read Parquet batch: %w", err)
		}
		return nil, io.EOF
	}

	record := r.tableReader.Record()
	record.Retain()
	return record, nil
}

// Close releases the table, the Parquet reader and the underlying file.
func (r *ParquetReader) Close() error {
	if r.tableReader != nil {
		r.tableReader.Release()
		r.tableReader = nil
	}
	if r.table != nil {
		r.table.Release()
		r.table = nil
	}
	// The Parquet reader closes the handle it was given; the second
	// close is only a backstop.
	err := r.fileReader.Close()
	if cerr := r.file.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}
