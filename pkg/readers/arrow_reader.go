package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/oraichain/duckdb-http/pkg/core"
)

// ArrowReader reads an Arrow IPC file record by record.
type ArrowReader struct {
	schema *arrow.Schema
	reader *ipc.FileReader
	file   *os.File
	index  int
}

// NewArrowReader creates a new Arrow IPC reader.
func NewArrowReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Arrow reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Arrow file: %w", err)
	}

	reader, err := ipc.NewFileReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create Arrow file reader: %w", err)
	}

	return &ArrowReader{
		schema: reader.Schema(),
		reader: reader,
		file:   file,
	}, nil
}

// Schema returns the file's Arrow schema.
func (r *ArrowReader) Schema() *arrow.Schema {
	return r.schema
}

// Read returns the next record in the file.
func (r *ArrowReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.index >= r.reader.NumRecords() {
		return nil, io.EOF
	}

	record, err := r.reader.Record(r.index)
	if err != nil {
		return nil, fmt.Errorf("failed to read record at index %d: %w", r.index, err)
	}
	r.index++

	// The file reader recycles its record on the next read, so hand the
	// caller a copy it owns.
	return cloneRecord(record), nil
}

// Close releases the IPC reader and the underlying file.
func (r *ArrowReader) Close() error {
	err := r.reader.Close()
	if cerr := r.file.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}

// cloneRecord creates a deep copy of a record to ensure ownership.
func cloneRecord(record arrow.Record) arrow.Record {
	cols := make([]arrow.Array, record.NumCols())
	for i, col := range record.Columns() {
		cols[i] = array.MakeFromData(col.Data())
	}
	cloned := array.NewRecord(record.Schema(), cols, record.NumRows())
	for _, col := range cols {
		col.Release()
	}
	return cloned
}
