package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/oraichain/duckdb-http/pkg/core"
)

const defaultBatchSize = 10000

// CSVReader reads a headered CSV file, inferring the Arrow schema from
// the data. Empty cells are read as NULLs.
type CSVReader struct {
	file   *os.File
	reader *csv.Reader
	schema *arrow.Schema
}

// NewCSVReader creates a new CSV reader.
func NewCSVReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}

	chunkSize := config.BatchSize
	if chunkSize <= 0 {
		chunkSize = defaultBatchSize
	}

	reader := csv.NewInferringReader(
		file,
		csv.WithChunk(int(chunkSize)),
		csv.WithHeader(true),
		csv.WithNullReader(true, ""),
		csv.WithAllocator(memory.NewGoAllocator()),
	)

	return &CSVReader{
		file:   file,
		reader: reader,
	}, nil
}

// Schema returns the inferred schema, nil before the first Read.
func (r *CSVReader) Schema() *arrow.Schema {
	return r.schema
}

// Read returns the next chunk of rows.
func (r *CSVReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if !r.reader.Next() {
		if err := r.reader.Err(); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		return nil, io.EOF
	}

	if r.schema == nil {
		r.schema = r.reader.Schema()
	}

	record := r.reader.Record()
	record.Retain()
	return record, nil
}

// Close releases the CSV reader and the underlying file.
func (r *CSVReader) Close() error {
	r.reader.Release()
	return r.file.Close()
}
