package writers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/oraichain/duckdb-http/pkg/arrowio"
	"github.com/oraichain/duckdb-http/pkg/core"
)

// JSONWriter writes records as one JSON array of row objects.
type JSONWriter struct {
	file     *os.File
	firstRow bool
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for JSON writer")
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON file: %w", err)
	}

	if _, err := file.WriteString("[\n"); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write opening bracket: %w", err)
	}

	return &JSONWriter{
		file:     file,
		firstRow: true,
	}, nil
}

// Write appends the record's rows to the array.
func (w *JSONWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	names := fieldNames(record.Schema())
	for _, row := range arrowio.RowsFromRecord(record) {
		if !w.firstRow {
			if _, err := w.file.WriteString(",\n"); err != nil {
				return fmt.Errorf("failed to write separator: %w", err)
			}
		}
		w.firstRow = false

		line, err := json.Marshal(rowObject(names, row))
		if err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}
		if _, err := w.file.Write(append([]byte("  "), line...)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// Close terminates the array and closes the file.
func (w *JSONWriter) Close() error {
	var err error

	if _, closeErr := w.file.WriteString("\n]\n"); closeErr != nil {
		err = closeErr
	}

	if closeErr := w.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	return err
}

// NDJSONWriter writes records as newline-delimited JSON, one row object
// per line.
type NDJSONWriter struct {
	file *os.File
}

// NewNDJSONWriter creates a new NDJSON writer.
func NewNDJSONWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for NDJSON writer")
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create NDJSON file: %w", err)
	}

	return &NDJSONWriter{file: file}, nil
}

// Write appends the record's rows, one line each.
func (w *NDJSONWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	names := fieldNames(record.Schema())
	for _, row := range arrowio.RowsFromRecord(record) {
		line, err := json.Marshal(rowObject(names, row))
		if err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}
		if _, err := w.file.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// Close closes the file.
func (w *NDJSONWriter) Close() error {
	return w.file.Close()
}

func fieldNames(schema *arrow.Schema) []string {
	names := make([]string, schema.NumFields())
	for i := range names {
		names[i] = schema.Field(i).Name
	}
	return names
}

func rowObject(names []string, row []any) map[string]any {
	obj := make(map[string]any, len(names))
	for i, name := range names {
		if i < len(row) {
			obj[name] = row[i]
		}
	}
	return obj
}
