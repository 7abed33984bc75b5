// Command inspectfixture prints the schema and a row preview of a data
// file, using the same readers the mock endpoint loads fixtures with.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oraichain/duckdb-http/pkg/arrowio"
	"github.com/oraichain/duckdb-http/pkg/core"
	"github.com/oraichain/duckdb-http/pkg/readers"
	"github.com/oraichain/duckdb-http/report"
)

const previewRows = 5

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: inspectfixture <file>")
		os.Exit(1)
	}
	path := os.Args[1]

	reader, err := readers.DefaultFactory.Create(core.ReaderConfig{Path: path})
	if err != nil {
		fmt.Printf("Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer reader.Close()

	ctx := context.Background()
	preview := &core.ResultSet{}
	total := 0

	for {
		record, err := reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Printf("Error reading records: %v\n", err)
			os.Exit(1)
		}

		if len(preview.Columns) == 0 {
			preview.Columns = arrowio.ColumnsFromSchema(record.Schema())
		}
		for _, row := range arrowio.RowsFromRecord(record) {
			if len(preview.Rows) >= previewRows {
				break
			}
			preview.Rows = append(preview.Rows, row)
		}

		total += int(record.NumRows())
		record.Release()
	}

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Rows: %d\n", total)

	if schema := reader.Schema(); schema != nil {
		fmt.Println("\nSchema:")
		for i, field := range schema.Fields() {
			fmt.Printf("  Field %d: %s (%s)\n", i, field.Name, field.Type)
		}
	}

	fmt.Printf("\nFirst %d rows:\n", previewRows)
	if err := report.RenderResultSet(os.Stdout, preview); err != nil {
		fmt.Printf("Error rendering preview: %v\n", err)
		os.Exit(1)
	}
}
