// Command genfixture writes a synthetic events dataset for the mock
// endpoint. The output format follows the file extension: .parquet, .csv
// or .arrow, matching what `duckhttp serve --fixture` accepts.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/oraichain/duckdb-http/pkg/core"
	"github.com/oraichain/duckdb-http/pkg/writers"
)

const eventNames = "signup,login,purchase,refund,pageview,click,search,logout"

func main() {
	out := flag.String("out", "events.parquet", "Output path (.parquet, .csv, .arrow)")
	rows := flag.Int("rows", 10000, "Number of rows to generate")
	seed := flag.Int64("seed", 42, "Random seed for data generation")
	nullRate := flag.Float64("nulls", 0.05, "Rate of NULL timestamps (0.0-1.0)")
	batchSize := flag.Int("batch", 4096, "Rows per record batch")
	flag.Parse()

	typ := typeFromExt(*out)
	if typ == "" {
		log.Fatalf("Cannot infer an output format from %q", *out)
	}

	writer, err := writers.DefaultFactory.Create(core.WriterConfig{Type: typ, Path: *out})
	if err != nil {
		log.Fatalf("Failed to create writer: %v", err)
	}

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "created_at", Type: &arrow.TimestampType{Unit: arrow.Microsecond}, Nullable: true},
	}, nil)

	rnd := rand.New(rand.NewSource(*seed))
	names := strings.Split(eventNames, ",")
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	written := 0
	for written < *rows {
		n := *batchSize
		if remaining := *rows - written; n > remaining {
			n = remaining
		}

		record := generateBatch(schema, n, written, start, names, rnd, *nullRate)
		if err := writer.Write(ctx, record); err != nil {
			record.Release()
			log.Fatalf("Failed to write batch: %v", err)
		}
		record.Release()
		written += n
	}

	if err := writer.Close(); err != nil {
		log.Fatalf("Failed to close writer: %v", err)
	}

	log.Printf("Wrote %d rows to %s", written, *out)
}

// generateBatch builds one record of synthetic events. Row ids continue
// from offset so batches stay globally unique.
func generateBatch(schema *arrow.Schema, n, offset int, start time.Time, names []string, rnd *rand.Rand, nullRate float64) arrow.Record {
	mem := memory.NewGoAllocator()

	idB := array.NewInt64Builder(mem)
	defer idB.Release()
	nameB := array.NewStringBuilder(mem)
	defer nameB.Release()
	scoreB := array.NewFloat64Builder(mem)
	defer scoreB.Release()
	tsB := array.NewTimestampBuilder(mem, schema.Field(3).Type.(*arrow.TimestampType))
	defer tsB.Release()

	for i := 0; i < n; i++ {
		idB.Append(int64(offset + i + 1))
		nameB.Append(names[rnd.Intn(len(names))])
		scoreB.Append(rnd.Float64() * 10)

		if rnd.Float64() < nullRate {
			tsB.AppendNull()
		} else {
			ts := start.Add(time.Duration(offset+i) * time.Minute)
			tsB.Append(arrow.Timestamp(ts.UnixMicro()))
		}
	}

	cols := []arrow.Array{idB.NewArray(), nameB.NewArray(), scoreB.NewArray(), tsB.NewArray()}
	record := array.NewRecord(schema, cols, int64(n))
	for _, col := range cols {
		col.Release()
	}
	return record
}

func typeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".parquet":
		return "parquet"
	case ".arrow", ".ipc", ".feather":
		return "arrow"
	default:
		return ""
	}
}
