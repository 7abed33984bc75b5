package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"

	"github.com/oraichain/duckdb-http/metrics"
	"github.com/oraichain/duckdb-http/pkg/arrowio"
	"github.com/oraichain/duckdb-http/pkg/client"
	"github.com/oraichain/duckdb-http/pkg/core"
	"github.com/oraichain/duckdb-http/pkg/writers"
	"github.com/oraichain/duckdb-http/report"
)

// QueryOptions represents the options for the query command.
type QueryOptions struct {
	Format    string
	Output    string
	StatsPath string
	Exec      bool
}

func newQueryCommand(root *rootOptions) *cobra.Command {
	options := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [flags] SQL",
		Short: "Execute one SQL statement against the endpoint",
		Long: `The query command sends one SQL statement to the endpoint and renders the
decoded result.

Results print as an aligned table by default. With --format json or ndjson
and no --output they print to stdout; every format can be exported to a
file with --output, including parquet and arrow.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, root, options, args[0])
		},
	}

	cmd.Flags().StringVarP(&options.Format, "format", "f", "", "Output format (table, json, ndjson, csv, parquet, arrow)")
	cmd.Flags().StringVarP(&options.Output, "output", "o", "", "Output path; the format is inferred from its extension when unset")
	cmd.Flags().StringVar(&options.StatsPath, "stats", "", "Write session statistics to this JSON file")
	cmd.Flags().BoolVar(&options.Exec, "exec", false, "Discard rows and report affected rows instead")

	return cmd
}

func runQuery(cmd *cobra.Command, root *rootOptions, options *QueryOptions, sql string) error {
	cfg, err := root.resolve()
	if err != nil {
		return err
	}

	format := options.Format
	if format == "" {
		format = cfg.Output.Format
	}
	output := options.Output
	if output == "" {
		output = cfg.Output.Path
	}

	ctx, cancel := signalContext()
	defer cancel()

	collector := metrics.NewCollector()
	cl, err := newClient(cfg, client.WithStatsHook(collector.Record))
	if err != nil {
		return err
	}
	defer cl.Close()

	start := time.Now()

	if options.Exec {
		stop := startSpinner("executing statement...")
		affected, err := cl.Exec(ctx, sql)
		stop()
		if err != nil {
			return err
		}
		cmd.Printf("OK, %d rows affected\n", affected)
		return saveSessionStats(cl, collector, options.StatsPath, start)
	}

	stop := startSpinner("executing statement...")
	rs, err := cl.Query(ctx, sql)
	stop()
	if err != nil {
		return err
	}

	if err := renderResult(ctx, cmd, rs, format, output); err != nil {
		return err
	}
	return saveSessionStats(cl, collector, options.StatsPath, start)
}

// renderResult prints the result to stdout or exports it to a file.
func renderResult(ctx context.Context, cmd *cobra.Command, rs *core.ResultSet, format, output string) error {
	if output == "" {
		switch format {
		case "", "table":
			return report.RenderResultSet(cmd.OutOrStdout(), rs)
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resultObjects(rs))
		case "ndjson":
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, row := range resultObjects(rs) {
				if err := enc.Encode(row); err != nil {
					return err
				}
			}
			return nil
		default:
			return fmt.Errorf("format %q requires --output", format)
		}
	}

	writerType := format
	if writerType == "" || writerType == "table" {
		writerType = writerTypeFromPath(output)
		if writerType == "" {
			return fmt.Errorf("cannot infer an output format from %q, pass --format", output)
		}
	}

	writer, err := writers.DefaultFactory.Create(core.WriterConfig{Type: writerType, Path: output})
	if err != nil {
		return err
	}

	record := arrowio.RecordFromResultSet(memory.NewGoAllocator(), rs)
	defer record.Release()

	if err := writer.Write(ctx, record); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	cmd.Printf("%d rows written to %s\n", rs.RowCount(), output)
	return nil
}

// resultObjects converts rows to name-keyed objects for JSON output.
func resultObjects(rs *core.ResultSet) []map[string]any {
	names := rs.ColumnNames()
	objects := make([]map[string]any, 0, rs.RowCount())
	for _, row := range rs.Rows {
		obj := make(map[string]any, len(names))
		for i, name := range names {
			if i < len(row) {
				obj[name] = row[i]
			}
		}
		objects = append(objects, obj)
	}
	return objects
}

func writerTypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".ndjson", ".jsonl":
		return "ndjson"
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

// saveSessionStats writes the collected statement statistics when a stats
// path was requested.
func saveSessionStats(cl *client.Client, collector *metrics.Collector, path string, start time.Time) error {
	if path == "" {
		return nil
	}

	end := time.Now()
	rep := metrics.SessionReport{
		Metadata: metrics.EndpointMetadata{
			Endpoint:  cl.Endpoint(),
			Database:  cl.Database(),
			StartTime: start,
			EndTime:   end,
			Duration:  end.Sub(start),
		},
		Stats: collector.Snapshot(),
	}

	store := &metrics.JSONStatsStore{FilePath: path}
	return store.Save(rep)
}
