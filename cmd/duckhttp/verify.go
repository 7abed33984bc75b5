package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oraichain/duckdb-http/logger"
	"github.com/oraichain/duckdb-http/pkg/client"
	"github.com/oraichain/duckdb-http/pkg/core"
	"github.com/oraichain/duckdb-http/pkg/readers"
	"github.com/oraichain/duckdb-http/pkg/verify"
	"github.com/oraichain/duckdb-http/report"
)

// VerifyOptions represents the options for the verify command.
type VerifyOptions struct {
	Table     string
	Schema    string
	Query     string
	Keys      []string
	Ignore    []string
	Tolerance float64
	JSONPath  string
}

func newVerifyCommand(root *rootOptions) *cobra.Command {
	options := &VerifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify FILE",
		Short: "Check that a table on the endpoint matches a local dataset",
		Long: `Verify reads a local CSV, Parquet or Arrow file and the corresponding
table on the endpoint, matches their rows by key and reports rows that
are missing, extra or changed. The table defaults to the file name
without its extension. It exits non-zero when the datasets differ.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, root, options, args[0])
		},
	}

	cmd.Flags().StringVarP(&options.Table, "table", "t", "", "Table to compare against (default: the file name)")
	cmd.Flags().StringVarP(&options.Schema, "schema", "s", "", "Schema holding the table")
	cmd.Flags().StringVar(&options.Query, "query", "", "Statement producing the remote rows, overrides --table")
	cmd.Flags().StringSliceVar(&options.Keys, "key", nil, "Key column matching rows across both sides, repeatable")
	cmd.Flags().StringSliceVar(&options.Ignore, "ignore", nil, "Column to exclude from the comparison, repeatable")
	cmd.Flags().Float64Var(&options.Tolerance, "tolerance", 0, "Absolute tolerance for numeric columns")
	cmd.Flags().StringVar(&options.JSONPath, "json", "", "Also save the report as JSON to this path")

	return cmd
}

func runVerify(cmd *cobra.Command, root *rootOptions, options *VerifyOptions, path string) error {
	cfg, err := root.resolve()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	source, err := readers.DefaultFactory.Create(core.ReaderConfig{Path: path})
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	defer source.Close()

	label := options.Query
	table := options.Table
	if options.Query == "" {
		if table == "" {
			table = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if options.Schema != "" {
			table = qualified(options.Schema, table)
		}
		label = table
	}

	dsn, err := client.BuildDSN(cfg.Endpoint.URL, cfg.Endpoint.APIKey, cfg.Endpoint.Database, cfg.Endpoint.Timeout)
	if err != nil {
		return err
	}
	target, err := readers.NewEndpointReader(core.ReaderConfig{
		Type:  "endpoint",
		DSN:   dsn,
		Query: options.Query,
		Table: table,
	})
	if err != nil {
		return err
	}
	defer target.Close()

	stop := startSpinner("verifying " + label + "...")
	rep, err := verify.New(logger.GetLogger()).Compare(ctx, source, target, verify.Options{
		KeyColumns:    options.Keys,
		IgnoreColumns: options.Ignore,
		Tolerance:     options.Tolerance,
	})
	stop()
	if err != nil {
		return err
	}

	if err := report.RenderVerifyText(cmd.OutOrStdout(), rep); err != nil {
		return err
	}

	if options.JSONPath != "" {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(options.JSONPath, data, 0644); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
	}

	if !rep.Clean() {
		return fmt.Errorf("datasets differ: %d missing, %d extra, %d mismatched",
			rep.Missing, rep.Extra, rep.Mismatched)
	}
	return nil
}
