package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/oraichain/duckdb-http/pkg/core"
	"github.com/oraichain/duckdb-http/pkg/schema"
	"github.com/oraichain/duckdb-http/report"
)

func newSchemasCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List the schemas visible on the endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve()
			if err != nil {
				return err
			}
			cl, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer cl.Close()

			ctx, cancel := signalContext()
			defer cancel()

			refs, err := schema.NewIntrospector(cl, cl.Database()).Schemas(ctx)
			if err != nil {
				return err
			}

			rs := &core.ResultSet{Columns: textColumns("database", "schema")}
			for _, ref := range refs {
				rs.Rows = append(rs.Rows, []any{ref.Database, ref.Name})
			}
			return report.RenderResultSet(cmd.OutOrStdout(), rs)
		},
	}
}

func newTablesCommand(root *rootOptions) *cobra.Command {
	var schemaName string
	var views bool

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables visible on the endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve()
			if err != nil {
				return err
			}
			cl, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer cl.Close()

			ctx, cancel := signalContext()
			defer cancel()

			in := schema.NewIntrospector(cl, cl.Database())
			list := in.Tables
			if views {
				list = in.Views
			}
			refs, err := list(ctx, schemaName)
			if err != nil {
				return err
			}

			rs := &core.ResultSet{Columns: textColumns("database", "schema", "name")}
			for _, ref := range refs {
				rs.Rows = append(rs.Rows, []any{ref.Database, ref.Schema, ref.Name})
			}
			return report.RenderResultSet(cmd.OutOrStdout(), rs)
		},
	}

	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Only list tables in this schema")
	cmd.Flags().BoolVar(&views, "views", false, "List views instead of tables")

	return cmd
}

func newDescribeCommand(root *rootOptions) *cobra.Command {
	var schemaName string

	cmd := &cobra.Command{
		Use:     "describe TABLE",
		Aliases: []string{"columns"},
		Short:   "Show the columns of a table",
		Long: `Describe shows the column layout of a table: name, declared type,
nullability, primary key membership and default expression. The table may
be qualified as schema.table, or scoped with --schema.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve()
			if err != nil {
				return err
			}
			cl, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer cl.Close()

			ctx, cancel := signalContext()
			defer cancel()

			target := args[0]
			scope := schemaName
			if scope == "" {
				if i := strings.LastIndex(target, "."); i > 0 {
					scope, target = target[:i], target[i+1:]
				}
			}

			in := schema.NewIntrospector(cl, cl.Database())
			cols, err := in.Columns(ctx, scope, target)
			if err != nil {
				return err
			}

			keys, err := in.PrimaryKey(ctx, qualified(scope, target))
			if err != nil {
				// Some builds expose no PRAGMA route; the column listing is
				// still worth printing.
				keys = nil
			}

			rs := &core.ResultSet{Columns: textColumns("column", "type", "nullable", "key", "default")}
			for _, col := range cols {
				nullable := "YES"
				if !col.Nullable {
					nullable = "NO"
				}
				key := any(nil)
				if containsFold(keys, col.Name) {
					key = "PRI"
				}
				dflt := any(nil)
				if col.Default != "" {
					dflt = col.Default
				}
				rs.Rows = append(rs.Rows, []any{col.Name, col.DatabaseType, nullable, key, dflt})
			}
			return report.RenderResultSet(cmd.OutOrStdout(), rs)
		},
	}

	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Schema holding the table")

	return cmd
}

// textColumns builds VARCHAR column metadata for locally assembled results.
func textColumns(names ...string) []core.Column {
	cols := make([]core.Column, len(names))
	for i, name := range names {
		cols[i] = core.Column{Name: name, DatabaseType: "VARCHAR", Kind: core.KindString}
	}
	return cols
}

func qualified(schemaName, table string) string {
	if schemaName == "" {
		return table
	}
	return schemaName + "." + table
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
