package main

import (
	"github.com/spf13/cobra"

	"github.com/oraichain/duckdb-http/logger"
	"github.com/oraichain/duckdb-http/mockserver"
)

// ServeOptions represents the options for the serve command.
type ServeOptions struct {
	Port     string
	Shape    string
	Fixtures []string
	Prefork  bool
}

func newServeCommand(root *rootOptions) *cobra.Command {
	options := &ServeOptions{Port: "3000"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a mock DuckDB HTTP endpoint",
		Long: `Serve starts an in-process endpoint that speaks the same protocol as the
DuckDB httpserver extension. Without fixtures it serves a small built-in
demo catalog; --fixture loads CSV, Parquet or Arrow files as tables named
after the file.

The --api-key flag sets the key clients must present. --shape selects the
response encoding (canonical, meta, object, ndjson, arrays) so client
decoding paths can be exercised.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shape, err := mockserver.ParseShape(options.Shape)
			if err != nil {
				return err
			}

			catalog := mockserver.DemoCatalog()
			if len(options.Fixtures) > 0 {
				catalog = mockserver.NewCatalog()
			}

			ctx, cancel := signalContext()
			defer cancel()

			for _, path := range options.Fixtures {
				if err := catalog.LoadFile(ctx, "", path); err != nil {
					return err
				}
			}

			server := mockserver.NewServer(mockserver.Options{
				Port:    options.Port,
				APIKey:  root.apiKey,
				Shape:   shape,
				Prefork: options.Prefork,
				Catalog: catalog,
				Logger:  logger.GetLogger(),
			})

			cmd.Printf("mock endpoint listening on :%s\n", options.Port)
			return server.Start(options.Port)
		},
	}

	cmd.Flags().StringVarP(&options.Port, "port", "p", options.Port, "Port to listen on")
	cmd.Flags().StringVar(&options.Shape, "shape", "", "Response shape (canonical, meta, object, ndjson, arrays)")
	cmd.Flags().StringArrayVar(&options.Fixtures, "fixture", nil, "Data file to serve as a table; repeatable")
	cmd.Flags().BoolVar(&options.Prefork, "prefork", false, "Enable Fiber prefork mode")

	return cmd
}
