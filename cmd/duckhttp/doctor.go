package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oraichain/duckdb-http/healthcheck"
	"github.com/oraichain/duckdb-http/logger"
	"github.com/oraichain/duckdb-http/report"
)

// DoctorOptions represents the options for the doctor command.
type DoctorOptions struct {
	JSONPath string
	HTMLPath string
}

func newDoctorCommand(root *rootOptions) *cobra.Command {
	options := &DoctorOptions{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run a health diagnosis against the endpoint",
		Long: `Doctor runs a fixed battery of checks against the endpoint: reachability,
a scalar query, the server version, the server clock and the catalog
listing. It exits non-zero when any check fails.`,
		Args: cobra.NoArgs,
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

			stop := startSpinner("diagnosing endpoint...")
			run, err := healthcheck.NewDoctor(cl, logger.GetLogger()).Diagnose(ctx)
			stop()
			if err != nil {
				return err
			}

			if err := report.RenderHealthText(cmd.OutOrStdout(), run); err != nil {
				return err
			}

			if options.JSONPath != "" || options.HTMLPath != "" {
				if err := report.SaveReports(run, options.JSONPath, options.HTMLPath); err != nil {
					return err
				}
			}

			if !run.Healthy {
				return fmt.Errorf("endpoint unhealthy: %d checks failed", len(run.FailedChecks()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&options.JSONPath, "json", "", "Also save the report as JSON to this path")
	cmd.Flags().StringVar(&options.HTMLPath, "html", "", "Also save the report as HTML to this path")

	return cmd
}
