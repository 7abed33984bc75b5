package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newPingCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the endpoint is reachable and accepts the credential",
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

			start := time.Now()
			if err := cl.Ping(ctx); err != nil {
				return err
			}

			cmd.Printf("%s is reachable (%s)\n", cl.Endpoint(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
