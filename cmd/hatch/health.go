package main

import (
	"github.com/spf13/cobra"

	"github.com/sokinpui/hatch/cli"
	"github.com/sokinpui/hatch/internal/relayclient"
	"github.com/sokinpui/hatch/internal/ui"
)

func healthCmd(cfg *cli.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the relay is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := relayclient.New(cfg.APIBaseURL, nil)
			h, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			ui.Success("%s is %s (%s)", c.BaseURL(), h.Status, h.Timestamp)
			return nil
		},
	}

	cfg.BindClientFlags(cmd.Flags())
	return cmd
}
