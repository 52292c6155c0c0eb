package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sokinpui/hatch/cli"
	"github.com/sokinpui/hatch/internal/relayclient"
	"github.com/sokinpui/hatch/internal/ui"
)

func authCmd(cfg *cli.Config) *cobra.Command {
	var redirectURI string

	cmd := &cobra.Command{
		Use:   "auth [code]",
		Short: "Sign in to GitHub through the relay",
		Long: `Without a code, prints the GitHub authorization URL. With the code GitHub
redirected back with, exchanges it through the relay and prints the token.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if cfg.GitHubClientID == "" {
					return fmt.Errorf("GITHUB_CLIENT_ID is not set")
				}
				ui.Info("Open this URL and authorize the app, then run `hatch auth <code>`:")
				fmt.Fprintln(out, relayclient.AuthURL(cfg.GitHubClientID, redirectURI))
				return nil
			}

			tok, err := relayclient.New(cfg.APIBaseURL, nil).OAuth(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ui.Success("Authorized with scope %q. Set GITHUB_TOKEN to:", tok.Scope)
			fmt.Fprintln(out, tok.AccessToken)
			return nil
		},
	}

	cfg.BindClientFlags(cmd.Flags())
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "Callback URL registered for the OAuth app.")
	return cmd
}
