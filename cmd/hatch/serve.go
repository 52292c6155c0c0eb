package main

import (
	stdlog "log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sokinpui/hatch/cli"
	"github.com/sokinpui/hatch/internal/relay"
)

func serveCmd(cfg *cli.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay between clients, the LLM provider and GitHub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdr.SetVerbosity(cfg.Verbose)
			log := stdr.New(stdlog.New(os.Stderr, "", stdlog.LstdFlags)).WithName("relay")

			if cfg.TogetherAPIKey == "" {
				log.Info("TOGETHER_API_KEY is not set, generation requests will fail")
			}
			if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
				log.Info("GITHUB_CLIENT_ID or GITHUB_CLIENT_SECRET is not set, OAuth exchange will fail")
			}

			srv := relay.New(relay.Config{
				TogetherAPIKey:     cfg.TogetherAPIKey,
				TogetherBaseURL:    cfg.TogetherBaseURL,
				Model:              cfg.Model,
				GitHubClientID:     cfg.GitHubClientID,
				GitHubClientSecret: cfg.GitHubClientSecret,
			}, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(ctx, ":"+strconv.Itoa(cfg.Port))
			})
			g.Go(func() error {
				<-ctx.Done()
				log.Info("shutting down")
				return nil
			})
			return g.Wait()
		},
	}

	cfg.BindServerFlags(cmd.Flags())
	return cmd
}
