package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sokinpui/hatch/cli"
	"github.com/sokinpui/hatch/hatch"
	"github.com/sokinpui/hatch/internal/ui"
)

var version = "dev"

func main() {
	cfgPath := os.Getenv("HATCH_CONFIG")
	if cfgPath == "" {
		cfgPath = cli.DefaultPath()
	}
	cfg, err := cli.Load(cfgPath, ".env")
	if err != nil {
		ui.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "hatch",
		Short:         "Chat with an LLM to generate a project, browse it and push it to GitHub",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd(cfg))
	rootCmd.AddCommand(chatCmd(cfg))
	rootCmd.AddCommand(askCmd(cfg))
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(treeCmd(cfg))
	rootCmd.AddCommand(exportCmd(cfg))
	rootCmd.AddCommand(historyCmd(cfg))
	rootCmd.AddCommand(pullCmd(cfg))
	rootCmd.AddCommand(authCmd(cfg))
	rootCmd.AddCommand(healthCmd(cfg))

	if err := execute(rootCmd); err != nil {
		ui.Error("Error: %v", err)
		var detailed *hatch.DetailedError
		if errors.As(err, &detailed) {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
		}
		os.Exit(1)
	}
}

func execute(cmd *cobra.Command) (err error) {
	defer hatch.Recover(&err)
	return cmd.Execute()
}
