package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sokinpui/hatch/cli"
	"github.com/sokinpui/hatch/internal/assist"
	"github.com/sokinpui/hatch/internal/parser"
	"github.com/sokinpui/hatch/internal/source"
	"github.com/sokinpui/hatch/internal/ui"
)

func askCmd(cfg *cli.Config) *cobra.Command {
	var (
		copyCode bool
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask the coding assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := assist.New(cfg.TogetherAPIKey, cfg.TogetherBaseURL, cfg.Model)
			if err != nil {
				return err
			}

			reply, err := a.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if raw {
				_, err = out.Write([]byte(reply + "\n"))
				return err
			}
			ui.PrintSegments(out, parser.Segments(reply))

			if copyCode {
				seg, ok := parser.LastCode(reply)
				if !ok {
					ui.Warning("The reply has no code block to copy.")
					return nil
				}
				if err := source.New().Copy(seg.Content); err != nil {
					return err
				}
				ui.Success("Copied the last code block to the clipboard.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&copyCode, "copy", "c", false, "Copy the last code block of the reply to the clipboard.")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the reply without formatting.")
	cmd.Flags().StringVar(&cfg.Model, "model", cfg.Model, "Model used to answer.")
	return cmd
}
