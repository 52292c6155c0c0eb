package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sokinpui/hatch/internal/parser"
	"github.com/sokinpui/hatch/internal/source"
	"github.com/sokinpui/hatch/internal/ui"
)

func parseCmd() *cobra.Command {
	var (
		format   string
		codeOnly bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Split an LLM reply into prose and fenced code segments",
		Long: `Reads the reply from the given file, "-" or piped stdin, or the clipboard,
and prints its segments. Output is styled on a terminal and JSON otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			content, err := source.New().Content(path)
			if err != nil {
				return err
			}

			if format == "" {
				format = "text"
				if !term.IsTerminal(int(os.Stdout.Fd())) {
					format = "json"
				}
			}

			out := cmd.OutOrStdout()
			if codeOnly {
				blocks, err := parser.CodeBlocks([]byte(content))
				if err != nil {
					return err
				}
				if format == "json" {
					return writeJSON(out, blocks)
				}
				for _, b := range blocks {
					if b.Hint != "" {
						ui.Info("%s", b.Hint)
					}
					fmt.Fprintf(out, "[%s]\n%s\n", b.Lang, b.Content)
				}
				return nil
			}

			segs := parser.Segments(content)
			switch format {
			case "json":
				return writeJSON(out, segs)
			case "text":
				ui.PrintSegments(out, segs)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text or json.")
	cmd.Flags().BoolVar(&codeOnly, "code", false, "Print only fenced code blocks with the paragraph preceding each.")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
