package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/sokinpui/hatch/cli"
	"github.com/sokinpui/hatch/internal/archive"
	"github.com/sokinpui/hatch/internal/fs"
	"github.com/sokinpui/hatch/internal/state"
	"github.com/sokinpui/hatch/internal/tree"
	"github.com/sokinpui/hatch/internal/ui"
)

func treeCmd(cfg *cli.Config) *cobra.Command {
	var (
		format  string
		history bool
		nested  bool
	)

	cmd := &cobra.Command{
		Use:   "tree [dir]",
		Short: "Show the folder tree of a directory or of the current generation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				files map[string]string
				err   error
			)
			if history {
				files, err = currentFiles(cfg.ArchivePath)
			} else {
				dir := "."
				if len(args) == 1 {
					dir = args[0]
				}
				files, err = fs.Import(dir)
			}
			if err != nil {
				return err
			}

			if format == "" {
				format = "ascii"
				if !term.IsTerminal(int(os.Stdout.Fd())) {
					format = "yaml"
				}
			}

			out := cmd.OutOrStdout()
			if nested {
				d, err := tree.Nest(files)
				if err != nil {
					return err
				}
				return encode(out, format, d)
			}

			nodes, err := tree.Build(files)
			if err != nil {
				return err
			}
			if format == "ascii" {
				if len(nodes) == 0 {
					ui.Warning("No files.")
					return nil
				}
				fmt.Fprintln(out, tree.Render(nodes))
				return nil
			}
			return encode(out, format, nodes)
		},
	}

	cfg.BindClientFlags(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: ascii, yaml or json.")
	cmd.Flags().BoolVar(&history, "history", false, "Use the current generation from the archive instead of a directory.")
	cmd.Flags().BoolVar(&nested, "nested", false, "Print a nested directory listing with file contents.")
	return cmd
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		return writeJSON(w, v)
	case "yaml", "ascii":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown format %q (want ascii, yaml or json)", format)
	}
}

// currentFiles returns the files of the current archived generation.
func currentFiles(archivePath string) (map[string]string, error) {
	db, err := archive.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	h, err := state.NewHistory(db)
	if err != nil {
		return nil, err
	}
	entry, ok := h.Current()
	if !ok {
		return nil, fmt.Errorf("no generation recorded in %s", archivePath)
	}
	return entry.Files, nil
}
