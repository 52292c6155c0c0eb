package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sokinpui/hatch/cli"
	"github.com/sokinpui/hatch/internal/fs"
	"github.com/sokinpui/hatch/internal/nvim"
	"github.com/sokinpui/hatch/internal/ui"
)

func exportCmd(cfg *cli.Config) *cobra.Command {
	var (
		yes    bool
		inNvim bool
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "export [dir]",
		Short: "Write the current generation to a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cfg.ProjectDir
			if len(args) == 1 {
				dir = args[0]
			}

			files, err := currentFiles(cfg.ArchivePath)
			if err != nil {
				return err
			}

			if inNvim {
				return exportToNvim(dir, files, save, cfg.NoAnimation)
			}

			plan, err := fs.NewPlan(dir, files)
			if err != nil {
				return err
			}
			if !yes && !fs.ConfirmDirs(plan.Dirs, os.Stdin) {
				ui.Warning("Export cancelled.")
				return nil
			}

			var bar *ui.ProgressBar
			progress := func(current, total int) {
				if cfg.NoAnimation {
					return
				}
				if bar == nil {
					bar = ui.NewProgressBar(total, "Writing files")
				}
				bar.Set(current)
			}

			summary, err := plan.Apply(files, progress)
			if bar != nil {
				bar.Finish()
			}
			ui.PrintSummary("Export Summary", summary)
			return err
		},
	}

	cfg.BindClientFlags(cmd.Flags())
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Create missing directories without asking.")
	cmd.Flags().BoolVar(&inNvim, "nvim", false, "Load the files into Neovim buffers instead of writing them directly.")
	cmd.Flags().BoolVar(&save, "save", false, "With --nvim, write the buffers to disk.")
	return cmd
}

// exportToNvim loads files into the Neovim at $NVIM_LISTEN_ADDRESS, or a
// headless instance, so the change can be reviewed and undone there.
func exportToNvim(dir string, files map[string]string, save, noAnimation bool) error {
	m, err := nvim.New()
	if err != nil {
		return err
	}
	defer m.Close()

	var progress func(int)
	if !noAnimation {
		bar := ui.NewProgressBar(len(files), "Loading buffers")
		defer bar.Finish()
		progress = bar.Set
	}

	title := "Neovim Buffers"
	if save {
		title = "Neovim Export"
	}
	ui.PrintSummary(title, m.Push(dir, files, save, progress))
	return nil
}
