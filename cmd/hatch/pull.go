package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sokinpui/hatch/cli"
	"github.com/sokinpui/hatch/internal/archive"
	"github.com/sokinpui/hatch/internal/nvim"
	"github.com/sokinpui/hatch/internal/state"
	"github.com/sokinpui/hatch/internal/tree"
	"github.com/sokinpui/hatch/internal/ui"
	"github.com/sokinpui/hatch/model"
)

func pullCmd(cfg *cli.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull [dir]",
		Short: "Record the Neovim buffers of the current generation as a new generation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cfg.ProjectDir
			if len(args) == 1 {
				dir = args[0]
			}

			db, err := archive.Open(cfg.ArchivePath)
			if err != nil {
				return err
			}
			defer db.Close()

			h, err := state.NewHistory(db)
			if err != nil {
				return err
			}
			entry, ok := h.Current()
			if !ok {
				return fmt.Errorf("no generation recorded in %s", cfg.ArchivePath)
			}

			m, err := nvim.New()
			if err != nil {
				return err
			}
			defer m.Close()

			files, failed := m.Pull(dir, tree.SortedPaths(entry.Files))
			for _, p := range failed {
				ui.Warning("No buffer for %s, keeping the archived content.", p)
				files[p] = entry.Files[p]
			}

			var changed []string
			for _, p := range tree.SortedPaths(files) {
				if files[p] != entry.Files[p] {
					changed = append(changed, p)
				}
			}
			if len(changed) == 0 {
				ui.Info("No buffer differs from generation %d.", h.Position())
				return nil
			}

			if err := h.Record(files, "edited in neovim"); err != nil {
				return err
			}
			ui.PrintSummary("Pull Summary", model.Summary{
				Modified: changed,
				Failed:   failed,
				Message:  fmt.Sprintf("Recorded generation %d", h.Position()),
			})
			return nil
		},
	}

	cfg.BindClientFlags(cmd.Flags())
	return cmd
}
