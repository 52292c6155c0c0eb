package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sokinpui/hatch/cli"
	"github.com/sokinpui/hatch/hatch"
	"github.com/sokinpui/hatch/internal/archive"
	"github.com/sokinpui/hatch/internal/relayclient"
	"github.com/sokinpui/hatch/internal/tui"
	"github.com/sokinpui/hatch/internal/ui"
)

func chatCmd(cfg *cli.Config) *cobra.Command {
	var (
		importDir string
		noArchive bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive workbench",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer hatch.Recover(&err)

			var db *archive.DB
			if !noArchive {
				db, err = archive.Open(cfg.ArchivePath)
				if err != nil {
					return err
				}
				defer db.Close()
			}

			app, err := hatch.New(relayclient.New(cfg.APIBaseURL, nil), db)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := app.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("failed to archive transcript: %w", cerr)
				}
			}()

			if cfg.GitHubToken != "" {
				app.Store().SetGithubToken(cfg.GitHubToken)
			}
			if importDir != "" {
				n, err := app.Import(importDir)
				if err != nil {
					return err
				}
				ui.Info("Imported %d files from %s", n, importDir)
			}

			m := tui.New(cmd.Context(), app, tui.Options{
				Dir:         cfg.ProjectDir,
				NoAnimation: cfg.NoAnimation,
			})
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cfg.BindClientFlags(cmd.Flags())
	cmd.Flags().StringVarP(&importDir, "import", "i", "", "Seed the project with the files of a local directory.")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "Keep history in memory only.")
	return cmd
}
