package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sokinpui/hatch/cli"
	"github.com/sokinpui/hatch/internal/archive"
	"github.com/sokinpui/hatch/internal/state"
	"github.com/sokinpui/hatch/internal/ui"
)

func historyCmd(cfg *cli.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived generations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := archive.Open(cfg.ArchivePath)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, current, err := db.LoadHistory()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				ui.Warning("No generations recorded.")
				return nil
			}

			out := cmd.OutOrStdout()
			for i, e := range entries {
				marker := "  "
				if i == current {
					marker = "* "
				}
				size := 0
				for _, c := range e.Files {
					size += len(c)
				}
				fmt.Fprintf(out, "%s%3d  %-14s  %3d files  %8s  %s\n",
					marker, i, humanize.Time(time.Unix(e.Timestamp, 0)), len(e.Files), ui.Size(size), e.Message)
			}
			return nil
		},
	}

	cfg.BindClientFlags(cmd.PersistentFlags())
	cmd.AddCommand(moveCmd(cfg, "undo", "Step back to the previous generation", (*state.History).Undo))
	cmd.AddCommand(moveCmd(cfg, "redo", "Step forward to the next generation", (*state.History).Redo))
	cmd.AddCommand(transcriptsCmd(cfg))
	return cmd
}

func moveCmd(cfg *cli.Config, use, short string, move func(*state.History) (map[string]string, bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := archive.Open(cfg.ArchivePath)
			if err != nil {
				return err
			}
			defer db.Close()

			h, err := state.NewHistory(db)
			if err != nil {
				return err
			}
			files, ok, err := move(h)
			if err != nil {
				return err
			}
			if !ok {
				ui.Warning("Nothing to %s.", use)
				return nil
			}
			ui.Success("Now at generation %d of %d (%d files).", h.Position()+1, h.Len(), len(files))
			return nil
		},
	}
}

func transcriptsCmd(cfg *cli.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [session]",
		Short: "List archived chat sessions or print one transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := archive.Open(cfg.ArchivePath)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				sessions, err := db.Sessions()
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					ui.Warning("No chat sessions archived.")
				}
				for _, s := range sessions {
					fmt.Fprintln(out, s)
				}
				return nil
			}

			msgs, err := db.Transcript(args[0])
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				return fmt.Errorf("no session %q", args[0])
			}
			for _, m := range msgs {
				ui.PrintMessage(out, m)
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
