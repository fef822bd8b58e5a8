package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/replay"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/store"
)

// #region main
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath, episodeID, outPath, description string

	cmd := &cobra.Command{
		Use:          "fixture-export",
		Short:        "Export a recorded episode as a replay fixture",
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			return run(dbPath, episodeID, outPath, description)
		},
	}

	f := cmd.Flags()
	f.StringVar(&dbPath, "db", "", "path to the episode database")
	f.StringVar(&episodeID, "episode", "", "episode ID to export (default: most recent)")
	f.StringVar(&outPath, "out", "", "output fixture JSON path")
	f.StringVar(&description, "description", "", "fixture description")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// #endregion main

// #region export
func run(dbPath, episodeID, outPath, description string) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	if episodeID == "" {
		recent, err := st.ListEpisodes(1)
		if err != nil {
			return err
		}
		if len(recent) == 0 {
			return fmt.Errorf("no episodes in %s", dbPath)
		}
		episodeID = recent[0].ID
	}

	ep, err := st.GetEpisode(episodeID)
	if err != nil {
		return err
	}
	rows, err := st.ListActions(episodeID)
	if err != nil {
		return err
	}
	fixture, err := replay.FromEpisode(ep, rows)
	if err != nil {
		return err
	}
	if description != "" {
		fixture.Description = description
	}

	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	fmt.Fprintf(os.Stderr, "exported episode %s (%d steps) to %s\n", episodeID, len(fixture.Steps), outPath)
	return nil
}

// #endregion export
