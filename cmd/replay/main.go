package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/logging"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/replay"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/store"
)

var errMismatch = errors.New("replay mismatches")

// #region main
func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errMismatch) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath, episodeID, logLevel string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "replay [fixture.json ...]",
		Short: "Replay fixtures or a recorded episode against the kinematic world",
		Long: "Fixture mode replays each JSON fixture and reports outcome, cost and goal mismatches.\n" +
			"Episode mode (--db with --episode) rebuilds a fixture from a recorded episode first.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			episodeMode := dbPath != "" || episodeID != ""
			if episodeMode == (len(args) > 0) {
				return errors.New("give either fixture paths or --db with --episode")
			}
			level := logLevel
			if !verbose {
				level = "error"
			}
			logger, err := logging.NewLogger(os.Stderr, level, "text")
			if err != nil {
				return err
			}

			var fixtures []*replay.Fixture
			if episodeMode {
				f, err := loadEpisode(dbPath, episodeID)
				if err != nil {
					return err
				}
				fixtures = append(fixtures, f)
			} else {
				for _, path := range args {
					f, err := replay.LoadFixture(path)
					if err != nil {
						return err
					}
					fixtures = append(fixtures, f)
				}
			}
			return runFixtures(cmd.Context(), fixtures, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&dbPath, "db", "", "path to the episode database (episode mode)")
	f.StringVar(&episodeID, "episode", "", "episode ID to replay (episode mode)")
	f.BoolVarP(&verbose, "verbose", "v", false, "log every replayed action")
	f.StringVar(&logLevel, "log-level", "info", "log level with --verbose")
	return cmd
}

// #endregion main

// #region replay
func loadEpisode(dbPath, episodeID string) (*replay.Fixture, error) {
	if dbPath == "" || episodeID == "" {
		return nil, errors.New("episode mode needs both --db and --episode")
	}
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	ep, err := st.GetEpisode(episodeID)
	if err != nil {
		return nil, err
	}
	rows, err := st.ListActions(episodeID)
	if err != nil {
		return nil, err
	}
	return replay.FromEpisode(ep, rows)
}

func runFixtures(ctx context.Context, fixtures []*replay.Fixture, logger *slog.Logger) error {
	results := make([]replay.ReplayResult, 0, len(fixtures))
	for _, f := range fixtures {
		res, err := replay.Run(ctx, f, logger)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Description, err)
		}
		results = append(results, res)

		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
		}
		fmt.Printf("%s  %s  steps=%d cost=%d done=%v\n", status, f.Description, len(res.Steps), res.Cost, res.Done)
		for _, m := range res.Mismatches {
			fmt.Printf("      %s\n", m)
		}
	}

	s := replay.Summarize(results)
	fmt.Printf("\n%d/%d fixtures passed (%d steps, %d mismatches)\n", s.Passed, s.Fixtures, s.Steps, s.Mismatches)
	if s.Passed != s.Fixtures {
		return errMismatch
	}
	return nil
}

// #endregion replay
