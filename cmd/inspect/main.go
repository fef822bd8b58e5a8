package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/store"
)

// #region main
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	dbPath  string
	jsonOut bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "inspect",
		Short:        "Inspect recorded episodes, action logs and archived snapshots",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "transport.db", "path to the episode database")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "output as JSON instead of a table")

	root.AddCommand(episodesCmd(opts), actionsCmd(opts), snapshotCmd(opts), verifyCmd(opts))
	return root
}

func openStore(opts *options) (*store.Store, error) {
	st, err := store.NewStore(opts.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return st, nil
}

// #endregion main

// #region episodes
type episodeRow struct {
	ID         string `json:"episode_id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	FinalCost  int    `json:"final_cost"`
	Done       bool   `json:"done"`
}

func episodesCmd(opts *options) *cobra.Command {
	var last int
	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List the most recent episodes",
		RunE: func(*cobra.Command, []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			episodes, err := st.ListEpisodes(last)
			if err != nil {
				return err
			}
			rows := make([]episodeRow, len(episodes))
			for i, ep := range episodes {
				rows[i] = episodeRow{ID: ep.ID, StartedAt: ep.StartedAt.Format("2006-01-02T15:04:05Z"), FinalCost: ep.FinalCost, Done: ep.Done}
				if ep.Finished() {
					rows[i].FinishedAt = ep.FinishedAt.Format("2006-01-02T15:04:05Z")
				}
			}
			if opts.jsonOut {
				return printJSON(rows)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EPISODE\tSTARTED\tFINISHED\tCOST\tDONE")
			for _, r := range rows {
				finished := r.FinishedAt
				if finished == "" {
					finished = "running"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%v\n", r.ID, r.StartedAt, finished, r.FinalCost, r.Done)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent episodes")
	return cmd
}

// #endregion episodes

// #region actions
func actionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "actions <episode-id>",
		Short: "Show an episode's action log",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.ListActions(args[0])
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(rows)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSEQ\tACTION\tOUTCOME\tCOST\tDONE\tFRAME\tARGS")
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%v\t%d\t%s\n", r.ID, r.Seq, r.Action, r.Outcome, r.Cost, r.Done, r.Frame, r.ArgsJSON)
			}
			return tw.Flush()
		},
	}
}

// #endregion actions

// #region snapshot
type objectView struct {
	ID       state.ObjectID `json:"id"`
	Position [3]float64     `json:"position"`
	Held     string         `json:"held_by,omitempty"`
}

type snapshotView struct {
	Frame   uint64                  `json:"frame"`
	Objects []objectView            `json:"objects"`
	Joints  map[state.Arm][]float64 `json:"joints"`
	Events  []state.TriggerEvent    `json:"events,omitempty"`
}

func snapshotCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <action-id>",
		Short: "Restore and print the snapshot archived with an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("action id: %w", err)
			}
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := st.LoadSnapshot(id)
			if err != nil {
				return err
			}
			view := snapshotView{Frame: snap.Frame(), Joints: map[state.Arm][]float64{}, Events: snap.Events()}
			for _, arm := range state.Arms {
				view.Joints[arm] = snap.Joints(arm)
			}
			for _, oid := range snap.ObjectIDs() {
				pos, _ := snap.Position(oid)
				ov := objectView{ID: oid, Position: [3]float64{pos.X, pos.Y, pos.Z}}
				if arm, ok := snap.HeldBy(oid); ok {
					ov.Held = string(arm)
				}
				view.Objects = append(view.Objects, ov)
			}
			return printJSON(view)
		},
	}
}

// #endregion snapshot

// #region verify
func verifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <episode-id>",
		Short: "Check every archived snapshot of an episode against its hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.ListActions(args[0])
			if err != nil {
				return err
			}
			var checked, bad int
			for _, r := range rows {
				if r.SnapshotHash == "" {
					continue
				}
				checked++
				if _, err := st.LoadSnapshot(r.ID); err != nil {
					bad++
					fmt.Fprintf(os.Stderr, "seq %d (%s): %v\n", r.Seq, r.Action, err)
				}
			}
			fmt.Printf("%d snapshots checked, %d bad\n", checked, bad)
			if bad > 0 {
				return fmt.Errorf("%d corrupt snapshots", bad)
			}
			return nil
		},
	}
}

// #endregion verify

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
