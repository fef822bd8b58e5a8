package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/action"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/logging"
)

// Recorder appends a session's actions to one episode's log.
type Recorder struct {
	store     *Store
	episodeID string
}

var _ action.Recorder = (*Recorder)(nil)

// Recorder returns an action.Recorder bound to episodeID.
func (s *Store) Recorder(episodeID string) *Recorder {
	return &Recorder{store: s, episodeID: episodeID}
}

// RecordAction archives the post-action snapshot and writes the log row.
func (r *Recorder) RecordAction(_ context.Context, rec action.Record) error {
	entry := logging.ActionEntry{
		EpisodeID: r.episodeID,
		Seq:       rec.Seq,
		Action:    string(rec.Action),
		Outcome:   string(rec.Outcome),
		Cost:      rec.Cost,
		Done:      rec.Done,
	}
	if len(rec.Args) > 0 {
		args, err := json.Marshal(rec.Args)
		if err != nil {
			return fmt.Errorf("marshal args: %w", err)
		}
		entry.ArgsJSON = string(args)
	}
	if rec.Snapshot != nil {
		blob, hash, err := archiveSnapshot(rec.Snapshot)
		if err != nil {
			return err
		}
		entry.Frame = rec.Snapshot.Frame()
		entry.SnapshotBlob = blob
		entry.SnapshotHash = hash
	}
	return logging.LogAction(r.store.db, entry)
}
