package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-action
// LogAction writes one finished action to the action_log table.
func LogAction(db *sql.DB, entry ActionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO action_log (episode_id, seq, action, args_json, outcome, cost, done, frame, snapshot_hash, snapshot_blob, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.EpisodeID,
		entry.Seq,
		entry.Action,
		nullIfEmpty(entry.ArgsJSON),
		entry.Outcome,
		entry.Cost,
		entry.Done,
		int64(entry.Frame),
		nullIfEmpty(entry.SnapshotHash),
		nullIfNil(entry.SnapshotBlob),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log action: %w", err)
	}
	return nil
}

// #endregion log-action

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfNil(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return b
}

// #endregion helpers
