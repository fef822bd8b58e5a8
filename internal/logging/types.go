package logging

import "time"

// #region action-entry
// ActionEntry is a single row in the action_log table.
type ActionEntry struct {
	EpisodeID    string
	Seq          int
	Action       string
	ArgsJSON     string
	Outcome      string
	Cost         int
	Done         bool
	Frame        uint64
	SnapshotHash string
	SnapshotBlob []byte
	CreatedAt    time.Time
}

// #endregion action-entry
