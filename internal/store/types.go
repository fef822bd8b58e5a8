package store

import "time"

// #region episode
// Episode is one run of a scene from InitScene to the end of the mission.
type Episode struct {
	ID         string
	SceneJSON  string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the episode is running
	FinalCost  int
	Done       bool
}

// Finished reports whether FinishEpisode was called.
func (e Episode) Finished() bool { return !e.FinishedAt.IsZero() }

// #endregion episode

// #region action-row
// ActionRow is a stored action without its snapshot archive.
type ActionRow struct {
	ID           int64
	EpisodeID    string
	Seq          int
	Action       string
	ArgsJSON     string
	Outcome      string
	Cost         int
	Done         bool
	Frame        uint64
	SnapshotHash string
	CreatedAt    time.Time
}

// #endregion action-row
