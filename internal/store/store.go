package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	episode_id   TEXT PRIMARY KEY,
	scene_json   TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT,
	final_cost   INTEGER,
	done         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS action_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	episode_id    TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	action        TEXT NOT NULL,
	args_json     TEXT,
	outcome       TEXT NOT NULL,
	cost          INTEGER NOT NULL,
	done          INTEGER NOT NULL,
	frame         INTEGER NOT NULL,
	snapshot_hash TEXT,
	snapshot_blob BLOB,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (episode_id) REFERENCES episodes(episode_id)
);

CREATE INDEX IF NOT EXISTS action_log_episode ON action_log(episode_id, seq);
`

// #endregion schema

// #region store-struct
// Store keeps episodes and their action logs in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region episodes
// StartEpisode inserts a running episode for scene and returns its ID.
func (s *Store) StartEpisode(scene any) (string, error) {
	sceneJSON, err := json.Marshal(scene)
	if err != nil {
		return "", fmt.Errorf("marshal scene: %w", err)
	}
	id := uuid.New().String()
	_, err = s.db.Exec(
		`INSERT INTO episodes (episode_id, scene_json, started_at) VALUES (?, ?, ?)`,
		id, string(sceneJSON), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert episode: %w", err)
	}
	return id, nil
}

// FinishEpisode stamps the final cost and completion flag.
func (s *Store) FinishEpisode(id string, finalCost int, done bool) error {
	res, err := s.db.Exec(
		`UPDATE episodes SET finished_at = ?, final_cost = ?, done = ? WHERE episode_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), finalCost, done, id,
	)
	if err != nil {
		return fmt.Errorf("finish episode: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("episode %s not found", id)
	}
	return nil
}

// GetEpisode retrieves one episode by ID.
func (s *Store) GetEpisode(id string) (Episode, error) {
	row := s.db.QueryRow(
		`SELECT episode_id, scene_json, started_at, finished_at, final_cost, done
		 FROM episodes WHERE episode_id = ?`, id,
	)
	ep, err := scanEpisode(row)
	if err != nil {
		return Episode{}, fmt.Errorf("get episode %s: %w", id, err)
	}
	return ep, nil
}

// ListEpisodes returns the most recent episodes.
func (s *Store) ListEpisodes(limit int) ([]Episode, error) {
	rows, err := s.db.Query(
		`SELECT episode_id, scene_json, started_at, finished_at, final_cost, done
		 FROM episodes ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEpisode(sc scanner) (Episode, error) {
	var ep Episode
	var startedStr string
	var finishedStr sql.NullString
	var finalCost sql.NullInt64
	if err := sc.Scan(&ep.ID, &ep.SceneJSON, &startedStr, &finishedStr, &finalCost, &ep.Done); err != nil {
		return Episode{}, err
	}
	ep.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	if finishedStr.Valid {
		ep.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedStr.String)
	}
	if finalCost.Valid {
		ep.FinalCost = int(finalCost.Int64)
	}
	return ep, nil
}

// #endregion episodes

// #region actions
// ListActions returns an episode's actions in order.
func (s *Store) ListActions(episodeID string) ([]ActionRow, error) {
	rows, err := s.db.Query(
		`SELECT id, episode_id, seq, action, args_json, outcome, cost, done, frame, snapshot_hash, created_at
		 FROM action_log WHERE episode_id = ? ORDER BY seq`, episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []ActionRow
	for rows.Next() {
		var r ActionRow
		var args, hash sql.NullString
		var frame int64
		var createdStr string
		if err := rows.Scan(&r.ID, &r.EpisodeID, &r.Seq, &r.Action, &args, &r.Outcome,
			&r.Cost, &r.Done, &frame, &hash, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.ArgsJSON = args.String
		r.SnapshotHash = hash.String
		r.Frame = uint64(frame)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadSnapshot restores the snapshot archived with action id and checks its hash.
func (s *Store) LoadSnapshot(id int64) (*state.Snapshot, error) {
	var blob []byte
	var hash sql.NullString
	err := s.db.QueryRow(
		`SELECT snapshot_blob, snapshot_hash FROM action_log WHERE id = ?`, id,
	).Scan(&blob, &hash)
	if err != nil {
		return nil, fmt.Errorf("get action %d: %w", id, err)
	}
	if blob == nil {
		return nil, fmt.Errorf("action %d has no snapshot", id)
	}
	snap, sum, err := restoreSnapshot(blob)
	if err != nil {
		return nil, fmt.Errorf("action %d: %w", id, err)
	}
	if hash.Valid && hash.String != sum {
		return nil, fmt.Errorf("action %d: snapshot hash mismatch", id)
	}
	return snap, nil
}

// #endregion actions
