package logging

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE action_log (
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
		created_at    TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-action-tests
func TestLogAction_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ActionEntry{
		EpisodeID:    "ep1",
		Seq:          3,
		Action:       "put_in",
		ArgsJSON:     `{}`,
		Outcome:      "success",
		Cost:         5,
		Done:         false,
		Frame:        120,
		SnapshotHash: "abc123",
		SnapshotBlob: []byte{1, 2, 3},
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogAction(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var action, outcome string
	var cost, frame int
	db.QueryRow("SELECT action, outcome, cost, frame FROM action_log").Scan(&action, &outcome, &cost, &frame)
	if action != "put_in" {
		t.Errorf("expected action 'put_in', got %q", action)
	}
	if outcome != "success" {
		t.Errorf("expected outcome 'success', got %q", outcome)
	}
	if cost != 5 || frame != 120 {
		t.Errorf("expected cost 5 frame 120, got %d %d", cost, frame)
	}
}

func TestLogAction_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	if err := LogAction(db, ActionEntry{EpisodeID: "ep2", Action: "init_scene", Outcome: "success"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM action_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogAction_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	if err := LogAction(db, ActionEntry{EpisodeID: "ep3", Action: "move_by", Outcome: "success"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var args, hash sql.NullString
	var blob []byte
	db.QueryRow("SELECT args_json, snapshot_hash, snapshot_blob FROM action_log").Scan(&args, &hash, &blob)
	if args.Valid {
		t.Error("expected NULL args_json")
	}
	if hash.Valid {
		t.Error("expected NULL snapshot_hash")
	}
	if blob != nil {
		t.Error("expected NULL snapshot_blob")
	}
}

func TestLogAction_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	if err := LogAction(db, ActionEntry{EpisodeID: "ep4", Action: "drop", Outcome: "success"}); err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-action-tests

// #region logger-tests
func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("hello", "component", "test")
	if !strings.Contains(buf.String(), `"component":"test"`) {
		t.Errorf("expected JSON attribute, got %q", buf.String())
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
}

func TestNewLogger_BadInput(t *testing.T) {
	if _, err := NewLogger(&bytes.Buffer{}, "loud", "text"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := NewLogger(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

// #endregion logger-tests

// #region null-if-empty-tests
func TestNullIfEmpty(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Error("expected nil for empty string")
	}
	if nullIfEmpty("hello") != "hello" {
		t.Error("expected passthrough")
	}
}

// #endregion null-if-empty-tests
