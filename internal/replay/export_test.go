package replay

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/action"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/mission"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/store"
)

// recordEpisode runs the mission on the two-target scene with a store recorder attached.
func recordEpisode(t *testing.T) (*store.Store, string) {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "episodes.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	spec, err := LoadScene(filepath.Join("testdata", "scenes", "two_targets.json"))
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	world, err := spec.World(kinematicDefaults())
	if err != nil {
		t.Fatalf("World: %v", err)
	}
	scene, err := spec.Scene()
	if err != nil {
		t.Fatalf("Scene: %v", err)
	}
	id, err := st.StartEpisode(spec)
	if err != nil {
		t.Fatalf("StartEpisode: %v", err)
	}

	ctx := context.Background()
	s := action.NewSession(world, action.DefaultConfig(), action.WithLogger(quietLogger()), action.WithRecorder(st.Recorder(id)))
	if err := s.InitScene(ctx, scene); err != nil {
		t.Fatalf("InitScene: %v", err)
	}
	if _, err := s.VisibleObjects(ctx); err != nil {
		t.Fatalf("VisibleObjects: %v", err)
	}
	if _, err := mission.NewRunner(s, mission.DefaultConfig(), quietLogger()).Run(ctx); err != nil {
		t.Fatalf("mission: %v", err)
	}
	if err := st.FinishEpisode(id, s.Cost(), s.IsDone()); err != nil {
		t.Fatalf("FinishEpisode: %v", err)
	}
	return st, id
}

func TestFromEpisode_ReplaysRecordedMission(t *testing.T) {
	st, id := recordEpisode(t)
	ep, err := st.GetEpisode(id)
	if err != nil {
		t.Fatalf("GetEpisode: %v", err)
	}
	rows, err := st.ListActions(id)
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}

	f, err := FromEpisode(ep, rows)
	if err != nil {
		t.Fatalf("FromEpisode: %v", err)
	}
	if len(f.Steps) != len(rows)-2 {
		t.Errorf("expected init_scene and visible_objects to be skipped: %d steps from %d rows", len(f.Steps), len(rows))
	}
	if f.Expected.Cost == nil || *f.Expected.Cost != ep.FinalCost {
		t.Errorf("expected final cost %d in fixture", ep.FinalCost)
	}
	if f.Steps[0].Action != "move_to" || f.Steps[0].Target == nil {
		t.Errorf("first step should be a move_to with a position, got %+v", f.Steps[0])
	}
	if f.Steps[1].Action != "pick_up" || f.Steps[1].Object != 10 || f.Steps[1].Arm != "right" {
		t.Errorf("second step should pick up the container, got %+v", f.Steps[1])
	}

	res, err := Run(context.Background(), f, quietLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Passed() {
		t.Errorf("recorded episode should replay cleanly: %v", res.Mismatches)
	}
}

func TestFromEpisode_Unfinished(t *testing.T) {
	ep := store.Episode{ID: "e1", SceneJSON: `{"goal":{"radius":1}}`}
	rows := []store.ActionRow{
		{Seq: 1, Action: "init_scene", ArgsJSON: `{"targets":[1]}`},
		{Seq: 2, Action: "move_by", ArgsJSON: `{"distance":0.5}`, Outcome: "success"},
		{Seq: 3, Action: "put_in", Outcome: "not_holding"},
	}
	f, err := FromEpisode(ep, rows)
	if err != nil {
		t.Fatalf("FromEpisode: %v", err)
	}
	if len(f.Steps) != 2 || f.Steps[0].Distance != 0.5 || f.Steps[1].Expect != "not_holding" {
		t.Errorf("unexpected steps %+v", f.Steps)
	}
	if f.Expected.Cost != nil || f.Expected.Done != nil {
		t.Error("unfinished episode should carry no final expectations")
	}
}

func TestFromEpisode_BadInput(t *testing.T) {
	if _, err := FromEpisode(store.Episode{SceneJSON: "{"}, nil); err == nil {
		t.Error("expected error for malformed scene")
	}
	rows := []store.ActionRow{{Action: "move_to", ArgsJSON: `{"target":"north"}`}}
	if _, err := FromEpisode(store.Episode{SceneJSON: "{}"}, rows); err == nil {
		t.Error("expected error for malformed target")
	}
}
