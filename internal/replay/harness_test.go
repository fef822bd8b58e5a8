package replay

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// helper: container at the origin, one target 2m along X, goal at the origin.
func baseFixture(steps ...FixtureStep) *Fixture {
	return &Fixture{
		Scene: SceneSpec{
			Goal:       FixtureGoal{Radius: 1},
			Targets:    []FixtureObject{{ID: 1, Position: [3]float64{2, 0, 0}}},
			Containers: []FixtureObject{{ID: 10}},
		},
		Steps: steps,
	}
}

// 1. Steps run in order and record cumulative cost and outcome.
func TestRun_RecordsSteps(t *testing.T) {
	f := baseFixture(
		FixtureStep{Action: "move_by", Distance: 2, Expect: "success"},
		FixtureStep{Action: "turn_by", Angle: 90},
		FixtureStep{Action: "pick_up", Object: 10, Arm: "left", Expect: "cannot_reach"},
	)

	res, err := Run(context.Background(), f, quietLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(res.Steps))
	}
	if res.Steps[0].Cost != 1 || res.Steps[1].Cost != 2 {
		t.Errorf("unexpected cumulative costs %d, %d", res.Steps[0].Cost, res.Steps[1].Cost)
	}
	if res.Steps[1].Expected != "" {
		t.Errorf("step without expectation should leave Expected empty, got %q", res.Steps[1].Expected)
	}
	if !res.Passed() {
		t.Errorf("unexpected mismatches: %v", res.Mismatches)
	}
}

// 2. Outcome mismatches are reported, not returned as errors.
func TestRun_OutcomeMismatch(t *testing.T) {
	f := baseFixture(FixtureStep{Action: "put_in", Expect: "success"})

	res, err := Run(context.Background(), f, quietLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Passed() {
		t.Fatal("expected a mismatch")
	}
	m := res.Mismatches[0]
	if m.Step != 0 || m.Field != "outcome" || m.Got != string(state.NotHolding) {
		t.Errorf("unexpected mismatch %+v", m)
	}
	if !strings.Contains(m.String(), "step 0 outcome") {
		t.Errorf("unexpected rendering %q", m.String())
	}
}

// 3. Final cost, done and goal-zone expectations are checked.
func TestRun_SummaryMismatch(t *testing.T) {
	f := baseFixture(FixtureStep{Action: "move_by", Distance: 1})
	f.Expected = FixtureSummary{Cost: intPtr(5), Done: boolPtr(true), InZone: []int32{1}}

	res, err := Run(context.Background(), f, quietLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Mismatches) != 3 {
		t.Fatalf("expected 3 mismatches, got %v", res.Mismatches)
	}
	for _, m := range res.Mismatches {
		if m.Step != -1 {
			t.Errorf("summary mismatch should have step -1, got %+v", m)
		}
	}
	if !strings.HasPrefix(res.Mismatches[0].String(), "final cost") {
		t.Errorf("unexpected rendering %q", res.Mismatches[0].String())
	}
}

// 4. Malformed fixtures are errors.
func TestRun_MalformedFixture(t *testing.T) {
	tests := []struct {
		name string
		step FixtureStep
	}{
		{"unknown action", FixtureStep{Action: "juggle"}},
		{"move_to without target", FixtureStep{Action: "move_to"}},
		{"bad injected outcome", FixtureStep{Action: "grasp", Object: 10, Arm: "left", Inject: &FixtureInjection{Op: "grasp", Outcome: "meh"}}},
		{"invalid arm", FixtureStep{Action: "grasp", Object: 10, Arm: "middle"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Run(context.Background(), baseFixture(tc.step), quietLogger()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// 5. A scene listing one ID as target and container is rejected.
func TestRun_DuplicateSceneID(t *testing.T) {
	f := baseFixture()
	f.Scene.Containers = []FixtureObject{{ID: 1}}
	if _, err := Run(context.Background(), f, quietLogger()); err == nil {
		t.Fatal("expected error for duplicate object id")
	}
}

// 6. Objects listed as held start attached.
func TestSceneSpec_WorldAttachesHeld(t *testing.T) {
	spec := baseFixture().Scene
	spec.Held = map[string]int32{"right": 10}
	w, err := spec.World(kinematicDefaults())
	if err != nil {
		t.Fatalf("World: %v", err)
	}
	snap, err := w.Send(context.Background())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if arm, ok := snap.HeldBy(10); !ok || arm != state.Right {
		t.Errorf("expected container held by right, got %v (held=%v)", arm, ok)
	}

	spec.Held = map[string]int32{"tail": 10}
	if _, err := spec.World(kinematicDefaults()); err == nil {
		t.Error("expected error for unknown arm")
	}

	spec.Held = map[string]int32{"right": 77}
	if _, err := spec.World(kinematicDefaults()); err == nil {
		t.Error("expected error for held object missing from the scene")
	}
}

// 7. Summarize aggregates across runs.
func TestSummarize(t *testing.T) {
	results := []ReplayResult{
		{Steps: make([]StepResult, 3)},
		{Steps: make([]StepResult, 2), Mismatches: []Mismatch{{Step: 1}, {Step: -1}}},
	}
	s := Summarize(results)
	if s.Fixtures != 2 || s.Passed != 1 || s.Steps != 5 || s.Mismatches != 2 {
		t.Errorf("unexpected summary %+v", s)
	}
}
