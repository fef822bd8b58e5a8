package replay

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/action"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/mission"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim/kinematic"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region types
// StepResult captures the outcome of replaying one fixture step.
type StepResult struct {
	Index    int
	Action   string
	Outcome  state.Outcome
	Expected state.Outcome // empty when the step sets no expectation
	Cost     int           // cumulative cost after the step
	Done     bool
}

// Mismatch is one expectation the replay did not meet. Step is -1 for the final summary.
type Mismatch struct {
	Step  int
	Field string
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	if m.Step < 0 {
		return fmt.Sprintf("final %s: want %s, got %s", m.Field, m.Want, m.Got)
	}
	return fmt.Sprintf("step %d %s: want %s, got %s", m.Step, m.Field, m.Want, m.Got)
}

// ReplayResult is the full record of a replay run.
type ReplayResult struct {
	Steps      []StepResult
	Cost       int
	Done       bool
	InZone     []state.ObjectID
	Mismatches []Mismatch
}

// Passed reports whether every expectation held.
func (r ReplayResult) Passed() bool { return len(r.Mismatches) == 0 }

// ReplaySummary provides aggregate stats from several replay runs.
type ReplaySummary struct {
	Fixtures   int
	Passed     int
	Steps      int
	Mismatches int
}

// #endregion types

// #region replay
// Run replays f against a fresh kinematic world. The error is non-nil only
// when the fixture itself is malformed; unmet expectations are mismatches.
func Run(ctx context.Context, f *Fixture, logger *slog.Logger) (ReplayResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	world, err := f.Scene.World(kinematic.DefaultConfig())
	if err != nil {
		return ReplayResult{}, fmt.Errorf("build world: %w", err)
	}
	scene, err := f.Scene.Scene()
	if err != nil {
		return ReplayResult{}, fmt.Errorf("build scene: %w", err)
	}
	s := action.NewSession(world, f.Config.ActionConfig(),
		action.WithLogger(logger), action.WithGoalConfig(f.Config.EvalConfig()))
	if err := s.InitScene(ctx, scene); err != nil {
		return ReplayResult{}, fmt.Errorf("init scene: %w", err)
	}

	var res ReplayResult
	for i, step := range f.Steps {
		if step.Inject != nil {
			out, err := state.ParseOutcome(step.Inject.Outcome)
			if err != nil {
				return res, fmt.Errorf("step %d inject: %w", i, err)
			}
			world.Fail(kinematic.Op(step.Inject.Op), out)
		}

		out, err := runStep(ctx, s, step, logger)
		if err != nil {
			return res, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
		sr := StepResult{Index: i, Action: step.Action, Outcome: out, Expected: state.Outcome(step.Expect), Cost: s.Cost(), Done: s.IsDone()}
		if sr.Expected != "" && sr.Expected != out {
			res.Mismatches = append(res.Mismatches, Mismatch{Step: i, Field: "outcome", Want: string(sr.Expected), Got: string(out)})
		}
		res.Steps = append(res.Steps, sr)
	}

	res.Cost = s.Cost()
	res.Done = s.IsDone()
	res.InZone = s.ObjectsInGoalZone()
	res.Mismatches = append(res.Mismatches, checkSummary(f.Expected, res)...)
	return res, nil
}

func checkSummary(want FixtureSummary, got ReplayResult) []Mismatch {
	var out []Mismatch
	if want.Cost != nil && *want.Cost != got.Cost {
		out = append(out, Mismatch{Step: -1, Field: "cost", Want: fmt.Sprint(*want.Cost), Got: fmt.Sprint(got.Cost)})
	}
	if want.Done != nil && *want.Done != got.Done {
		out = append(out, Mismatch{Step: -1, Field: "done", Want: fmt.Sprint(*want.Done), Got: fmt.Sprint(got.Done)})
	}
	if want.InZone != nil {
		wantIDs := slices.Sorted(slices.Values(toIDs(want.InZone)))
		gotIDs := slices.Sorted(slices.Values(got.InZone))
		if !slices.Equal(wantIDs, gotIDs) {
			out = append(out, Mismatch{Step: -1, Field: "in_zone", Want: fmt.Sprint(wantIDs), Got: fmt.Sprint(gotIDs)})
		}
	}
	return out
}

// runStep dispatches one step to the session.
func runStep(ctx context.Context, s *action.Session, step FixtureStep, logger *slog.Logger) (state.Outcome, error) {
	id := state.ObjectID(step.Object)
	arm := state.Arm(step.Arm)
	target := func() (state.Vec3, error) {
		if step.Target == nil {
			return state.Vec3{}, fmt.Errorf("missing target")
		}
		return vec(*step.Target), nil
	}

	switch step.Action {
	case "pick_up":
		return s.PickUp(ctx, id, arm)
	case "reset_arm":
		return s.ResetArm(ctx, arm, step.ResetTorso)
	case "put_in":
		return s.PutIn(ctx)
	case "pour_out":
		return s.PourOut(ctx)
	case "move_by":
		return s.MoveBy(ctx, step.Distance)
	case "move_to":
		t, err := target()
		if err != nil {
			return "", err
		}
		return s.MoveTo(ctx, t)
	case "move_to_object":
		return s.MoveToObject(ctx, id)
	case "turn_by":
		return s.TurnBy(ctx, step.Angle)
	case "turn_to":
		t, err := target()
		if err != nil {
			return "", err
		}
		return s.TurnTo(ctx, t)
	case "reset_position":
		return s.ResetPosition(ctx)
	case "reach_for":
		t, err := target()
		if err != nil {
			return "", err
		}
		return s.ReachFor(ctx, sim.ReachRequest{Arm: arm, Target: t, Absolute: step.Absolute})
	case "grasp":
		return s.Grasp(ctx, id, arm)
	case "drop":
		return s.Drop(ctx, id, arm)
	case "mission":
		rep, err := mission.NewRunner(s, mission.DefaultConfig(), logger).Run(ctx)
		if err != nil {
			return "", err
		}
		if !rep.Completed || len(rep.Skipped) > 0 {
			return state.NotIn, nil
		}
		return state.Success, nil
	default:
		return "", fmt.Errorf("unknown action %q", step.Action)
	}
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{Fixtures: len(results)}
	for _, r := range results {
		s.Steps += len(r.Steps)
		s.Mismatches += len(r.Mismatches)
		if r.Passed() {
			s.Passed++
		}
	}
	return s
}

func toIDs(raw []int32) []state.ObjectID {
	out := make([]state.ObjectID, len(raw))
	for i, id := range raw {
		out[i] = state.ObjectID(id)
	}
	return out
}

// #endregion replay
