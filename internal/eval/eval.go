package eval

import (
	"fmt"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region goal-evaluator
// GoalEvaluator decides whether the target objects have reached the goal zone.
type GoalEvaluator struct {
	config EvalConfig
}

// NewGoalEvaluator creates a goal evaluator with the given configuration.
func NewGoalEvaluator(config EvalConfig) *GoalEvaluator {
	return &GoalEvaluator{config: config}
}

// ObjectsInGoalZone returns the target objects that are not held, rest on the
// floor, and lie within the goal radius (floor-projected distance).
func (g *GoalEvaluator) ObjectsInGoalZone(scene *state.Scene, snap *state.Snapshot) []state.ObjectID {
	goal := scene.Goal()
	var in []state.ObjectID
	for _, id := range scene.Targets() {
		if snap.IsHeld(id) {
			continue
		}
		pos, ok := snap.Position(id)
		if !ok {
			continue
		}
		if pos.Y <= g.config.FloorTolerance && pos.HorizontalDistance(goal.Center) <= goal.Radius {
			in = append(in, id)
		}
	}
	return in
}

// IsDone reports whether every target object is in the goal zone.
func (g *GoalEvaluator) IsDone(scene *state.Scene, snap *state.Snapshot) bool {
	return len(g.ObjectsInGoalZone(scene, snap)) == len(scene.Targets())
}

// Run evaluates the goal and reports supporting metrics.
func (g *GoalEvaluator) Run(scene *state.Scene, snap *state.Snapshot) EvalResult {
	targets := scene.Targets()
	in := g.ObjectsInGoalZone(scene, snap)

	var held int
	for _, id := range targets {
		if snap.IsHeld(id) {
			held++
		}
	}

	done := len(in) == len(targets)
	metrics := []EvalMetric{
		{Name: "targets_in_zone", Value: float64(len(in)), Pass: done},
		{Name: "targets_held", Value: float64(held), Pass: held == 0},
	}

	reason := "all targets in goal zone"
	if !done {
		reason = fmt.Sprintf("%d of %d targets in goal zone", len(in), len(targets))
	}

	return EvalResult{
		Done:    done,
		InZone:  in,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion goal-evaluator
