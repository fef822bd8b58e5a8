package action

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/ledger"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region navigation
// MoveBy drives the base forward (or backward for negative distance).
func (s *Session) MoveBy(ctx context.Context, distance float64) (state.Outcome, error) {
	return s.single(ctx, ledger.ActionMoveBy, map[string]any{"distance": distance},
		func(ctx context.Context) (sim.Result, error) { return s.backend.MoveBy(ctx, distance) })
}

// MoveTo turns toward target and drives to it.
func (s *Session) MoveTo(ctx context.Context, target state.Vec3) (state.Outcome, error) {
	return s.single(ctx, ledger.ActionMoveTo, map[string]any{"target": target},
		func(ctx context.Context) (sim.Result, error) { return s.backend.MoveTo(ctx, target) })
}

// MoveToObject drives to the current position of id.
func (s *Session) MoveToObject(ctx context.Context, id state.ObjectID) (state.Outcome, error) {
	if err := s.ready(); err != nil {
		return "", fmt.Errorf("move to %d: %w", id, err)
	}
	pos, ok := s.current.Position(id)
	if !ok {
		return "", fmt.Errorf("move to %d: unknown object", id)
	}
	return s.MoveTo(ctx, pos)
}

// TurnBy rotates the base by angle degrees (clockwise positive).
func (s *Session) TurnBy(ctx context.Context, angle float64) (state.Outcome, error) {
	return s.single(ctx, ledger.ActionTurnBy, map[string]any{"angle": angle},
		func(ctx context.Context) (sim.Result, error) { return s.backend.TurnBy(ctx, angle) })
}

// TurnTo rotates the base to face target.
func (s *Session) TurnTo(ctx context.Context, target state.Vec3) (state.Outcome, error) {
	return s.single(ctx, ledger.ActionTurnTo, map[string]any{"target": target},
		func(ctx context.Context) (sim.Result, error) { return s.backend.TurnTo(ctx, target) })
}

// ResetPosition levels the base after a collision tipped it.
func (s *Session) ResetPosition(ctx context.Context) (state.Outcome, error) {
	return s.single(ctx, ledger.ActionResetPosition, nil, s.backend.ResetPosition)
}

// #endregion navigation

// #region manipulation
// ReachFor moves a magnet toward a target without grasping.
func (s *Session) ReachFor(ctx context.Context, req sim.ReachRequest) (state.Outcome, error) {
	if !req.Arm.Valid() {
		return "", fmt.Errorf("reach for: invalid arm %q", req.Arm)
	}
	return s.single(ctx, ledger.ActionReachFor, map[string]any{"arm": req.Arm, "target": req.Target, "absolute": req.Absolute},
		func(ctx context.Context) (sim.Result, error) { return s.backend.ReachFor(ctx, req) })
}

// Grasp attaches target to arm without resetting the arm afterwards.
func (s *Session) Grasp(ctx context.Context, target state.ObjectID, arm state.Arm) (state.Outcome, error) {
	if !arm.Valid() {
		return "", fmt.Errorf("grasp: invalid arm %q", arm)
	}
	return s.single(ctx, ledger.ActionGrasp, map[string]any{"target": target, "arm": arm},
		func(ctx context.Context) (sim.Result, error) { return s.backend.Grasp(ctx, target, arm) })
}

// Drop releases target from arm. A successful drop forgets arm's cached reset pose.
func (s *Session) Drop(ctx context.Context, target state.ObjectID, arm state.Arm) (state.Outcome, error) {
	if !arm.Valid() {
		return "", fmt.Errorf("drop: invalid arm %q", arm)
	}
	out, err := s.single(ctx, ledger.ActionDrop, map[string]any{"target": target, "arm": arm},
		func(ctx context.Context) (sim.Result, error) { return s.backend.Drop(ctx, target, arm) })
	if err == nil && out == state.Success {
		delete(s.resetPoses, arm)
	}
	return out, err
}

// #endregion manipulation

// single runs an action made of exactly one charged primitive.
func (s *Session) single(ctx context.Context, kind ledger.ActionKind, args map[string]any,
	call func(context.Context) (sim.Result, error)) (out state.Outcome, err error) {
	if err := s.ready(); err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}
	ctx, end := s.start(ctx, kind, args)
	defer func() { end(out, err) }()

	s.ledger.Charge(kind)
	out, err = s.observeResult(call(ctx))
	if err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}
	return out, nil
}
