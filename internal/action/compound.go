package action

import (
	"context"
	"fmt"
	"slices"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/ledger"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region pick-up
// PickUp grasps target with arm and then resets the arm. Holding target
// already is a free no-op; holding anything else is AlreadyHolding, also free.
// A failed grasp is reported as is; otherwise the reset's outcome is returned.
func (s *Session) PickUp(ctx context.Context, target state.ObjectID, arm state.Arm) (out state.Outcome, err error) {
	if err := s.readyArm(arm); err != nil {
		return "", fmt.Errorf("pick up %d: %w", target, err)
	}
	ctx, end := s.start(ctx, ledger.ActionPickUp, map[string]any{"target": target, "arm": arm})
	defer func() { end(out, err) }()

	held := s.current.Held(arm)
	if slices.Contains(held, target) {
		return state.Success, nil
	}
	if len(held) > 0 {
		return state.AlreadyHolding, nil
	}

	s.ledger.Charge(ledger.ActionPickUp)
	out, err = s.observeResult(s.backend.Grasp(ctx, target, arm))
	if err != nil {
		return "", fmt.Errorf("grasp %d: %w", target, err)
	}
	if out != state.Success {
		return out, nil
	}
	return s.resetArm(ctx, arm, true)
}

// #endregion pick-up

// #region reset-arm
// ResetArm returns arm to its neutral pose. An arm holding a container is
// instead leveled so the container's opening faces up, and the leveled pose is
// cached for that arm until it drops what it holds.
func (s *Session) ResetArm(ctx context.Context, arm state.Arm, resetTorso bool) (out state.Outcome, err error) {
	if err := s.readyArm(arm); err != nil {
		return "", fmt.Errorf("reset arm: %w", err)
	}
	ctx, end := s.start(ctx, ledger.ActionResetArm, map[string]any{"arm": arm, "reset_torso": resetTorso})
	defer func() { end(out, err) }()

	s.ledger.Charge(ledger.ActionResetArm)
	return s.resetArm(ctx, arm, resetTorso)
}

// resetArm is the uncharged body of ResetArm.
func (s *Session) resetArm(ctx context.Context, arm state.Arm, resetTorso bool) (state.Outcome, error) {
	container, holding := s.heldContainer(arm)
	if pose, cached := s.resetPoses[arm]; holding && cached {
		resetPoseHits.WithLabelValues("hit").Inc()
		out, err := s.observeResult(s.backend.SetArmAngles(ctx, arm, pose))
		if err != nil {
			return "", fmt.Errorf("replay reset pose: %w", err)
		}
		return out, nil
	}

	out, err := s.observeResult(s.backend.ResetArm(ctx, arm, resetTorso))
	if err != nil {
		return "", fmt.Errorf("reset %s arm: %w", arm, err)
	}
	if !holding {
		return out, nil
	}

	resetPoseHits.WithLabelValues("miss").Inc()
	tr, ok := s.current.Transform(container)
	if !ok {
		return out, nil
	}
	wrist := levelingWristAngle(tr.Rotation)
	s.logger.Debug("leveling container", "arm", arm, "container", container, "wrist", wrist)

	out, err = s.observeResult(s.backend.MoveJoints(ctx, arm, []state.JointTarget{
		{Joint: state.JointWrist, Target: state.Vec3{X: wrist}},
	}))
	if err != nil {
		return "", fmt.Errorf("level container %d: %w", container, err)
	}
	if out == state.Success {
		s.resetPoses[arm] = s.current.Joints(arm)
	}
	return out, nil
}

// #endregion reset-arm

// #region put-in
// PutIn drops the target object held by one arm into the container held by
// the other, then resets both arms.
func (s *Session) PutIn(ctx context.Context) (out state.Outcome, err error) {
	if err := s.ready(); err != nil {
		return "", fmt.Errorf("put in: %w", err)
	}
	ctx, end := s.start(ctx, ledger.ActionPutIn, nil)
	defer func() { end(out, err) }()

	containerArm, container, ok := s.containerArm()
	if !ok {
		s.ledger.Charge(ledger.ActionPutIn)
		return state.NotHolding, nil
	}
	objectArm := containerArm.Opposite()
	object, ok := s.heldTarget(objectArm)
	if !ok {
		s.ledger.Charge(ledger.ActionPutIn)
		return state.NotHolding, nil
	}
	logger := s.logger.With("container", container, "object", object, "container_arm", containerArm)

	// Lock the base and swing the object arm's elbow clear of the container.
	snap, err := s.backend.Send(ctx,
		sim.SetImmovable{Immovable: true},
		sim.SetJointTarget{Arm: objectArm, Target: state.JointTarget{
			Joint: state.JointElbow, Target: state.Vec3{X: s.cfg.SwingElbow},
		}},
	)
	if err != nil {
		return "", fmt.Errorf("lock base: %w", err)
	}
	s.observe(snap)
	defer func() {
		if err != nil {
			s.releaseBase(ctx)
		}
	}()

	torso := s.cfg.ContainerTorsoHeight
	present := s.cfg.PresentationOffset
	present.X *= containerArm.Side()
	reach, err := s.observeResult(s.backend.ReachFor(ctx, sim.ReachRequest{
		Arm:              containerArm,
		Target:           present,
		FixedTorsoHeight: &torso,
	}))
	if err != nil {
		return "", fmt.Errorf("present container: %w", err)
	}
	logger.Debug("container presented", "outcome", reach)

	// The container may have swayed; position the object from a fresh snapshot.
	snap, err = s.backend.Send(ctx)
	if err != nil {
		return "", fmt.Errorf("refresh state: %w", err)
	}
	s.observe(snap)
	above, _ := s.current.Position(container)
	above.Y += s.cfg.ReleaseHeight

	reach, err = s.observeResult(s.backend.ReachFor(ctx, sim.ReachRequest{
		Arm:              objectArm,
		Target:           above,
		Absolute:         true,
		FixedTorsoHeight: &torso,
		Object:           object,
	}))
	if err != nil {
		return "", fmt.Errorf("hold object over container: %w", err)
	}
	logger.Debug("object over container", "outcome", reach)

	if _, err := s.observeResult(s.backend.MoveJoints(ctx, objectArm, []state.JointTarget{
		{Joint: state.JointWrist, Target: state.Vec3{X: s.cfg.ReleaseWrist}},
	})); err != nil {
		return "", fmt.Errorf("angle wrist: %w", err)
	}

	snap, err = s.backend.Send(ctx,
		sim.Detach{Object: object, Arm: objectArm},
		sim.SetCollisionMode{Object: object, Mode: state.CollisionDiscrete},
	)
	if err != nil {
		return "", fmt.Errorf("release object: %w", err)
	}
	s.observe(snap)
	delete(s.resetPoses, objectArm)

	if err := s.waitUntilStable(ctx, []state.ObjectID{object}); err != nil {
		return "", err
	}

	s.ledger.ChargeFor(ledger.ActionResetArm, ledger.ActionPutIn)
	if _, err := s.resetArm(ctx, objectArm, false); err != nil {
		return "", err
	}
	s.ledger.ChargeFor(ledger.ActionResetArm, ledger.ActionPutIn)
	if _, err := s.resetArm(ctx, containerArm, true); err != nil {
		return "", err
	}
	s.ledger.Rebate(ledger.PutInRebate)

	inside := s.tracker.Contains(container, object)
	cmds := []sim.Command{sim.SetImmovable{Immovable: false}}
	if !inside {
		cmds = append(cmds, sim.SetCollisionMode{Object: object, Mode: state.CollisionContinuousDynamic})
	}
	snap, err = s.backend.Send(ctx, cmds...)
	if err != nil {
		return "", fmt.Errorf("unlock base: %w", err)
	}
	s.observe(snap)

	if !inside {
		logger.Info("object missed the container")
		return state.NotIn, nil
	}
	return state.Success, nil
}

// #endregion put-in

// #region pour-out
// PourOut extends the arm holding a container, flips it over and waits for
// the contents to settle.
func (s *Session) PourOut(ctx context.Context) (out state.Outcome, err error) {
	if err := s.ready(); err != nil {
		return "", fmt.Errorf("pour out: %w", err)
	}
	ctx, end := s.start(ctx, ledger.ActionPourOut, nil)
	defer func() { end(out, err) }()

	s.ledger.Charge(ledger.ActionPourOut)
	arm, container, ok := s.containerArm()
	if !ok {
		return state.NotHolding, nil
	}
	before := s.tracker.MembersOf(container)

	snap, err := s.backend.Send(ctx, sim.SetImmovable{Immovable: true})
	if err != nil {
		return "", fmt.Errorf("lock base: %w", err)
	}
	s.observe(snap)
	defer func() {
		if err != nil {
			s.releaseBase(ctx)
		}
	}()

	if _, err := s.observeResult(s.backend.MoveJoints(ctx, arm, []state.JointTarget{
		{Joint: state.JointShoulder, Target: state.Vec3{X: s.cfg.PourShoulder}},
		{Joint: state.JointElbow, Target: state.Vec3{}},
	})); err != nil {
		return "", fmt.Errorf("extend arm: %w", err)
	}
	if _, err := s.observeResult(s.backend.MoveJoints(ctx, arm, []state.JointTarget{
		{Joint: state.JointWrist, Target: state.Vec3{X: s.cfg.PourWrist}},
		{Joint: state.JointElbow, Target: state.Vec3{X: s.cfg.PourElbow}},
	})); err != nil {
		return "", fmt.Errorf("flip container: %w", err)
	}

	if err := s.waitUntilStable(ctx, before); err != nil {
		return "", err
	}
	if _, err := s.resetArm(ctx, arm, false); err != nil {
		return "", err
	}

	after := s.tracker.MembersOf(container)
	cmds := []sim.Command{sim.SetImmovable{Immovable: false}}
	for _, id := range before {
		if !slices.Contains(after, id) {
			cmds = append(cmds, sim.SetCollisionMode{Object: id, Mode: state.CollisionContinuousDynamic})
		}
	}
	snap, err = s.backend.Send(ctx, cmds...)
	if err != nil {
		return "", fmt.Errorf("restore collision modes: %w", err)
	}
	s.observe(snap)

	if len(after) > 0 {
		s.logger.Info("objects still in container", "container", container, "objects", after)
		return state.StillIn, nil
	}
	return state.Success, nil
}

// releaseBase unlocks the base after a compound action failed midway.
func (s *Session) releaseBase(ctx context.Context) {
	snap, err := s.backend.Send(context.WithoutCancel(ctx), sim.SetImmovable{Immovable: false})
	if err != nil {
		s.logger.Warn("unlock base after failure", "error", err)
		return
	}
	s.observe(snap)
}

// #endregion pour-out

// #region holdings
func (s *Session) ready() error {
	if s.scene == nil || s.current == nil {
		return ErrNoScene
	}
	return nil
}

func (s *Session) readyArm(arm state.Arm) error {
	if !arm.Valid() {
		return fmt.Errorf("invalid arm %q", arm)
	}
	return s.ready()
}

// heldContainer returns the container held by arm, if any.
func (s *Session) heldContainer(arm state.Arm) (state.ObjectID, bool) {
	for _, id := range s.current.Held(arm) {
		if s.scene.IsContainer(id) {
			return id, true
		}
	}
	return 0, false
}

// heldTarget returns the target object held by arm, if any.
func (s *Session) heldTarget(arm state.Arm) (state.ObjectID, bool) {
	for _, id := range s.current.Held(arm) {
		if s.scene.IsTarget(id) {
			return id, true
		}
	}
	return 0, false
}

// containerArm returns the arm holding a container when exactly one arm does.
func (s *Session) containerArm() (state.Arm, state.ObjectID, bool) {
	var (
		found     state.Arm
		container state.ObjectID
		count     int
	)
	for _, arm := range state.Arms {
		if id, ok := s.heldContainer(arm); ok {
			found, container = arm, id
			count++
		}
	}
	return found, container, count == 1
}

// #endregion holdings
