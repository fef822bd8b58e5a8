// Package kinematic is a deterministic, tick-based stand-in for the physics build.
// Objects teleport with the magnets that hold them, fall linearly over a fixed
// number of ticks, and land in a container when released above its opening.
package kinematic

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region config
// Config holds the world's geometric constants.
type Config struct {
	GraspReach      float64 // max horizontal distance from base to a graspable object
	IKReach         float64 // max horizontal distance from base to a reach target
	FallTicks       int     // ticks a released object takes to land
	ContainerRadius float64 // horizontal half-extent of a container's trigger volume
	ContentOffset   float64 // height of a contained object above the container origin
	GraspTilt       float64 // degrees a container is tilted about X when first grasped
	SpillSpacing    float64 // spacing between objects poured onto the floor
	VisibleRange    float64
	NeutralTorso    float64
}

// DefaultConfig mirrors the proportions of the real robot and containers.
func DefaultConfig() Config {
	return Config{
		GraspReach:      1.0,
		IKReach:         1.5,
		FallTicks:       4,
		ContainerRadius: 0.2285,
		ContentOffset:   0.05,
		GraspTilt:       20,
		SpillSpacing:    0.05,
		VisibleRange:    5,
		NeutralTorso:    1.0,
	}
}

var (
	neutralLocal  = state.Vec3{X: 0.3, Y: 0.8, Z: 0.35}
	extendedLocal = state.Vec3{X: 0.25, Y: 1.0, Z: 0.7}
)

// #endregion config

// #region world
// Op names a primitive for failure injection and call recording.
type Op string

const (
	OpGrasp        Op = "grasp"
	OpDrop         Op = "drop"
	OpResetArm     Op = "reset_arm"
	OpReachFor     Op = "reach_for"
	OpMoveJoints   Op = "move_joints"
	OpSetArmAngles Op = "set_arm_angles"
	OpMove         Op = "move"
	OpTurn         Op = "turn"
)

// Call records one primitive invocation.
type Call struct {
	Op      Op
	Arm     state.Arm
	Object  state.ObjectID
	Joints  []state.JointTarget
	Angles  []float64
	Request sim.ReachRequest
}

type body struct {
	pos       state.Vec3
	rot       state.Quat
	container bool
}

type armState struct {
	shoulder, elbow, wrist float64
	torso                  float64
	local                  state.Vec3
	held                   state.ObjectID
	heldTilt               float64
}

type fall struct {
	from, to state.Vec3
	tick     int
	into     state.ObjectID
}

// World implements sim.Backend entirely in memory. It is not safe for concurrent use.
type World struct {
	cfg       Config
	frame     uint64
	base      state.Vec3
	yaw       float64
	immovable bool
	bodies    map[state.ObjectID]*body
	arms      map[state.Arm]*armState
	contents  map[state.ObjectID]map[state.ObjectID]struct{}
	falling   map[state.ObjectID]*fall
	modes     map[state.ObjectID]state.CollisionMode
	pending   []state.TriggerEvent
	failures  map[Op]state.Outcome
	calls     []Call
}

var _ sim.Backend = (*World)(nil)

// New creates an empty world with the robot at the origin.
func New(cfg Config) *World {
	w := &World{
		cfg:      cfg,
		bodies:   make(map[state.ObjectID]*body),
		arms:     make(map[state.Arm]*armState, 2),
		contents: make(map[state.ObjectID]map[state.ObjectID]struct{}),
		falling:  make(map[state.ObjectID]*fall),
		modes:    make(map[state.ObjectID]state.CollisionMode),
		failures: make(map[Op]state.Outcome),
	}
	for _, arm := range state.Arms {
		w.arms[arm] = &armState{torso: cfg.NeutralTorso, local: armLocal(arm, neutralLocal)}
	}
	return w
}

// #endregion world

// #region setup
// AddObject places a plain object (for example a target object).
func (w *World) AddObject(id state.ObjectID, pos state.Vec3, rot state.Quat) {
	w.bodies[id] = &body{pos: pos, rot: rot}
	w.modes[id] = state.CollisionContinuousDynamic
}

// AddContainer places a container with a trigger volume.
func (w *World) AddContainer(id state.ObjectID, pos state.Vec3, rot state.Quat) {
	w.bodies[id] = &body{pos: pos, rot: rot, container: true}
	w.modes[id] = state.CollisionContinuousDynamic
	w.contents[id] = make(map[state.ObjectID]struct{})
}

// SetBase teleports the robot.
func (w *World) SetBase(pos state.Vec3, yaw float64) {
	w.base = state.Vec3{X: pos.X, Z: pos.Z}
	w.yaw = yaw
	w.syncBodies()
}

// Attach puts id in arm's magnet without a grasp motion.
func (w *World) Attach(id state.ObjectID, arm state.Arm) error {
	if _, ok := w.bodies[id]; !ok {
		return fmt.Errorf("attach %d: object not in world", id)
	}
	a, ok := w.arms[arm]
	if !ok {
		return fmt.Errorf("attach %d: invalid arm %q", id, arm)
	}
	w.attach(id, a)
	return nil
}

func (w *World) attach(id state.ObjectID, a *armState) {
	w.takeOut(id)
	a.held = id
	a.heldTilt = w.cfg.GraspTilt - a.wrist
	w.syncBodies()
}

// Fail makes the next call of op report outcome instead of running.
func (w *World) Fail(op Op, outcome state.Outcome) {
	w.failures[op] = outcome
}

// Calls returns every recorded primitive invocation.
func (w *World) Calls() []Call { return slices.Clone(w.calls) }

// CollisionMode returns the current collision detection mode of id.
func (w *World) CollisionMode(id state.ObjectID) state.CollisionMode { return w.modes[id] }

// Immovable reports whether the base is locked.
func (w *World) Immovable() bool { return w.immovable }

// Base returns the robot's position and yaw (degrees).
func (w *World) Base() (state.Vec3, float64) { return w.base, w.yaw }

// #endregion setup

// #region transport
// Send applies commands and advances one tick.
func (w *World) Send(_ context.Context, cmds ...sim.Command) (*state.Snapshot, error) {
	for _, c := range cmds {
		switch c := c.(type) {
		case sim.SetImmovable:
			w.immovable = c.Immovable
		case sim.SetJointTarget:
			w.applyJoint(c.Arm, c.Target)
		case sim.Detach:
			if a := w.arms[c.Arm]; a != nil && a.held == c.Object {
				a.held = 0
				w.release(c.Object)
			}
		case sim.SetCollisionMode:
			w.modes[c.Object] = c.Mode
		}
	}
	w.step()
	return w.snapshot(), nil
}

// #endregion transport

// #region manipulator
func (w *World) Grasp(_ context.Context, target state.ObjectID, arm state.Arm) (sim.Result, error) {
	w.calls = append(w.calls, Call{Op: OpGrasp, Arm: arm, Object: target})
	if out, ok := w.injected(OpGrasp); ok {
		return w.finish(out), nil
	}
	a := w.arms[arm]
	if a.held == target {
		return w.finish(state.Success), nil
	}
	b, ok := w.bodies[target]
	if a.held != 0 || !ok {
		return w.finish(state.FailedToGrasp), nil
	}
	if b.pos.HorizontalDistance(w.base) > w.cfg.GraspReach {
		return w.finish(state.CannotReach), nil
	}
	a.local = w.toLocal(b.pos)
	w.attach(target, a)
	return w.finish(state.Success), nil
}

func (w *World) Drop(_ context.Context, target state.ObjectID, arm state.Arm) (sim.Result, error) {
	w.calls = append(w.calls, Call{Op: OpDrop, Arm: arm, Object: target})
	if out, ok := w.injected(OpDrop); ok {
		return w.finish(out), nil
	}
	a := w.arms[arm]
	if a.held != target {
		return w.finish(state.NotHolding), nil
	}
	a.held = 0
	w.release(target)
	return w.finishAfter(w.cfg.FallTicks+1, state.Success), nil
}

func (w *World) ResetArm(_ context.Context, arm state.Arm, resetTorso bool) (sim.Result, error) {
	w.calls = append(w.calls, Call{Op: OpResetArm, Arm: arm})
	if out, ok := w.injected(OpResetArm); ok {
		return w.finish(out), nil
	}
	a := w.arms[arm]
	a.shoulder, a.elbow, a.wrist = 0, 0, 0
	a.local = armLocal(arm, neutralLocal)
	if resetTorso {
		a.torso = w.cfg.NeutralTorso
	}
	return w.finish(state.Success), nil
}

func (w *World) ReachFor(_ context.Context, req sim.ReachRequest) (sim.Result, error) {
	w.calls = append(w.calls, Call{Op: OpReachFor, Arm: req.Arm, Object: req.Object, Request: req})
	if out, ok := w.injected(OpReachFor); ok {
		return w.finish(out), nil
	}
	target := req.Target
	if !req.Absolute {
		target = w.base.Add(rotateY(req.Target, w.yaw))
	}
	if target.HorizontalDistance(w.base) > w.cfg.IKReach {
		return w.finish(state.CannotReach), nil
	}
	a := w.arms[req.Arm]
	a.local = w.toLocal(target)
	if req.FixedTorsoHeight != nil {
		a.torso = *req.FixedTorsoHeight
	}
	return w.finish(state.Success), nil
}

func (w *World) MoveJoints(_ context.Context, arm state.Arm, targets []state.JointTarget) (sim.Result, error) {
	w.calls = append(w.calls, Call{Op: OpMoveJoints, Arm: arm, Joints: slices.Clone(targets)})
	if out, ok := w.injected(OpMoveJoints); ok {
		return w.finish(out), nil
	}
	for _, t := range targets {
		w.applyJoint(arm, t)
	}
	return w.finish(state.Success), nil
}

func (w *World) SetArmAngles(_ context.Context, arm state.Arm, angles []float64) (sim.Result, error) {
	w.calls = append(w.calls, Call{Op: OpSetArmAngles, Arm: arm, Angles: slices.Clone(angles)})
	if out, ok := w.injected(OpSetArmAngles); ok {
		return w.finish(out), nil
	}
	if len(angles) != 4 {
		return w.finish(state.FailedToBend), nil
	}
	a := w.arms[arm]
	a.torso = angles[3]
	w.applyJoint(arm, state.JointTarget{Joint: state.JointShoulder, Target: state.Vec3{X: angles[0]}})
	w.applyJoint(arm, state.JointTarget{Joint: state.JointElbow, Target: state.Vec3{X: angles[1]}})
	w.applyJoint(arm, state.JointTarget{Joint: state.JointWrist, Target: state.Vec3{X: angles[2]}})
	return w.finish(state.Success), nil
}

// #endregion manipulator

// #region base
func (w *World) MoveBy(_ context.Context, distance float64) (sim.Result, error) {
	w.calls = append(w.calls, Call{Op: OpMove})
	if out, ok := w.injected(OpMove); ok {
		return w.finish(out), nil
	}
	w.immovable = false
	w.base = w.base.Add(rotateY(state.Vec3{Z: distance}, w.yaw))
	return w.finish(state.Success), nil
}

func (w *World) MoveTo(_ context.Context, target state.Vec3) (sim.Result, error) {
	w.calls = append(w.calls, Call{Op: OpMove})
	if out, ok := w.injected(OpMove); ok {
		return w.finish(out), nil
	}
	w.immovable = false
	w.faceToward(target)
	w.base = state.Vec3{X: target.X, Z: target.Z}
	return w.finish(state.Success), nil
}

func (w *World) TurnBy(_ context.Context, angle float64) (sim.Result, error) {
	w.calls = append(w.calls, Call{Op: OpTurn})
	if out, ok := w.injected(OpTurn); ok {
		return w.finish(out), nil
	}
	w.immovable = false
	w.yaw += angle
	return w.finish(state.Success), nil
}

func (w *World) TurnTo(_ context.Context, target state.Vec3) (sim.Result, error) {
	w.calls = append(w.calls, Call{Op: OpTurn})
	if out, ok := w.injected(OpTurn); ok {
		return w.finish(out), nil
	}
	w.immovable = false
	w.faceToward(target)
	return w.finish(state.Success), nil
}

func (w *World) ResetPosition(_ context.Context) (sim.Result, error) {
	w.calls = append(w.calls, Call{Op: OpMove})
	w.immovable = false
	return w.finish(state.Success), nil
}

// #endregion base

// #region perception
// VisibleObjects returns every object within VisibleRange of the base.
func (w *World) VisibleObjects(_ context.Context) ([]state.ObjectID, error) {
	var ids []state.ObjectID
	for id, b := range w.bodies {
		if b.pos.HorizontalDistance(w.base) <= w.cfg.VisibleRange {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// #endregion perception

// #region physics
func (w *World) injected(op Op) (state.Outcome, bool) {
	out, ok := w.failures[op]
	if ok {
		delete(w.failures, op)
	}
	return out, ok
}

func (w *World) finish(out state.Outcome) sim.Result {
	return w.finishAfter(1, out)
}

// finishAfter advances n ticks and reports every event raised along the way.
func (w *World) finishAfter(n int, out state.Outcome) sim.Result {
	for range n {
		w.step()
	}
	return sim.Result{Outcome: out, Snapshot: w.snapshot()}
}

func (w *World) applyJoint(arm state.Arm, t state.JointTarget) {
	a := w.arms[arm]
	switch t.Joint {
	case state.JointShoulder:
		a.shoulder = t.Target.X
		if a.shoulder <= -45 {
			a.local = armLocal(arm, extendedLocal)
		} else {
			a.local = armLocal(arm, neutralLocal)
		}
	case state.JointElbow:
		a.elbow = t.Target.X
	case state.JointWrist:
		a.wrist = t.Target.X
		if b := w.bodies[a.held]; a.wrist >= 90 && b != nil && b.container {
			w.syncBodies()
			w.pour(a.held)
		}
	}
	w.syncBodies()
}

// pour empties a container onto the floor beneath it.
func (w *World) pour(container state.ObjectID) {
	origin := w.bodies[container].pos
	members := slices.Sorted(maps.Keys(w.contents[container]))
	for i, id := range members {
		delete(w.contents[container], id)
		w.pending = append(w.pending, state.TriggerEvent{Container: container, Object: id, Kind: state.TriggerExit})
		landing := state.Vec3{X: origin.X + float64(i)*w.cfg.SpillSpacing, Z: origin.Z}
		w.falling[id] = &fall{from: w.bodies[id].pos, to: landing}
	}
}

// release starts id falling toward whatever lies beneath it.
func (w *World) release(id state.ObjectID) {
	b := w.bodies[id]
	if b == nil {
		return
	}
	f := &fall{from: b.pos, to: state.Vec3{X: b.pos.X, Z: b.pos.Z}}
	for _, cid := range slices.Sorted(maps.Keys(w.contents)) {
		c := w.bodies[cid]
		if cid == id || c.pos.Y > b.pos.Y || c.pos.HorizontalDistance(b.pos) > w.cfg.ContainerRadius {
			continue
		}
		f.into = cid
		f.to = c.pos.Add(state.Vec3{Y: w.cfg.ContentOffset})
		break
	}
	w.falling[id] = f
}

// takeOut removes id from any container or fall it is part of.
func (w *World) takeOut(id state.ObjectID) {
	delete(w.falling, id)
	for cid, set := range w.contents {
		if _, ok := set[id]; ok {
			delete(set, id)
			w.pending = append(w.pending, state.TriggerEvent{Container: cid, Object: id, Kind: state.TriggerExit})
		}
	}
}

func (w *World) step() {
	w.frame++
	for _, id := range slices.Sorted(maps.Keys(w.falling)) {
		f := w.falling[id]
		f.tick++
		ticks := max(w.cfg.FallTicks, 1)
		if f.tick < ticks {
			frac := float64(f.tick) / float64(ticks)
			w.bodies[id].pos = f.from.Add(f.to.Sub(f.from).Scale(frac))
			continue
		}
		delete(w.falling, id)
		w.bodies[id].pos = f.to
		if f.into != 0 {
			w.contents[f.into][id] = struct{}{}
			w.pending = append(w.pending, state.TriggerEvent{Container: f.into, Object: id, Kind: state.TriggerEnter})
		}
	}
	w.syncBodies()
}

// syncBodies moves held objects with their magnets and contents with their containers.
func (w *World) syncBodies() {
	for _, arm := range state.Arms {
		a := w.arms[arm]
		if a.held == 0 {
			continue
		}
		b := w.bodies[a.held]
		if b == nil {
			continue
		}
		b.pos = w.base.Add(rotateY(a.local, w.yaw))
		if b.container {
			b.rot = state.QuatFromEuler(a.heldTilt+a.wrist, w.yaw)
		}
	}
	for cid, set := range w.contents {
		for id := range set {
			w.bodies[id].pos = w.bodies[cid].pos.Add(state.Vec3{Y: w.cfg.ContentOffset})
		}
	}
}

func (w *World) snapshot() *state.Snapshot {
	d := state.SnapshotData{
		Frame:      w.frame,
		Transforms: make(map[state.ObjectID]state.Transform, len(w.bodies)),
		Held:       make(map[state.Arm][]state.ObjectID, 2),
		Joints:     make(map[state.Arm][]float64, 2),
		Events:     w.pending,
	}
	for id, b := range w.bodies {
		d.Transforms[id] = state.Transform{Position: b.pos, Rotation: b.rot}
	}
	for arm, a := range w.arms {
		if a.held != 0 {
			d.Held[arm] = []state.ObjectID{a.held}
		}
		d.Joints[arm] = []float64{a.shoulder, a.elbow, a.wrist, a.torso}
	}
	w.pending = nil
	return state.NewSnapshot(d)
}

func (w *World) faceToward(target state.Vec3) {
	dx, dz := target.X-w.base.X, target.Z-w.base.Z
	if dx == 0 && dz == 0 {
		return
	}
	w.yaw = math.Atan2(dx, dz) * 180 / math.Pi
}

func (w *World) toLocal(p state.Vec3) state.Vec3 {
	return rotateY(p.Sub(w.base), -w.yaw)
}

// #endregion physics

// #region helpers
func armLocal(arm state.Arm, v state.Vec3) state.Vec3 {
	return state.Vec3{X: v.X * arm.Side(), Y: v.Y, Z: v.Z}
}

// rotateY rotates v about the vertical axis by deg degrees.
func rotateY(v state.Vec3, deg float64) state.Vec3 {
	r := deg * math.Pi / 180
	sin, cos := math.Sin(r), math.Cos(r)
	return state.Vec3{X: v.X*cos + v.Z*sin, Y: v.Y, Z: -v.X*sin + v.Z*cos}
}

// #endregion helpers
