package sim

import (
	"context"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region command
// Command is a low-level instruction batched into one communication round.
type Command interface {
	// Type is the wire name of the command.
	Type() string
}

// SetImmovable locks or unlocks the robot base.
type SetImmovable struct {
	Immovable bool
}

// SetJointTarget sets a joint target without waiting for the motion to finish.
type SetJointTarget struct {
	Arm    state.Arm
	Target state.JointTarget
}

// Detach releases an object from an arm's magnet.
type Detach struct {
	Object state.ObjectID
	Arm    state.Arm
}

// SetCollisionMode switches an object's collision detection mode.
type SetCollisionMode struct {
	Object state.ObjectID
	Mode   state.CollisionMode
}

func (SetImmovable) Type() string     { return "set_immovable" }
func (SetJointTarget) Type() string   { return "set_joint_target" }
func (Detach) Type() string           { return "detach_from_magnet" }
func (SetCollisionMode) Type() string { return "set_object_collision_detection_mode" }

// #endregion command

// #region reach-request
// ReachRequest asks the IK layer to move a magnet (or the object it holds) to a target.
type ReachRequest struct {
	Arm    state.Arm
	Target state.Vec3
	// Absolute targets are in world space; otherwise relative to the robot base.
	Absolute bool
	// FixedTorsoHeight pins the torso prismatic joint during the solve when non-nil.
	FixedTorsoHeight *float64
	// Object, when non-zero, is the held object to bring to Target instead of the magnet.
	Object state.ObjectID
	// ArrivedAt is the distance tolerance in meters; zero means the backend default.
	ArrivedAt float64
}

// #endregion reach-request

// #region result
// Result is the outcome of a primitive plus the snapshot after it finished.
// The snapshot carries every trigger event raised during the primitive's ticks.
type Result struct {
	Outcome  state.Outcome
	Snapshot *state.Snapshot
}

// #endregion result

// #region interfaces
// Transport submits command batches and returns the resulting snapshot.
// An empty batch advances the simulation by one round.
type Transport interface {
	Send(ctx context.Context, cmds ...Command) (*state.Snapshot, error)
}

// Manipulator is the arm-motion and grasp layer consumed by the controller.
type Manipulator interface {
	// Grasp reaches for and attaches target. Outcomes: Success, CannotReach, FailedToGrasp.
	Grasp(ctx context.Context, target state.ObjectID, arm state.Arm) (Result, error)
	// Drop detaches target and waits for it to fall.
	Drop(ctx context.Context, target state.ObjectID, arm state.Arm) (Result, error)
	// ResetArm moves the arm to its neutral pose. Outcomes: Success, FailedToBend.
	ResetArm(ctx context.Context, arm state.Arm, resetTorso bool) (Result, error)
	// ReachFor solves IK toward a target and executes it. Outcomes: Success, CannotReach, FailedToBend.
	ReachFor(ctx context.Context, req ReachRequest) (Result, error)
	// MoveJoints drives the given joints to their targets and waits until they stop.
	MoveJoints(ctx context.Context, arm state.Arm, targets []state.JointTarget) (Result, error)
	// SetArmAngles drives every joint of arm to a full joint-angle vector.
	SetArmAngles(ctx context.Context, arm state.Arm, angles []float64) (Result, error)
}

// Base is the navigation layer.
type Base interface {
	MoveBy(ctx context.Context, distance float64) (Result, error)
	MoveTo(ctx context.Context, target state.Vec3) (Result, error)
	TurnBy(ctx context.Context, angle float64) (Result, error)
	TurnTo(ctx context.Context, target state.Vec3) (Result, error)
	ResetPosition(ctx context.Context) (Result, error)
}

// Perception answers visibility queries.
type Perception interface {
	VisibleObjects(ctx context.Context) ([]state.ObjectID, error)
}

// Backend is everything the controller needs from the simulation.
type Backend interface {
	Transport
	Manipulator
	Base
	Perception
}

// #endregion interfaces
