package state

import (
	"fmt"
	"math"
)

// #region object-id
// ObjectID identifies an object in the simulation.
type ObjectID int32

// #endregion object-id

// #region arm
// Arm names one of the robot's two magnet-tipped arms.
type Arm string

const (
	Left  Arm = "left"
	Right Arm = "right"
)

// Arms lists both arms in the order the controller scans them.
var Arms = [2]Arm{Left, Right}

// Opposite returns the other arm.
func (a Arm) Opposite() Arm {
	if a == Left {
		return Right
	}
	return Left
}

// Side is -1 for the right arm and +1 for the left arm.
func (a Arm) Side() float64 {
	if a == Right {
		return -1
	}
	return 1
}

// Valid reports whether a is one of the two known arms.
func (a Arm) Valid() bool {
	return a == Left || a == Right
}

// ParseArm converts "left"/"right" into an Arm.
func ParseArm(s string) (Arm, error) {
	a := Arm(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown arm %q", s)
	}
	return a, nil
}

// #endregion arm

// #region joint
// Joint names an articulation of one arm.
type Joint string

const (
	JointShoulder Joint = "shoulder"
	JointElbow    Joint = "elbow"
	JointWrist    Joint = "wrist"
)

// JointTarget is a target angle (degrees) for a single joint.
// Spherical joints use all three components, revolute joints only X.
type JointTarget struct {
	Joint  Joint
	Target Vec3
}

// #endregion joint

// #region vectors
// Vec3 is a position in world space (meters). Y is up.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Norm is the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// HorizontalDistance is the distance between v and o projected onto the floor plane.
func (v Vec3) HorizontalDistance(o Vec3) float64 {
	return math.Hypot(v.X-o.X, v.Z-o.Z)
}

// Quat is an orientation quaternion in (x, y, z, w) order.
type Quat struct {
	X, Y, Z, W float64
}

// Identity is the zero rotation.
var Identity = Quat{W: 1}

// QuatFromEuler builds a quaternion from rotations (degrees) about X, then Y.
func QuatFromEuler(xDeg, yDeg float64) Quat {
	hx := xDeg * math.Pi / 360
	hy := yDeg * math.Pi / 360
	qx := Quat{X: math.Sin(hx), W: math.Cos(hx)}
	qy := Quat{Y: math.Sin(hy), W: math.Cos(hy)}
	return qy.Mul(qx)
}

// Mul returns the Hamilton product q*o.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Transform is an object's pose at one tick.
type Transform struct {
	Position Vec3
	Rotation Quat
}

// #endregion vectors

// #region trigger-event
// TriggerKind distinguishes trigger-volume enter and exit events.
type TriggerKind string

const (
	TriggerEnter TriggerKind = "enter"
	TriggerExit  TriggerKind = "exit"
)

// TriggerEvent reports an object crossing a container's trigger volume.
type TriggerEvent struct {
	Container ObjectID
	Object    ObjectID
	Kind      TriggerKind
}

// #endregion trigger-event

// #region collision-mode
// CollisionMode is the physics engine's collision detection mode for an object.
type CollisionMode string

const (
	CollisionDiscrete          CollisionMode = "discrete"
	CollisionContinuousDynamic CollisionMode = "continuous_dynamic"
)

// #endregion collision-mode

// #region outcome
// Outcome is the result reported by every action.
type Outcome string

const (
	Success        Outcome = "success"
	CannotReach    Outcome = "cannot_reach"
	FailedToGrasp  Outcome = "failed_to_grasp"
	FailedToBend   Outcome = "failed_to_bend"
	AlreadyHolding Outcome = "already_holding"
	NotHolding     Outcome = "not_holding"
	NotIn          Outcome = "not_in"
	StillIn        Outcome = "still_in"
	FailedToMove   Outcome = "failed_to_move"
	FailedToTurn   Outcome = "failed_to_turn"
)

var outcomes = map[Outcome]bool{
	Success: true, CannotReach: true, FailedToGrasp: true, FailedToBend: true,
	AlreadyHolding: true, NotHolding: true, NotIn: true, StillIn: true,
	FailedToMove: true, FailedToTurn: true,
}

// ParseOutcome validates a wire or fixture outcome string.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !outcomes[o] {
		return "", fmt.Errorf("unknown outcome %q", s)
	}
	return o, nil
}

// #endregion outcome
