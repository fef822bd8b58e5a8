package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/action"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/eval"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim/kinematic"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string         `json:"description"`
	Scene       SceneSpec      `json:"scene"`
	Config      FixtureConfig  `json:"config"`
	Steps       []FixtureStep  `json:"steps"`
	Expected    FixtureSummary `json:"expected"`
}

// SceneSpec describes the objects, goal zone and robot pose of a scene.
type SceneSpec struct {
	Goal       FixtureGoal      `json:"goal"`
	Base       FixtureBase      `json:"base"`
	Targets    []FixtureObject  `json:"targets"`
	Containers []FixtureObject  `json:"containers"`
	Others     []FixtureObject  `json:"others,omitempty"`
	Held       map[string]int32 `json:"held,omitempty"` // arm -> object attached at start
}

// FixtureGoal mirrors state.GoalZone with array positions.
type FixtureGoal struct {
	Center [3]float64 `json:"center"`
	Radius float64    `json:"radius"`
}

// FixtureBase is the robot's starting pose.
type FixtureBase struct {
	Position [3]float64 `json:"position"`
	Yaw      float64    `json:"yaw"`
}

// FixtureObject places one object. Rotation is Euler degrees about X then Y.
type FixtureObject struct {
	ID       int32      `json:"id"`
	Position [3]float64 `json:"position"`
	Rotation [2]float64 `json:"rotation"`
}

// FixtureConfig overrides selected action and goal constants. Zero values keep the defaults.
type FixtureConfig struct {
	StabilizeMaxTicks int     `json:"stabilize_max_ticks"`
	ReleaseHeight     float64 `json:"release_height"`
	FloorTolerance    float64 `json:"floor_tolerance"`
	PourWrist         float64 `json:"pour_wrist"`
}

// FixtureStep is one action call. Only the fields the action takes are read.
type FixtureStep struct {
	Action     string      `json:"action"`
	Object     int32       `json:"object,omitempty"`
	Arm        string      `json:"arm,omitempty"`
	Target     *[3]float64 `json:"target,omitempty"`
	Absolute   bool        `json:"absolute,omitempty"`
	Distance   float64     `json:"distance,omitempty"`
	Angle      float64     `json:"angle,omitempty"`
	ResetTorso bool        `json:"reset_torso,omitempty"`
	// Inject makes the next call of a kinematic primitive report an outcome.
	Inject *FixtureInjection `json:"inject,omitempty"`
	Expect string            `json:"expect,omitempty"`
}

// FixtureInjection mirrors kinematic.World.Fail.
type FixtureInjection struct {
	Op      string `json:"op"`
	Outcome string `json:"outcome"`
}

// FixtureSummary is the expected state after the last step.
type FixtureSummary struct {
	Cost   *int    `json:"cost,omitempty"`
	Done   *bool   `json:"done,omitempty"`
	InZone []int32 `json:"in_zone,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	var f Fixture
	if err := readJSON(path, &f); err != nil {
		return nil, fmt.Errorf("load fixture: %w", err)
	}
	return &f, nil
}

// LoadScene reads a standalone JSON scene description.
func LoadScene(path string) (*SceneSpec, error) {
	var s SceneSpec
	if err := readJSON(path, &s); err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	return &s, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Scene converts the description to the role registry.
func (s *SceneSpec) Scene() (*state.Scene, error) {
	return state.NewScene(ids(s.Targets), ids(s.Containers), state.GoalZone{
		Center: vec(s.Goal.Center),
		Radius: s.Goal.Radius,
	})
}

// World builds a kinematic world laid out as described.
func (s *SceneSpec) World(cfg kinematic.Config) (*kinematic.World, error) {
	w := kinematic.New(cfg)
	for _, o := range slices.Concat(s.Targets, s.Others) {
		w.AddObject(state.ObjectID(o.ID), vec(o.Position), state.QuatFromEuler(o.Rotation[0], o.Rotation[1]))
	}
	for _, o := range s.Containers {
		w.AddContainer(state.ObjectID(o.ID), vec(o.Position), state.QuatFromEuler(o.Rotation[0], o.Rotation[1]))
	}
	w.SetBase(vec(s.Base.Position), s.Base.Yaw)
	for name, id := range s.Held {
		arm, err := state.ParseArm(name)
		if err != nil {
			return nil, err
		}
		if err := w.Attach(state.ObjectID(id), arm); err != nil {
			return nil, fmt.Errorf("held object %d not in scene: %w", id, err)
		}
	}
	return w, nil
}

// ActionConfig applies the overrides to the default action constants.
func (c FixtureConfig) ActionConfig() action.Config {
	cfg := action.DefaultConfig()
	if c.StabilizeMaxTicks > 0 {
		cfg.StabilizeMaxTicks = c.StabilizeMaxTicks
	}
	if c.ReleaseHeight != 0 {
		cfg.ReleaseHeight = c.ReleaseHeight
	}
	if c.PourWrist != 0 {
		cfg.PourWrist = c.PourWrist
	}
	return cfg
}

// EvalConfig applies the overrides to the default goal thresholds.
func (c FixtureConfig) EvalConfig() eval.EvalConfig {
	cfg := eval.DefaultEvalConfig()
	if c.FloorTolerance > 0 {
		cfg.FloorTolerance = c.FloorTolerance
	}
	return cfg
}

func ids(objs []FixtureObject) []state.ObjectID {
	out := make([]state.ObjectID, len(objs))
	for i, o := range objs {
		out[i] = state.ObjectID(o.ID)
	}
	return out
}

func vec(a [3]float64) state.Vec3 { return state.Vec3{X: a[0], Y: a[1], Z: a[2]} }

// #endregion fixture-loader
