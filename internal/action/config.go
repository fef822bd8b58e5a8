package action

import "github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"

// #region config
// Config holds the motion constants of the compound actions.
type Config struct {
	// StabilizeEpsilon is the per-tick displacement (meters) below which a watched object is at rest.
	StabilizeEpsilon float64 `yaml:"stabilize_epsilon" validate:"gt=0"`
	// StabilizeMaxTicks caps the rest poll; reaching it counts as stable.
	StabilizeMaxTicks int `yaml:"stabilize_max_ticks" validate:"gt=0"`
	// ContainerTorsoHeight pins the torso while the arms work over a container.
	ContainerTorsoHeight float64 `yaml:"container_torso_height" validate:"gt=0"`
	// PresentationOffset is where the container is held during put_in, relative to the base.
	// X is mirrored for the right arm.
	PresentationOffset state.Vec3 `yaml:"presentation_offset"`
	// ReleaseHeight is how far above the container the object is released.
	ReleaseHeight float64 `yaml:"release_height" validate:"gt=0"`
	SwingElbow    float64 `yaml:"swing_elbow"`
	ReleaseWrist  float64 `yaml:"release_wrist"`
	PourShoulder  float64 `yaml:"pour_shoulder"`
	PourElbow     float64 `yaml:"pour_elbow"`
	PourWrist     float64 `yaml:"pour_wrist"`
}

// DefaultConfig returns the constants tuned for the physics build.
func DefaultConfig() Config {
	return Config{
		StabilizeEpsilon:     0.001,
		StabilizeMaxTicks:    200,
		ContainerTorsoHeight: 1.2,
		PresentationOffset:   state.Vec3{X: 0.1, Y: 0.4, Z: 0.5},
		ReleaseHeight:        0.5,
		SwingElbow:           115,
		ReleaseWrist:         -45,
		PourShoulder:         -90,
		PourElbow:            35,
		PourWrist:            90,
	}
}

// #endregion config
