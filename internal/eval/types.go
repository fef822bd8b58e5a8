package eval

import "github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"

// #region eval-config
// EvalConfig holds the thresholds of the goal check.
type EvalConfig struct {
	FloorTolerance float64 `yaml:"floor_tolerance" validate:"gte=0"` // max height at which an object counts as on the floor
}

// DefaultEvalConfig returns the thresholds used by the challenge.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		FloorTolerance: 0.1,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of a goal check.
type EvalResult struct {
	Done    bool
	InZone  []state.ObjectID
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
