package replay

import (
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/ledger"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/store"
)

// #region export

// recordedArgs is the union of the argument maps sessions log per action.
type recordedArgs struct {
	Target     json.RawMessage `json:"target"`
	Arm        string          `json:"arm"`
	ResetTorso bool            `json:"reset_torso"`
	Distance   float64         `json:"distance"`
	Angle      float64         `json:"angle"`
	Absolute   bool            `json:"absolute"`
}

// FromEpisode turns a recorded episode into a fixture whose expectations are
// the recorded outcomes. Queries and scene initialization are not replayed.
func FromEpisode(ep store.Episode, actions []store.ActionRow) (*Fixture, error) {
	var scene SceneSpec
	if err := json.Unmarshal([]byte(ep.SceneJSON), &scene); err != nil {
		return nil, fmt.Errorf("parse scene of episode %s: %w", ep.ID, err)
	}

	f := &Fixture{
		Description: fmt.Sprintf("episode %s", ep.ID),
		Scene:       scene,
	}
	for _, row := range actions {
		switch ledger.ActionKind(row.Action) {
		case ledger.ActionInitScene, ledger.ActionVisibleObjects:
			continue
		}
		step, err := stepFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("action %d (%s): %w", row.Seq, row.Action, err)
		}
		f.Steps = append(f.Steps, step)
	}
	if ep.Finished() {
		cost, done := ep.FinalCost, ep.Done
		f.Expected = FixtureSummary{Cost: &cost, Done: &done}
	}
	return f, nil
}

func stepFromRow(row store.ActionRow) (FixtureStep, error) {
	step := FixtureStep{Action: row.Action, Expect: row.Outcome}
	if row.ArgsJSON == "" {
		return step, nil
	}
	var args recordedArgs
	if err := json.Unmarshal([]byte(row.ArgsJSON), &args); err != nil {
		return step, fmt.Errorf("parse args: %w", err)
	}
	step.Arm = args.Arm
	step.ResetTorso = args.ResetTorso
	step.Distance = args.Distance
	step.Angle = args.Angle
	step.Absolute = args.Absolute

	if len(args.Target) == 0 {
		return step, nil
	}
	// Object actions log the ID; spatial actions log a position.
	if err := json.Unmarshal(args.Target, &step.Object); err == nil {
		return step, nil
	}
	var pos struct{ X, Y, Z float64 }
	if err := json.Unmarshal(args.Target, &pos); err != nil {
		return step, fmt.Errorf("parse target: %w", err)
	}
	step.Target = &[3]float64{pos.X, pos.Y, pos.Z}
	return step, nil
}

// #endregion export
