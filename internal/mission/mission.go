// Package mission is the caller-level transport routine: fetch every target
// object into a container and empty the container in the goal zone. Retries
// and recovery live here; the action layer never retries on its own.
package mission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/action"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region config
// Config tunes the fill-and-pour routine.
type Config struct {
	ContainerArm   state.Arm `yaml:"container_arm" validate:"oneof=left right"`
	PourEvery      int       `yaml:"pour_every" validate:"gte=1"`
	PickUpAttempts int       `yaml:"pick_up_attempts" validate:"gte=1"`
	// BackOff is driven after the final pour so the robot clears the poured objects.
	BackOff float64 `yaml:"back_off"`
}

// DefaultConfig mirrors the fill-and-pour routine of the physics test suite.
func DefaultConfig() Config {
	return Config{
		ContainerArm:   state.Right,
		PourEvery:      4,
		PickUpAttempts: 2,
		BackOff:        -1,
	}
}

// #endregion config

// #region report
// Report summarizes a finished mission.
type Report struct {
	Completed bool // every step of the tree succeeded
	Delivered []state.ObjectID
	Skipped   []state.ObjectID
	Pours     int
	Cost      int
	Done      bool
}

// #endregion report

// #region runner
// Runner executes the mission against a session whose scene is initialized.
type Runner struct {
	session *action.Session
	cfg     Config
	logger  *slog.Logger
}

// NewRunner creates a mission runner.
func NewRunner(session *action.Session, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{session: session, cfg: cfg, logger: logger.With("component", "mission")}
}

// Run builds the behavior tree and ticks it to completion. Every leaf is
// synchronous, so a single tick runs the whole mission. The error is non-nil
// only when the simulation transport fails.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	scene := r.session.Scene()
	if scene == nil {
		return Report{}, action.ErrNoScene
	}
	containers := scene.Containers()
	if len(containers) == 0 {
		return Report{}, errors.New("scene has no container")
	}

	rep := &Report{}
	tree := r.build(ctx, containers[0], scene.Targets(), scene.Goal(), rep)
	status, err := tree.Tick()

	rep.Completed = status == bt.Success
	rep.Cost = r.session.Cost()
	rep.Done = r.session.IsDone()
	r.logger.Info("mission finished",
		"completed", rep.Completed, "delivered", len(rep.Delivered), "skipped", len(rep.Skipped),
		"cost", rep.Cost, "done", rep.Done)
	if err != nil {
		return *rep, fmt.Errorf("run mission: %w", err)
	}
	return *rep, nil
}

// #endregion runner

// #region tree
func (r *Runner) build(ctx context.Context, container state.ObjectID, targets []state.ObjectID, goal state.GoalZone, rep *Report) bt.Node {
	steps := []bt.Node{r.fetch(ctx, container, r.cfg.ContainerArm, false)}

	for i, target := range targets {
		if i > 0 && i%r.cfg.PourEvery == 0 {
			steps = append(steps, r.pour(ctx, goal, rep))
		}
		steps = append(steps, bt.New(bt.Selector,
			bt.New(bt.Sequence,
				r.fetch(ctx, target, r.cfg.ContainerArm.Opposite(), true),
				r.putIn(ctx, target, rep),
			),
			r.skip(ctx, target, rep),
		))
	}

	steps = append(steps, r.pour(ctx, goal, rep), r.backOff(ctx))
	return bt.New(bt.Sequence, steps...)
}

// fetch drives to id and picks it up, retrying up to PickUpAttempts times.
func (r *Runner) fetch(ctx context.Context, id state.ObjectID, arm state.Arm, isTarget bool) bt.Node {
	attempts := make([]bt.Node, r.cfg.PickUpAttempts)
	for i := range attempts {
		attempts[i] = bt.New(bt.Sequence,
			r.leaf(func() (state.Outcome, error) { return r.session.MoveToObject(ctx, id) }),
			r.leaf(func() (state.Outcome, error) {
				out, err := r.session.PickUp(ctx, id, arm)
				if err == nil && out != state.Success {
					r.logger.Info("pick up failed", "object", id, "arm", arm, "outcome", out, "attempt", i+1, "target", isTarget)
				}
				return out, err
			}),
		)
	}
	return bt.New(bt.Selector, attempts...)
}

func (r *Runner) putIn(ctx context.Context, id state.ObjectID, rep *Report) bt.Node {
	return r.leaf(func() (state.Outcome, error) {
		out, err := r.session.PutIn(ctx)
		if err == nil && out == state.Success {
			rep.Delivered = append(rep.Delivered, id)
		}
		return out, err
	})
}

// skip gives up on a target and frees the object arm so the next target can be tried.
func (r *Runner) skip(ctx context.Context, id state.ObjectID, rep *Report) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		rep.Skipped = append(rep.Skipped, id)
		arm := r.cfg.ContainerArm.Opposite()
		for _, held := range r.session.Current().Held(arm) {
			if _, err := r.session.Drop(ctx, held, arm); err != nil {
				return bt.Failure, err
			}
		}
		r.logger.Warn("skipping target", "object", id)
		return bt.Success, nil
	})
}

func (r *Runner) pour(ctx context.Context, goal state.GoalZone, rep *Report) bt.Node {
	return bt.New(bt.Sequence,
		r.leaf(func() (state.Outcome, error) { return r.session.MoveTo(ctx, goal.Center) }),
		r.leaf(func() (state.Outcome, error) {
			out, err := r.session.PourOut(ctx)
			if err == nil && out == state.Success {
				rep.Pours++
			}
			return out, err
		}),
	)
}

func (r *Runner) backOff(ctx context.Context) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if r.cfg.BackOff == 0 {
			return bt.Success, nil
		}
		if _, err := r.session.MoveBy(ctx, r.cfg.BackOff); err != nil {
			return bt.Failure, err
		}
		return bt.Success, nil
	})
}

// leaf adapts an action to a node: Success maps to bt.Success, every other outcome to bt.Failure.
func (r *Runner) leaf(run func() (state.Outcome, error)) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		out, err := run()
		if err != nil {
			return bt.Failure, err
		}
		if out != state.Success {
			return bt.Failure, nil
		}
		return bt.Success, nil
	})
}

// #endregion tree
