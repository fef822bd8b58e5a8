// Package action is the transport controller's state machine. A Session owns
// the latest snapshot, the containment table, the cached container reset poses
// and the cost ledger, and composes simulation primitives into compound actions.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/containment"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/eval"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/ledger"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// ErrNoScene is returned by actions issued before InitScene.
var ErrNoScene = errors.New("scene not initialized")

// #region recorder
// Record describes one finished action.
type Record struct {
	Seq      int
	Action   ledger.ActionKind
	Args     map[string]any
	Outcome  state.Outcome
	Cost     int
	Done     bool
	Snapshot *state.Snapshot
}

// Recorder persists finished actions. Failures are logged and never change an outcome.
type Recorder interface {
	RecordAction(ctx context.Context, rec Record) error
}

// #endregion recorder

// #region session
// Session drives one robot through one scene. It is not safe for concurrent use:
// each action must return before the next begins.
type Session struct {
	backend sim.Backend
	cfg     Config

	scene      *state.Scene
	current    *state.Snapshot
	tracker    *containment.Tracker
	resetPoses map[state.Arm][]float64
	ledger     *ledger.Ledger
	goal       *eval.GoalEvaluator
	done       bool
	seq        int

	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithTracer sets the tracer used for per-action spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// WithRecorder persists every finished action.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithGoalConfig overrides the goal thresholds.
func WithGoalConfig(c eval.EvalConfig) Option {
	return func(s *Session) { s.goal = eval.NewGoalEvaluator(c) }
}

// NewSession creates a session over backend. Call InitScene before any action.
func NewSession(backend sim.Backend, cfg Config, opts ...Option) *Session {
	s := &Session{
		backend:    backend,
		cfg:        cfg,
		tracker:    containment.NewTracker(),
		resetPoses: make(map[state.Arm][]float64, 2),
		ledger:     ledger.New(),
		goal:       eval.NewGoalEvaluator(eval.DefaultEvalConfig()),
		logger:     slog.Default(),
		tracer:     otel.Tracer("transport/action"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "action")
	return s
}

// #endregion session

// #region init-scene
// InitScene registers the scene, zeroes the ledger, forgets containment and
// cached poses, and takes the first snapshot.
func (s *Session) InitScene(ctx context.Context, scene *state.Scene) (err error) {
	s.scene = scene
	s.ledger.Reset()
	s.tracker.Reset()
	clear(s.resetPoses)
	s.done = false
	s.current = nil
	s.seq = 0

	ctx, end := s.start(ctx, ledger.ActionInitScene, map[string]any{
		"targets":    scene.Targets(),
		"containers": scene.Containers(),
	})
	defer func() { end(state.Success, err) }()

	snap, err := s.backend.Send(ctx)
	if err != nil {
		return fmt.Errorf("init scene: %w", err)
	}
	s.observe(snap)
	return nil
}

// #endregion init-scene

// #region queries
// Scene returns the registered scene, or nil before InitScene.
func (s *Session) Scene() *state.Scene { return s.scene }

// Current returns the latest snapshot, or nil before InitScene.
func (s *Session) Current() *state.Snapshot { return s.current }

// Cost returns the running interaction cost.
func (s *Session) Cost() int { return s.ledger.Cost() }

// IsDone reports whether every target object was in the goal zone after the last action.
func (s *Session) IsDone() bool { return s.done }

// ObjectKind classifies id within the registered scene.
func (s *Session) ObjectKind(id state.ObjectID) state.ObjectKind {
	if s.scene == nil {
		return state.KindOther
	}
	return s.scene.Kind(id)
}

// ObjectsInGoalZone returns the target objects currently in the goal zone.
func (s *Session) ObjectsInGoalZone() []state.ObjectID {
	if s.scene == nil || s.current == nil {
		return nil
	}
	return s.goal.ObjectsInGoalZone(s.scene, s.current)
}

// MembersOf returns the objects currently inside container.
func (s *Session) MembersOf(container state.ObjectID) []state.ObjectID {
	return s.tracker.MembersOf(container)
}

// CachedResetPose returns a copy of the cached container reset pose for arm.
func (s *Session) CachedResetPose(arm state.Arm) ([]float64, bool) {
	pose, ok := s.resetPoses[arm]
	return slices.Clone(pose), ok
}

// VisibleObjects asks the camera which objects are in view.
func (s *Session) VisibleObjects(ctx context.Context) (ids []state.ObjectID, err error) {
	if s.scene == nil {
		return nil, ErrNoScene
	}
	ctx, end := s.start(ctx, ledger.ActionVisibleObjects, nil)
	defer func() { end(state.Success, err) }()

	ids, err = s.backend.VisibleObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("visible objects: %w", err)
	}
	return ids, nil
}

// #endregion queries

// #region bookkeeping
// observe makes snap the current state and feeds its trigger events to the tracker.
func (s *Session) observe(snap *state.Snapshot) {
	if snap == nil {
		return
	}
	s.current = snap
	s.tracker.Update(snap)
}

// observeResult consumes a primitive's result.
func (s *Session) observeResult(res sim.Result, err error) (state.Outcome, error) {
	if err != nil {
		return "", err
	}
	s.observe(res.Snapshot)
	return res.Outcome, nil
}

// start opens the span for an action and returns its finalizer. The finalizer
// re-evaluates the goal, records the action and closes the span on every path.
func (s *Session) start(ctx context.Context, kind ledger.ActionKind, args map[string]any) (context.Context, func(state.Outcome, error)) {
	ctx, span := s.tracer.Start(ctx, "action."+string(kind),
		trace.WithAttributes(attribute.String("action", string(kind))))

	return ctx, func(out state.Outcome, err error) {
		defer span.End()
		s.seq++

		if s.scene != nil && s.current != nil {
			s.done = s.goal.IsDone(s.scene, s.current)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.Error("action failed", "action", kind, "seq", s.seq, "error", err)
			return
		}

		outcomeTotal.WithLabelValues(string(kind), string(out)).Inc()
		span.SetAttributes(
			attribute.String("outcome", string(out)),
			attribute.Int("cost", s.ledger.Cost()),
			attribute.Bool("done", s.done),
		)
		s.logger.Info("action finished",
			"action", kind, "seq", s.seq, "outcome", out, "cost", s.ledger.Cost(), "done", s.done)

		if s.recorder == nil {
			return
		}
		rec := Record{
			Seq:      s.seq,
			Action:   kind,
			Args:     maps.Clone(args),
			Outcome:  out,
			Cost:     s.ledger.Cost(),
			Done:     s.done,
			Snapshot: s.current,
		}
		if rerr := s.recorder.RecordAction(context.WithoutCancel(ctx), rec); rerr != nil {
			s.logger.Warn("record action", "action", kind, "seq", s.seq, "error", rerr)
		}
	}
}

// #endregion bookkeeping
