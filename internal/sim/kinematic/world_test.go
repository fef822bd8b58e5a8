package kinematic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

const (
	container state.ObjectID = 10
	target    state.ObjectID = 1
)

func TestGrasp_OutOfReach(t *testing.T) {
	w := New(DefaultConfig())
	w.AddObject(target, state.Vec3{X: 3}, state.Identity)

	res, err := w.Grasp(context.Background(), target, state.Right)
	require.NoError(t, err)
	assert.Equal(t, state.CannotReach, res.Outcome)
	assert.Empty(t, res.Snapshot.Held(state.Right))
}

func TestGrasp_HoldsAndFollowsBase(t *testing.T) {
	ctx := context.Background()
	w := New(DefaultConfig())
	w.AddObject(target, state.Vec3{X: 0.5}, state.Identity)

	res, err := w.Grasp(ctx, target, state.Left)
	require.NoError(t, err)
	require.Equal(t, state.Success, res.Outcome)
	assert.Equal(t, []state.ObjectID{target}, res.Snapshot.Held(state.Left))

	res, err = w.MoveBy(ctx, 2)
	require.NoError(t, err)
	pos, _ := res.Snapshot.Position(target)
	assert.InDelta(t, 2.0, pos.Z, 1e-9)

	res, err = w.Grasp(ctx, 99, state.Left)
	require.NoError(t, err)
	assert.Equal(t, state.FailedToGrasp, res.Outcome)
}

func TestAttachRejectsUnknownObject(t *testing.T) {
	w := New(DefaultConfig())
	w.AddObject(target, state.Vec3{}, state.Identity)

	assert.Error(t, w.Attach(77, state.Left))
	assert.Error(t, w.Attach(target, state.Arm("tail")))

	snap, err := w.Send(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Held(state.Left))
}

func TestReleaseAboveContainerRaisesEnter(t *testing.T) {
	ctx := context.Background()
	w := New(DefaultConfig())
	w.AddContainer(container, state.Vec3{}, state.Identity)
	w.AddObject(target, state.Vec3{Y: 1}, state.Identity)
	require.NoError(t, w.Attach(target, state.Right))

	_, err := w.ReachFor(ctx, sim.ReachRequest{Arm: state.Right, Target: state.Vec3{Y: 0.5}, Absolute: true})
	require.NoError(t, err)

	var events []state.TriggerEvent
	snap, err := w.Send(ctx, sim.Detach{Object: target, Arm: state.Right})
	require.NoError(t, err)
	events = append(events, snap.Events()...)
	for range DefaultConfig().FallTicks {
		snap, err = w.Send(ctx)
		require.NoError(t, err)
		events = append(events, snap.Events()...)
	}
	require.Len(t, events, 1)
	assert.Equal(t, state.TriggerEvent{Container: container, Object: target, Kind: state.TriggerEnter}, events[0])
	pos, _ := snap.Position(target)
	assert.InDelta(t, DefaultConfig().ContentOffset, pos.Y, 1e-9)
}

func TestPourRaisesExitAndLandsOnFloor(t *testing.T) {
	ctx := context.Background()
	w := New(DefaultConfig())
	w.AddContainer(container, state.Vec3{}, state.Identity)
	w.AddObject(target, state.Vec3{}, state.Identity)
	require.NoError(t, w.Attach(container, state.Left))
	w.contents[container][target] = struct{}{}

	res, err := w.MoveJoints(ctx, state.Left, []state.JointTarget{{Joint: state.JointWrist, Target: state.Vec3{X: 90}}})
	require.NoError(t, err)
	require.Len(t, res.Snapshot.Events(), 1)
	assert.Equal(t, state.TriggerExit, res.Snapshot.Events()[0].Kind)

	res = w.finishAfter(DefaultConfig().FallTicks, state.Success)
	pos, _ := res.Snapshot.Position(target)
	assert.Zero(t, pos.Y)
}

func TestFailInjectionIsConsumedOnce(t *testing.T) {
	ctx := context.Background()
	w := New(DefaultConfig())
	w.Fail(OpResetArm, state.FailedToBend)

	res, err := w.ResetArm(ctx, state.Left, true)
	require.NoError(t, err)
	assert.Equal(t, state.FailedToBend, res.Outcome)

	res, err = w.ResetArm(ctx, state.Left, true)
	require.NoError(t, err)
	assert.Equal(t, state.Success, res.Outcome)
}

func TestSetArmAnglesRejectsWrongLength(t *testing.T) {
	w := New(DefaultConfig())
	res, err := w.SetArmAngles(context.Background(), state.Left, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, state.FailedToBend, res.Outcome)
}
