package containment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

func snapWith(events ...state.TriggerEvent) *state.Snapshot {
	return state.NewSnapshot(state.SnapshotData{Events: events})
}

func enter(c, o state.ObjectID) state.TriggerEvent {
	return state.TriggerEvent{Container: c, Object: o, Kind: state.TriggerEnter}
}

func exit(c, o state.ObjectID) state.TriggerEvent {
	return state.TriggerEvent{Container: c, Object: o, Kind: state.TriggerExit}
}

func TestTracker_EnterExit(t *testing.T) {
	tr := NewTracker()
	tr.Update(snapWith(enter(10, 1), enter(10, 2)))
	assert.Equal(t, []state.ObjectID{1, 2}, tr.MembersOf(10))

	tr.Update(snapWith(exit(10, 1)))
	assert.Equal(t, []state.ObjectID{2}, tr.MembersOf(10))
	assert.False(t, tr.Contains(10, 1))
	assert.True(t, tr.Contains(10, 2))
}

func TestTracker_LastEventWinsWithinSnapshot(t *testing.T) {
	tr := NewTracker()
	tr.Update(snapWith(enter(10, 1), exit(10, 1), enter(10, 1)))
	assert.Equal(t, []state.ObjectID{1}, tr.MembersOf(10))

	tr.Update(snapWith(enter(10, 3), exit(10, 3)))
	assert.False(t, tr.Contains(10, 3))
}

func TestTracker_ExitWithoutEnterIsIgnored(t *testing.T) {
	tr := NewTracker()
	tr.Update(snapWith(exit(10, 7)))
	assert.Empty(t, tr.MembersOf(10))

	tr.Update(snapWith(enter(11, 7), exit(10, 7)))
	c, ok := tr.ContainerOf(7)
	require.True(t, ok)
	assert.Equal(t, state.ObjectID(11), c)
}

func TestTracker_MembershipIsExclusive(t *testing.T) {
	tr := NewTracker()
	tr.Update(snapWith(enter(10, 1)))
	tr.Update(snapWith(enter(11, 1)))

	assert.Empty(t, tr.MembersOf(10))
	assert.Equal(t, []state.ObjectID{1}, tr.MembersOf(11))

	// The stale exit from the old container must not evict it from the new one.
	tr.Update(snapWith(exit(10, 1)))
	assert.True(t, tr.Contains(11, 1))
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.Update(snapWith(enter(10, 1)))
	tr.Reset()
	assert.Empty(t, tr.MembersOf(10))
	_, ok := tr.ContainerOf(1)
	assert.False(t, ok)
}
