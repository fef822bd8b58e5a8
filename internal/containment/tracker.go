package containment

import (
	"maps"
	"slices"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region tracker
// Tracker derives container membership from trigger-volume enter/exit events.
// Membership is exclusive: an object entering one container leaves any other.
type Tracker struct {
	members map[state.ObjectID]map[state.ObjectID]struct{}
	owner   map[state.ObjectID]state.ObjectID
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		members: make(map[state.ObjectID]map[state.ObjectID]struct{}),
		owner:   make(map[state.ObjectID]state.ObjectID),
	}
}

// #endregion tracker

// #region update
// Update applies the snapshot's trigger events in order.
func (t *Tracker) Update(snap *state.Snapshot) {
	for _, ev := range snap.Events() {
		t.Apply(ev)
	}
}

// Apply records a single trigger event. Exit events for objects the container
// never saw entering are ignored.
func (t *Tracker) Apply(ev state.TriggerEvent) {
	switch ev.Kind {
	case state.TriggerEnter:
		if prev, ok := t.owner[ev.Object]; ok && prev != ev.Container {
			delete(t.members[prev], ev.Object)
		}
		set, ok := t.members[ev.Container]
		if !ok {
			set = make(map[state.ObjectID]struct{})
			t.members[ev.Container] = set
		}
		set[ev.Object] = struct{}{}
		t.owner[ev.Object] = ev.Container
	case state.TriggerExit:
		set := t.members[ev.Container]
		if _, ok := set[ev.Object]; !ok {
			return
		}
		delete(set, ev.Object)
		delete(t.owner, ev.Object)
	}
}

// #endregion update

// #region queries
// MembersOf returns the objects currently inside container, sorted.
func (t *Tracker) MembersOf(container state.ObjectID) []state.ObjectID {
	return slices.Sorted(maps.Keys(t.members[container]))
}

// Contains reports whether obj is inside container.
func (t *Tracker) Contains(container, obj state.ObjectID) bool {
	_, ok := t.members[container][obj]
	return ok
}

// ContainerOf reports which container holds obj.
func (t *Tracker) ContainerOf(obj state.ObjectID) (state.ObjectID, bool) {
	c, ok := t.owner[obj]
	return c, ok
}

// Reset forgets all membership.
func (t *Tracker) Reset() {
	clear(t.members)
	clear(t.owner)
}

// #endregion queries
