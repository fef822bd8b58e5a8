package state

import (
	"maps"
	"slices"
)

// #region snapshot
// Snapshot is an immutable view of the simulated world for one communication round.
type Snapshot struct {
	frame      uint64
	transforms map[ObjectID]Transform
	held       map[Arm][]ObjectID
	joints     map[Arm][]float64
	events     []TriggerEvent
}

// SnapshotData is the mutable form used to build a Snapshot.
type SnapshotData struct {
	Frame      uint64
	Transforms map[ObjectID]Transform
	Held       map[Arm][]ObjectID
	Joints     map[Arm][]float64
	Events     []TriggerEvent
}

// NewSnapshot copies d into a new immutable Snapshot.
func NewSnapshot(d SnapshotData) *Snapshot {
	s := &Snapshot{
		frame:      d.Frame,
		transforms: maps.Clone(d.Transforms),
		held:       make(map[Arm][]ObjectID, len(Arms)),
		joints:     make(map[Arm][]float64, len(Arms)),
		events:     slices.Clone(d.Events),
	}
	if s.transforms == nil {
		s.transforms = map[ObjectID]Transform{}
	}
	for arm, ids := range d.Held {
		if len(ids) > 0 {
			s.held[arm] = slices.Clone(ids)
		}
	}
	for arm, angles := range d.Joints {
		s.joints[arm] = slices.Clone(angles)
	}
	return s
}

// Data returns a deep copy of the snapshot's contents.
func (s *Snapshot) Data() SnapshotData {
	d := SnapshotData{
		Frame:      s.frame,
		Transforms: maps.Clone(s.transforms),
		Held:       make(map[Arm][]ObjectID, len(s.held)),
		Joints:     make(map[Arm][]float64, len(s.joints)),
		Events:     slices.Clone(s.events),
	}
	for arm, ids := range s.held {
		d.Held[arm] = slices.Clone(ids)
	}
	for arm, angles := range s.joints {
		d.Joints[arm] = slices.Clone(angles)
	}
	return d
}

// #endregion snapshot

// #region accessors
// Frame is the simulation frame the snapshot was captured at.
func (s *Snapshot) Frame() uint64 { return s.frame }

// Transform returns the pose of id, if the snapshot tracks it.
func (s *Snapshot) Transform(id ObjectID) (Transform, bool) {
	t, ok := s.transforms[id]
	return t, ok
}

// Position is shorthand for Transform(id).Position.
func (s *Snapshot) Position(id ObjectID) (Vec3, bool) {
	t, ok := s.transforms[id]
	return t.Position, ok
}

// ObjectIDs returns every tracked object, sorted.
func (s *Snapshot) ObjectIDs() []ObjectID {
	return slices.Sorted(maps.Keys(s.transforms))
}

// Held returns the objects held by arm.
func (s *Snapshot) Held(arm Arm) []ObjectID {
	return slices.Clone(s.held[arm])
}

// HeldBy reports which arm holds id.
func (s *Snapshot) HeldBy(id ObjectID) (Arm, bool) {
	for _, arm := range Arms {
		if slices.Contains(s.held[arm], id) {
			return arm, true
		}
	}
	return "", false
}

// IsHeld reports whether any arm holds id.
func (s *Snapshot) IsHeld(id ObjectID) bool {
	_, ok := s.HeldBy(id)
	return ok
}

// Joints returns the joint-angle vector of arm (degrees).
func (s *Snapshot) Joints(arm Arm) []float64 {
	return slices.Clone(s.joints[arm])
}

// Events returns the trigger events raised since the previous snapshot, in order.
func (s *Snapshot) Events() []TriggerEvent {
	return slices.Clone(s.events)
}

// MaxDisplacement returns the largest distance any of ids moved between prev and s.
// Objects missing from either snapshot are skipped.
func (s *Snapshot) MaxDisplacement(prev *Snapshot, ids []ObjectID) float64 {
	var largest float64
	for _, id := range ids {
		a, okA := prev.transforms[id]
		b, okB := s.transforms[id]
		if !okA || !okB {
			continue
		}
		if d := b.Position.Sub(a.Position).Norm(); d > largest {
			largest = d
		}
	}
	return largest
}

// #endregion accessors
