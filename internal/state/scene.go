package state

import (
	"fmt"
	"slices"
)

// #region object-kind
// ObjectKind tags an object with its role in the transport task.
type ObjectKind int

const (
	KindOther ObjectKind = iota
	KindTarget
	KindContainer
)

func (k ObjectKind) String() string {
	switch k {
	case KindTarget:
		return "target"
	case KindContainer:
		return "container"
	default:
		return "other"
	}
}

// #endregion object-kind

// #region goal-zone
// GoalZone is the circular floor region the target objects must reach.
type GoalZone struct {
	Center Vec3    `json:"center" yaml:"center"`
	Radius float64 `json:"radius" yaml:"radius"`
}

// DefaultGoalRadius is the goal zone radius used when a scene does not set one.
const DefaultGoalRadius = 1.0

// #endregion goal-zone

// #region scene
// Scene holds the object roles resolved once at scene initialization.
type Scene struct {
	kinds      map[ObjectID]ObjectKind
	targets    []ObjectID
	containers []ObjectID
	goal       GoalZone
}

// NewScene registers targets and containers. An ID listed in both is rejected.
func NewScene(targets, containers []ObjectID, goal GoalZone) (*Scene, error) {
	if goal.Radius <= 0 {
		goal.Radius = DefaultGoalRadius
	}
	s := &Scene{
		kinds: make(map[ObjectID]ObjectKind, len(targets)+len(containers)),
		goal:  goal,
	}
	for _, id := range targets {
		if _, dup := s.kinds[id]; dup {
			return nil, fmt.Errorf("object %d registered twice", id)
		}
		s.kinds[id] = KindTarget
		s.targets = append(s.targets, id)
	}
	for _, id := range containers {
		if _, dup := s.kinds[id]; dup {
			return nil, fmt.Errorf("object %d registered twice", id)
		}
		s.kinds[id] = KindContainer
		s.containers = append(s.containers, id)
	}
	return s, nil
}

// Kind returns the role of id; unregistered IDs are KindOther.
func (s *Scene) Kind(id ObjectID) ObjectKind {
	return s.kinds[id]
}

func (s *Scene) IsTarget(id ObjectID) bool    { return s.kinds[id] == KindTarget }
func (s *Scene) IsContainer(id ObjectID) bool { return s.kinds[id] == KindContainer }

// Targets returns the target object IDs in registration order.
func (s *Scene) Targets() []ObjectID { return slices.Clone(s.targets) }

// Containers returns the container IDs in registration order.
func (s *Scene) Containers() []ObjectID { return slices.Clone(s.containers) }

// Goal returns the goal zone.
func (s *Scene) Goal() GoalZone { return s.goal }

// #endregion scene
