package state

import (
	"math"
	"testing"
)

func TestSnapshotIsImmutable(t *testing.T) {
	transforms := map[ObjectID]Transform{1: {Position: Vec3{1, 0, 0}, Rotation: Identity}}
	held := map[Arm][]ObjectID{Left: {1}}
	snap := NewSnapshot(SnapshotData{Frame: 7, Transforms: transforms, Held: held})

	transforms[1] = Transform{Position: Vec3{9, 9, 9}}
	held[Left][0] = 42

	pos, ok := snap.Position(1)
	if !ok || pos != (Vec3{1, 0, 0}) {
		t.Fatalf("snapshot position changed through caller map: %+v", pos)
	}
	if got := snap.Held(Left); len(got) != 1 || got[0] != 1 {
		t.Fatalf("snapshot held changed through caller slice: %v", got)
	}

	out := snap.Held(Left)
	out[0] = 99
	if snap.Held(Left)[0] != 1 {
		t.Fatal("Held exposed internal slice")
	}
}

func TestSnapshotHeldBy(t *testing.T) {
	snap := NewSnapshot(SnapshotData{Held: map[Arm][]ObjectID{Right: {5}, Left: {}}})
	arm, ok := snap.HeldBy(5)
	if !ok || arm != Right {
		t.Fatalf("expected right arm, got %q ok=%v", arm, ok)
	}
	if snap.IsHeld(6) {
		t.Fatal("object 6 should not be held")
	}
	if len(snap.Held(Left)) != 0 {
		t.Fatal("empty held list should be dropped")
	}
}

func TestMaxDisplacement(t *testing.T) {
	a := NewSnapshot(SnapshotData{Transforms: map[ObjectID]Transform{
		1: {Position: Vec3{0, 1, 0}},
		2: {Position: Vec3{0, 0, 0}},
	}})
	b := NewSnapshot(SnapshotData{Transforms: map[ObjectID]Transform{
		1: {Position: Vec3{0, 0.5, 0}},
		2: {Position: Vec3{0, 0, 0}},
	}})
	if d := b.MaxDisplacement(a, []ObjectID{1, 2, 3}); math.Abs(d-0.5) > 1e-9 {
		t.Fatalf("expected 0.5, got %f", d)
	}
	if d := b.MaxDisplacement(a, []ObjectID{2}); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestSceneKinds(t *testing.T) {
	s, err := NewScene([]ObjectID{1, 2}, []ObjectID{10}, GoalZone{})
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	if s.Kind(1) != KindTarget || s.Kind(10) != KindContainer || s.Kind(99) != KindOther {
		t.Fatal("unexpected kinds")
	}
	if s.Goal().Radius != DefaultGoalRadius {
		t.Fatalf("expected default radius, got %f", s.Goal().Radius)
	}
	if _, err := NewScene([]ObjectID{1}, []ObjectID{1}, GoalZone{}); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}

func TestHorizontalDistanceIgnoresHeight(t *testing.T) {
	d := Vec3{3, 10, 4}.HorizontalDistance(Vec3{0, 0, 0})
	if math.Abs(d-5) > 1e-9 {
		t.Fatalf("expected 5, got %f", d)
	}
}

func TestQuatFromEulerAboutX(t *testing.T) {
	q := QuatFromEuler(90, 0)
	if math.Abs(q.X-math.Sin(math.Pi/4)) > 1e-9 || math.Abs(q.W-math.Cos(math.Pi/4)) > 1e-9 {
		t.Fatalf("unexpected quaternion %+v", q)
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := ParseArm("middle"); err == nil {
		t.Fatal("expected error for unknown arm")
	}
	if a, _ := ParseArm("right"); a.Opposite() != Left {
		t.Fatal("opposite of right should be left")
	}
	if _, err := ParseOutcome("not_in"); err != nil {
		t.Fatalf("ParseOutcome: %v", err)
	}
	if _, err := ParseOutcome("exploded"); err == nil {
		t.Fatal("expected error for unknown outcome")
	}
}
