package codec

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region encode
// encodeCommands renders a command batch as {"commands": [{"$type": ..., ...}]}.
func encodeCommands(cmds []sim.Command) (*structpb.Struct, error) {
	list := make([]any, 0, len(cmds))
	for _, c := range cmds {
		m := map[string]any{"$type": c.Type()}
		switch c := c.(type) {
		case sim.SetImmovable:
			m["immovable"] = c.Immovable
		case sim.SetJointTarget:
			m["arm"] = string(c.Arm)
			m["joint"] = string(c.Target.Joint)
			m["target"] = vec(c.Target.Target)
		case sim.Detach:
			m["id"] = int64(c.Object)
			m["arm"] = string(c.Arm)
		case sim.SetCollisionMode:
			m["id"] = int64(c.Object)
			m["mode"] = string(c.Mode)
		default:
			return nil, fmt.Errorf("unsupported command %T", c)
		}
		list = append(list, m)
	}
	return structpb.NewStruct(map[string]any{"commands": list})
}

// encodePrimitive renders a primitive request as {"primitive": name, ...args}.
func encodePrimitive(name string, args map[string]any) (*structpb.Struct, error) {
	m := make(map[string]any, len(args)+1)
	for k, v := range args {
		m[k] = v
	}
	m["primitive"] = name
	return structpb.NewStruct(m)
}

func encodeReach(req sim.ReachRequest) map[string]any {
	m := map[string]any{
		"arm":      string(req.Arm),
		"target":   vec(req.Target),
		"absolute": req.Absolute,
	}
	if req.FixedTorsoHeight != nil {
		m["fixed_torso_height"] = *req.FixedTorsoHeight
	}
	if req.Object != 0 {
		m["object"] = int64(req.Object)
	}
	if req.ArrivedAt > 0 {
		m["arrived_at"] = req.ArrivedAt
	}
	return m
}

func encodeJoints(targets []state.JointTarget) []any {
	list := make([]any, len(targets))
	for i, t := range targets {
		list[i] = map[string]any{"joint": string(t.Joint), "target": vec(t.Target)}
	}
	return list
}

func vec(v state.Vec3) []any { return []any{v.X, v.Y, v.Z} }

func floats(fs []float64) []any {
	list := make([]any, len(fs))
	for i, f := range fs {
		list[i] = f
	}
	return list
}

// #endregion encode

// #region decode
// decodeResult reads {"status": ..., "snapshot": {...}}.
func decodeResult(s *structpb.Struct) (sim.Result, error) {
	m := s.AsMap()
	status, _ := m["status"].(string)
	out, err := state.ParseOutcome(status)
	if err != nil {
		return sim.Result{}, err
	}
	raw, ok := m["snapshot"].(map[string]any)
	if !ok {
		return sim.Result{}, fmt.Errorf("result without snapshot")
	}
	snap, err := decodeSnapshotMap(raw)
	if err != nil {
		return sim.Result{}, err
	}
	return sim.Result{Outcome: out, Snapshot: snap}, nil
}

func decodeSnapshot(s *structpb.Struct) (*state.Snapshot, error) {
	return decodeSnapshotMap(s.AsMap())
}

func decodeSnapshotMap(m map[string]any) (*state.Snapshot, error) {
	frame, _ := m["frame"].(float64)
	d := state.SnapshotData{
		Frame:      uint64(frame),
		Transforms: make(map[state.ObjectID]state.Transform),
		Held:       make(map[state.Arm][]state.ObjectID, 2),
		Joints:     make(map[state.Arm][]float64, 2),
	}

	objects, _ := m["objects"].([]any)
	for i, o := range objects {
		obj, ok := o.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("object %d: not a struct", i)
		}
		id, err := objectID(obj["id"])
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		pos, err := numbers(obj["position"], 3)
		if err != nil {
			return nil, fmt.Errorf("object %d position: %w", id, err)
		}
		rot, err := numbers(obj["rotation"], 4)
		if err != nil {
			return nil, fmt.Errorf("object %d rotation: %w", id, err)
		}
		d.Transforms[id] = state.Transform{
			Position: state.Vec3{X: pos[0], Y: pos[1], Z: pos[2]},
			Rotation: state.Quat{X: rot[0], Y: rot[1], Z: rot[2], W: rot[3]},
		}
	}

	held, _ := m["held"].(map[string]any)
	for name, v := range held {
		arm, err := state.ParseArm(name)
		if err != nil {
			return nil, err
		}
		ids, _ := v.([]any)
		for _, raw := range ids {
			id, err := objectID(raw)
			if err != nil {
				return nil, fmt.Errorf("held by %s: %w", arm, err)
			}
			d.Held[arm] = append(d.Held[arm], id)
		}
	}

	joints, _ := m["joints"].(map[string]any)
	for name, v := range joints {
		arm, err := state.ParseArm(name)
		if err != nil {
			return nil, err
		}
		angles, err := numbers(v, -1)
		if err != nil {
			return nil, fmt.Errorf("joints of %s: %w", arm, err)
		}
		d.Joints[arm] = angles
	}

	events, _ := m["events"].([]any)
	for i, e := range events {
		ev, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("event %d: not a struct", i)
		}
		container, err := objectID(ev["container"])
		if err != nil {
			return nil, fmt.Errorf("event %d container: %w", i, err)
		}
		object, err := objectID(ev["object"])
		if err != nil {
			return nil, fmt.Errorf("event %d object: %w", i, err)
		}
		kind := state.TriggerKind(fmt.Sprint(ev["kind"]))
		if kind != state.TriggerEnter && kind != state.TriggerExit {
			return nil, fmt.Errorf("event %d: unknown kind %q", i, kind)
		}
		d.Events = append(d.Events, state.TriggerEvent{Container: container, Object: object, Kind: kind})
	}

	return state.NewSnapshot(d), nil
}

func decodeIDs(s *structpb.Struct) ([]state.ObjectID, error) {
	raw, _ := s.AsMap()["ids"].([]any)
	ids := make([]state.ObjectID, 0, len(raw))
	for _, v := range raw {
		id, err := objectID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func objectID(v any) (state.ObjectID, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("object id %v is not a number", v)
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("object id %v is not an int32", v)
	}
	return state.ObjectID(f), nil
}

// numbers reads a list of numbers; want < 0 accepts any length.
func numbers(v any, want int) ([]float64, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	if want >= 0 && len(list) != want {
		return nil, fmt.Errorf("expected %d numbers, got %d", want, len(list))
	}
	out := make([]float64, len(list))
	for i, x := range list {
		f, ok := x.(float64)
		if !ok {
			return nil, fmt.Errorf("element %d is %T", i, x)
		}
		out[i] = f
	}
	return out, nil
}

// #endregion decode
