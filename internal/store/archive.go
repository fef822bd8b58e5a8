package store

import (
	"encoding/hex"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region codecs
var (
	encMode     cbor.EncMode
	decMode     cbor.DecMode
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		panic("store: CBOR decoder initialization failed: " + err.Error())
	}
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// #endregion codecs

// #region snapshot-record
// snapshotRecord is the archived form of a state.Snapshot. Maps become sorted
// slices so equal snapshots always encode to identical bytes.
type snapshotRecord struct {
	Frame   uint64         `cbor:"1,keyasint"`
	Objects []objectRecord `cbor:"2,keyasint"`
	Held    []heldRecord   `cbor:"3,keyasint"`
	Joints  []jointsRecord `cbor:"4,keyasint"`
	Events  []eventRecord  `cbor:"5,keyasint"`
}

type objectRecord struct {
	ID       int32      `cbor:"1,keyasint"`
	Position [3]float64 `cbor:"2,keyasint"`
	Rotation [4]float64 `cbor:"3,keyasint"`
}

type heldRecord struct {
	Arm     string  `cbor:"1,keyasint"`
	Objects []int32 `cbor:"2,keyasint"`
}

type jointsRecord struct {
	Arm    string    `cbor:"1,keyasint"`
	Angles []float64 `cbor:"2,keyasint"`
}

type eventRecord struct {
	Container int32  `cbor:"1,keyasint"`
	Object    int32  `cbor:"2,keyasint"`
	Kind      string `cbor:"3,keyasint"`
}

func toRecord(snap *state.Snapshot) snapshotRecord {
	rec := snapshotRecord{Frame: snap.Frame()}
	for _, id := range snap.ObjectIDs() {
		tr, _ := snap.Transform(id)
		rec.Objects = append(rec.Objects, objectRecord{
			ID:       int32(id),
			Position: [3]float64{tr.Position.X, tr.Position.Y, tr.Position.Z},
			Rotation: [4]float64{tr.Rotation.X, tr.Rotation.Y, tr.Rotation.Z, tr.Rotation.W},
		})
	}
	for _, arm := range state.Arms {
		if held := snap.Held(arm); len(held) > 0 {
			h := heldRecord{Arm: string(arm)}
			for _, id := range held {
				h.Objects = append(h.Objects, int32(id))
			}
			rec.Held = append(rec.Held, h)
		}
		if joints := snap.Joints(arm); len(joints) > 0 {
			rec.Joints = append(rec.Joints, jointsRecord{Arm: string(arm), Angles: joints})
		}
	}
	for _, ev := range snap.Events() {
		rec.Events = append(rec.Events, eventRecord{
			Container: int32(ev.Container), Object: int32(ev.Object), Kind: string(ev.Kind),
		})
	}
	return rec
}

func fromRecord(rec snapshotRecord) *state.Snapshot {
	d := state.SnapshotData{
		Frame:      rec.Frame,
		Transforms: make(map[state.ObjectID]state.Transform, len(rec.Objects)),
		Held:       make(map[state.Arm][]state.ObjectID, len(rec.Held)),
		Joints:     make(map[state.Arm][]float64, len(rec.Joints)),
	}
	for _, o := range rec.Objects {
		d.Transforms[state.ObjectID(o.ID)] = state.Transform{
			Position: state.Vec3{X: o.Position[0], Y: o.Position[1], Z: o.Position[2]},
			Rotation: state.Quat{X: o.Rotation[0], Y: o.Rotation[1], Z: o.Rotation[2], W: o.Rotation[3]},
		}
	}
	for _, h := range rec.Held {
		for _, id := range h.Objects {
			d.Held[state.Arm(h.Arm)] = append(d.Held[state.Arm(h.Arm)], state.ObjectID(id))
		}
	}
	for _, j := range rec.Joints {
		d.Joints[state.Arm(j.Arm)] = j.Angles
	}
	for _, ev := range rec.Events {
		d.Events = append(d.Events, state.TriggerEvent{
			Container: state.ObjectID(ev.Container), Object: state.ObjectID(ev.Object), Kind: state.TriggerKind(ev.Kind),
		})
	}
	return state.NewSnapshot(d)
}

// #endregion snapshot-record

// #region archive
// archiveSnapshot returns the compressed archive blob and the hex blake3 hash
// of the uncompressed encoding.
func archiveSnapshot(snap *state.Snapshot) ([]byte, string, error) {
	raw, err := encMode.Marshal(toRecord(snap))
	if err != nil {
		return nil, "", fmt.Errorf("encode snapshot: %w", err)
	}
	sum := blake3.Sum256(raw)
	return zstdEncoder.EncodeAll(raw, nil), hex.EncodeToString(sum[:]), nil
}

// restoreSnapshot reverses archiveSnapshot.
func restoreSnapshot(blob []byte) (*state.Snapshot, string, error) {
	raw, err := zstdDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, "", fmt.Errorf("decompress snapshot: %w", err)
	}
	var rec snapshotRecord
	if err := decMode.Unmarshal(raw, &rec); err != nil {
		return nil, "", fmt.Errorf("decode snapshot: %w", err)
	}
	sum := blake3.Sum256(raw)
	return fromRecord(rec), hex.EncodeToString(sum[:]), nil
}

// #endregion archive
