package codec

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/sim"
	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

// #region service
const (
	methodCommunicate    = "/transport.v1.Simulator/Communicate"
	methodPrimitive      = "/transport.v1.Simulator/Primitive"
	methodVisibleObjects = "/transport.v1.Simulator/VisibleObjects"
)

// SimulatorServiceClient is the physics build's RPC surface. Payloads are
// google.protobuf.Struct messages.
type SimulatorServiceClient interface {
	Communicate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Primitive(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	VisibleObjects(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type simulatorServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSimulatorServiceClient binds the service to a connection.
func NewSimulatorServiceClient(cc grpc.ClientConnInterface) SimulatorServiceClient {
	return &simulatorServiceClient{cc: cc}
}

func (c *simulatorServiceClient) Communicate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCommunicate, in, opts...)
}

func (c *simulatorServiceClient) Primitive(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodPrimitive, in, opts...)
}

func (c *simulatorServiceClient) VisibleObjects(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodVisibleObjects, in, opts...)
}

func (c *simulatorServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion service

// #region client-struct
// SimClient implements sim.Backend against the physics build over gRPC.
type SimClient struct {
	conn   *grpc.ClientConn
	client SimulatorServiceClient
}

var _ sim.Backend = (*SimClient)(nil)

// #endregion client-struct

// #region constructor
// NewSimClient connects to the simulator's gRPC server.
func NewSimClient(addr string, opts ...grpc.DialOption) (*SimClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &SimClient{
		conn:   conn,
		client: NewSimulatorServiceClient(conn),
	}, nil
}

// CallTimeout bounds every unary call that has no earlier deadline.
func CallTimeout(d time.Duration) grpc.DialOption {
	return grpc.WithUnaryInterceptor(timeoutInterceptor(d))
}

func timeoutInterceptor(d time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if _, ok := ctx.Deadline(); !ok && d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// NewSimClientWithService creates a SimClient with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewSimClientWithService(svc SimulatorServiceClient) *SimClient {
	return &SimClient{client: svc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *SimClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region communicate
// Send submits a command batch and returns the next snapshot.
func (c *SimClient) Send(ctx context.Context, cmds ...sim.Command) (*state.Snapshot, error) {
	req, err := encodeCommands(cmds)
	if err != nil {
		return nil, fmt.Errorf("encode commands: %w", err)
	}
	resp, err := c.client.Communicate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("communicate rpc: %w", err)
	}
	snap, err := decodeSnapshot(resp)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// #endregion communicate

// #region primitives
func (c *SimClient) primitive(ctx context.Context, name string, args map[string]any) (sim.Result, error) {
	req, err := encodePrimitive(name, args)
	if err != nil {
		return sim.Result{}, fmt.Errorf("encode %s: %w", name, err)
	}
	resp, err := c.client.Primitive(ctx, req)
	if err != nil {
		return sim.Result{}, fmt.Errorf("%s rpc: %w", name, err)
	}
	res, err := decodeResult(resp)
	if err != nil {
		return sim.Result{}, fmt.Errorf("decode %s result: %w", name, err)
	}
	return res, nil
}

func (c *SimClient) Grasp(ctx context.Context, target state.ObjectID, arm state.Arm) (sim.Result, error) {
	return c.primitive(ctx, "grasp", map[string]any{"target": int64(target), "arm": string(arm)})
}

func (c *SimClient) Drop(ctx context.Context, target state.ObjectID, arm state.Arm) (sim.Result, error) {
	return c.primitive(ctx, "drop", map[string]any{"target": int64(target), "arm": string(arm)})
}

func (c *SimClient) ResetArm(ctx context.Context, arm state.Arm, resetTorso bool) (sim.Result, error) {
	return c.primitive(ctx, "reset_arm", map[string]any{"arm": string(arm), "reset_torso": resetTorso})
}

func (c *SimClient) ReachFor(ctx context.Context, req sim.ReachRequest) (sim.Result, error) {
	return c.primitive(ctx, "reach_for", encodeReach(req))
}

func (c *SimClient) MoveJoints(ctx context.Context, arm state.Arm, targets []state.JointTarget) (sim.Result, error) {
	return c.primitive(ctx, "move_joints", map[string]any{"arm": string(arm), "targets": encodeJoints(targets)})
}

func (c *SimClient) SetArmAngles(ctx context.Context, arm state.Arm, angles []float64) (sim.Result, error) {
	return c.primitive(ctx, "set_arm_angles", map[string]any{"arm": string(arm), "angles": floats(angles)})
}

func (c *SimClient) MoveBy(ctx context.Context, distance float64) (sim.Result, error) {
	return c.primitive(ctx, "move_by", map[string]any{"distance": distance})
}

func (c *SimClient) MoveTo(ctx context.Context, target state.Vec3) (sim.Result, error) {
	return c.primitive(ctx, "move_to", map[string]any{"target": vec(target)})
}

func (c *SimClient) TurnBy(ctx context.Context, angle float64) (sim.Result, error) {
	return c.primitive(ctx, "turn_by", map[string]any{"angle": angle})
}

func (c *SimClient) TurnTo(ctx context.Context, target state.Vec3) (sim.Result, error) {
	return c.primitive(ctx, "turn_to", map[string]any{"target": vec(target)})
}

func (c *SimClient) ResetPosition(ctx context.Context) (sim.Result, error) {
	return c.primitive(ctx, "reset_position", nil)
}

// #endregion primitives

// #region perception
// VisibleObjects returns the IDs of objects the robot's camera can see.
func (c *SimClient) VisibleObjects(ctx context.Context) ([]state.ObjectID, error) {
	resp, err := c.client.VisibleObjects(ctx, &structpb.Struct{})
	if err != nil {
		return nil, fmt.Errorf("visible objects rpc: %w", err)
	}
	ids, err := decodeIDs(resp)
	if err != nil {
		return nil, fmt.Errorf("decode visible objects: %w", err)
	}
	return ids, nil
}

// #endregion perception
