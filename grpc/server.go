package subnetgrpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/blockberries/subnet/node"
)

// Compile-time interface check.
var _ SubnetServiceServer = (*GRPCServer)(nil)

// GRPCServer wraps a subnet node as a gRPC server. No type
// conversion is needed: domain types are serialized directly via
// cramberry.
type GRPCServer struct {
	node *node.Node
}

// NewGRPCServer creates a gRPC server wrapping the given node.
func NewGRPCServer(n *node.Node) *GRPCServer {
	return &GRPCServer{node: n}
}

// Register adds the subnet service to a gRPC server.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterSubnetServiceServer(gs, s)
}

// Serve starts the gRPC server on the given listener.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs.Serve(lis)
}

func (s *GRPCServer) SubmitTx(ctx context.Context, req *SubmitTxRequest) (*SubmitTxResponse, error) {
	if err := s.node.SubmitTx(ctx, &req.Submission); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &SubmitTxResponse{}, nil
}

func (s *GRPCServer) Simulate(ctx context.Context, req *SimulateRequest) (*SimulateResponse, error) {
	rec, reason, err := s.node.Simulate(ctx, &req.Submission)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &SimulateResponse{Record: rec, DropReason: reason}, nil
}

func (s *GRPCServer) Get(ctx context.Context, req *GetRequest) (*GetResponse, error) {
	v, ok, err := s.node.Get(ctx, req.Key, req.Horizon)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &GetResponse{Value: v, Found: ok}, nil
}

func (s *GRPCServer) Ops(ctx context.Context, _ *OpsRequest) (*OpsResponse, error) {
	regs := s.node.Ops()
	out := make([]OpDescriptor, 0, len(regs))
	for _, r := range regs {
		out = append(out, OpDescriptor{Type: r.Type, Schema: r.Schema, Feature: r.Feature})
	}
	return &OpsResponse{Ops: out}, nil
}
