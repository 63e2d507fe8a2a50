package subnetgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

const serviceName = "github.com/blockberries/subnet.v1.SubnetService"

// SubnetServiceServer is the server-side interface for the subnet
// gRPC service.
type SubnetServiceServer interface {
	SubmitTx(context.Context, *SubmitTxRequest) (*SubmitTxResponse, error)
	Simulate(context.Context, *SimulateRequest) (*SimulateResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	Ops(context.Context, *OpsRequest) (*OpsResponse, error)
}

// RegisterSubnetServiceServer registers the SubnetServiceServer on a
// gRPC server.
func RegisterSubnetServiceServer(s *grpc.Server, srv SubnetServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// --- Handler functions ---

func handlerSubmitTx(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(SubmitTxRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(SubnetServiceServer).SubmitTx(ctx, req)
}

func handlerSimulate(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(SimulateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(SubnetServiceServer).Simulate(ctx, req)
}

func handlerGet(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(SubnetServiceServer).Get(ctx, req)
}

func handlerOps(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(OpsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(SubnetServiceServer).Ops(ctx, req)
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// serviceDesc is the manual gRPC service descriptor for the subnet
// facade.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SubnetServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitTx", Handler: handlerSubmitTx},
		{MethodName: "Simulate", Handler: handlerSimulate},
		{MethodName: "Get", Handler: handlerGet},
		{MethodName: "Ops", Handler: handlerOps},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "github.com/blockberries/subnet/v1/service.cram",
}
