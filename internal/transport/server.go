package transport

import (
	"context"

	"google.golang.org/grpc"

	"github.com/bill-habermaas/grpc-registry/internal/registry"
	"github.com/bill-habermaas/grpc-registry/proto"
)

// serviceName is the gRPC full method prefix. There is no .proto file
// behind it (see the package doc comment), but it still needs to be a
// stable string: it is what ends up on the wire in every RPC's method
// name and in server reflection, if that is ever added.
const serviceName = "registry.Registry"

// RegisterRegistryServer attaches the six registry operations to srv as
// a hand-built grpc.ServiceDesc, the way generated *_grpc.pb.go code
// would, minus the codegen. grpc-go's public API (grpc.ServiceDesc,
// grpc.MethodDesc, the unary handler signature) is stable and documented;
// this file targets that API directly rather than copying a generated
// stub, since no protoc run backs this repository.
func RegisterRegistryServer(srv *grpc.Server, svc *registry.Service) {
	srv.RegisterService(&serviceDesc, svc)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*registry.Service)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authorize", Handler: authorizeHandler},
		{MethodName: "Register", Handler: registerHandler},
		{MethodName: "Deregister", Handler: deregisterHandler},
		{MethodName: "Find", Handler: findHandler},
		{MethodName: "KeepAlive", Handler: keepAliveHandler},
		{MethodName: "Report", Handler: reportHandler},
	},
	Metadata: "internal/transport/server.go",
}

func authorizeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(proto.AuthorizeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	svc := srv.(*registry.Service)
	if interceptor == nil {
		return svc.Authorize(in), nil
	}
	info := &grpc.UnaryServerInfo{Server: svc, FullMethod: fullMethod("Authorize")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return svc.Authorize(req.(*proto.AuthorizeRequest)), nil
	}
	return interceptor(ctx, in, info, handler)
}

func registerHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(proto.RegisterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	svc := srv.(*registry.Service)
	if interceptor == nil {
		return svc.Register(in), nil
	}
	info := &grpc.UnaryServerInfo{Server: svc, FullMethod: fullMethod("Register")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return svc.Register(req.(*proto.RegisterRequest)), nil
	}
	return interceptor(ctx, in, info, handler)
}

func deregisterHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(proto.DeRegisterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	svc := srv.(*registry.Service)
	if interceptor == nil {
		return svc.Deregister(in), nil
	}
	info := &grpc.UnaryServerInfo{Server: svc, FullMethod: fullMethod("Deregister")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return svc.Deregister(req.(*proto.DeRegisterRequest)), nil
	}
	return interceptor(ctx, in, info, handler)
}

func findHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(proto.FindProviderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	svc := srv.(*registry.Service)
	if interceptor == nil {
		return svc.Find(in), nil
	}
	info := &grpc.UnaryServerInfo{Server: svc, FullMethod: fullMethod("Find")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return svc.Find(req.(*proto.FindProviderRequest)), nil
	}
	return interceptor(ctx, in, info, handler)
}

func keepAliveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(proto.KeepaliveReport)
	if err := dec(in); err != nil {
		return nil, err
	}
	svc := srv.(*registry.Service)
	if interceptor == nil {
		return svc.KeepAlive(in), nil
	}
	info := &grpc.UnaryServerInfo{Server: svc, FullMethod: fullMethod("KeepAlive")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return svc.KeepAlive(req.(*proto.KeepaliveReport)), nil
	}
	return interceptor(ctx, in, info, handler)
}

func reportHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(proto.ProviderReportRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	svc := srv.(*registry.Service)
	if interceptor == nil {
		return svc.Report(in), nil
	}
	info := &grpc.UnaryServerInfo{Server: svc, FullMethod: fullMethod("Report")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return svc.Report(req.(*proto.ProviderReportRequest)), nil
	}
	return interceptor(ctx, in, info, handler)
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}
