package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "taskhub.v1.AuthService"

// AuthServiceServer is the server API of taskhub.v1.AuthService. Messages
// are protobuf well-known types so no generated code is needed.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Logout(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Me(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListUsers(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	UpdateUserRole(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LogoutUserEverywhere(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// FullMethod returns the gRPC path of a method of the service.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }
func newEmpty() *emptypb.Empty    { return &emptypb.Empty{} }

func unary[Req, Resp proto.Message](method string, newReq func() Req, call func(AuthServiceServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			h := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServiceServer), ctx, req.(Req))
			}
			if interceptor == nil {
				return h(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, h)
		},
	}
}

// AuthServiceDesc describes taskhub.v1.AuthService for grpc.Server.RegisterService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", newStruct, AuthServiceServer.Register),
		unary("Login", newStruct, AuthServiceServer.Login),
		unary("Refresh", newEmpty, AuthServiceServer.Refresh),
		unary("Logout", newEmpty, AuthServiceServer.Logout),
		unary("Me", newEmpty, AuthServiceServer.Me),
		unary("ListUsers", newEmpty, AuthServiceServer.ListUsers),
		unary("UpdateUserRole", newStruct, AuthServiceServer.UpdateUserRole),
		unary("LogoutUserEverywhere", newStruct, AuthServiceServer.LogoutUserEverywhere),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskhub/v1/auth.proto",
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}
