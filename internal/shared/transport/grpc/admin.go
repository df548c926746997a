package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// 管理服务只有查询接口，消息直接用 well-known types，不需要生成代码。
const (
	AdminServiceName       = "nightfall.admin.SessionAdmin"
	ListSessionsFullMethod = "/" + AdminServiceName + "/ListSessions"
	GetSessionFullMethod   = "/" + AdminServiceName + "/GetSession"
)

type AdminServer interface {
	ListSessions(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	// GetSession 入参 {"session_id": "..."}。
	GetSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

func RegisterAdminServer(s gogrpc.ServiceRegistrar, srv AdminServer) {
	s.RegisterService(&AdminServiceDesc, srv)
}

var AdminServiceDesc = gogrpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "ListSessions", Handler: listSessionsHandler},
		{MethodName: "GetSession", Handler: getSessionHandler},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "nightfall/admin.proto",
}

func listSessionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).ListSessions(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: ListSessionsFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServer).ListSessions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).GetSession(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: GetSessionFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServer).GetSession(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// AdminClient 是手写的 typed client。
type AdminClient struct {
	cc gogrpc.ClientConnInterface
}

func NewAdminClient(cc gogrpc.ClientConnInterface) *AdminClient {
	return &AdminClient{cc: cc}
}

func (c *AdminClient) ListSessions(ctx context.Context, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListSessionsFullMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminClient) GetSession(ctx context.Context, sessionID string, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetSessionFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
