package grpc

import (
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer 创建带 trace 拦截器与健康检查的 gRPC server。
func NewServer(opts ...gogrpc.ServerOption) (*gogrpc.Server, *health.Server) {
	opts = append([]gogrpc.ServerOption{
		gogrpc.ChainUnaryInterceptor(UnaryServerTraceInterceptor()),
		gogrpc.ChainStreamInterceptor(StreamServerTraceInterceptor()),
	}, opts...)
	s := gogrpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	return s, hs
}
