package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"Nightfall/modules/kit/tracex"
)

// 运维工具调用 admin 接口时可带上这两个 header，日志里就能串起来。
const (
	traceIDHeader = "x-trace-id"
	spanIDHeader  = "x-span-id"
)

// UnaryServerTraceInterceptor 为服务端 unary 请求自动提取 trace/span。
func UnaryServerTraceInterceptor() gogrpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *gogrpc.UnaryServerInfo,
		handler gogrpc.UnaryHandler,
	) (any, error) {
		return handler(extractTraceFromIncoming(ctx), req)
	}
}

// StreamServerTraceInterceptor 为服务端 stream 请求自动提取 trace/span。
func StreamServerTraceInterceptor() gogrpc.StreamServerInterceptor {
	return func(
		srv any,
		ss gogrpc.ServerStream,
		info *gogrpc.StreamServerInfo,
		handler gogrpc.StreamHandler,
	) error {
		ctx := extractTraceFromIncoming(ss.Context())
		return handler(srv, &wrappedServerStream{
			ServerStream: ss,
			ctx:          ctx,
		})
	}
}

type wrappedServerStream struct {
	gogrpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

func extractTraceFromIncoming(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	if values := md.Get(traceIDHeader); len(values) > 0 && values[0] != "" {
		ctx = tracex.WithTraceID(ctx, values[0])
	}
	if values := md.Get(spanIDHeader); len(values) > 0 && values[0] != "" {
		ctx = tracex.WithSpanID(ctx, values[0])
	}
	return ctx
}
