package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	lobbyactor "Nightfall/internal/lobby/actor"
	"Nightfall/internal/lobby/actors"
	"Nightfall/internal/shared/transport"
	"Nightfall/modules/kit/errx"
)

func toRPCError(err error) error {
	switch {
	case errors.Is(err, actors.ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, errx.ErrReqParamERR):
		return status.Error(codes.InvalidArgument, err.Error())
	case lobbyactor.IsTimeout(err), errors.Is(err, errx.ErrTimeout):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errx.IsBiz(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// HandleError 返回 (业务码, 对外消息)，并把错误码记进 access 日志。
func HandleError(ctx context.Context, err error) (int, string) {
	transport.SetErrorReason(ctx, string(errx.CodeOf(err)))

	switch {
	case errors.Is(err, actors.ErrSessionNotFound):
		return transport.Rejected, "会话不存在"
	case errors.Is(err, errx.ErrReqParamERR):
		return transport.InvalidParam, "参数有误"
	case errx.IsBiz(err):
		var e *errx.Error
		if errors.As(err, &e) {
			return transport.Rejected, e.Msg()
		}
		return transport.Rejected, err.Error()
	default:
		return lobbyactor.CodeFromError(err), "系统繁忙，请稍后重试"
	}
}
