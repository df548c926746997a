package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"Nightfall/internal/shared/transport"
	"Nightfall/modules/kit/errx"
	"Nightfall/modules/kit/logx"
)

// 协议错误（ProtocolError）：以 error 信封回给调用方，连接保持打开。
const (
	CodeBadRequest       errx.Code = "GATEWAY_BAD_REQUEST"
	CodeUnknownCommand   errx.Code = "GATEWAY_UNKNOWN_COMMAND"
	CodeAlreadyInSession errx.Code = "GATEWAY_ALREADY_IN_SESSION"
	CodeNotInSession     errx.Code = "GATEWAY_NOT_IN_SESSION"
	CodeBadTicket        errx.Code = "GATEWAY_BAD_TICKET"
)

var (
	ErrBadRequest       = errx.NewBiz(CodeBadRequest, "请求格式错误")
	ErrUnknownCommand   = errx.NewBiz(CodeUnknownCommand, "未知命令")
	ErrAlreadyInSession = errx.NewBiz(CodeAlreadyInSession, "already in a session")
	ErrNotInSession     = errx.NewBiz(CodeNotInSession, "尚未加入会话")
	ErrBadTicket        = errx.NewBiz(CodeBadTicket, "重连票据无效或已过期")
)

const sysBusyMessage = "系统繁忙，请稍后重试"

// HandleError 把错误映射成 (access 业务码, 客户端错误码, 客户端消息)。
// 业务拒绝原样回给客户端；系统错误记 sys 日志，只回统一提示。
func HandleError(ctx context.Context, l logx.Logger, action string, err error) (transport.BizCode, string, string) {
	code := errx.CodeOf(err)
	transport.SetErrorReason(ctx, string(code))

	var e *errx.Error
	hasMsg := errors.As(err, &e)

	switch {
	case code == errx.CodeRateLimited:
		return transport.BizCode(transport.RateLimited), string(code), msgOf(e, hasMsg, err)
	case errx.IsBiz(err):
		biz := transport.BizCode(transport.Rejected)
		if code == CodeBadRequest || code == CodeUnknownCommand {
			biz = transport.BizCode(transport.InvalidParam)
		}
		return biz, string(code), msgOf(e, hasMsg, err)
	default:
		logx.ReportSysErrorWithLoggerContext(ctx, l, logx.NewSysLog(action, err), zap.String("client_code", string(code)))
		return transport.BizCode(transport.SystemError), string(code), sysBusyMessage
	}
}

func msgOf(e *errx.Error, ok bool, err error) string {
	if ok && e.Msg() != "" {
		return e.Msg()
	}
	return err.Error()
}
