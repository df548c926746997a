package session

import "Nightfall/modules/kit/errx"

// 会话层的协议错误：通过 error 信封回给调用方，连接保持打开。
const (
	CodeSessionStopped errx.Code = "SESSION_STOPPED"
	CodeUnknownPlayer  errx.Code = "SESSION_UNKNOWN_PLAYER"
	CodePlayerMismatch errx.Code = "SESSION_PLAYER_MISMATCH"
	CodeCityNotOwned   errx.Code = "SESSION_CITY_NOT_OWNED"
	CodeBadQueue       errx.Code = "SESSION_BAD_QUEUE"
	CodeBadAction      errx.Code = "SESSION_BAD_ACTION"
	CodeReplaced       errx.Code = "SESSION_REPLACED"
)

var (
	ErrSessionStopped = errx.NewBiz(CodeSessionStopped, "会话已停止")
	ErrUnknownPlayer  = errx.NewBiz(CodeUnknownPlayer, "玩家不在该会话中")
	ErrPlayerMismatch = errx.NewBiz(CodePlayerMismatch, "动作的 player_id 与当前玩家不一致")
	ErrCityNotOwned   = errx.NewBiz(CodeCityNotOwned, "城市不存在或不属于该玩家")
	ErrBadQueue       = errx.NewBiz(CodeBadQueue, "队列只能是 build 或 recruitment")
	ErrBadAction      = errx.NewBiz(CodeBadAction, "未知动作类型")
	ErrReplaced       = errx.NewBiz(CodeReplaced, "该玩家已在别处连接")
)
