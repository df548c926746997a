package actors

import "Nightfall/modules/kit/errx"

const (
	CodeSessionNotFound errx.Code = "LOBBY_SESSION_NOT_FOUND"
	CodeWorldLoad       errx.Code = "LOBBY_WORLD_LOAD"
)

var (
	ErrSessionNotFound = errx.NewBiz(CodeSessionNotFound, "会话不存在")
	ErrWorldLoad       = errx.NewSys(CodeWorldLoad, "世界文件加载失败")
)
