package queue

import "Nightfall/modules/kit/errx"

const (
	CodeIndexOutOfRange errx.Code = "QUEUE_INDEX_OUT_OF_RANGE"
	CodeBadDirection    errx.Code = "QUEUE_BAD_DIRECTION"
	CodeHeadLocked      errx.Code = "QUEUE_HEAD_LOCKED"
)

var (
	ErrIndexOutOfRange = errx.NewBiz(CodeIndexOutOfRange, "队列下标越界")
	ErrBadDirection    = errx.NewBiz(CodeBadDirection, "方向只能是 up 或 down")
	ErrHeadLocked      = errx.NewBiz(CodeHeadLocked, "队首正在施工，不能调整顺序")
)
