package errx

// 系统类错误码，整个进程共用。业务错误码由各包自己定义（SESSION_*、ACTION_*、GATEWAY_* 等）。

const (
	// CodeInternal 兜底的内部错误。
	CodeInternal Code = "INTERNAL_ERROR"
	// CodeUnavailable 依赖不可用：存储、连接写失败。
	CodeUnavailable Code = "SERVICE_UNAVAILABLE"
	// CodeTimeout 大厅 actor 请求或存储调用超时。
	CodeTimeout Code = "TIMEOUT"
	// CodeRateLimited 连接级限流。
	CodeRateLimited Code = "RATE_LIMITED"
	// CodeReqParamError 请求参数错误。
	CodeReqParamError Code = "CODE_REQ_PARAM_ERROR"
)

// 系统类哨兵错误，用 WithData/WithCause 派生。
var (
	ErrInternal    = NewSys(CodeInternal, "服务器内部错误")
	ErrUnavailable = NewSys(CodeUnavailable, "服务不可用")
	ErrTimeout     = NewSys(CodeTimeout, "请求超时")
	ErrRateLimited = NewSys(CodeRateLimited, "请求过于频繁")
	ErrReqParamERR = NewSys(CodeReqParamError, "请求参数错误")
)
