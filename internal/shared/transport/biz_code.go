package transport

// BizCode 表示业务码的强类型封装，用于在日志上下文中减少误传风险。
// 0 成功；1~499 调用方问题（WARN）；>=500 服务端问题（ERROR）。
type BizCode int

const (
	OK           = 0
	InvalidParam = 400
	Rejected     = 409
	RateLimited  = 429
	SystemError  = 500
)
