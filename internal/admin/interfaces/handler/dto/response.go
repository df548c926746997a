package dto

// Response 是管理 HTTP 接口的统一响应体，access 日志中间件从 code 字段取业务码。
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

func Success(code int, data any) Response {
	return Response{Code: code, Data: data}
}

func Error(code int, msg string) Response {
	return Response{Code: code, Msg: msg}
}

type FlushResp struct {
	SessionID string `json:"session_id"`
	Version   uint64 `json:"version"`
}
