package messages

import (
	"Nightfall/internal/gateway/protocol"
	"Nightfall/internal/session"
)

// FailResp 是 actor 请求失败的统一回复，Code 对应 errx 错误码，Sys 区分系统错误。
type FailResp struct {
	Code    string
	Message string
	Sys     bool
}

type SessionMessage interface {
	SessionID() string
}

type SessionBaseMessage struct {
	ID string
}

func (m SessionBaseMessage) SessionID() string {
	return m.ID
}

type CreateSession struct{}

type CreateSessionResp struct {
	Coordinator *session.Coordinator
}

type GetSession struct {
	SessionBaseMessage
}

type GetSessionResp struct {
	Coordinator *session.Coordinator
}

type ListSessions struct{}

type ListSessionsResp struct {
	Sessions []protocol.SessionInfo
}

// FlushSession 立即把会话快照交给写回器。
type FlushSession struct {
	SessionBaseMessage
}

type FlushSessionResp struct {
	Version uint64
}

// StopSession 停止会话并做最后一次落盘，之后该会话从大厅移除。
type StopSession struct {
	SessionBaseMessage
}

type StopSessionResp struct{}
