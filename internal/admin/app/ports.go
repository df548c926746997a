package app

import (
	"context"

	"Nightfall/internal/gateway/protocol"
	"Nightfall/internal/session"
)

// Lobby 是管理接口依赖的大厅能力，由 lobby/actor.Runtime 实现。
type Lobby interface {
	CreateSession(ctx context.Context) (*session.Coordinator, error)
	GetSession(ctx context.Context, sessionID string) (*session.Coordinator, error)
	ListSessions(ctx context.Context) ([]protocol.SessionInfo, error)
	FlushSession(ctx context.Context, sessionID string) (uint64, error)
	StopSession(ctx context.Context, sessionID string) error
}
