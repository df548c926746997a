package app

import (
	"context"

	"Nightfall/internal/gateway/protocol"
	"Nightfall/internal/session"
)

// Lobby 是网关看到的大厅：建局、查局、列表。由 lobby/actor.Runtime 实现。
type Lobby interface {
	CreateSession(ctx context.Context) (*session.Coordinator, error)
	GetSession(ctx context.Context, sessionID string) (*session.Coordinator, error)
	ListSessions(ctx context.Context) ([]protocol.SessionInfo, error)
}
