package port

import (
	"context"

	"Nightfall/internal/session/entity"
)

// SessionRepository 会话快照存储。Load 找不到返回 entity.ErrSessionNotFound。
type SessionRepository interface {
	Save(ctx context.Context, s *entity.SessionPersistSnapshot) error
	Load(ctx context.Context, sessionID string) (*entity.SessionPersistSnapshot, error)
	List(ctx context.Context) ([]*entity.SessionPersistSnapshot, error)
	Delete(ctx context.Context, sessionID string) error
}
