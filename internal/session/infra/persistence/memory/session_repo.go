package memory

import (
	"context"
	"sort"
	"sync"

	"Nightfall/internal/session/entity"
)

// SessionRepository 进程内存储，重启即丢；单测与 driver=memory 使用。
type SessionRepository struct {
	mu    sync.RWMutex
	items map[string]*entity.SessionPersistSnapshot
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{items: make(map[string]*entity.SessionPersistSnapshot)}
}

func (r *SessionRepository) Save(ctx context.Context, s *entity.SessionPersistSnapshot) error {
	if s == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.items[s.SessionID]; ok && old.Version > s.Version {
		return nil
	}
	r.items[s.SessionID] = clone(s)
	return nil
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*entity.SessionPersistSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[sessionID]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return clone(s), nil
}

func (r *SessionRepository) List(ctx context.Context) ([]*entity.SessionPersistSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.SessionPersistSnapshot, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, clone(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, sessionID)
	return nil
}

func clone(s *entity.SessionPersistSnapshot) *entity.SessionPersistSnapshot {
	out := *s
	if s.State != nil {
		out.State = append([]byte(nil), s.State...)
	}
	return &out
}
