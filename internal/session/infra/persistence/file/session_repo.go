package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"Nightfall/internal/session/entity"
	"Nightfall/internal/session/errs"
)

const (
	OpSave   = "repo.session.file.Save"
	OpLoad   = "repo.session.file.Load"
	OpList   = "repo.session.file.List"
	OpDelete = "repo.session.file.Delete"

	ext = ".json"
)

var ErrBadSessionID = errors.New("session id contains path characters")

// SessionRepository 每个会话一个 JSON 文件：<dir>/<session_id>.json，先写临时文件再 rename。
type SessionRepository struct {
	dir string
	mu  sync.Mutex
}

func NewSessionRepository(dir string) (*SessionRepository, error) {
	if dir == "" {
		dir = "data/sessions"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap("repo.session.file.New", errs.KindInfra, err, map[string]any{"dir": dir})
	}
	return &SessionRepository{dir: dir}, nil
}

func (r *SessionRepository) Dir() string {
	return r.dir
}

func (r *SessionRepository) Save(ctx context.Context, s *entity.SessionPersistSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	path, err := r.path(s.SessionID)
	if err != nil {
		return errs.Wrap(OpSave, errs.KindBusiness, err, map[string]any{"session_id": s.SessionID})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, err := readSnapshot(path); err == nil && old.Version > s.Version {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return errs.Wrap(OpSave, errs.KindUnknown, err, map[string]any{"session_id": s.SessionID})
	}
	tmp, err := os.CreateTemp(r.dir, s.SessionID+".*.tmp")
	if err != nil {
		return errs.Wrap(OpSave, errs.KindInfra, err, map[string]any{"session_id": s.SessionID})
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errs.Wrap(OpSave, errs.KindInfra, err, map[string]any{"session_id": s.SessionID})
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errs.Wrap(OpSave, errs.KindInfra, err, map[string]any{"session_id": s.SessionID})
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return errs.Wrap(OpSave, errs.KindInfra, err, map[string]any{"session_id": s.SessionID})
	}
	return nil
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*entity.SessionPersistSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := r.path(sessionID)
	if err != nil {
		return nil, errs.Wrap(OpLoad, errs.KindBusiness, err, map[string]any{"session_id": sessionID})
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := readSnapshot(path)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, entity.ErrSessionNotFound
	default:
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"session_id": sessionID})
	}
}

func (r *SessionRepository) List(ctx context.Context) ([]*entity.SessionPersistSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, errs.Wrap(OpList, errs.KindInfra, err, map[string]any{"dir": r.dir})
	}
	out := make([]*entity.SessionPersistSnapshot, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext {
			continue
		}
		s, err := readSnapshot(filepath.Join(r.dir, e.Name()))
		if err != nil {
			return nil, errs.Wrap(OpList, errs.KindInfra, err, map[string]any{"file": e.Name()})
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := r.path(sessionID)
	if err != nil {
		return errs.Wrap(OpDelete, errs.KindBusiness, err, map[string]any{"session_id": sessionID})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.Wrap(OpDelete, errs.KindInfra, err, map[string]any{"session_id": sessionID})
	}
	return nil
}

func (r *SessionRepository) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\.`) {
		return "", fmt.Errorf("%w: %q", ErrBadSessionID, sessionID)
	}
	return filepath.Join(r.dir, sessionID+ext), nil
}

func readSnapshot(path string) (*entity.SessionPersistSnapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s entity.SessionPersistSnapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
