package app

import (
	"context"
	"encoding/json"
	"strings"

	"Nightfall/internal/gateway/protocol"
	"Nightfall/modules/kit/errx"
)

// AdminService 是运维视角的会话操作：查看、导出状态、手动落盘、停止。
type AdminService struct {
	lobby Lobby
}

func NewAdminService(lobby Lobby) *AdminService {
	return &AdminService{lobby: lobby}
}

func (s *AdminService) ListSessions(ctx context.Context) ([]protocol.SessionInfo, error) {
	return s.lobby.ListSessions(ctx)
}

func (s *AdminService) CreateSession(ctx context.Context) (protocol.SessionInfo, error) {
	coord, err := s.lobby.CreateSession(ctx)
	if err != nil {
		return protocol.SessionInfo{}, err
	}
	return coord.Info(), nil
}

func (s *AdminService) GetSession(ctx context.Context, sessionID string) (protocol.SessionInfo, error) {
	if err := checkID(sessionID); err != nil {
		return protocol.SessionInfo{}, err
	}
	coord, err := s.lobby.GetSession(ctx, sessionID)
	if err != nil {
		return protocol.SessionInfo{}, err
	}
	return coord.Info(), nil
}

// SessionState 导出锁内序列化的完整 GameState。
func (s *AdminService) SessionState(ctx context.Context, sessionID string) (json.RawMessage, error) {
	if err := checkID(sessionID); err != nil {
		return nil, err
	}
	coord, err := s.lobby.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	raw, err := coord.Snapshot()
	if err != nil {
		return nil, errx.ErrInternal.WithCause(err)
	}
	return raw, nil
}

func (s *AdminService) FlushSession(ctx context.Context, sessionID string) (uint64, error) {
	if err := checkID(sessionID); err != nil {
		return 0, err
	}
	return s.lobby.FlushSession(ctx, sessionID)
}

func (s *AdminService) StopSession(ctx context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	return s.lobby.StopSession(ctx, sessionID)
}

func checkID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return errx.ErrReqParamERR.WithData("session_id", sessionID)
	}
	return nil
}
