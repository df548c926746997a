package entity

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session snapshot not found")

// Status 会话生命周期：Created → Running → Stopped（终态）。
type Status string

const (
	StatusCreated Status = "created"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

// SessionPersistSnapshot 是一次落盘的会话快照。
// State 是 GameState 的完整序列化（与网络下发同形）；Version 单调递增，旧版本不会覆盖新版本。
type SessionPersistSnapshot struct {
	Version   uint64          `json:"version"`
	SessionID string          `json:"session_id"`
	Status    Status          `json:"status"`
	Turn      int             `json:"turn"`
	State     json.RawMessage `json:"state"`
	UpdatedAt time.Time       `json:"updated_at"`
}
