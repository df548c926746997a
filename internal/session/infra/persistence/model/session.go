package model

import (
	"time"

	"Nightfall/internal/session/entity"
)

// SessionSnapshot 是 mysql 表 session_snapshot 的一行。
type SessionSnapshot struct {
	SessionID string    `gorm:"column:session_id;type:varchar(64);comment:会话ID;primaryKey;not null;" json:"session_id"`
	Version   uint64    `gorm:"column:version;type:bigint UNSIGNED;comment:快照版本;not null;default:0;" json:"version"`
	Status    string    `gorm:"column:status;type:varchar(16);comment:created/running/stopped;not null;" json:"status"`
	Turn      int       `gorm:"column:turn;type:int;comment:tick计数;not null;default:0;" json:"turn"`
	State     string    `gorm:"column:state;type:longtext;comment:GameState JSON;not null;" json:"state"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:datetime(3);comment:更新时间;not null;" json:"updated_at"`
}

func (s *SessionSnapshot) TableName() string {
	return "session_snapshot"
}

// SessionDoc 是 mongodb 集合里的一条文档，_id 即 session_id。
type SessionDoc struct {
	SessionID string    `bson:"_id"`
	Version   uint64    `bson:"version"`
	Status    string    `bson:"status"`
	Turn      int       `bson:"turn"`
	State     string    `bson:"state"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func SnapshotToRow(s *entity.SessionPersistSnapshot) *SessionSnapshot {
	return &SessionSnapshot{
		SessionID: s.SessionID,
		Version:   s.Version,
		Status:    string(s.Status),
		Turn:      s.Turn,
		State:     string(s.State),
		UpdatedAt: s.UpdatedAt,
	}
}

func RowToSnapshot(m *SessionSnapshot) *entity.SessionPersistSnapshot {
	return &entity.SessionPersistSnapshot{
		SessionID: m.SessionID,
		Version:   m.Version,
		Status:    entity.Status(m.Status),
		Turn:      m.Turn,
		State:     []byte(m.State),
		UpdatedAt: m.UpdatedAt,
	}
}

func SnapshotToDoc(s *entity.SessionPersistSnapshot) SessionDoc {
	return SessionDoc{
		SessionID: s.SessionID,
		Version:   s.Version,
		Status:    string(s.Status),
		Turn:      s.Turn,
		State:     string(s.State),
		UpdatedAt: s.UpdatedAt,
	}
}

func DocToSnapshot(d SessionDoc) *entity.SessionPersistSnapshot {
	return &entity.SessionPersistSnapshot{
		SessionID: d.SessionID,
		Version:   d.Version,
		Status:    entity.Status(d.Status),
		Turn:      d.Turn,
		State:     []byte(d.State),
		UpdatedAt: d.UpdatedAt,
	}
}
