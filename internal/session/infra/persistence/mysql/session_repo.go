package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Nightfall/internal/session/entity"
	"Nightfall/internal/session/errs"
	"Nightfall/internal/session/infra/persistence/model"
)

const (
	OpMigrate = "repo.session.mysql.Migrate"
	OpSave    = "repo.session.mysql.Save"
	OpLoad    = "repo.session.mysql.Load"
	OpList    = "repo.session.mysql.List"
	OpDelete  = "repo.session.mysql.Delete"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) WithTx(tx *gorm.DB) *SessionRepository {
	return &SessionRepository{db: tx}
}

// Migrate 建表（已存在则补列）。
func (r *SessionRepository) Migrate(ctx context.Context) error {
	return errs.Wrap(OpMigrate, errs.KindInfra, r.db.WithContext(ctx).AutoMigrate(&model.SessionSnapshot{}), nil)
}

// Save 是带版本条件的 upsert：冲突时只有新版本更高才覆盖各列。
func (r *SessionRepository) Save(ctx context.Context, s *entity.SessionPersistSnapshot) error {
	if s == nil {
		return nil
	}
	m := model.SnapshotToRow(s)
	assign := func(col string) clause.Assignment {
		return clause.Assignment{
			Column: clause.Column{Name: col},
			Value:  gorm.Expr("IF(VALUES(version) >= version, VALUES(" + col + "), " + col + ")"),
		}
	}
	// version 必须最后更新，否则前面各列的条件会读到新值
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.Set{
			assign("status"),
			assign("turn"),
			assign("state"),
			assign("updated_at"),
			assign("version"),
		},
	}).Create(m).Error
	if err != nil {
		return errs.Wrap(OpSave, errs.KindInfra, err, map[string]any{"session_id": s.SessionID, "version": s.Version})
	}
	return nil
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*entity.SessionPersistSnapshot, error) {
	var m model.SessionSnapshot
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&m).Error
	switch {
	case err == nil:
		return model.RowToSnapshot(&m), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, entity.ErrSessionNotFound
	default:
		//  纯技术错误（连接超时等），保持原样包装返回给上级
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"session_id": sessionID})
	}
}

func (r *SessionRepository) List(ctx context.Context) ([]*entity.SessionPersistSnapshot, error) {
	var rows []model.SessionSnapshot
	if err := r.db.WithContext(ctx).Order("session_id").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(OpList, errs.KindInfra, err, nil)
	}
	out := make([]*entity.SessionPersistSnapshot, 0, len(rows))
	for i := range rows {
		out = append(out, model.RowToSnapshot(&rows[i]))
	}
	return out, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.SessionSnapshot{}).Error
	return errs.Wrap(OpDelete, errs.KindInfra, err, map[string]any{"session_id": sessionID})
}
