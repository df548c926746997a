package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"Nightfall/internal/session/entity"
	"Nightfall/internal/session/errs"
	"Nightfall/internal/session/infra/persistence/model"
)

const DefaultCollectionName = "session_snapshot"

const (
	OpSave   = "repo.session.mongodb.Save"
	OpLoad   = "repo.session.mongodb.Load"
	OpList   = "repo.session.mongodb.List"
	OpDelete = "repo.session.mongodb.Delete"
)

var errNilCollection = errors.New("mongodb session collection is nil")

type SessionRepository struct {
	coll *mongo.Collection
}

func NewSessionRepository(coll *mongo.Collection) *SessionRepository {
	return &SessionRepository{coll: coll}
}

// Save 只在库里的版本更旧（或不存在）时替换，版本回退的写入被静默丢弃。
func (r *SessionRepository) Save(ctx context.Context, s *entity.SessionPersistSnapshot) error {
	if s == nil {
		return nil
	}
	if r == nil || r.coll == nil {
		return errNilCollection
	}
	doc := model.SnapshotToDoc(s)
	_, err := r.coll.ReplaceOne(
		ctx,
		bson.M{"_id": doc.SessionID, "version": bson.M{"$lte": doc.Version}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// 过滤条件没命中（库里版本更高）时 upsert 会撞主键，属于预期情况。
		return nil
	}
	return errs.Wrap(OpSave, errs.KindInfra, err, map[string]any{"session_id": s.SessionID, "version": s.Version})
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*entity.SessionPersistSnapshot, error) {
	if r == nil || r.coll == nil {
		return nil, errNilCollection
	}
	var doc model.SessionDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	switch {
	case err == nil:
		return model.DocToSnapshot(doc), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, entity.ErrSessionNotFound
	default:
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"session_id": sessionID})
	}
}

func (r *SessionRepository) List(ctx context.Context) ([]*entity.SessionPersistSnapshot, error) {
	if r == nil || r.coll == nil {
		return nil, errNilCollection
	}
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errs.Wrap(OpList, errs.KindInfra, err, nil)
	}
	defer cur.Close(ctx)

	var docs []model.SessionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.Wrap(OpList, errs.KindInfra, err, nil)
	}
	out := make([]*entity.SessionPersistSnapshot, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.DocToSnapshot(d))
	}
	return out, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if r == nil || r.coll == nil {
		return errNilCollection
	}
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": sessionID})
	return errs.Wrap(OpDelete, errs.KindInfra, err, map[string]any{"session_id": sessionID})
}
