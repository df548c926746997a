package memory

import (
	"context"
	"errors"
	"testing"

	"Nightfall/internal/session/entity"
)

func TestSessionRepository_旧版本不覆盖新版本(t *testing.T) {
	r := NewSessionRepository()
	ctx := context.Background()
	_ = r.Save(ctx, &entity.SessionPersistSnapshot{SessionID: "s1", Version: 3, State: []byte(`{"turn":3}`)})
	_ = r.Save(ctx, &entity.SessionPersistSnapshot{SessionID: "s1", Version: 2, State: []byte(`{"turn":2}`)})

	got, err := r.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if got.Version != 3 || string(got.State) != `{"turn":3}` {
		t.Fatalf("期望保留 version=3, got=%+v", got)
	}

	got.State[0] = 'X'
	again, _ := r.Load(ctx, "s1")
	if string(again.State) != `{"turn":3}` {
		t.Fatalf("返回值被外部修改影响了存储")
	}
}

func TestSessionRepository_List与Delete(t *testing.T) {
	r := NewSessionRepository()
	ctx := context.Background()
	_ = r.Save(ctx, &entity.SessionPersistSnapshot{SessionID: "b", Version: 1})
	_ = r.Save(ctx, &entity.SessionPersistSnapshot{SessionID: "a", Version: 1})

	list, _ := r.List(ctx)
	if len(list) != 2 || list[0].SessionID != "a" || list[1].SessionID != "b" {
		t.Fatalf("期望按 id 排序的 2 条, got=%+v", list)
	}
	_ = r.Delete(ctx, "a")
	if _, err := r.Load(ctx, "a"); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Fatalf("期望 ErrSessionNotFound, got=%v", err)
	}
}
