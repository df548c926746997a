package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Nightfall/internal/session/entity"
)

func TestSessionRepository_写入再读回(t *testing.T) {
	dir := t.TempDir()
	r, err := NewSessionRepository(dir)
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in := &entity.SessionPersistSnapshot{
		Version:   4,
		SessionID: "abcd1234",
		Status:    entity.StatusRunning,
		Turn:      12,
		State:     []byte(`{"turn":12,"game_map":null,"players":{},"cities":{}}`),
		UpdatedAt: now,
	}
	if err := r.Save(ctx, in); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "abcd1234.json")); err != nil {
		t.Fatalf("期望落盘文件存在: %v", err)
	}

	got, err := r.Load(ctx, "abcd1234")
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if got.Version != 4 || got.Turn != 12 || got.Status != entity.StatusRunning || !got.UpdatedAt.Equal(now) {
		t.Fatalf("字段不一致: %+v", got)
	}
	if string(got.State) != string(in.State) {
		t.Fatalf("state 不一致: %s", got.State)
	}

	// 旧版本被忽略
	_ = r.Save(ctx, &entity.SessionPersistSnapshot{Version: 1, SessionID: "abcd1234"})
	got, _ = r.Load(ctx, "abcd1234")
	if got.Version != 4 {
		t.Fatalf("旧版本覆盖了新版本: %d", got.Version)
	}
}

func TestSessionRepository_不存在与非法id(t *testing.T) {
	r, _ := NewSessionRepository(t.TempDir())
	ctx := context.Background()
	if _, err := r.Load(ctx, "nope"); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Fatalf("期望 ErrSessionNotFound, got=%v", err)
	}
	if err := r.Save(ctx, &entity.SessionPersistSnapshot{SessionID: "../evil"}); !errors.Is(err, ErrBadSessionID) {
		t.Fatalf("期望拒绝路径字符, got=%v", err)
	}
}

func TestSessionRepository_List跳过非json文件(t *testing.T) {
	dir := t.TempDir()
	r, _ := NewSessionRepository(dir)
	ctx := context.Background()
	_ = r.Save(ctx, &entity.SessionPersistSnapshot{Version: 1, SessionID: "s2"})
	_ = r.Save(ctx, &entity.SessionPersistSnapshot{Version: 1, SessionID: "s1"})
	_ = os.WriteFile(filepath.Join(dir, "README.txt"), []byte("x"), 0o644)

	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(list) != 2 || list[0].SessionID != "s1" {
		t.Fatalf("期望 2 条按 id 排序, got=%+v", list)
	}
	if err := r.Delete(ctx, "s1"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if err := r.Delete(ctx, "s1"); err != nil {
		t.Fatalf("重复删除不应报错: %v", err)
	}
}

func TestSessionRepository_ctx已取消不落盘(t *testing.T) {
	dir := t.TempDir()
	r, err := NewSessionRepository(dir)
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Save(ctx, &entity.SessionPersistSnapshot{Version: 1, SessionID: "s1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled, got=%v", err)
	}
	if _, err := r.Load(context.Background(), "s1"); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Fatalf("取消后不应留下文件, err=%v", err)
	}
}
