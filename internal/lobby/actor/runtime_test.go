package actor

import (
	"context"
	"testing"
	"time"

	"Nightfall/internal/game/action"
	"Nightfall/internal/game/engine"
	gentity "Nightfall/internal/game/entity"
	"Nightfall/internal/game/worldfile"
	"Nightfall/internal/lobby/actors"
	"Nightfall/internal/session/app/port"
	sentity "Nightfall/internal/session/entity"
	"Nightfall/internal/session/infra/persistence/memory"
	"Nightfall/internal/shared/gameconfig/balance"
	"Nightfall/modules/kit/errx"
)

const worldPath = "../../../configs/world.json"

func newDeps(repo port.SessionRepository) actors.Deps {
	tables := balance.Default()
	seq := 0
	return actors.Deps{
		Repo:         repo,
		Simulator:    engine.NewSimulator(action.NewExecutor(tables, nil), nil),
		NewState:     func() (*gentity.GameState, error) { return worldfile.Load(worldPath, tables) },
		TickInterval: time.Hour,
		FlushEvery:   time.Hour,
		NewID: func() string {
			seq++
			return "sess000" + string(rune('0'+seq))
		},
	}
}

func TestRuntime_建局查局列表(t *testing.T) {
	rt := NewRuntime(newDeps(nil), time.Second)
	defer rt.Shutdown()
	ctx := context.Background()

	coord, err := rt.CreateSession(ctx)
	if err != nil {
		t.Fatalf("建局失败: %v", err)
	}
	if coord.ID() != "sess0001" {
		t.Fatalf("期望使用注入的 id, got=%s", coord.ID())
	}
	got, err := rt.GetSession(ctx, coord.ID())
	if err != nil || got != coord {
		t.Fatalf("查局应返回同一个 Coordinator, err=%v", err)
	}
	if _, err := rt.GetSession(ctx, "missing"); errx.CodeOf(err) != actors.CodeSessionNotFound {
		t.Fatalf("期望 %s, got=%v", actors.CodeSessionNotFound, err)
	}

	_, _ = rt.CreateSession(ctx)
	list, err := rt.ListSessions(ctx)
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if len(list) != 2 || list[0].SessionID != "sess0001" || list[1].SessionID != "sess0002" {
		t.Fatalf("列表不对: %+v", list)
	}
	if len(list[0].Players) != 2 || list[0].Status != string(sentity.StatusCreated) {
		t.Fatalf("会话信息不对: %+v", list[0])
	}
}

func TestRuntime_停局落盘并移除(t *testing.T) {
	repo := memory.NewSessionRepository()
	rt := NewRuntime(newDeps(repo), time.Second)
	defer rt.Shutdown()
	ctx := context.Background()

	coord, _ := rt.CreateSession(ctx)
	if err := rt.StopSession(ctx, coord.ID()); err != nil {
		t.Fatalf("停局失败: %v", err)
	}
	snap, err := repo.Load(ctx, coord.ID())
	if err != nil {
		t.Fatalf("停局后应已落盘: %v", err)
	}
	if snap.Status != sentity.StatusStopped {
		t.Fatalf("落盘状态应为 stopped, got=%s", snap.Status)
	}
	if _, err := rt.GetSession(ctx, coord.ID()); errx.CodeOf(err) != actors.CodeSessionNotFound {
		t.Fatalf("停局后应查不到, got=%v", err)
	}
	if err := rt.StopSession(ctx, coord.ID()); errx.CodeOf(err) != actors.CodeSessionNotFound {
		t.Fatalf("重复停局应报不存在, got=%v", err)
	}
}

func TestRuntime_启动时从存档恢复(t *testing.T) {
	repo := memory.NewSessionRepository()
	ctx := context.Background()

	first := NewRuntime(newDeps(repo), time.Second)
	coord, _ := first.CreateSession(ctx)
	coord.Tick(ctx, 1)
	id := coord.ID()
	first.Shutdown()

	saved, err := repo.Load(ctx, id)
	if err != nil {
		t.Fatalf("Shutdown 应把会话落盘: %v", err)
	}

	second := NewRuntime(newDeps(repo), time.Second)
	defer second.Shutdown()
	restored, err := second.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("重启后应能查到会话: %v", err)
	}
	if restored.Status() != sentity.StatusCreated {
		t.Fatalf("恢复的会话应为 created, got=%s", restored.Status())
	}
	raw, _ := restored.Snapshot()
	if string(raw) != string(saved.State) {
		t.Fatalf("恢复的状态与存档不一致")
	}
}

func TestRuntime_手动落盘返回版本(t *testing.T) {
	repo := memory.NewSessionRepository()
	rt := NewRuntime(newDeps(repo), time.Second)
	defer rt.Shutdown()
	ctx := context.Background()

	coord, _ := rt.CreateSession(ctx)
	v, err := rt.FlushSession(ctx, coord.ID())
	if err != nil || v != 1 {
		t.Fatalf("期望版本 1, v=%d err=%v", v, err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if s, err := repo.Load(ctx, coord.ID()); err == nil && s.Version == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("2s 内未落盘")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
