// Package engine 是权威的时间片模拟：每个 tick 按固定顺序推进整个世界。
package engine

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"Nightfall/internal/game/action"
	"Nightfall/internal/game/economy"
	"Nightfall/internal/game/entity"
	"Nightfall/internal/game/queue"
	"Nightfall/internal/shared/gameconfig/balance"
	"Nightfall/modules/kit/errx"
	"Nightfall/modules/kit/logx"
)

type Simulator struct {
	exec   *action.Executor
	tables *balance.Tables
	log    logx.Logger
}

func NewSimulator(exec *action.Executor, l logx.Logger) *Simulator {
	if exec == nil {
		exec = action.NewExecutor(nil, l)
	}
	if l == nil {
		l = logx.NewZapLogger(nil)
	}
	return &Simulator{exec: exec, tables: exec.Tables(), log: l}
}

func (s *Simulator) Executor() *action.Executor {
	return s.exec
}

// SimulateTimeSlice 推进 dt 秒：
//  1. 按玩家 id 顺序 FIFO 执行入站动作，失败的丢弃
//  2. 推进建造队列
//  3. 按 dt/3600 累加产出，截断到仓储上限
//  4. 推进招募
//  5. turn++
//
// 返回本次是否有可观察的变化（单纯 turn++ 不算）。
func (s *Simulator) SimulateTimeSlice(ctx context.Context, st *entity.GameState, dt float64) bool {
	changed := false

	for _, pid := range sortedKeys(st.Players) {
		p := st.Players[pid]
		pending := p.ActionQueue
		p.ActionQueue = nil
		for _, a := range pending {
			if s.safeExecute(ctx, st, a) {
				changed = true
			}
		}
	}

	for _, cid := range sortedKeys(st.Cities) {
		if s.safeAdvanceCity(ctx, st.Cities[cid], dt) {
			changed = true
		}
	}

	st.Turn++
	return changed
}

func (s *Simulator) safeExecute(ctx context.Context, st *entity.GameState, a entity.Action) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.reportPanic(ctx, "engine.execute", r, zap.String("player_id", a.PlayerID), zap.String("city_id", a.CityID))
			ok = false
		}
	}()
	return s.exec.Execute(ctx, st, a)
}

// safeAdvanceCity 单城出错不影响其他城市。
func (s *Simulator) safeAdvanceCity(ctx context.Context, c *entity.City, dt float64) (changed bool) {
	defer func() {
		if r := recover(); r != nil {
			s.reportPanic(ctx, "engine.advance_city", r, zap.String("city_id", c.ID))
		}
	}()
	return s.advanceCity(ctx, c, dt)
}

func (s *Simulator) advanceCity(ctx context.Context, c *entity.City, dt float64) bool {
	changed := false

	if len(c.BuildQueue) > 0 {
		changed = true
		for _, a := range queue.Advance(s.tables, c, dt) {
			s.log.WithContext(ctx).Debug("build completed",
				zap.String("city_id", c.ID),
				zap.String("action_type", string(a.Kind)),
				zap.String("position", a.Position.String()),
			)
		}
	}

	before := c.Resources
	produced := economy.CityProduction(s.tables, c).Scale(dt / 3600)
	c.Resources = c.Resources.Add(produced).Min(c.MaxResources)
	if c.Resources != before {
		changed = true
	}

	if len(c.RecruitmentQueue) > 0 {
		changed = true
		if n := queue.AdvanceRecruitment(s.tables, c, dt); n > 0 {
			s.log.WithContext(ctx).Debug("units trained", zap.String("city_id", c.ID), zap.Int("count", n))
		}
	}
	return changed
}

func (s *Simulator) reportPanic(ctx context.Context, action string, r any, fields ...zap.Field) {
	err := errx.ErrInternal.WithCause(fmt.Errorf("panic: %v", r))
	logx.ReportSysErrorWithLoggerContext(ctx, s.log, logx.NewSysLog(action, err), fields...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
