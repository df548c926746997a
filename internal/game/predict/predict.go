// Package predict 在客户端复用服务端的 Executor 做乐观预测。
package predict

import (
	"context"

	"Nightfall/internal/game/action"
	"Nightfall/internal/game/entity"
)

// ProgressMap 按 (kind, city_id, position) 记录建造进度，用于预测重放后恢复进度。
type ProgressMap map[entity.ProgressKey]float64

// ProgressOf 收集玩家名下所有城市建造队列的进度。
func ProgressOf(st *entity.GameState, playerID string) ProgressMap {
	out := ProgressMap{}
	if st == nil {
		return out
	}
	for _, c := range st.Cities {
		if c == nil || c.OwnerID != playerID {
			continue
		}
		for _, a := range c.BuildQueue {
			out[a.Key()] = a.Progress
		}
	}
	return out
}

// Predict 在 base 的作用域副本上依次执行 actions，然后恢复进度。
// 失败的动作不影响后面的动作；base 本身不会被修改。
func Predict(ctx context.Context, exec *action.Executor, base *entity.GameState, actions []entity.Action, playerID string, progress ProgressMap) *entity.GameState {
	st := base.CloneScoped(playerID)
	if st == nil {
		return nil
	}
	for _, a := range actions {
		exec.Execute(ctx, st, a)
	}
	if len(progress) == 0 {
		return st
	}
	for _, c := range st.Cities {
		if c == nil || c.OwnerID != playerID {
			continue
		}
		for i := range c.BuildQueue {
			if p, ok := progress[c.BuildQueue[i].Key()]; ok {
				c.BuildQueue[i].Progress = p
			}
		}
	}
	return st
}
