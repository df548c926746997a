package predict

import (
	"context"

	"Nightfall/internal/game/action"
	"Nightfall/internal/game/economy"
	"Nightfall/internal/game/entity"
)

// Predictor 维护一个客户端的预测视图，单线程使用。
// 服务端状态到达时 Reset 丢弃全部推测结果，以服务端为准。
type Predictor struct {
	exec      *action.Executor
	playerID  string
	base      *entity.GameState
	pending   []entity.Action
	predicted *entity.GameState
}

func NewPredictor(exec *action.Executor, playerID string) *Predictor {
	if exec == nil {
		exec = action.NewExecutor(nil, nil)
	}
	return &Predictor{exec: exec, playerID: playerID}
}

func (p *Predictor) PlayerID() string {
	return p.playerID
}

// Reset 以新的权威状态为基准，清空所有待确认动作。
func (p *Predictor) Reset(base *entity.GameState) {
	p.base = base
	p.pending = nil
	p.predicted = base
}

// Enqueue 把动作加入待发送列表并重新预测。返回该动作在当前预测视图上是否合法。
func (p *Predictor) Enqueue(a entity.Action) bool {
	if p.base == nil {
		return false
	}
	ok := p.exec.Validate(p.predicted, a) == nil
	p.pending = append(p.pending, a)
	progress := ProgressOf(p.predicted, p.playerID)
	p.predicted = Predict(context.Background(), p.exec, p.base, p.pending, p.playerID, progress)
	return ok
}

// Pending 返回待确认动作的副本。
func (p *Predictor) Pending() []entity.Action {
	out := make([]entity.Action, len(p.pending))
	copy(out, p.pending)
	return out
}

func (p *Predictor) Predicted() *entity.GameState {
	return p.predicted
}

// PredictedProduction 是预测视图下城市每小时产出。
func (p *Predictor) PredictedProduction(cityID string) entity.Resources {
	if p.predicted == nil {
		return entity.Resources{}
	}
	return economy.CityProduction(p.exec.Tables(), p.predicted.Cities[cityID])
}
