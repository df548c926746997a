package entity

import "math"

// Resources 三种资源。生产按小时折算后会出现小数，所以用 float64。
type Resources struct {
	Food float64 `json:"food"`
	Wood float64 `json:"wood"`
	Iron float64 `json:"iron"`
}

func (r Resources) Add(o Resources) Resources {
	return Resources{Food: r.Food + o.Food, Wood: r.Wood + o.Wood, Iron: r.Iron + o.Iron}
}

func (r Resources) Sub(o Resources) Resources {
	return Resources{Food: r.Food - o.Food, Wood: r.Wood - o.Wood, Iron: r.Iron - o.Iron}
}

func (r Resources) Scale(k float64) Resources {
	return Resources{Food: r.Food * k, Wood: r.Wood * k, Iron: r.Iron * k}
}

func (r Resources) CanAfford(cost Resources) bool {
	return r.Food >= cost.Food && r.Wood >= cost.Wood && r.Iron >= cost.Iron
}

// Min 逐通道取较小值，用于仓储上限截断。
func (r Resources) Min(limit Resources) Resources {
	return Resources{
		Food: math.Min(r.Food, limit.Food),
		Wood: math.Min(r.Wood, limit.Wood),
		Iron: math.Min(r.Iron, limit.Iron),
	}
}

// Round 逐通道四舍五入（半数远离零）。
func (r Resources) Round() Resources {
	return Resources{Food: math.Round(r.Food), Wood: math.Round(r.Wood), Iron: math.Round(r.Iron)}
}

func (r Resources) IsZero() bool {
	return r.Food == 0 && r.Wood == 0 && r.Iron == 0
}

func (r Resources) Negative() bool {
	return r.Food < 0 || r.Wood < 0 || r.Iron < 0
}
