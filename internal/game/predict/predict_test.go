package predict

import (
	"context"
	"reflect"
	"testing"

	"Nightfall/internal/game/action"
	"Nightfall/internal/game/economy"
	"Nightfall/internal/game/engine"
	"Nightfall/internal/game/entity"
	"Nightfall/internal/shared/gameconfig/balance"
)

func baseState() *entity.GameState {
	mk := func(id, owner string) *entity.City {
		cm := entity.NewCityMap(4, 4)
		for x := 0; x < 4; x++ {
			for y := 0; y < 4; y++ {
				cm.Tiles[x][y].Terrain = entity.CityTerrainGrass
			}
		}
		cm.Tiles[3][3].Building = &entity.Building{Type: entity.BuildingCitadel, Level: 1}
		c := &entity.City{ID: id, OwnerID: owner, CityMap: cm, Resources: entity.Resources{Food: 500, Wood: 500, Iron: 300}}
		economy.RecomputeDerived(balance.Default(), c)
		return c
	}
	return &entity.GameState{
		Players: map[string]*entity.Player{
			"p1": {ID: "p1", CityIDs: []string{"c1"}},
			"p2": {ID: "p2", CityIDs: []string{"c2"}},
		},
		Cities: map[string]*entity.City{"c1": mk("c1", "p1"), "c2": mk("c2", "p2")},
	}
}

func orders() []entity.Action {
	return []entity.Action{
		entity.NewBuild("p1", "c1", entity.Position{X: 0, Y: 0}, entity.BuildingFarm),
		entity.NewBuild("p1", "c1", entity.Position{X: 0, Y: 0}, entity.BuildingLumberMill), // 同地块，失败
		entity.NewRecruit("p1", "c1", entity.UnitSwordsman, 2),
		entity.NewBuild("p1", "c2", entity.Position{X: 0, Y: 0}, entity.BuildingFarm), // 别人的城，失败
		entity.NewUpgrade("p1", "c1", entity.Position{X: 3, Y: 3}),
	}
}

func TestPredict_与服务端消费结果一致(t *testing.T) {
	exec := action.NewExecutor(nil, nil)
	base := baseState()

	predicted := Predict(context.Background(), exec, base, orders(), "p1", nil)

	server := base.Clone()
	server.Players["p1"].ActionQueue = orders()
	engine.NewSimulator(exec, nil).SimulateTimeSlice(context.Background(), server, 0)

	if !reflect.DeepEqual(predicted.Cities["c1"], server.Cities["c1"]) {
		t.Fatalf("预测结果应与服务端一致\npredicted=%+v\nserver=%+v", predicted.Cities["c1"], server.Cities["c1"])
	}
	if len(predicted.Cities["c1"].BuildQueue) != 2 {
		t.Fatalf("期望 2 个建造动作入队, got=%d", len(predicted.Cities["c1"].BuildQueue))
	}
}

func TestPredict_不修改基准状态(t *testing.T) {
	base := baseState()
	before := base.Clone()
	Predict(context.Background(), action.NewExecutor(nil, nil), base, orders(), "p1", nil)
	if !reflect.DeepEqual(before, base) {
		t.Fatalf("预测不应修改基准状态")
	}
}

func TestPredict_按键恢复进度(t *testing.T) {
	base := baseState()
	a := orders()[0]
	progress := ProgressMap{a.Key(): 12.5}
	st := Predict(context.Background(), action.NewExecutor(nil, nil), base, []entity.Action{a}, "p1", progress)
	if got := st.Cities["c1"].BuildQueue[0].Progress; got != 12.5 {
		t.Fatalf("应恢复进度 12.5, got=%v", got)
	}
	if got := ProgressOf(st, "p1")[a.Key()]; got != 12.5 {
		t.Fatalf("ProgressOf 应读回进度, got=%v", got)
	}
}

func TestPredictor_Reset丢弃推测(t *testing.T) {
	p := NewPredictor(nil, "p1")
	if p.Enqueue(orders()[0]) {
		t.Fatalf("没有基准状态时不应接受动作")
	}
	p.Reset(baseState())
	if !p.Enqueue(orders()[0]) {
		t.Fatalf("合法动作应在预测中通过")
	}
	if p.Enqueue(orders()[1]) {
		t.Fatalf("同地块第二个动作应在预测中失败")
	}
	if len(p.Pending()) != 2 {
		t.Fatalf("失败的动作也保留在待确认列表中交给服务端裁决, got=%d", len(p.Pending()))
	}
	if got := p.Predicted().Cities["c1"].Resources.Wood; got != 450 {
		t.Fatalf("预测视图应已扣费, got=%v", got)
	}

	fresh := baseState()
	p.Reset(fresh)
	if len(p.Pending()) != 0 || p.Predicted() != fresh {
		t.Fatalf("Reset 后应以服务端状态为准")
	}
}

func TestPredictor_PredictedProduction(t *testing.T) {
	p := NewPredictor(nil, "p1")
	p.Reset(baseState())
	want := economy.CityProduction(balance.Default(), p.Predicted().Cities["c1"])
	if got := p.PredictedProduction("c1"); got != want {
		t.Fatalf("产出不符, want=%+v got=%+v", want, got)
	}
	if got := p.PredictedProduction("nope"); !got.IsZero() {
		t.Fatalf("未知城市产出应为 0, got=%+v", got)
	}
}
