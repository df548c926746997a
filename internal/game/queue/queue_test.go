package queue

import (
	"testing"

	"Nightfall/internal/game/economy"
	"Nightfall/internal/game/entity"
	"Nightfall/internal/shared/gameconfig/balance"
	"Nightfall/modules/kit/errx"
)

func newCity() *entity.City {
	cm := entity.NewCityMap(4, 4)
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			cm.Tiles[x][y].Terrain = entity.CityTerrainGrass
		}
	}
	cm.Tiles[3][3].Building = &entity.Building{Type: entity.BuildingCitadel, Level: 1}
	c := &entity.City{ID: "c1", OwnerID: "p1", CityMap: cm}
	economy.RecomputeDerived(balance.Default(), c)
	return c
}

func build(x, y int, cost entity.Resources) entity.Action {
	a := entity.NewBuild("p1", "c1", entity.Position{X: x, Y: y}, entity.BuildingFarm)
	a.Cost = cost
	return a
}

func TestAdvance_只推进队首(t *testing.T) {
	c := newCity()
	c.BuildQueue = []entity.Action{build(0, 0, entity.Resources{}), build(1, 0, entity.Resources{})}

	done := Advance(balance.Default(), c, 10)
	if len(done) != 0 {
		t.Fatalf("10s 不足以完成 30s 的建造")
	}
	if c.BuildQueue[0].Progress != 10 || c.BuildQueue[1].Progress != 0 {
		t.Fatalf("只有队首应累积进度, got=%v/%v", c.BuildQueue[0].Progress, c.BuildQueue[1].Progress)
	}
}

func TestAdvance_结转剩余进度并连续完成(t *testing.T) {
	c := newCity()
	c.BuildQueue = []entity.Action{build(0, 0, entity.Resources{}), build(1, 0, entity.Resources{}), build(2, 0, entity.Resources{})}

	done := Advance(balance.Default(), c, 65)
	if len(done) != 2 {
		t.Fatalf("65s 应完成两个 30s 的建造, got=%d", len(done))
	}
	if len(c.BuildQueue) != 1 || c.BuildQueue[0].Progress != 5 {
		t.Fatalf("剩余 5s 应结转给新的队首, got=%+v", c.BuildQueue)
	}
	if c.CityMap.Tiles[0][0].Building == nil || c.CityMap.Tiles[1][0].Building == nil {
		t.Fatalf("完成的建造应已落地")
	}
	if c.NumBuildings != 3 {
		t.Fatalf("完成后应刷新派生属性, num_buildings=%d", c.NumBuildings)
	}
}

func TestAdvance_建造速度缩短耗时(t *testing.T) {
	c := newCity()
	c.CityMap.Tiles[2][3].Building = &entity.Building{Type: entity.BuildingBuildersHut, Level: 3}
	economy.RecomputeDerived(balance.Default(), c)
	if c.ConstructionSpeed <= 1 {
		t.Fatalf("建筑工坊应提供建造加速, got=%v", c.ConstructionSpeed)
	}
	c.BuildQueue = []entity.Action{build(0, 0, entity.Resources{})}
	if done := Advance(balance.Default(), c, 30/c.ConstructionSpeed+0.001); len(done) != 1 {
		t.Fatalf("加速后应在 30/speed 秒内完成")
	}
}

func TestAdvanceRecruitment_整数单位入驻军(t *testing.T) {
	c := newCity()
	c.RecruitmentQueue = []entity.RecruitmentProgress{{UnitType: entity.UnitSwordsman, Quantity: 3}}

	if n := AdvanceRecruitment(balance.Default(), c, 25); n != 2 {
		t.Fatalf("25s 应训练出 2 个剑士, got=%d", n)
	}
	if c.Garrison[entity.UnitSwordsman] != 2 || c.RecruitmentQueue[0].Quantity != 1 {
		t.Fatalf("驻军或剩余数量不符, garrison=%v queue=%+v", c.Garrison, c.RecruitmentQueue)
	}
	if n := AdvanceRecruitment(balance.Default(), c, 100); n != 1 {
		t.Fatalf("剩余数量封顶为 1, got=%d", n)
	}
	if len(c.RecruitmentQueue) != 0 {
		t.Fatalf("训练完成后应出队")
	}
}

func TestCancel_原样退还预留资源(t *testing.T) {
	c := newCity()
	cost := entity.Resources{Wood: 50, Iron: 10}
	c.BuildQueue = []entity.Action{build(0, 0, cost), build(1, 0, cost)}
	c.BuildQueue[0].Progress = 20

	a, err := Cancel(c, 0)
	if err != nil {
		t.Fatalf("Cancel err=%v", err)
	}
	if a.Position != (entity.Position{X: 0, Y: 0}) {
		t.Fatalf("取消的应是队首, got=%+v", a.Position)
	}
	if c.Resources != cost {
		t.Fatalf("应退还全部预留资源, got=%+v", c.Resources)
	}
	if len(c.BuildQueue) != 1 || c.BuildQueue[0].Progress != 0 {
		t.Fatalf("新队首不应继承旧进度, got=%+v", c.BuildQueue)
	}
	if _, err := Cancel(c, 5); errx.CodeOf(err) != CodeIndexOutOfRange {
		t.Fatalf("越界应返回 %s, got=%v", CodeIndexOutOfRange, err)
	}
}

func TestCancelRecruitment_只退未训练部分(t *testing.T) {
	c := newCity()
	c.RecruitmentQueue = []entity.RecruitmentProgress{{UnitType: entity.UnitSwordsman, Quantity: 2, Progress: 5}}
	if _, err := CancelRecruitment(balance.Default(), c, 0); err != nil {
		t.Fatalf("CancelRecruitment err=%v", err)
	}
	if want := (entity.Resources{Food: 40, Wood: 10, Iron: 20}); c.Resources != want {
		t.Fatalf("退款不符, want=%+v got=%+v", want, c.Resources)
	}
}

func TestReorder_队首锁定(t *testing.T) {
	c := newCity()
	c.BuildQueue = []entity.Action{build(0, 0, entity.Resources{}), build(1, 0, entity.Resources{}), build(2, 0, entity.Resources{})}

	cases := []struct {
		name  string
		index int
		dir   Direction
		code  errx.Code
	}{
		{"队首不能下移", 0, Down, CodeHeadLocked},
		{"不能上移到队首", 1, Up, CodeHeadLocked},
		{"末尾不能下移", 2, Down, CodeIndexOutOfRange},
		{"非法方向", 1, "left", CodeBadDirection},
		{"下标越界", 9, Up, CodeIndexOutOfRange},
	}
	for _, tc := range cases {
		if err := Reorder(c, tc.index, tc.dir); errx.CodeOf(err) != tc.code {
			t.Fatalf("%s: 期望 %s, got=%v", tc.name, tc.code, err)
		}
	}

	if err := Reorder(c, 2, Up); err != nil {
		t.Fatalf("Reorder err=%v", err)
	}
	if c.BuildQueue[1].Position.X != 2 || c.BuildQueue[2].Position.X != 1 {
		t.Fatalf("交换结果不符, got=%+v", c.BuildQueue)
	}
}
