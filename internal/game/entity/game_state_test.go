package entity

import (
	"reflect"
	"testing"
)

func sampleState() *GameState {
	cm := NewCityMap(3, 3)
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			cm.Tiles[x][y].Terrain = CityTerrainGrass
		}
	}
	cm.Tiles[2][2].Terrain = CityTerrainForestPlot
	cm.Tiles[1][1].Building = &Building{Type: BuildingCitadel, Level: 1}
	cm.Tiles[0][1].Building = &Building{Type: BuildingFarm, Level: 3}

	c1 := &City{
		ID: "city1", Name: "晨星城", OwnerID: "player1", Position: Position{X: 1, Y: 0},
		CityMap:      cm,
		Resources:    Resources{Food: 10.5, Wood: 0.1 + 0.2, Iron: 3},
		MaxResources: Resources{Food: 1000, Wood: 1000, Iron: 500},
		BuildQueue: []Action{
			{Kind: KindBuild, PlayerID: "player1", CityID: "city1", Position: Position{X: 0, Y: 0},
				BuildingType: BuildingFarm, Progress: 1.25, Cost: Resources{Wood: 50, Iron: 10}},
			{Kind: KindDemolish, PlayerID: "player1", CityID: "city1", Position: Position{X: 2, Y: 2},
				Cost: Resources{Food: 40, Wood: 40}},
		},
		RecruitmentQueue: []RecruitmentProgress{{UnitType: UnitSwordsman, Quantity: 4, Progress: 0.5}},
		Garrison:         map[UnitType]int{UnitSwordsman: 7},
		NumBuildings:     2, MaxBuildings: 10, ConstructionSpeed: 1.1, RecruitmentSpeed: 1,
	}
	c2 := &City{ID: "city2", Name: "暮色堡", OwnerID: "player2", CityMap: NewCityMap(1, 1)}
	return &GameState{
		Turn: 42,
		GameMap: &GameMap{Width: 2, Height: 1, Tiles: [][]Tile{{
			{Terrain: TerrainPlains, Position: Position{X: 0, Y: 0}},
			{Terrain: TerrainLake, Position: Position{X: 1, Y: 0}},
		}}},
		Players: map[string]*Player{
			"player1": {ID: "player1", Name: "P1", CityIDs: []string{"city1"},
				ActionQueue: []Action{NewRecruit("player1", "city1", UnitCavalry, 2)}},
			"player2": {ID: "player2", Name: "P2", CityIDs: []string{"city2"}},
		},
		Cities: map[string]*City{"city1": c1, "city2": c2},
	}
}

func TestGameState_序列化往返保持相等(t *testing.T) {
	s := sampleState()
	raw, err := s.Encode()
	if err != nil {
		t.Fatalf("encode 失败: %v", err)
	}
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode 失败: %v", err)
	}
	if !reflect.DeepEqual(s, got) {
		t.Fatalf("期望往返后状态相等\nwant=%+v\ngot=%+v", s, got)
	}
}

func TestDecode_未知建筑类型报错(t *testing.T) {
	s := sampleState()
	s.Cities["city1"].CityMap.Tiles[0][0].Building = &Building{Type: "CASTLE", Level: 1}
	raw, _ := s.Encode()
	if _, err := Decode(raw); err == nil {
		t.Fatalf("期望未知建筑类型 decode 失败")
	}
}

func TestCloneScoped_只复制自己名下的城市(t *testing.T) {
	s := sampleState()
	c := s.CloneScoped("player1")

	if c.Cities["city1"] == s.Cities["city1"] {
		t.Fatalf("期望 player1 的城市被深拷贝")
	}
	if c.Cities["city2"] != s.Cities["city2"] {
		t.Fatalf("期望其他玩家的城市共享指针")
	}
	if c.Players["player2"] != s.Players["player2"] {
		t.Fatalf("期望其他玩家共享指针")
	}

	c.Cities["city1"].CityMap.Tiles[1][1].Building.Level = 3
	c.Cities["city1"].BuildQueue[0].Progress = 99
	c.Cities["city1"].Garrison[UnitSwordsman] = 0
	if s.Cities["city1"].CityMap.Tiles[1][1].Building.Level != 1 {
		t.Fatalf("修改副本建筑不应影响原状态")
	}
	if s.Cities["city1"].BuildQueue[0].Progress != 1.25 {
		t.Fatalf("修改副本队列不应影响原状态")
	}
	if s.Cities["city1"].Garrison[UnitSwordsman] != 7 {
		t.Fatalf("修改副本驻军不应影响原状态")
	}
}

func TestClone_与原状态相等(t *testing.T) {
	s := sampleState()
	if !reflect.DeepEqual(s, s.Clone()) {
		t.Fatalf("期望 Clone 结果与原状态相等")
	}
}

func TestCityMap_Neighbors_边界裁剪(t *testing.T) {
	m := NewCityMap(3, 3)
	if got := len(m.Neighbors(Position{X: 0, Y: 0})); got != 3 {
		t.Fatalf("角落应有 3 个邻居, got=%d", got)
	}
	if got := len(m.Neighbors(Position{X: 1, Y: 1})); got != 8 {
		t.Fatalf("中心应有 8 个邻居, got=%d", got)
	}
	if m.Tile(Position{X: 3, Y: 0}) != nil {
		t.Fatalf("越界地块应返回 nil")
	}
}
