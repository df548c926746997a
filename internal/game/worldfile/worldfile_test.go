package worldfile

import (
	"os"
	"path/filepath"
	"testing"

	"Nightfall/internal/game/entity"
	"Nightfall/internal/shared/gameconfig/balance"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir err=%v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write err=%v", err)
	}
}

func TestLoad_相对路径布局与派生属性(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "city_layouts", "default_city.json"), `{
		"layout": ["GGF", "GGI", "WGG"],
		"initial_buildings": [{"type": "CITADEL", "position": {"x": 1, "y": 1}}]
	}`)
	writeFile(t, filepath.Join(dir, "world.json"), `{
		"world_map": {
			"layout": ["PF", "ML "],
			"places": [
				{"type": "CITY", "id": "c1", "name": "A", "player_id": "p1", "position": {"x": 0, "y": 0},
				 "initial_resources": {"food": 10, "wood": 20, "iron": 5}},
				{"type": "RUIN", "id": "r1"}
			]
		},
		"players": [{"id": "p1", "name": "P1"}, {"id": "p2", "name": "P2"}]
	}`)

	st, err := Load(filepath.Join(dir, "world.json"), balance.Default())
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if st.Turn != 1 {
		t.Fatalf("初始 turn 应为 1, got=%d", st.Turn)
	}
	if st.GameMap.Width != 3 || st.GameMap.Height != 2 {
		t.Fatalf("世界地图尺寸不符, got=%dx%d", st.GameMap.Width, st.GameMap.Height)
	}
	if got := st.GameMap.Tiles[1][0].Terrain; got != entity.TerrainMountain {
		t.Fatalf("(0,1) 应为山地, got=%s", got)
	}
	if got := st.GameMap.Tiles[0][2].Terrain; got != entity.TerrainEmpty {
		t.Fatalf("短行应补齐为 EMPTY, got=%s", got)
	}
	if len(st.Cities) != 1 {
		t.Fatalf("只有 CITY 类型的 place 会生成城市, got=%d", len(st.Cities))
	}
	c := st.Cities["c1"]
	if c.CityMap.Tiles[2][0].Terrain != entity.CityTerrainForestPlot || c.CityMap.Tiles[0][2].Terrain != entity.CityTerrainWater {
		t.Fatalf("城市布局解析不符")
	}
	if b := c.CityMap.Tiles[1][1].Building; b == nil || b.Level != 1 {
		t.Fatalf("初始建筑缺省等级应为 1, got=%+v", b)
	}
	if c.MaxBuildings != 10 || c.MaxResources.Food != 1000 {
		t.Fatalf("加载后应刷新派生属性, got max_buildings=%d max=%+v", c.MaxBuildings, c.MaxResources)
	}
	if ids := st.Players["p1"].CityIDs; len(ids) != 1 || ids[0] != "c1" {
		t.Fatalf("城市应挂到玩家名下, got=%v", ids)
	}
	if len(st.Players["p2"].CityIDs) != 0 {
		t.Fatalf("p2 不应有城市")
	}
}

func TestParseCityLayout_越界建筑报错(t *testing.T) {
	l := &CityLayout{
		Layout:           []string{"GG"},
		InitialBuildings: []InitialBuilding{{Type: entity.BuildingFarm, Position: entity.Position{X: 5, Y: 0}}},
	}
	if _, err := ParseCityLayout(l); err == nil {
		t.Fatalf("越界的初始建筑应报错")
	}
}

func TestLoad_仓库自带世界文件可加载(t *testing.T) {
	st, err := Load(filepath.Join("..", "..", "..", "configs", "world.json"), nil)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if len(st.Players) != 2 || len(st.Cities) != 2 {
		t.Fatalf("期望 2 名玩家 2 座城, got=%d/%d", len(st.Players), len(st.Cities))
	}
}
