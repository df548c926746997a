// Package worldfile 从世界定义文件构建初始 GameState。
//
// 世界地图按行字符描述：' ' 空、P 平原、F 森林、M 山地、L 湖泊；
// 城市布局同样按行描述：G 草地、F 林地、I 铁矿、W 水域，其余为空。
package worldfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"Nightfall/internal/game/economy"
	"Nightfall/internal/game/entity"
	"Nightfall/internal/shared/gameconfig/balance"
)

const placeCity = "CITY"

var worldTerrain = map[rune]entity.TerrainType{
	' ': entity.TerrainEmpty,
	'P': entity.TerrainPlains,
	'F': entity.TerrainForest,
	'M': entity.TerrainMountain,
	'L': entity.TerrainLake,
}

var cityTerrain = map[rune]entity.CityTerrainType{
	'G': entity.CityTerrainGrass,
	'F': entity.CityTerrainForestPlot,
	'I': entity.CityTerrainIronDeposit,
	'W': entity.CityTerrainWater,
}

type World struct {
	WorldMap struct {
		Layout []string `json:"layout"`
		Places []Place  `json:"places"`
	} `json:"world_map"`
	Players []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"players"`
}

type Place struct {
	Type             string           `json:"type"`
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	PlayerID         string           `json:"player_id"`
	Position         entity.Position  `json:"position"`
	CityMapPath      string           `json:"city_map_path"`
	InitialResources entity.Resources `json:"initial_resources"`
}

type CityLayout struct {
	Layout           []string          `json:"layout"`
	InitialBuildings []InitialBuilding `json:"initial_buildings"`
}

// InitialBuilding 的 level 缺省为 1。
type InitialBuilding struct {
	Type     entity.BuildingType `json:"type"`
	Position entity.Position     `json:"position"`
	Level    int                 `json:"level"`
}

// DefaultCityLayout 是 place 未指定布局时使用的文件名（相对世界文件所在目录）。
const DefaultCityLayout = "city_layouts/default_city.json"

// Load 读取世界文件。city_map_path 相对世界文件所在目录解析。
func Load(path string, t *balance.Tables) (*entity.GameState, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world file %s: %w", path, err)
	}
	var w World
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse world file %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	return Build(&w, t, func(rel string) (*CityLayout, error) {
		if rel == "" {
			rel = DefaultCityLayout
		}
		if !filepath.IsAbs(rel) {
			rel = filepath.Join(dir, rel)
		}
		return LoadCityLayout(rel)
	})
}

func LoadCityLayout(path string) (*CityLayout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read city layout %s: %w", path, err)
	}
	var l CityLayout
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("parse city layout %s: %w", path, err)
	}
	return &l, nil
}

// Build 组装状态，layouts 负责按路径取城市布局。turn 从 1 开始。
func Build(w *World, t *balance.Tables, layouts func(string) (*CityLayout, error)) (*entity.GameState, error) {
	if t == nil {
		t = balance.Default()
	}
	st := &entity.GameState{
		Turn:    1,
		GameMap: ParseWorldMap(w.WorldMap.Layout),
		Players: make(map[string]*entity.Player, len(w.Players)),
		Cities:  make(map[string]*entity.City),
	}
	for _, p := range w.Players {
		if p.ID == "" {
			return nil, errors.New("player without id")
		}
		st.Players[p.ID] = &entity.Player{ID: p.ID, Name: p.Name, CityIDs: []string{}}
	}
	for _, place := range w.WorldMap.Places {
		if place.Type != placeCity {
			continue
		}
		layout, err := layouts(place.CityMapPath)
		if err != nil {
			return nil, err
		}
		cm, err := ParseCityLayout(layout)
		if err != nil {
			return nil, fmt.Errorf("city %s: %w", place.ID, err)
		}
		c := &entity.City{
			ID:        place.ID,
			Name:      place.Name,
			OwnerID:   place.PlayerID,
			Position:  place.Position,
			CityMap:   cm,
			Resources: place.InitialResources,
			Garrison:  map[entity.UnitType]int{},
		}
		economy.RecomputeDerived(t, c)
		st.Cities[c.ID] = c
		if p, ok := st.Players[c.OwnerID]; ok {
			p.CityIDs = append(p.CityIDs, c.ID)
		}
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

// ParseWorldMap 行不等长时按最长行补齐为 EMPTY。tiles 按 [y][x] 存放。
func ParseWorldMap(lines []string) *entity.GameMap {
	height := len(lines)
	width := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > width {
			width = n
		}
	}
	m := &entity.GameMap{Width: width, Height: height, Tiles: make([][]entity.Tile, height)}
	for y, line := range lines {
		row := make([]entity.Tile, width)
		for x := range row {
			row[x] = entity.Tile{Terrain: entity.TerrainEmpty, Position: entity.Position{X: x, Y: y}}
		}
		for x, ch := range []rune(line) {
			if tt, ok := worldTerrain[ch]; ok {
				row[x].Terrain = tt
			}
		}
		m.Tiles[y] = row
	}
	return m
}

func ParseCityLayout(l *CityLayout) (*entity.CityMap, error) {
	height := len(l.Layout)
	width := 0
	for _, line := range l.Layout {
		if n := len([]rune(line)); n > width {
			width = n
		}
	}
	cm := entity.NewCityMap(width, height)
	for y, line := range l.Layout {
		for x, ch := range []rune(line) {
			if ct, ok := cityTerrain[ch]; ok {
				cm.Tiles[x][y].Terrain = ct
			}
		}
	}
	for _, b := range l.InitialBuildings {
		tile := cm.Tile(b.Position)
		if tile == nil {
			return nil, fmt.Errorf("initial building %s out of bounds at %s", b.Type, b.Position)
		}
		if !b.Type.Valid() {
			return nil, fmt.Errorf("unknown building type %q", b.Type)
		}
		level := b.Level
		if level <= 0 {
			level = 1
		}
		tile.Building = &entity.Building{Type: b.Type, Level: level}
	}
	return cm, nil
}
