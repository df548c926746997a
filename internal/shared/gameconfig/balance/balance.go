package balance

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"Nightfall/internal/game/entity"
)

//go:embed balance.json
var defaultTables []byte

// Step 是一次建造/升级/拆除的消耗与耗时（秒）。
type Step struct {
	Cost entity.Resources `json:"cost"`
	Time float64          `json:"time"`
}

// Provides 是建筑按等级提供的城市属性。
type Provides struct {
	MaxBuildings           int     `json:"max_buildings"`
	ConstructionSpeedBonus float64 `json:"construction_speed_bonus"`
	RecruitmentSpeedBonus  float64 `json:"recruitment_speed_bonus"`
}

type BuildingSpec struct {
	Build      *Step                    `json:"build"`
	Upgrade    map[int]Step             `json:"upgrade"` // key 是目标等级
	Production map[int]entity.Resources `json:"production"`
	Storage    map[int]entity.Resources `json:"storage"`
	Provides   map[int]Provides         `json:"provides"`
	// AdjacencyBonus 的 key 可以是城内地形名，也可以是建筑类型名
	AdjacencyBonus map[string]float64       `json:"adjacency_bonus"`
	AllowedTerrain []entity.CityTerrainType `json:"allowed_terrain"`
}

type UnitSpec struct {
	Cost        entity.Resources `json:"cost"`
	RecruitTime float64          `json:"recruit_time"` // 单个单位所需秒数
}

type Defaults struct {
	BuildTime   float64 `json:"build_time"`
	UpgradeTime float64 `json:"upgrade_time"`
}

// Tables 是全部静态平衡数据，加载后只读。
type Tables struct {
	Defaults         Defaults                              `json:"defaults"`
	Buildings        map[entity.BuildingType]*BuildingSpec `json:"buildings"`
	Units            map[entity.UnitType]*UnitSpec         `json:"units"`
	DemolishBuilding Step                                  `json:"demolish_building"`
	DemolishPlot     Step                                  `json:"demolish_plot"`
}

var (
	defaultOnce sync.Once
	defaultTbl  *Tables
)

// Default 返回内置平衡表。内置数据损坏属于发布事故，直接 panic。
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Parse(defaultTables)
		if err != nil {
			panic(fmt.Errorf("embedded balance tables: %w", err))
		}
		defaultTbl = t
	})
	return defaultTbl
}

// Load 从文件加载；path 为空时使用内置表。
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read balance file %s: %w", path, err)
	}
	t, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse balance file %s: %w", path, err)
	}
	return t, nil
}

func Parse(raw []byte) (*Tables, error) {
	var t Tables
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Tables) Validate() error {
	if t.Defaults.BuildTime <= 0 {
		t.Defaults.BuildTime = 30
	}
	if t.Defaults.UpgradeTime <= 0 {
		t.Defaults.UpgradeTime = 60
	}
	for bt, spec := range t.Buildings {
		if !bt.Valid() {
			return fmt.Errorf("unknown building type %q", bt)
		}
		if spec == nil {
			return fmt.Errorf("building %s: spec is null", bt)
		}
		for _, terrain := range spec.AllowedTerrain {
			if !terrain.Valid() {
				return fmt.Errorf("building %s: unknown terrain %q", bt, terrain)
			}
		}
		for lvl := range spec.Upgrade {
			if lvl < 2 {
				return fmt.Errorf("building %s: upgrade level %d must be >= 2", bt, lvl)
			}
		}
	}
	for ut, spec := range t.Units {
		if !ut.Valid() {
			return fmt.Errorf("unknown unit type %q", ut)
		}
		if spec == nil || spec.RecruitTime <= 0 {
			return fmt.Errorf("unit %s: recruit_time must be > 0", ut)
		}
	}
	return nil
}

func (t *Tables) Building(bt entity.BuildingType) *BuildingSpec {
	if t == nil {
		return nil
	}
	return t.Buildings[bt]
}

func (t *Tables) Unit(ut entity.UnitType) *UnitSpec {
	if t == nil {
		return nil
	}
	return t.Units[ut]
}

// NextUpgrade 返回从 level 升到 level+1 的配置；已满级返回 false。
func (s *BuildingSpec) NextUpgrade(level int) (Step, bool) {
	if s == nil {
		return Step{}, false
	}
	step, ok := s.Upgrade[level+1]
	return step, ok
}

// MaxLevel 是升级表中最高的 key，没有升级表时为 1。
func (s *BuildingSpec) MaxLevel() int {
	maxLvl := 1
	if s == nil {
		return maxLvl
	}
	for lvl := range s.Upgrade {
		if lvl > maxLvl {
			maxLvl = lvl
		}
	}
	return maxLvl
}

// Allows 判断地形能否建造；未配置 allowed_terrain 时只允许草地。
func (s *BuildingSpec) Allows(terrain entity.CityTerrainType) bool {
	if s == nil {
		return false
	}
	if len(s.AllowedTerrain) == 0 {
		return terrain == entity.CityTerrainGrass
	}
	for _, t := range s.AllowedTerrain {
		if t == terrain {
			return true
		}
	}
	return false
}
