package action

import (
	"Nightfall/internal/game/entity"
	"Nightfall/internal/shared/gameconfig/balance"
)

// BaseTime 是不含城市加速的基础耗时（秒）。取值依据动作入队时仍然成立的地块状态：
// 同一地块同时只有一个排队动作，所以在完成前地块不会变化。
func BaseTime(t *balance.Tables, c *entity.City, a entity.Action) float64 {
	switch a.Kind {
	case entity.KindBuild:
		if spec := t.Building(a.BuildingType); spec != nil && spec.Build != nil && spec.Build.Time > 0 {
			return spec.Build.Time
		}
		return t.Defaults.BuildTime
	case entity.KindUpgrade:
		if tile := c.CityMap.Tile(a.Position); tile != nil && tile.Building != nil {
			if step, ok := t.Building(tile.Building.Type).NextUpgrade(tile.Building.Level); ok && step.Time > 0 {
				return step.Time
			}
		}
		return t.Defaults.UpgradeTime
	case entity.KindDemolish:
		if tile := c.CityMap.Tile(a.Position); tile != nil && tile.Building == nil {
			return t.DemolishPlot.Time
		}
		return t.DemolishBuilding.Time
	}
	return t.Defaults.BuildTime
}

// RequiredTime = 基础耗时 / 城市建造速度。
func RequiredTime(t *balance.Tables, c *entity.City, a entity.Action) float64 {
	base := BaseTime(t, c, a)
	if c.ConstructionSpeed > 0 {
		return base / c.ConstructionSpeed
	}
	return base
}

// Complete 落地已完成动作的最终效果。派生属性由调用方统一刷新。
func Complete(c *entity.City, a entity.Action) {
	tile := c.CityMap.Tile(a.Position)
	if tile == nil {
		return
	}
	switch a.Kind {
	case entity.KindBuild:
		tile.Building = &entity.Building{Type: a.BuildingType, Level: 1}
	case entity.KindUpgrade:
		if tile.Building != nil {
			tile.Building.Level++
		}
	case entity.KindDemolish:
		if tile.Building != nil {
			tile.Building = nil
		} else if tile.Terrain.Clearable() {
			tile.Terrain = entity.CityTerrainGrass
		}
	}
}

// RefundOf 取消时退还的资源：入队时记录的预留消耗，原样返还。
func RefundOf(a entity.Action) entity.Resources {
	return a.Cost
}
