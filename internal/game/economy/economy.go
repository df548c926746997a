// Package economy 是纯函数的产出/仓储计算，不持有状态。
package economy

import (
	"Nightfall/internal/game/entity"
	"Nightfall/internal/shared/gameconfig/balance"
)

// adjacencyMultiplier 从 1.0 起，对每个界内邻居累加命中的加成（地形名或建筑类型名），不设上限。
func adjacencyMultiplier(bonus map[string]float64, pos entity.Position, cm *entity.CityMap) float64 {
	mult := 1.0
	if len(bonus) == 0 {
		return mult
	}
	for _, np := range cm.Neighbors(pos) {
		n := cm.Tile(np)
		if n == nil {
			continue
		}
		if v, ok := bonus[string(n.Terrain)]; ok {
			mult += v
		}
		if n.Building != nil {
			if v, ok := bonus[string(n.Building.Type)]; ok {
				mult += v
			}
		}
	}
	return mult
}

// ProductionOf 计算单个建筑每小时产出：round(base × multiplier)。
func ProductionOf(t *balance.Tables, b *entity.Building, pos entity.Position, cm *entity.CityMap) entity.Resources {
	if b == nil {
		return entity.Resources{}
	}
	spec := t.Building(b.Type)
	if spec == nil {
		return entity.Resources{}
	}
	base, ok := spec.Production[b.Level]
	if !ok {
		return entity.Resources{}
	}
	return base.Scale(adjacencyMultiplier(spec.AdjacencyBonus, pos, cm)).Round()
}

// CityProduction 汇总全城每小时产出。
func CityProduction(t *balance.Tables, c *entity.City) entity.Resources {
	var total entity.Resources
	if c == nil {
		return total
	}
	c.CityMap.EachBuilding(func(tile *entity.CityTile) {
		total = total.Add(ProductionOf(t, tile.Building, tile.Position, c.CityMap))
	})
	return total
}

// StorageOf 计算单个仓储类建筑（主城、仓库）的容量，邻接加成与产出同一机制。
func StorageOf(t *balance.Tables, b *entity.Building, pos entity.Position, cm *entity.CityMap) entity.Resources {
	if b == nil {
		return entity.Resources{}
	}
	spec := t.Building(b.Type)
	if spec == nil {
		return entity.Resources{}
	}
	base, ok := spec.Storage[b.Level]
	if !ok {
		return entity.Resources{}
	}
	return base.Scale(adjacencyMultiplier(spec.AdjacencyBonus, pos, cm)).Round()
}

func CityStorageCap(t *balance.Tables, c *entity.City) entity.Resources {
	var total entity.Resources
	if c == nil {
		return total
	}
	c.CityMap.EachBuilding(func(tile *entity.CityTile) {
		total = total.Add(StorageOf(t, tile.Building, tile.Position, c.CityMap))
	})
	return total
}

// RecomputeDerived 是刷新城市派生属性的唯一入口：仓储上限、建造/招募速度、建筑数与上限。
func RecomputeDerived(t *balance.Tables, c *entity.City) {
	if c == nil {
		return
	}
	construction, recruitment := 1.0, 1.0
	num, maxBuildings := 0, 0
	c.CityMap.EachBuilding(func(tile *entity.CityTile) {
		num++
		spec := t.Building(tile.Building.Type)
		if spec == nil {
			return
		}
		p := spec.Provides[tile.Building.Level]
		construction += p.ConstructionSpeedBonus
		recruitment += p.RecruitmentSpeedBonus
		maxBuildings += p.MaxBuildings
	})
	c.NumBuildings = num
	c.MaxBuildings = maxBuildings
	c.ConstructionSpeed = construction
	c.RecruitmentSpeed = recruitment
	c.MaxResources = CityStorageCap(t, c)
}
