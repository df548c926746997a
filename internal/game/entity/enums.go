package entity

// 枚举在线上与存档中都以名字出现（"FARM"、"GRASS"），因此直接用字符串类型承载。

type BuildingType string

const (
	BuildingCitadel     BuildingType = "CITADEL"
	BuildingFarm        BuildingType = "FARM"
	BuildingLumberMill  BuildingType = "LUMBER_MILL"
	BuildingIronMine    BuildingType = "IRON_MINE"
	BuildingBarracks    BuildingType = "BARRACKS"
	BuildingStables     BuildingType = "STABLES"
	BuildingWarehouse   BuildingType = "WAREHOUSE"
	BuildingBuildersHut BuildingType = "BUILDERS_HUT"
	BuildingDragonNest  BuildingType = "DRAGON_NEST"
)

var buildingTypes = map[BuildingType]struct{}{
	BuildingCitadel: {}, BuildingFarm: {}, BuildingLumberMill: {}, BuildingIronMine: {},
	BuildingBarracks: {}, BuildingStables: {}, BuildingWarehouse: {}, BuildingBuildersHut: {},
	BuildingDragonNest: {},
}

func (t BuildingType) Valid() bool {
	_, ok := buildingTypes[t]
	return ok
}

// CityTerrainType 是城内地块地形。
type CityTerrainType string

const (
	CityTerrainEmpty       CityTerrainType = "EMPTY"
	CityTerrainGrass       CityTerrainType = "GRASS"
	CityTerrainForestPlot  CityTerrainType = "FOREST_PLOT"
	CityTerrainIronDeposit CityTerrainType = "IRON_DEPOSIT"
	CityTerrainWater       CityTerrainType = "WATER"
)

func (t CityTerrainType) Valid() bool {
	switch t {
	case CityTerrainEmpty, CityTerrainGrass, CityTerrainForestPlot, CityTerrainIronDeposit, CityTerrainWater:
		return true
	}
	return false
}

// Clearable 资源地块（林地/铁矿）可以被拆除为草地。
func (t CityTerrainType) Clearable() bool {
	return t == CityTerrainForestPlot || t == CityTerrainIronDeposit
}

// TerrainType 是世界地图地形。
type TerrainType string

const (
	TerrainEmpty    TerrainType = "EMPTY"
	TerrainPlains   TerrainType = "PLAINS"
	TerrainForest   TerrainType = "FOREST"
	TerrainMountain TerrainType = "MOUNTAIN"
	TerrainLake     TerrainType = "LAKE"
)

func (t TerrainType) Valid() bool {
	switch t {
	case TerrainEmpty, TerrainPlains, TerrainForest, TerrainMountain, TerrainLake:
		return true
	}
	return false
}

type UnitType string

const (
	UnitSwordsman UnitType = "SWORDSMAN"
	UnitCavalry   UnitType = "CAVALRY"
	UnitDragon    UnitType = "DRAGON"
)

func (t UnitType) Valid() bool {
	switch t {
	case UnitSwordsman, UnitCavalry, UnitDragon:
		return true
	}
	return false
}
