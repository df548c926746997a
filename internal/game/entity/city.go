package entity

type Building struct {
	Type  BuildingType `json:"type"`
	Level int          `json:"level"`
}

type CityTile struct {
	Terrain  CityTerrainType `json:"terrain"`
	Position Position        `json:"position"`
	Building *Building       `json:"building"`
}

// CityMap 的 tiles 按 [x][y] 存放。
type CityMap struct {
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Tiles  [][]CityTile `json:"tiles"`
}

// NewCityMap 建一张全 EMPTY 的网格。
func NewCityMap(width, height int) *CityMap {
	m := &CityMap{Width: width, Height: height, Tiles: make([][]CityTile, width)}
	for x := 0; x < width; x++ {
		m.Tiles[x] = make([]CityTile, height)
		for y := 0; y < height; y++ {
			m.Tiles[x][y] = CityTile{Terrain: CityTerrainEmpty, Position: Position{X: x, Y: y}}
		}
	}
	return m
}

func (m *CityMap) InBounds(p Position) bool {
	return m != nil && p.X >= 0 && p.X < m.Width && p.Y >= 0 && p.Y < m.Height &&
		p.X < len(m.Tiles) && p.Y < len(m.Tiles[p.X])
}

// Tile 越界返回 nil。
func (m *CityMap) Tile(p Position) *CityTile {
	if !m.InBounds(p) {
		return nil
	}
	return &m.Tiles[p.X][p.Y]
}

// Neighbors 返回界内的 8 邻居坐标。
func (m *CityMap) Neighbors(p Position) []Position {
	out := make([]Position, 0, len(neighborOffsets))
	for _, d := range neighborOffsets {
		n := Position{X: p.X + d[0], Y: p.Y + d[1]}
		if m.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// EachBuilding 按 x、y 顺序遍历所有已有建筑。
func (m *CityMap) EachBuilding(fn func(tile *CityTile)) {
	if m == nil {
		return
	}
	for x := range m.Tiles {
		for y := range m.Tiles[x] {
			if m.Tiles[x][y].Building != nil {
				fn(&m.Tiles[x][y])
			}
		}
	}
}

func (m *CityMap) Clone() *CityMap {
	if m == nil {
		return nil
	}
	out := &CityMap{Width: m.Width, Height: m.Height}
	if m.Tiles != nil {
		out.Tiles = make([][]CityTile, len(m.Tiles))
	}
	for x := range m.Tiles {
		if m.Tiles[x] == nil {
			continue
		}
		out.Tiles[x] = make([]CityTile, len(m.Tiles[x]))
		for y, t := range m.Tiles[x] {
			if t.Building != nil {
				b := *t.Building
				t.Building = &b
			}
			out.Tiles[x][y] = t
		}
	}
	return out
}

// RecruitmentProgress 是招募队列中的一批单位。
type RecruitmentProgress struct {
	UnitType UnitType `json:"unit_type"`
	Quantity int      `json:"quantity"`
	Progress float64  `json:"progress"`
}

// City 归属唯一玩家。max_resources 及两个速度倍率、建筑数量都是派生值，
// 由 economy.RecomputeDerived 统一刷新；序列化时一并带上以保证存档可逐字还原。
type City struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	OwnerID          string                `json:"owner_id"`
	Position         Position              `json:"position"`
	CityMap          *CityMap              `json:"city_map"`
	Resources        Resources             `json:"resources"`
	MaxResources     Resources             `json:"max_resources"`
	BuildQueue       []Action              `json:"build_queue"`
	RecruitmentQueue []RecruitmentProgress `json:"recruitment_queue"`
	Garrison         map[UnitType]int      `json:"garrison"`

	NumBuildings      int     `json:"num_buildings"`
	MaxBuildings      int     `json:"max_buildings"`
	ConstructionSpeed float64 `json:"construction_speed"`
	RecruitmentSpeed  float64 `json:"recruitment_speed"`
}

// PendingAt 返回 build_queue 中指向该地块的下标，没有则 -1。
func (c *City) PendingAt(p Position) int {
	for i := range c.BuildQueue {
		if c.BuildQueue[i].Kind.TargetsTile() && c.BuildQueue[i].Position == p {
			return i
		}
	}
	return -1
}

// PendingBuilds 统计队列中尚未完成的新建动作数量。
func (c *City) PendingBuilds() int {
	n := 0
	for i := range c.BuildQueue {
		if c.BuildQueue[i].Kind == KindBuild {
			n++
		}
	}
	return n
}

func (c *City) Clone() *City {
	if c == nil {
		return nil
	}
	out := *c
	out.CityMap = c.CityMap.Clone()
	if c.BuildQueue != nil {
		out.BuildQueue = make([]Action, len(c.BuildQueue))
		copy(out.BuildQueue, c.BuildQueue)
	}
	if c.RecruitmentQueue != nil {
		out.RecruitmentQueue = make([]RecruitmentProgress, len(c.RecruitmentQueue))
		copy(out.RecruitmentQueue, c.RecruitmentQueue)
	}
	if c.Garrison != nil {
		out.Garrison = make(map[UnitType]int, len(c.Garrison))
		for k, v := range c.Garrison {
			out.Garrison[k] = v
		}
	}
	return &out
}
