package entity

type Tile struct {
	Terrain  TerrainType `json:"terrain"`
	Position Position    `json:"position"`
}

// GameMap 世界地图，tiles 按 [y][x] 存放（与布局文本逐行对应）。
// 会话内只读，预测克隆时可直接共享。
type GameMap struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Tiles  [][]Tile `json:"tiles"`
}

func (m *GameMap) Tile(p Position) *Tile {
	if m == nil || p.Y < 0 || p.Y >= len(m.Tiles) || p.X < 0 || p.X >= len(m.Tiles[p.Y]) {
		return nil
	}
	return &m.Tiles[p.Y][p.X]
}
