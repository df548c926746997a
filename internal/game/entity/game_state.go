package entity

import (
	"encoding/json"
	"fmt"
)

// GameState 是会话内唯一的权威状态，网络下发与落盘存档共用同一形状：
// {turn, game_map, players, cities}。
type GameState struct {
	Turn    int                `json:"turn"`
	GameMap *GameMap           `json:"game_map"`
	Players map[string]*Player `json:"players"`
	Cities  map[string]*City   `json:"cities"`
}

func (s *GameState) Encode() ([]byte, error) {
	return json.Marshal(s)
}

func Decode(raw []byte) (*GameState, error) {
	var s GameState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate 只检查结构性约束（枚举名、归属一致），不做平衡性校验。
func (s *GameState) Validate() error {
	for id, c := range s.Cities {
		if c == nil {
			return fmt.Errorf("city %q is null", id)
		}
		if c.ID != id {
			return fmt.Errorf("city key %q mismatches id %q", id, c.ID)
		}
		if c.CityMap == nil {
			return fmt.Errorf("city %q has no city_map", id)
		}
		for x := range c.CityMap.Tiles {
			for y := range c.CityMap.Tiles[x] {
				t := c.CityMap.Tiles[x][y]
				if !t.Terrain.Valid() {
					return fmt.Errorf("city %q tile (%d,%d): unknown terrain %q", id, x, y, t.Terrain)
				}
				if t.Building != nil && !t.Building.Type.Valid() {
					return fmt.Errorf("city %q tile (%d,%d): unknown building %q", id, x, y, t.Building.Type)
				}
			}
		}
		for i, a := range c.BuildQueue {
			if !a.Kind.Valid() {
				return fmt.Errorf("city %q build_queue[%d]: unknown action_type %q", id, i, a.Kind)
			}
		}
	}
	for id, p := range s.Players {
		if p == nil {
			return fmt.Errorf("player %q is null", id)
		}
		if p.ID != id {
			return fmt.Errorf("player key %q mismatches id %q", id, p.ID)
		}
	}
	return nil
}

// PlayerCity 按归属取城市：玩家不存在、城市不存在或不属于该玩家都返回 nil。
func (s *GameState) PlayerCity(playerID, cityID string) *City {
	p := s.Players[playerID]
	if p == nil || !p.OwnsCity(cityID) {
		return nil
	}
	c := s.Cities[cityID]
	if c == nil || c.OwnerID != playerID {
		return nil
	}
	return c
}

// Clone 整体深拷贝（地图只读，共享）。
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := &GameState{Turn: s.Turn, GameMap: s.GameMap}
	if s.Players != nil {
		out.Players = make(map[string]*Player, len(s.Players))
		for id, p := range s.Players {
			out.Players[id] = p.Clone()
		}
	}
	if s.Cities != nil {
		out.Cities = make(map[string]*City, len(s.Cities))
		for id, c := range s.Cities {
			out.Cities[id] = c.Clone()
		}
	}
	return out
}

// CloneScoped 只深拷贝 playerID 名下的玩家与城市，其余条目与原状态共享指针。
// 动作执行会校验归属，只会改动自己名下的城市，所以共享部分在副本上是只读的。
func (s *GameState) CloneScoped(playerID string) *GameState {
	if s == nil {
		return nil
	}
	out := &GameState{Turn: s.Turn, GameMap: s.GameMap}
	owned := map[string]bool{}
	if s.Players != nil {
		out.Players = make(map[string]*Player, len(s.Players))
		for id, p := range s.Players {
			if id == playerID {
				out.Players[id] = p.Clone()
				for _, cid := range p.CityIDs {
					owned[cid] = true
				}
				continue
			}
			out.Players[id] = p
		}
	}
	if s.Cities != nil {
		out.Cities = make(map[string]*City, len(s.Cities))
		for id, c := range s.Cities {
			if owned[id] || (c != nil && c.OwnerID == playerID) {
				out.Cities[id] = c.Clone()
				continue
			}
			out.Cities[id] = c
		}
	}
	return out
}
