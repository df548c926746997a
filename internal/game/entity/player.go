package entity

// Player 的 ActionQueue 是尚未被 tick 消费的入站指令。
type Player struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	CityIDs     []string `json:"city_ids"`
	ActionQueue []Action `json:"action_queue"`
}

func (p *Player) OwnsCity(cityID string) bool {
	for _, id := range p.CityIDs {
		if id == cityID {
			return true
		}
	}
	return false
}

func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	out := *p
	if p.CityIDs != nil {
		out.CityIDs = make([]string, len(p.CityIDs))
		copy(out.CityIDs, p.CityIDs)
	}
	if p.ActionQueue != nil {
		out.ActionQueue = make([]Action, len(p.ActionQueue))
		copy(out.ActionQueue, p.ActionQueue)
	}
	return &out
}
