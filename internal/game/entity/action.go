package entity

// Kind 是动作的变体标签，线上以 action_type 字段出现。
type Kind string

const (
	KindBuild    Kind = "BuildBuildingAction"
	KindUpgrade  Kind = "UpgradeBuildingAction"
	KindDemolish Kind = "DemolishAction"
	KindRecruit  Kind = "RecruitUnitAction"
)

func (k Kind) Valid() bool {
	switch k {
	case KindBuild, KindUpgrade, KindDemolish, KindRecruit:
		return true
	}
	return false
}

// TargetsTile 表示该动作占用一个城内地块（招募不占地块）。
func (k Kind) TargetsTile() bool {
	return k == KindBuild || k == KindUpgrade || k == KindDemolish
}

// Action 是封闭的标签联合：Kind 决定哪些字段有效。
//   - Build:    Position + BuildingType
//   - Upgrade:  Position
//   - Demolish: Position
//   - Recruit:  UnitType + Quantity
//
// Cost 在入队时写入（预留扣费），取消时按它原样退还。
type Action struct {
	Kind         Kind         `json:"action_type"`
	PlayerID     string       `json:"player_id"`
	CityID       string       `json:"city_id"`
	Position     Position     `json:"position"`
	Progress     float64      `json:"progress"`
	BuildingType BuildingType `json:"building_type,omitempty"`
	UnitType     UnitType     `json:"unit_type,omitempty"`
	Quantity     int          `json:"quantity,omitempty"`
	Cost         Resources    `json:"cost"`
}

func NewBuild(playerID, cityID string, pos Position, t BuildingType) Action {
	return Action{Kind: KindBuild, PlayerID: playerID, CityID: cityID, Position: pos, BuildingType: t}
}

func NewUpgrade(playerID, cityID string, pos Position) Action {
	return Action{Kind: KindUpgrade, PlayerID: playerID, CityID: cityID, Position: pos}
}

func NewDemolish(playerID, cityID string, pos Position) Action {
	return Action{Kind: KindDemolish, PlayerID: playerID, CityID: cityID, Position: pos}
}

func NewRecruit(playerID, cityID string, t UnitType, quantity int) Action {
	return Action{Kind: KindRecruit, PlayerID: playerID, CityID: cityID, UnitType: t, Quantity: quantity}
}

// ProgressKey 标识一个排队动作，用于预测时恢复进度。
type ProgressKey struct {
	Kind     Kind
	CityID   string
	Position Position
}

func (a Action) Key() ProgressKey {
	return ProgressKey{Kind: a.Kind, CityID: a.CityID, Position: a.Position}
}
