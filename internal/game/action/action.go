// Package action 是动作的校验与执行。服务端 tick 与客户端预测调用的是同一个 Executor.Execute。
package action

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"Nightfall/internal/game/entity"
	"Nightfall/internal/shared/gameconfig/balance"
	"Nightfall/modules/kit/logx"
)

// plan 是校验阶段算出的执行计划，apply 只消费它，不再读平衡表做判断。
type plan struct {
	city *entity.City
	cost entity.Resources
}

type validateFunc func(t *balance.Tables, st *entity.GameState, a *entity.Action) (plan, error)
type applyFunc func(p plan, a entity.Action)

type handler struct {
	name     string
	validate validateFunc
	apply    applyFunc
}

// handlers 是封闭的分发表：每个 Kind 一组 {validate, apply}。
var handlers = map[entity.Kind]handler{
	entity.KindBuild:    {name: "action.build", validate: validateBuild, apply: enqueueBuild},
	entity.KindUpgrade:  {name: "action.upgrade", validate: validateUpgrade, apply: enqueueBuild},
	entity.KindDemolish: {name: "action.demolish", validate: validateDemolish, apply: enqueueBuild},
	entity.KindRecruit:  {name: "action.recruit", validate: validateRecruit, apply: enqueueRecruit},
}

type Executor struct {
	tables *balance.Tables
	log    logx.Logger
}

func NewExecutor(t *balance.Tables, l logx.Logger) *Executor {
	if t == nil {
		t = balance.Default()
	}
	if l == nil {
		l = logx.NewZapLogger(nil)
	}
	return &Executor{tables: t, log: l}
}

func (e *Executor) Tables() *balance.Tables {
	return e.tables
}

// Validate 只做校验，不修改状态。
func (e *Executor) Validate(st *entity.GameState, a entity.Action) error {
	h, ok := handlers[a.Kind]
	if !ok {
		return ErrUnknownKind.WithData("action_type", string(a.Kind))
	}
	_, err := h.validate(e.tables, st, &a)
	return err
}

// Execute 先完整校验再一次性修改：失败返回 false 且状态不变。
func (e *Executor) Execute(ctx context.Context, st *entity.GameState, a entity.Action) bool {
	h, ok := handlers[a.Kind]
	if !ok {
		e.reject(ctx, "action.unknown", a, ErrUnknownKind)
		return false
	}
	p, err := h.validate(e.tables, st, &a)
	if err != nil {
		e.reject(ctx, h.name, a, err)
		return false
	}
	h.apply(p, a)
	return true
}

func (e *Executor) reject(ctx context.Context, name string, a entity.Action, err error) {
	logx.ReportBizWithLoggerContext(ctx, e.log, logx.NewBizLogFromError(name, err),
		zap.String("player_id", a.PlayerID),
		zap.String("city_id", a.CityID),
		zap.String("position", a.Position.String()),
	)
}

// IsValidation 判断 err 是否为动作校验失败。
func IsValidation(err error) bool {
	for _, sentinel := range []error{
		ErrUnknownKind, ErrCityNotOwned, ErrOutOfBounds, ErrTileOccupied, ErrTilePending,
		ErrTerrainIncompatible, ErrBuildingCap, ErrNotBuildable, ErrNoBuilding, ErrMaxLevel,
		ErrNothingToDemolish, ErrUnknownUnit, ErrInvalidQuantity, ErrInsufficientResources,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func ownedCity(st *entity.GameState, a *entity.Action) (*entity.City, error) {
	c := st.PlayerCity(a.PlayerID, a.CityID)
	if c == nil {
		return nil, ErrCityNotOwned.WithData("player_id", a.PlayerID).WithData("city_id", a.CityID)
	}
	return c, nil
}

// targetTile 取地块并检查该地块没有排队中的动作。
func targetTile(c *entity.City, a *entity.Action) (*entity.CityTile, error) {
	tile := c.CityMap.Tile(a.Position)
	if tile == nil {
		return nil, ErrOutOfBounds.WithData("position", a.Position.String())
	}
	if c.PendingAt(a.Position) >= 0 {
		return nil, ErrTilePending.WithData("position", a.Position.String())
	}
	return tile, nil
}

func afford(c *entity.City, cost entity.Resources) error {
	if !c.Resources.CanAfford(cost) {
		return ErrInsufficientResources.WithDataMap(map[string]any{
			"need": cost,
			"have": c.Resources,
		})
	}
	return nil
}

func validateBuild(t *balance.Tables, st *entity.GameState, a *entity.Action) (plan, error) {
	c, err := ownedCity(st, a)
	if err != nil {
		return plan{}, err
	}
	tile, err := targetTile(c, a)
	if err != nil {
		return plan{}, err
	}
	if tile.Building != nil {
		return plan{}, ErrTileOccupied.WithData("position", a.Position.String())
	}
	spec := t.Building(a.BuildingType)
	if spec == nil || spec.Build == nil {
		return plan{}, ErrNotBuildable.WithData("building_type", string(a.BuildingType))
	}
	if !spec.Allows(tile.Terrain) {
		return plan{}, ErrTerrainIncompatible.WithData("terrain", string(tile.Terrain))
	}
	// 排队中的新建也占名额，避免超额预约
	if c.NumBuildings+c.PendingBuilds() >= c.MaxBuildings {
		return plan{}, ErrBuildingCap.WithData("max_buildings", c.MaxBuildings)
	}
	if err := afford(c, spec.Build.Cost); err != nil {
		return plan{}, err
	}
	return plan{city: c, cost: spec.Build.Cost}, nil
}

func validateUpgrade(t *balance.Tables, st *entity.GameState, a *entity.Action) (plan, error) {
	c, err := ownedCity(st, a)
	if err != nil {
		return plan{}, err
	}
	tile, err := targetTile(c, a)
	if err != nil {
		return plan{}, err
	}
	if tile.Building == nil {
		return plan{}, ErrNoBuilding.WithData("position", a.Position.String())
	}
	step, ok := t.Building(tile.Building.Type).NextUpgrade(tile.Building.Level)
	if !ok {
		return plan{}, ErrMaxLevel.WithData("level", tile.Building.Level)
	}
	if err := afford(c, step.Cost); err != nil {
		return plan{}, err
	}
	return plan{city: c, cost: step.Cost}, nil
}

func validateDemolish(t *balance.Tables, st *entity.GameState, a *entity.Action) (plan, error) {
	c, err := ownedCity(st, a)
	if err != nil {
		return plan{}, err
	}
	tile, err := targetTile(c, a)
	if err != nil {
		return plan{}, err
	}
	var cost entity.Resources
	switch {
	case tile.Building != nil && tile.Building.Type != entity.BuildingCitadel:
		cost = t.DemolishBuilding.Cost
	case tile.Building == nil && tile.Terrain.Clearable():
		cost = t.DemolishPlot.Cost
	default:
		return plan{}, ErrNothingToDemolish.WithData("position", a.Position.String())
	}
	if err := afford(c, cost); err != nil {
		return plan{}, err
	}
	return plan{city: c, cost: cost}, nil
}

func validateRecruit(t *balance.Tables, st *entity.GameState, a *entity.Action) (plan, error) {
	c, err := ownedCity(st, a)
	if err != nil {
		return plan{}, err
	}
	unit := t.Unit(a.UnitType)
	if unit == nil {
		return plan{}, ErrUnknownUnit.WithData("unit_type", string(a.UnitType))
	}
	if a.Quantity <= 0 {
		return plan{}, ErrInvalidQuantity.WithData("quantity", a.Quantity)
	}
	cost := unit.Cost.Scale(float64(a.Quantity))
	if err := afford(c, cost); err != nil {
		return plan{}, err
	}
	return plan{city: c, cost: cost}, nil
}

// enqueueBuild 预留扣费并入队，进度从 0 开始。
func enqueueBuild(p plan, a entity.Action) {
	p.city.Resources = p.city.Resources.Sub(p.cost)
	a.Progress = 0
	a.Cost = p.cost
	p.city.BuildQueue = append(p.city.BuildQueue, a)
}

func enqueueRecruit(p plan, a entity.Action) {
	p.city.Resources = p.city.Resources.Sub(p.cost)
	p.city.RecruitmentQueue = append(p.city.RecruitmentQueue, entity.RecruitmentProgress{
		UnitType: a.UnitType,
		Quantity: a.Quantity,
	})
}
