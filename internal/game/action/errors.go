package action

import "Nightfall/modules/kit/errx"

// 校验失败（ValidationError）：只记日志并丢弃，不回给客户端。
const (
	CodeUnknownKind           errx.Code = "ACTION_UNKNOWN_KIND"
	CodeCityNotOwned          errx.Code = "ACTION_CITY_NOT_OWNED"
	CodeOutOfBounds           errx.Code = "ACTION_OUT_OF_BOUNDS"
	CodeTileOccupied          errx.Code = "ACTION_TILE_OCCUPIED"
	CodeTilePending           errx.Code = "ACTION_TILE_PENDING"
	CodeTerrainIncompatible   errx.Code = "ACTION_TERRAIN_INCOMPATIBLE"
	CodeBuildingCap           errx.Code = "ACTION_BUILDING_CAP"
	CodeNotBuildable          errx.Code = "ACTION_NOT_BUILDABLE"
	CodeNoBuilding            errx.Code = "ACTION_NO_BUILDING"
	CodeMaxLevel              errx.Code = "ACTION_MAX_LEVEL"
	CodeNothingToDemolish     errx.Code = "ACTION_NOTHING_TO_DEMOLISH"
	CodeUnknownUnit           errx.Code = "ACTION_UNKNOWN_UNIT"
	CodeInvalidQuantity       errx.Code = "ACTION_INVALID_QUANTITY"
	CodeInsufficientResources errx.Code = "ACTION_INSUFFICIENT_RESOURCES"
)

var (
	ErrUnknownKind           = errx.NewBiz(CodeUnknownKind, "未知动作类型")
	ErrCityNotOwned          = errx.NewBiz(CodeCityNotOwned, "城市不存在或不属于该玩家")
	ErrOutOfBounds           = errx.NewBiz(CodeOutOfBounds, "坐标越界")
	ErrTileOccupied          = errx.NewBiz(CodeTileOccupied, "地块已有建筑")
	ErrTilePending           = errx.NewBiz(CodeTilePending, "地块已有排队中的动作")
	ErrTerrainIncompatible   = errx.NewBiz(CodeTerrainIncompatible, "地形不允许建造该建筑")
	ErrBuildingCap           = errx.NewBiz(CodeBuildingCap, "已达建筑数量上限")
	ErrNotBuildable          = errx.NewBiz(CodeNotBuildable, "该建筑没有建造配置")
	ErrNoBuilding            = errx.NewBiz(CodeNoBuilding, "地块上没有建筑")
	ErrMaxLevel              = errx.NewBiz(CodeMaxLevel, "建筑已满级")
	ErrNothingToDemolish     = errx.NewBiz(CodeNothingToDemolish, "没有可拆除的目标")
	ErrUnknownUnit           = errx.NewBiz(CodeUnknownUnit, "未知兵种")
	ErrInvalidQuantity       = errx.NewBiz(CodeInvalidQuantity, "招募数量必须大于 0")
	ErrInsufficientResources = errx.NewBiz(CodeInsufficientResources, "资源不足")
)
