// Package queue 推进城市的建造队列与招募队列，并提供取消、调序。
package queue

import (
	"math"

	"Nightfall/internal/game/action"
	"Nightfall/internal/game/economy"
	"Nightfall/internal/game/entity"
	"Nightfall/internal/shared/gameconfig/balance"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Advance 只推进队首。队首完成后多出来的进度结转给下一个队首，
// 一次调用内可以连续完成多个动作。每完成一个都会刷新派生属性，
// 因为建造速度可能随之变化。
func Advance(t *balance.Tables, c *entity.City, dt float64) []entity.Action {
	if len(c.BuildQueue) == 0 || dt <= 0 {
		return nil
	}
	var done []entity.Action
	c.BuildQueue[0].Progress += dt
	for len(c.BuildQueue) > 0 {
		head := c.BuildQueue[0]
		need := action.RequiredTime(t, c, head)
		if head.Progress < need {
			break
		}
		surplus := head.Progress - need
		c.BuildQueue = c.BuildQueue[1:]
		action.Complete(c, head)
		economy.RecomputeDerived(t, c)
		done = append(done, head)
		if len(c.BuildQueue) > 0 {
			c.BuildQueue[0].Progress += surplus
		}
	}
	if len(c.BuildQueue) == 0 {
		c.BuildQueue = nil
	}
	return done
}

// AdvanceRecruitment 推进招募队首，返回本次训练完成的单位数。
func AdvanceRecruitment(t *balance.Tables, c *entity.City, dt float64) int {
	if len(c.RecruitmentQueue) == 0 || dt <= 0 {
		return 0
	}
	speed := c.RecruitmentSpeed
	if speed <= 0 {
		speed = 1
	}
	head := &c.RecruitmentQueue[0]
	unit := t.Unit(head.UnitType)
	if unit == nil || unit.RecruitTime <= 0 {
		// 配置被移除的兵种直接出队，不再占住队首
		c.RecruitmentQueue = c.RecruitmentQueue[1:]
		return 0
	}
	head.Progress += dt * speed
	n := int(math.Floor(head.Progress / unit.RecruitTime))
	if n > head.Quantity {
		n = head.Quantity
	}
	if n <= 0 {
		return 0
	}
	head.Progress -= float64(n) * unit.RecruitTime
	head.Quantity -= n
	if c.Garrison == nil {
		c.Garrison = make(map[entity.UnitType]int)
	}
	c.Garrison[head.UnitType] += n
	if head.Quantity == 0 {
		c.RecruitmentQueue = c.RecruitmentQueue[1:]
		if len(c.RecruitmentQueue) == 0 {
			c.RecruitmentQueue = nil
		}
	}
	return n
}

// Cancel 移除建造队列中的任意一项（包括队首，进度作废），原样退还预留资源。
func Cancel(c *entity.City, index int) (entity.Action, error) {
	if index < 0 || index >= len(c.BuildQueue) {
		return entity.Action{}, ErrIndexOutOfRange.WithData("index", index)
	}
	a := c.BuildQueue[index]
	c.BuildQueue = append(c.BuildQueue[:index], c.BuildQueue[index+1:]...)
	if len(c.BuildQueue) == 0 {
		c.BuildQueue = nil
	}
	c.Resources = c.Resources.Add(action.RefundOf(a))
	return a, nil
}

// CancelRecruitment 移除一批招募，退还其中尚未训练出来的单位的费用。
func CancelRecruitment(t *balance.Tables, c *entity.City, index int) (entity.RecruitmentProgress, error) {
	if index < 0 || index >= len(c.RecruitmentQueue) {
		return entity.RecruitmentProgress{}, ErrIndexOutOfRange.WithData("index", index)
	}
	r := c.RecruitmentQueue[index]
	c.RecruitmentQueue = append(c.RecruitmentQueue[:index], c.RecruitmentQueue[index+1:]...)
	if len(c.RecruitmentQueue) == 0 {
		c.RecruitmentQueue = nil
	}
	if unit := t.Unit(r.UnitType); unit != nil {
		c.Resources = c.Resources.Add(unit.Cost.Scale(float64(r.Quantity)))
	}
	return r, nil
}

// Reorder 与相邻项交换。队首不可移动，其他项也不能移到队首。
func Reorder(c *entity.City, index int, dir Direction) error {
	if index < 0 || index >= len(c.BuildQueue) {
		return ErrIndexOutOfRange.WithData("index", index)
	}
	var target int
	switch dir {
	case Up:
		target = index - 1
	case Down:
		target = index + 1
	default:
		return ErrBadDirection.WithData("direction", string(dir))
	}
	if index == 0 || target == 0 {
		return ErrHeadLocked.WithData("index", index)
	}
	if target >= len(c.BuildQueue) {
		return ErrIndexOutOfRange.WithData("index", target)
	}
	c.BuildQueue[index], c.BuildQueue[target] = c.BuildQueue[target], c.BuildQueue[index]
	return nil
}
