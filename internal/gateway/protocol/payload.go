package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"Nightfall/internal/game/entity"
)

// JoinSessionReq 二选一：session_id+player_id，或者一张重连票据。
type JoinSessionReq struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
	Ticket    string `json:"ticket"`
}

type CreateSessionReq struct {
	PlayerID string `json:"player_id"`
}

type SetOrdersReq struct {
	Actions []entity.Action `json:"actions"`
}

// CancelOrderReq 的 Queue 为空或 "build" 表示建造队列，"recruitment" 表示招募队列。
// Index 必填，缺省不能当作 0，否则会误取消队首。
type CancelOrderReq struct {
	CityID string `json:"city_id"`
	Index  *int   `json:"index"`
	Queue  string `json:"queue"`
}

type ReorderOrderReq struct {
	CityID    string `json:"city_id"`
	Index     *int   `json:"index"`
	Direction string `json:"direction"`
}

// Valid 检查必填字段。
func (r *CancelOrderReq) Valid() bool {
	return r.CityID != "" && r.Index != nil
}

func (r *ReorderOrderReq) Valid() bool {
	return r.CityID != "" && r.Index != nil && r.Direction != ""
}

const (
	QueueBuild       = "build"
	QueueRecruitment = "recruitment"
)

// DecodePayload 把 payload 解到 out。先按 json 解成通用结构再交给 mapstructure，
// 数字保持 json.Number，整型字段不会因浮点转换丢精度。
func DecodePayload(raw json.RawMessage, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return err
	}
	md, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return md.Decode(generic)
}

// DecodeOrders 兼容两种写法：payload 直接是动作数组，或 {"actions": [...]}。
func DecodeOrders(raw json.RawMessage) ([]entity.Action, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty orders")
	}
	if trimmed[0] == '[' {
		var list []entity.Action
		if err := DecodePayload(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var req SetOrdersReq
	if err := DecodePayload(raw, &req); err != nil {
		return nil, err
	}
	return req.Actions, nil
}
