package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"Nightfall/internal/game/entity"
)

// 出站消息类型。
const (
	TypeStateUpdate = "state_update"
	TypeAck         = "ack"
	TypeError       = "error"
	TypeSessionList = "session_list"
)

// 入站命令。
const (
	CmdCreateSession = "create_session"
	CmdJoinSession   = "join_session"
	CmdListSessions  = "list_sessions"
	CmdLeaveSession  = "leave_session"
	CmdSetOrders     = "set_orders"
	CmdCancelOrder   = "cancel_order"
	CmdReorderOrder  = "reorder_order"
)

// Request 入站信封：{command, player_id, payload}，一行一条。
type Request struct {
	Command  string          `json:"command"`
	PlayerID string          `json:"player_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Envelope 出站信封：{type, payload}。
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ErrorPayload 是 error 消息体。
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AckPayload 是 ack 消息体；SessionID/Ticket 只在创建或加入会话时带上。
type AckPayload struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	PlayerID  string `json:"player_id,omitempty"`
	Ticket    string `json:"ticket,omitempty"`
}

// SessionInfo 是 session_list 里的一项。
type SessionInfo struct {
	SessionID string   `json:"session_id"`
	Status    string   `json:"status"`
	Turn      int      `json:"turn"`
	Players   []string `json:"players"`
	Clients   int      `json:"clients"`
}

// DecodeRequest 解析一行入站消息；command 为空视为格式错误。
func DecodeRequest(line []byte) (*Request, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, fmt.Errorf("empty message")
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, err
	}
	if req.Command == "" {
		return nil, fmt.Errorf("missing command")
	}
	return &req, nil
}

// Encode 编码出站信封，不带换行（由传输层补帧）。
func Encode(typ string, payload any) ([]byte, error) {
	return json.Marshal(Envelope{Type: typ, Payload: payload})
}

// EncodeStateUpdate 把完整 GameState 包成 state_update。
func EncodeStateUpdate(st *entity.GameState) ([]byte, error) {
	raw, err := st.Encode()
	if err != nil {
		return nil, err
	}
	return EncodeStateRaw(raw)
}

// EncodeStateRaw 用已序列化的状态拼 state_update，避免重复编码。
func EncodeStateRaw(state []byte) ([]byte, error) {
	return Encode(TypeStateUpdate, json.RawMessage(state))
}

func EncodeAck(ack AckPayload) ([]byte, error) {
	return Encode(TypeAck, ack)
}

func EncodeError(code, message string) ([]byte, error) {
	return Encode(TypeError, ErrorPayload{Code: code, Message: message})
}

func EncodeSessionList(list []SessionInfo) ([]byte, error) {
	if list == nil {
		list = []SessionInfo{}
	}
	return Encode(TypeSessionList, list)
}

// Inbound 是客户端视角解析出站信封的结果，payload 延迟解码。
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func DecodeInbound(line []byte) (*Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(bytes.TrimSpace(line), &in); err != nil {
		return nil, err
	}
	if in.Type == "" {
		return nil, fmt.Errorf("missing type")
	}
	return &in, nil
}
