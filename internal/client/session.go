package client

import (
	"context"
	"encoding/json"

	"Nightfall/internal/game/action"
	"Nightfall/internal/game/entity"
	"Nightfall/internal/game/predict"
	"Nightfall/internal/gateway/protocol"
)

// Session 是已加入会话的客户端视图：权威状态到达时重置预测器，本地指令先预测再提交。
type Session struct {
	client *Client
	pred   *predict.Predictor
	ack    protocol.AckPayload
	base   *entity.GameState
	// sent 是 pending 中已提交的条数，权威状态到达时清零。
	sent int
}

func (c *Client) CreateSession(ctx context.Context, exec *action.Executor, playerID string) (*Session, error) {
	if err := c.Send(protocol.CmdCreateSession, playerID, nil); err != nil {
		return nil, err
	}
	return c.enter(ctx, exec)
}

func (c *Client) JoinSession(ctx context.Context, exec *action.Executor, sessionID, playerID string) (*Session, error) {
	if err := c.Send(protocol.CmdJoinSession, "", protocol.JoinSessionReq{SessionID: sessionID, PlayerID: playerID}); err != nil {
		return nil, err
	}
	return c.enter(ctx, exec)
}

// Rejoin 凭上次 ack 里的票据回到原会话。
func (c *Client) Rejoin(ctx context.Context, exec *action.Executor, ticket string) (*Session, error) {
	if err := c.Send(protocol.CmdJoinSession, "", protocol.JoinSessionReq{Ticket: ticket}); err != nil {
		return nil, err
	}
	return c.enter(ctx, exec)
}

func (c *Client) ListSessions(ctx context.Context) ([]protocol.SessionInfo, error) {
	if err := c.Send(protocol.CmdListSessions, "", nil); err != nil {
		return nil, err
	}
	for {
		in, err := c.Recv(ctx)
		if err != nil {
			return nil, err
		}
		if err := AsError(in); err != nil {
			return nil, err
		}
		if in.Type != protocol.TypeSessionList {
			continue
		}
		var list []protocol.SessionInfo
		if err := json.Unmarshal(in.Payload, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
}

// enter 服务端先推 state_update 再回 ack。
func (c *Client) enter(ctx context.Context, exec *action.Executor) (*Session, error) {
	s := &Session{client: c}
	for {
		in, err := c.Recv(ctx)
		if err != nil {
			return nil, err
		}
		if err := AsError(in); err != nil {
			return nil, err
		}
		switch in.Type {
		case protocol.TypeStateUpdate:
			st, err := entity.Decode(in.Payload)
			if err != nil {
				return nil, err
			}
			s.base = st
		case protocol.TypeAck:
			if err := json.Unmarshal(in.Payload, &s.ack); err != nil {
				return nil, err
			}
			s.pred = predict.NewPredictor(exec, s.ack.PlayerID)
			if s.base != nil {
				s.pred.Reset(s.base)
			}
			return s, nil
		}
	}
}

func (s *Session) ID() string       { return s.ack.SessionID }
func (s *Session) PlayerID() string { return s.ack.PlayerID }
func (s *Session) Ticket() string   { return s.ack.Ticket }

// State 是最近一次收到的权威状态。
func (s *Session) State() *entity.GameState { return s.base }

func (s *Session) Predictor() *predict.Predictor { return s.pred }

// Order 在本地预测视图上执行一条指令，返回是否合法；合法与否都会进入待提交列表。
func (s *Session) Order(a entity.Action) bool {
	if a.PlayerID == "" {
		a.PlayerID = s.ack.PlayerID
	}
	return s.pred.Enqueue(a)
}

// Submit 把尚未提交的指令作为一批 set_orders 发出并等 ack。没有新指令时什么也不做。
func (s *Session) Submit(ctx context.Context) error {
	pending := s.pred.Pending()
	if s.sent >= len(pending) {
		return nil
	}
	batch := pending[s.sent:]
	if err := s.client.Send(protocol.CmdSetOrders, s.ack.PlayerID, batch); err != nil {
		return err
	}
	s.sent = len(pending)
	return s.awaitAck(ctx)
}

func (s *Session) CancelOrder(ctx context.Context, cityID string, index int, queueName string) error {
	req := protocol.CancelOrderReq{CityID: cityID, Index: &index, Queue: queueName}
	if err := s.client.Send(protocol.CmdCancelOrder, s.ack.PlayerID, req); err != nil {
		return err
	}
	return s.awaitAck(ctx)
}

func (s *Session) ReorderOrder(ctx context.Context, cityID string, index int, direction string) error {
	req := protocol.ReorderOrderReq{CityID: cityID, Index: &index, Direction: direction}
	if err := s.client.Send(protocol.CmdReorderOrder, s.ack.PlayerID, req); err != nil {
		return err
	}
	return s.awaitAck(ctx)
}

func (s *Session) Leave(ctx context.Context) error {
	if err := s.client.Send(protocol.CmdLeaveSession, s.ack.PlayerID, nil); err != nil {
		return err
	}
	return s.awaitAck(ctx)
}

// Next 收下一帧；state_update 会替换权威状态并丢弃全部预测。
func (s *Session) Next(ctx context.Context) (*protocol.Inbound, error) {
	in, err := s.client.Recv(ctx)
	if err != nil {
		return nil, err
	}
	if in.Type == protocol.TypeStateUpdate {
		if err := s.apply(in.Payload); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// WaitState 一直收到下一条 state_update 为止。
func (s *Session) WaitState(ctx context.Context) (*entity.GameState, error) {
	for {
		in, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if in.Type == protocol.TypeStateUpdate {
			return s.base, nil
		}
	}
}

func (s *Session) apply(raw json.RawMessage) error {
	st, err := entity.Decode(raw)
	if err != nil {
		return err
	}
	s.base = st
	s.sent = 0
	s.pred.Reset(st)
	return nil
}

func (s *Session) awaitAck(ctx context.Context) error {
	for {
		in, err := s.Next(ctx)
		if err != nil {
			return err
		}
		if err := AsError(in); err != nil {
			return err
		}
		if in.Type == protocol.TypeAck {
			return nil
		}
	}
}
