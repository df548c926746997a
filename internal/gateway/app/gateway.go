package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"Nightfall/internal/gateway/protocol"
	"Nightfall/internal/session"
	sentity "Nightfall/internal/session/entity"
	"Nightfall/internal/shared/security"
	"Nightfall/internal/shared/transport"
	"Nightfall/modules/kit/errx"
	"Nightfall/modules/kit/logx"
)

// propCoordinator 连接当前所在会话的协调器。
const propCoordinator = "coordinator"

type phase int

const (
	phaseAny phase = iota
	phaseLobby
	phaseSession
)

type handleFunc func(ctx context.Context, c transport.Conn, req *protocol.Request) error

type route struct {
	phase phase
	fn    handleFunc
}

type Options struct {
	TicketTTL time.Duration
	Logger    logx.Logger
}

// Gateway 是 TCP/WS 共用的命令入口：解析请求、按阶段校验、分发到大厅或会话。
type Gateway struct {
	lobby     Lobby
	ticketTTL time.Duration
	log       logx.Logger
	routes    map[string]route
}

func NewGateway(lobby Lobby, opts Options) *Gateway {
	g := &Gateway{
		lobby:     lobby,
		ticketTTL: opts.TicketTTL,
		log:       opts.Logger,
	}
	if g.log == nil {
		g.log = logx.NewZapLogger(nil)
	}
	g.routes = map[string]route{
		protocol.CmdCreateSession: {phaseLobby, g.createSession},
		protocol.CmdJoinSession:   {phaseLobby, g.joinSession},
		protocol.CmdListSessions:  {phaseAny, g.listSessions},
		protocol.CmdLeaveSession:  {phaseSession, g.leaveSession},
		protocol.CmdSetOrders:     {phaseSession, g.setOrders},
		protocol.CmdCancelOrder:   {phaseSession, g.cancelOrder},
		protocol.CmdReorderOrder:  {phaseSession, g.reorderOrder},
	}
	return g
}

func (g *Gateway) OnOpen(c transport.Conn) {
	g.log.Debug("conn open", zap.String("conn_id", c.ID()), zap.String("addr", c.Addr()))
}

func (g *Gateway) OnMessage(ctx context.Context, c transport.Conn, msg []byte) {
	req, decErr := protocol.DecodeRequest(msg)
	action := "gateway.bad_request"
	if decErr == nil {
		action = "gateway." + req.Command
	}
	ctx = transport.NewContextWithParent(ctx, action)
	defer transport.WriteAccessLog(ctx, g.log)
	transport.AddFields(ctx, zap.String("conn_id", c.ID()))

	if decErr != nil {
		g.replyError(ctx, c, action, ErrBadRequest.WithCause(decErr))
		return
	}
	r, ok := g.routes[req.Command]
	if !ok {
		g.replyError(ctx, c, action, ErrUnknownCommand.WithData("command", req.Command))
		return
	}

	coord := coordinatorOf(c)
	if coord != nil {
		transport.AddFields(ctx,
			zap.String("session_id", coord.ID()),
			zap.String("player_id", transport.StringProperty(c, transport.PropPlayerID)),
		)
	}
	switch {
	case r.phase == phaseLobby && coord != nil:
		g.replyError(ctx, c, action, ErrAlreadyInSession)
		return
	case r.phase == phaseSession && coord == nil:
		g.replyError(ctx, c, action, ErrNotInSession)
		return
	}

	if err := r.fn(ctx, c, req); err != nil {
		g.replyError(ctx, c, action, err)
		return
	}
	transport.SetBizCode(ctx, transport.OK)
}

// OnReject 传输层限流等拒绝，只回 error 信封，不进 access 日志。
func (g *Gateway) OnReject(c transport.Conn, err error) {
	code := errx.CodeOf(err)
	msg := err.Error()
	if code == errx.CodeRateLimited {
		msg = errx.ErrRateLimited.Msg()
	}
	if frame, encErr := protocol.EncodeError(string(code), msg); encErr == nil {
		_ = c.Send(frame)
	}
}

// OnClose 断线只解绑，玩家的城市和队列保留在会话里。
func (g *Gateway) OnClose(c transport.Conn) {
	coord, _ := c.GetProperty(propCoordinator).(*session.Coordinator)
	if coord == nil {
		return
	}
	coord.Leave(transport.StringProperty(c, transport.PropPlayerID), c)
	g.log.Debug("conn closed",
		zap.String("conn_id", c.ID()),
		zap.String("session_id", coord.ID()),
	)
}

// coordinatorOf 会话已停止时视同不在会话中，并清掉连接上的残留属性。
func coordinatorOf(c transport.Conn) *session.Coordinator {
	coord, _ := c.GetProperty(propCoordinator).(*session.Coordinator)
	if coord == nil {
		return nil
	}
	if coord.Status() == sentity.StatusStopped {
		clearSession(c)
		return nil
	}
	return coord
}

func clearSession(c transport.Conn) {
	c.RemoveProperty(propCoordinator)
	c.RemoveProperty(transport.PropSessionID)
	c.RemoveProperty(transport.PropPlayerID)
}

func (g *Gateway) replyError(ctx context.Context, c transport.Conn, action string, err error) {
	bizCode, code, msg := HandleError(ctx, g.log, action, err)
	transport.SetBizCode(ctx, bizCode)
	if bizCode != transport.BizCode(transport.SystemError) {
		logx.ReportBizWithLoggerContext(ctx, g.log, logx.NewBizLogFromError(action, err))
	}
	frame, encErr := protocol.EncodeError(code, msg)
	if encErr != nil {
		return
	}
	if sendErr := c.Send(frame); sendErr != nil {
		g.log.Warn("send error envelope failed", zap.String("conn_id", c.ID()), zap.Error(sendErr))
	}
}

func (g *Gateway) send(c transport.Conn, frame []byte, err error) error {
	if err != nil {
		return errx.ErrInternal.WithCause(err)
	}
	if err := c.Send(frame); err != nil {
		return errx.ErrUnavailable.WithCause(err)
	}
	return nil
}

// ============ Lobby ============

func (g *Gateway) createSession(ctx context.Context, c transport.Conn, req *protocol.Request) error {
	var body protocol.CreateSessionReq
	if err := protocol.DecodePayload(req.Payload, &body); err != nil {
		return ErrBadRequest.WithCause(err)
	}
	playerID := firstNonEmpty(body.PlayerID, req.PlayerID)

	coord, err := g.lobby.CreateSession(ctx)
	if err != nil {
		return err
	}
	if playerID == "" {
		players := coord.Info().Players
		if len(players) == 0 {
			return session.ErrUnknownPlayer.WithData("session_id", coord.ID())
		}
		playerID = players[0]
	}
	return g.enter(ctx, c, coord, playerID, "session created")
}

func (g *Gateway) joinSession(ctx context.Context, c transport.Conn, req *protocol.Request) error {
	var body protocol.JoinSessionReq
	if err := protocol.DecodePayload(req.Payload, &body); err != nil {
		return ErrBadRequest.WithCause(err)
	}
	sessionID := body.SessionID
	playerID := firstNonEmpty(body.PlayerID, req.PlayerID)

	if body.Ticket != "" {
		claims, err := security.ParseTicket(body.Ticket)
		if err != nil {
			return ErrBadTicket.WithCause(err)
		}
		if (sessionID != "" && sessionID != claims.SessionID) || (playerID != "" && playerID != claims.PlayerID) {
			return ErrBadTicket.WithDataMap(map[string]any{"session_id": sessionID, "player_id": playerID})
		}
		sessionID, playerID = claims.SessionID, claims.PlayerID
	}
	if sessionID == "" || playerID == "" {
		return ErrBadRequest.WithDataMap(map[string]any{"session_id": sessionID, "player_id": playerID})
	}

	coord, err := g.lobby.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	return g.enter(ctx, c, coord, playerID, "joined")
}

// enter 先写连接属性再 Join：Join 会立即推 state_update，随后回 ack 与重连票据。
func (g *Gateway) enter(ctx context.Context, c transport.Conn, coord *session.Coordinator, playerID, message string) error {
	c.SetProperty(propCoordinator, coord)
	c.SetProperty(transport.PropSessionID, coord.ID())
	c.SetProperty(transport.PropPlayerID, playerID)
	transport.AddFields(ctx, zap.String("session_id", coord.ID()), zap.String("player_id", playerID))

	if err := coord.Join(ctx, playerID, c); err != nil {
		clearSession(c)
		return err
	}

	ticket, err := security.IssueTicket(coord.ID(), playerID, g.ticketTTL)
	if err != nil {
		g.log.Warn("issue ticket failed", zap.String("session_id", coord.ID()), zap.Error(err))
		ticket = ""
	}
	frame, encErr := protocol.EncodeAck(protocol.AckPayload{
		Message:   message,
		SessionID: coord.ID(),
		PlayerID:  playerID,
		Ticket:    ticket,
	})
	return g.send(c, frame, encErr)
}

func (g *Gateway) listSessions(ctx context.Context, c transport.Conn, _ *protocol.Request) error {
	list, err := g.lobby.ListSessions(ctx)
	if err != nil {
		return err
	}
	frame, encErr := protocol.EncodeSessionList(list)
	return g.send(c, frame, encErr)
}

// ============ Session ============

func (g *Gateway) leaveSession(_ context.Context, c transport.Conn, _ *protocol.Request) error {
	coord := coordinatorOf(c)
	playerID := transport.StringProperty(c, transport.PropPlayerID)
	coord.Leave(playerID, c)
	clearSession(c)

	frame, encErr := protocol.EncodeAck(protocol.AckPayload{Message: "left", SessionID: coord.ID(), PlayerID: playerID})
	return g.send(c, frame, encErr)
}

func (g *Gateway) setOrders(ctx context.Context, c transport.Conn, req *protocol.Request) error {
	actions, err := protocol.DecodeOrders(req.Payload)
	if err != nil {
		return ErrBadRequest.WithCause(err)
	}
	n, err := coordinatorOf(c).SetOrders(ctx, transport.StringProperty(c, transport.PropPlayerID), actions)
	if err != nil {
		return err
	}
	transport.AddFields(ctx, zap.Int("orders", n))
	return g.ack(c, fmt.Sprintf("%d orders queued", n))
}

func (g *Gateway) cancelOrder(ctx context.Context, c transport.Conn, req *protocol.Request) error {
	var body protocol.CancelOrderReq
	if err := protocol.DecodePayload(req.Payload, &body); err != nil {
		return ErrBadRequest.WithCause(err)
	}
	if !body.Valid() {
		return ErrBadRequest.WithData("payload", string(req.Payload))
	}
	err := coordinatorOf(c).CancelOrder(ctx, transport.StringProperty(c, transport.PropPlayerID), body.CityID, *body.Index, strings.ToLower(body.Queue))
	if err != nil {
		return err
	}
	return g.ack(c, "order cancelled")
}

func (g *Gateway) reorderOrder(ctx context.Context, c transport.Conn, req *protocol.Request) error {
	var body protocol.ReorderOrderReq
	if err := protocol.DecodePayload(req.Payload, &body); err != nil {
		return ErrBadRequest.WithCause(err)
	}
	if !body.Valid() {
		return ErrBadRequest.WithData("payload", string(req.Payload))
	}
	err := coordinatorOf(c).ReorderOrder(ctx, transport.StringProperty(c, transport.PropPlayerID), body.CityID, *body.Index, body.Direction)
	if err != nil {
		return err
	}
	return g.ack(c, "order moved")
}

func (g *Gateway) ack(c transport.Conn, message string) error {
	frame, err := protocol.EncodeAck(protocol.AckPayload{
		Message:   message,
		SessionID: transport.StringProperty(c, transport.PropSessionID),
		PlayerID:  transport.StringProperty(c, transport.PropPlayerID),
	})
	return g.send(c, frame, err)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
