package actors

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"Nightfall/internal/game/engine"
	gentity "Nightfall/internal/game/entity"
	"Nightfall/internal/gateway/protocol"
	"Nightfall/internal/lobby/messages"
	"Nightfall/internal/session"
	"Nightfall/internal/session/app/port"
	"Nightfall/internal/session/dc"
	"Nightfall/modules/kit/errx"
	"Nightfall/modules/kit/logx"
)

// Deps 是大厅需要的全部外部依赖。Repo 为 nil 时会话不落盘。
type Deps struct {
	Repo         port.SessionRepository
	Simulator    *engine.Simulator
	NewState     func() (*gentity.GameState, error)
	TickInterval time.Duration
	FlushEvery   time.Duration
	Logger       logx.Logger
	NewID        func() string
}

type sessionRef struct {
	pid   *actor.PID
	coord *session.Coordinator
}

// ManagerActor 是大厅：串行处理建局、查局、列表，并为每局 spawn 一个 SessionActor。
type ManagerActor struct {
	deps     Deps
	log      logx.Logger
	sessions map[string]sessionRef
}

func NewManagerActor(deps Deps) *ManagerActor {
	if deps.Logger == nil {
		deps.Logger = logx.NewZapLogger(nil)
	}
	if deps.NewID == nil {
		deps.NewID = NewSessionID
	}
	return &ManagerActor{
		deps:     deps,
		log:      deps.Logger,
		sessions: make(map[string]sessionRef),
	}
}

// NewSessionID 取 uuid 前 8 位。
func NewSessionID() string {
	return uuid.NewString()[:8]
}

func (m *ManagerActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		m.restore(ctx)
	case *messages.CreateSession:
		m.create(ctx)
	case *messages.GetSession:
		ref, ok := m.sessions[msg.SessionID()]
		if !ok {
			ctx.Respond(fail(ErrSessionNotFound.WithData("session_id", msg.SessionID())))
			return
		}
		ctx.Respond(&messages.GetSessionResp{Coordinator: ref.coord})
	case *messages.ListSessions:
		ctx.Respond(&messages.ListSessionsResp{Sessions: m.list()})
	case *messages.FlushSession:
		ref, ok := m.sessions[msg.SessionID()]
		if !ok {
			ctx.Respond(fail(ErrSessionNotFound.WithData("session_id", msg.SessionID())))
			return
		}
		ctx.Forward(ref.pid)
	case *messages.StopSession:
		ref, ok := m.sessions[msg.SessionID()]
		if !ok {
			ctx.Respond(fail(ErrSessionNotFound.WithData("session_id", msg.SessionID())))
			return
		}
		delete(m.sessions, msg.SessionID())
		// 等 SessionActor 完成最后一次落盘再回复
		if err := ctx.StopFuture(ref.pid).Wait(); err != nil {
			ctx.Respond(fail(errx.ErrTimeout.WithCause(err)))
			return
		}
		ctx.Respond(&messages.StopSessionResp{})
	default:
		return
	}
}

func (m *ManagerActor) create(ctx actor.Context) {
	if m.deps.NewState == nil {
		ctx.Respond(fail(ErrWorldLoad))
		return
	}
	st, err := m.deps.NewState()
	if err != nil {
		werr := ErrWorldLoad.WithCause(err)
		logx.ReportSysErrorWithLoggerContext(context.Background(), m.log, logx.NewSysLog("lobby.create", werr))
		ctx.Respond(fail(werr))
		return
	}
	id := m.deps.NewID()
	for _, exists := m.sessions[id]; exists; _, exists = m.sessions[id] {
		id = m.deps.NewID()
	}
	coord := session.New(id, st, m.deps.Simulator, m.sessionOptions())
	m.spawn(ctx, coord, 0)
	m.log.Info("session created", zap.String("session_id", id))
	ctx.Respond(&messages.CreateSessionResp{Coordinator: coord})
}

// restore 启动时把存档里的会话全部拉起来；单个存档损坏只跳过它。
func (m *ManagerActor) restore(ctx actor.Context) {
	if m.deps.Repo == nil {
		return
	}
	bg := context.Background()
	snaps, err := m.deps.Repo.List(bg)
	if err != nil {
		logx.ReportSysErrorWithLoggerContext(bg, m.log, logx.NewSysLog("lobby.restore", err))
		return
	}
	for _, snap := range snaps {
		coord, err := session.Restore(snap, m.deps.Simulator, m.sessionOptions())
		if err != nil {
			logx.ReportSysErrorWithLoggerContext(bg, m.log, logx.NewSysLog("lobby.restore.decode", errx.ErrInternal.WithCause(err)),
				zap.String("session_id", snap.SessionID))
			continue
		}
		m.spawn(ctx, coord, snap.Version)
	}
	if len(snaps) > 0 {
		m.log.Info("sessions restored", zap.Int("count", len(m.sessions)))
	}
}

func (m *ManagerActor) spawn(ctx actor.Context, coord *session.Coordinator, version uint64) {
	var d *dc.SessionDC
	if m.deps.Repo != nil {
		d = dc.NewSessionDC(m.deps.Repo, coord,
			dc.WithInitialVersion(version),
			dc.WithFlushEvery(m.deps.FlushEvery),
			dc.WithLogger(m.log),
		)
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewSessionActor(coord, d, m.log)
	})
	pid := ctx.Spawn(props)
	m.sessions[coord.ID()] = sessionRef{pid: pid, coord: coord}
}

func (m *ManagerActor) sessionOptions() session.Options {
	return session.Options{TickInterval: m.deps.TickInterval, Logger: m.log}
}

func (m *ManagerActor) list() []protocol.SessionInfo {
	out := make([]protocol.SessionInfo, 0, len(m.sessions))
	for _, ref := range m.sessions {
		out = append(out, ref.coord.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

func fail(err error) *messages.FailResp {
	msg := err.Error()
	var e *errx.Error
	if errors.As(err, &e) {
		msg = e.Msg()
	}
	return &messages.FailResp{Code: string(errx.CodeOf(err)), Message: msg, Sys: !errx.IsBiz(err)}
}
