package actors

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"Nightfall/internal/lobby/messages"
	"Nightfall/internal/session"
	"Nightfall/internal/session/dc"
	"Nightfall/modules/kit/logx"
)

type State int

const (
	None State = iota
	Online
	Stopping
	Offline
)

// SessionActor 管一局会话的生命周期：定时把脏快照交给写回器，停止时停掉 tick 并做最后一次落盘。
// dc 为 nil 表示不落盘。
// 游戏逻辑本身在 Coordinator 里，由它自己的锁保护，不经过 actor 邮箱。
type SessionActor struct {
	state     State
	coord     *session.Coordinator
	dc        *dc.SessionDC
	log       logx.Logger
	flushStop chan struct{}
}

type flushTick struct{}

func (flushTick) NotInfluenceReceiveTimeout() {}

func NewSessionActor(coord *session.Coordinator, d *dc.SessionDC, l logx.Logger) *SessionActor {
	if l == nil {
		l = logx.NewZapLogger(nil)
	}
	return &SessionActor{
		state: None,
		coord: coord,
		dc:    d,
		log:   l.With(zap.String("session_id", coord.ID())),
	}
}

func (p *SessionActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		p.state = Online
		p.startFlushLoop(ctx)
		return
	case *actor.Stopping:
		p.stopFlushLoop()
		p.coord.Stop()
		p.state = Stopping
		if p.dc == nil {
			return
		}
		closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := p.dc.Close(closeCtx); err != nil {
			logx.ReportSysErrorWithLoggerContext(closeCtx, p.log, logx.NewSysLog("session.dc.close", err))
		}
		return
	case *actor.Stopped:
		p.stopFlushLoop()
		p.state = Offline
		return
	case *actor.Restarting:
		p.stopFlushLoop()
		return
	case flushTick:
		if p.state != Online || p.dc == nil {
			return
		}
		if err := p.dc.Flush(context.Background()); err != nil {
			logx.ReportSysErrorWithLoggerContext(context.Background(), p.log, logx.NewSysLog("session.flush", err))
		}
		return
	case *messages.FlushSession:
		if msg == nil || p.state != Online {
			ctx.Respond(fail(ErrSessionNotFound))
			return
		}
		if p.dc == nil {
			ctx.Respond(&messages.FlushSessionResp{})
			return
		}
		if err := p.dc.Flush(context.Background()); err != nil {
			ctx.Respond(fail(err))
			return
		}
		ctx.Respond(&messages.FlushSessionResp{Version: p.dc.Version()})
	default:
		return
	}
}

func (p *SessionActor) startFlushLoop(ctx actor.Context) {
	if p.flushStop != nil || p.dc == nil {
		return
	}
	interval := p.dc.FlushEvery()
	if interval <= 0 {
		return
	}
	p.flushStop = make(chan struct{})
	self := ctx.Self()
	root := ctx.ActorSystem().Root

	go func(stop <-chan struct{}, every time.Duration) {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				root.Send(self, flushTick{})
			case <-stop:
				return
			}
		}
	}(p.flushStop, interval)
}

func (p *SessionActor) stopFlushLoop() {
	if p.flushStop == nil {
		return
	}
	close(p.flushStop)
	p.flushStop = nil
}
