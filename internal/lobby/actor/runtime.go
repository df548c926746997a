package actor

import (
	"context"
	"errors"
	"time"

	protoactor "github.com/asynkron/protoactor-go/actor"

	"Nightfall/internal/gateway/protocol"
	"Nightfall/internal/lobby/actors"
	"Nightfall/internal/lobby/messages"
	"Nightfall/internal/session"
	"Nightfall/internal/shared/transport"
	"Nightfall/modules/kit/errx"
)

const defaultAskTimeout = 3 * time.Second

type RuntimeError struct {
	Code    int
	Message string
	Cause   error
}

func (e *RuntimeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RuntimeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Runtime 是大厅 actor 系统的同步门面，网关和管理接口通过它建局、查局。
type Runtime struct {
	system  *protoactor.ActorSystem
	root    *protoactor.RootContext
	manager *protoactor.PID
	timeout time.Duration
}

func NewRuntime(deps actors.Deps, askTimeout time.Duration) *Runtime {
	if askTimeout <= 0 {
		askTimeout = defaultAskTimeout
	}

	system := protoactor.NewActorSystem()
	root := system.Root
	managerProps := protoactor.PropsFromProducer(func() protoactor.Actor {
		return actors.NewManagerActor(deps)
	})
	// manager 只做路由、查表、维护元数据，不做重活
	manager := root.Spawn(managerProps)

	return &Runtime{
		system:  system,
		root:    root,
		manager: manager,
		timeout: askTimeout,
	}
}

// Shutdown 先停 manager（子会话依次停止并落盘），再关闭 actor 系统。
func (r *Runtime) Shutdown() {
	if r == nil {
		return
	}
	if r.root != nil && r.manager != nil {
		_ = r.root.StopFuture(r.manager).Wait()
	}
	if r.system != nil {
		r.system.Shutdown()
	}
}

func (r *Runtime) CreateSession(ctx context.Context) (*session.Coordinator, error) {
	res, err := r.request(r.manager, &messages.CreateSession{}, r.timeoutFromContext(ctx))
	if err != nil {
		return nil, err
	}
	resp, ok := res.(*messages.CreateSessionResp)
	if !ok {
		return nil, badReply(res)
	}
	return resp.Coordinator, nil
}

func (r *Runtime) GetSession(ctx context.Context, sessionID string) (*session.Coordinator, error) {
	msg := &messages.GetSession{SessionBaseMessage: messages.SessionBaseMessage{ID: sessionID}}
	res, err := r.request(r.manager, msg, r.timeoutFromContext(ctx))
	if err != nil {
		return nil, err
	}
	resp, ok := res.(*messages.GetSessionResp)
	if !ok {
		return nil, badReply(res)
	}
	return resp.Coordinator, nil
}

func (r *Runtime) ListSessions(ctx context.Context) ([]protocol.SessionInfo, error) {
	res, err := r.request(r.manager, &messages.ListSessions{}, r.timeoutFromContext(ctx))
	if err != nil {
		return nil, err
	}
	resp, ok := res.(*messages.ListSessionsResp)
	if !ok {
		return nil, badReply(res)
	}
	return resp.Sessions, nil
}

// FlushSession 立即落盘，返回本次快照版本号（不脏时为上一次的版本）。
func (r *Runtime) FlushSession(ctx context.Context, sessionID string) (uint64, error) {
	msg := &messages.FlushSession{SessionBaseMessage: messages.SessionBaseMessage{ID: sessionID}}
	res, err := r.request(r.manager, msg, r.timeoutFromContext(ctx))
	if err != nil {
		return 0, err
	}
	resp, ok := res.(*messages.FlushSessionResp)
	if !ok {
		return 0, badReply(res)
	}
	return resp.Version, nil
}

func (r *Runtime) StopSession(ctx context.Context, sessionID string) error {
	msg := &messages.StopSession{SessionBaseMessage: messages.SessionBaseMessage{ID: sessionID}}
	res, err := r.request(r.manager, msg, r.timeoutFromContext(ctx))
	if err != nil {
		return err
	}
	if _, ok := res.(*messages.StopSessionResp); !ok {
		return badReply(res)
	}
	return nil
}

func (r *Runtime) request(pid *protoactor.PID, msg any, timeout time.Duration) (any, error) {
	if r == nil || r.root == nil {
		return nil, &RuntimeError{Code: transport.SystemError, Message: "actor runtime 未初始化"}
	}
	if pid == nil {
		return nil, &RuntimeError{Code: transport.SystemError, Message: "actor pid 为空"}
	}

	future := r.root.RequestFuture(pid, msg, timeout)
	res, err := future.Result()
	if err != nil {
		return nil, &RuntimeError{
			Code:    transport.SystemError,
			Message: "actor 请求失败",
			Cause:   err,
		}
	}
	return res, nil
}

func (r *Runtime) timeoutFromContext(ctx context.Context) time.Duration {
	if r == nil || r.timeout <= 0 {
		return defaultAskTimeout
	}
	if ctx == nil {
		return r.timeout
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return r.timeout
	}
	remain := time.Until(deadline)
	if remain <= 0 {
		return time.Millisecond
	}
	if remain < r.timeout {
		return remain
	}
	return r.timeout
}

// badReply 把 FailResp 还原成业务错误，其余类型视为系统错误。
func badReply(res any) error {
	if f, ok := res.(*messages.FailResp); ok && f != nil {
		if f.Code == string(actors.CodeSessionNotFound) {
			return actors.ErrSessionNotFound
		}
		if f.Sys {
			return errx.NewSys(errx.Code(f.Code), f.Message)
		}
		return errx.NewBiz(errx.Code(f.Code), f.Message)
	}
	return &RuntimeError{
		Code:    transport.SystemError,
		Message: "actor 返回类型非法",
	}
}

// IsTimeout 判断是否为 actor 请求超时。
func IsTimeout(err error) bool {
	return errors.Is(err, protoactor.ErrTimeout)
}

func CodeFromError(err error) int {
	if err == nil {
		return transport.OK
	}
	var re *RuntimeError
	if errors.As(err, &re) && re != nil && re.Code != 0 {
		return re.Code
	}
	if errx.IsBiz(err) {
		return transport.Rejected
	}
	return transport.SystemError
}
