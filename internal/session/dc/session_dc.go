package dc

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"Nightfall/internal/session/app/port"
	"Nightfall/internal/session/entity"
	"Nightfall/modules/kit/logx"
)

var ErrRepositoryNil = errors.New("session repository is nil")

// Source 是可落盘的会话。BuildPersistSnapshot 成功时同时清除脏标记。
type Source interface {
	ID() string
	Dirty() bool
	BuildPersistSnapshot(version uint64) (*entity.SessionPersistSnapshot, bool)
}

// SessionDC 是单个会话的异步写回器：Flush 只生成带版本号的快照放进 pending，
// 后台 writerLoop 只写最新的一份；写失败时重排，更高版本到来会直接覆盖它。
type SessionDC struct {
	repo       port.SessionRepository
	source     Source
	flushEvery time.Duration
	retryDelay time.Duration
	log        logx.Logger

	mu      sync.Mutex
	pending *entity.SessionPersistSnapshot
	version uint64
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

type Option func(*SessionDC)

// WithInitialVersion 从存档恢复时接着旧版本号往上加。
func WithInitialVersion(v uint64) Option {
	return func(d *SessionDC) { d.version = v }
}

func WithFlushEvery(every time.Duration) Option {
	return func(d *SessionDC) {
		if every > 0 {
			d.flushEvery = every
		}
	}
}

func WithRetryDelay(delay time.Duration) Option {
	return func(d *SessionDC) {
		if delay > 0 {
			d.retryDelay = delay
		}
	}
}

func WithLogger(l logx.Logger) Option {
	return func(d *SessionDC) {
		if l != nil {
			d.log = l
		}
	}
}

func NewSessionDC(repo port.SessionRepository, src Source, opts ...Option) *SessionDC {
	d := &SessionDC{
		repo:       repo,
		source:     src,
		flushEvery: 10 * time.Second,
		retryDelay: 200 * time.Millisecond,
		log:        logx.NewZapLogger(nil),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.writerLoop()
	return d
}

// Flush 在 ctx 已取消时不生成快照，脏标记留给下一次。
func (d *SessionDC) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.IsDirty() {
		return nil
	}
	if d.repo == nil {
		return ErrRepositoryNil
	}
	s, ok := d.buildNextSnapshot()
	if !ok {
		return nil
	}
	d.enqueueLatest(s)
	return nil
}

func (d *SessionDC) IsDirty() bool {
	if d.source == nil {
		return false
	}
	return d.source.Dirty()
}

func (d *SessionDC) FlushEvery() time.Duration {
	return d.flushEvery
}

// Version 返回最近一次生成快照用的版本号。
func (d *SessionDC) Version() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Close 先做最后一次 Flush，再等待写协程把 pending 写完。
func (d *SessionDC) Close(ctx context.Context) error {
	_ = d.Flush(ctx)

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.stop)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *SessionDC) buildNextSnapshot() (*entity.SessionPersistSnapshot, bool) {
	if d.source == nil {
		return nil, false
	}
	d.mu.Lock()
	d.version++
	version := d.version
	d.mu.Unlock()

	return d.source.BuildPersistSnapshot(version)
}

func (d *SessionDC) enqueueLatest(s *entity.SessionPersistSnapshot) {
	if s == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.pending == nil || d.pending.Version < s.Version {
		d.pending = s
	}
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *SessionDC) popPending() *entity.SessionPersistSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.pending
	d.pending = nil
	return s
}

// requeueOnError 关闭后不再重排，最后一次写失败只记日志。
func (d *SessionDC) requeueOnError(s *entity.SessionPersistSnapshot) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	if d.pending == nil || d.pending.Version < s.Version {
		d.pending = s
	}
	d.mu.Unlock()
	return true
}

func (d *SessionDC) writerLoop() {
	defer close(d.done)

	for {
		select {
		case <-d.wake:
			d.consumePending()
		case <-d.stop:
			d.consumePending()
			return
		}
	}
}

func (d *SessionDC) consumePending() {
	for {
		s := d.popPending()
		if s == nil {
			return
		}
		if err := d.repo.Save(context.Background(), s); err != nil {
			logx.ReportSysErrorWithLoggerContext(context.Background(), d.log, logx.NewSysLog("session.dc.save", err),
				zap.String("session_id", s.SessionID),
				zap.Uint64("version", s.Version),
			)
			// 写库失败时重排当前快照；若已有更新快照，会被更高 version 覆盖。
			if !d.requeueOnError(s) {
				return
			}
			select {
			case <-time.After(d.retryDelay):
			case <-d.stop:
				// 关闭时再试最后一次
				if err := d.repo.Save(context.Background(), d.latest(s)); err != nil {
					logx.ReportSysErrorWithLoggerContext(context.Background(), d.log, logx.NewSysLog("session.dc.final_save", err),
						zap.String("session_id", s.SessionID))
				}
				return
			}
			continue
		}
	}
}

// latest 取 pending 与 s 中版本更高的一份。
func (d *SessionDC) latest(s *entity.SessionPersistSnapshot) *entity.SessionPersistSnapshot {
	if p := d.popPending(); p != nil && p.Version > s.Version {
		return p
	}
	return s
}
