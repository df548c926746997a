package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	gentity "Nightfall/internal/game/entity"
	"Nightfall/internal/game/engine"
	"Nightfall/internal/game/queue"
	"Nightfall/internal/gateway/protocol"
	sentity "Nightfall/internal/session/entity"
	"Nightfall/internal/shared/transport"
	"Nightfall/modules/kit/errx"
	"Nightfall/modules/kit/logx"
	"Nightfall/modules/kit/tracex"
)

const defaultTickInterval = time.Second

type Options struct {
	TickInterval time.Duration
	Logger       logx.Logger
	Now          func() time.Time
}

// Coordinator 管理一局游戏：一份 GameState、一把互斥锁、一个连接注册表、一个 tick 协程。
// 所有读写 GameState 的入口（tick、玩家命令、快照）都先拿锁，网络写在释放锁之后做。
// 出站帧的顺序由 outMu 保证：持 mu 时接过 outMu，解锁 mu 后发送，发完再放开 outMu，
// 于是帧的发送顺序与编码顺序一致。加锁顺序固定为 mu → outMu。
type Coordinator struct {
	id           string
	sim          *engine.Simulator
	registry     *Registry
	tickInterval time.Duration
	log          logx.Logger
	now          func() time.Time

	mu          sync.Mutex
	state       *gentity.GameState
	status      sentity.Status
	dirty       bool
	loopStarted bool

	outMu sync.Mutex

	stopCh   chan struct{}
	loopDone chan struct{}
}

func New(id string, st *gentity.GameState, sim *engine.Simulator, opts Options) *Coordinator {
	c := &Coordinator{
		id:           id,
		sim:          sim,
		tickInterval: opts.TickInterval,
		log:          opts.Logger,
		now:          opts.Now,
		state:        st,
		status:       sentity.StatusCreated,
		dirty:        true,
		stopCh:       make(chan struct{}),
		loopDone:     make(chan struct{}),
	}
	if c.tickInterval <= 0 {
		c.tickInterval = defaultTickInterval
	}
	if c.log == nil {
		c.log = logx.NewZapLogger(nil)
	}
	c.log = c.log.With(zap.String("session_id", id))
	if c.now == nil {
		c.now = time.Now
	}
	c.registry = NewRegistry(c.kick)
	return c
}

// Restore 从存档恢复，状态回到 Created，等第一个玩家加入再开始 tick。
func Restore(snap *sentity.SessionPersistSnapshot, sim *engine.Simulator, opts Options) (*Coordinator, error) {
	st, err := gentity.Decode(snap.State)
	if err != nil {
		return nil, err
	}
	c := New(snap.SessionID, st, sim, opts)
	c.dirty = false
	return c, nil
}

func (c *Coordinator) ID() string {
	return c.id
}

func (c *Coordinator) Status() sentity.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Coordinator) Registry() *Registry {
	return c.registry
}

func (c *Coordinator) TickInterval() time.Duration {
	return c.tickInterval
}

// Join 绑定连接并立即下发当前完整状态；第一次绑定时启动 tick 协程。
func (c *Coordinator) Join(ctx context.Context, playerID string, conn transport.Conn) error {
	c.mu.Lock()
	if c.status == sentity.StatusStopped {
		c.mu.Unlock()
		return ErrSessionStopped
	}
	if _, ok := c.state.Players[playerID]; !ok {
		c.mu.Unlock()
		return ErrUnknownPlayer.WithData("player_id", playerID)
	}
	frame, encErr := protocol.EncodeStateUpdate(c.state)
	start := !c.loopStarted
	if start {
		c.status = sentity.StatusRunning
		c.loopStarted = true
		c.dirty = true
	}
	c.registry.Bind(playerID, conn)
	c.outMu.Lock()
	c.mu.Unlock()
	defer c.outMu.Unlock()

	if start {
		go c.loop()
	}
	if encErr != nil {
		return errx.ErrInternal.WithCause(encErr)
	}
	if err := conn.Send(frame); err != nil {
		c.dropConn(ctx, playerID, conn, err)
		return errx.ErrUnavailable.WithCause(err)
	}
	return nil
}

// Leave 只摘掉连接句柄，城市、资源、队列原样保留。
func (c *Coordinator) Leave(playerID string, conn transport.Conn) bool {
	return c.registry.Unbind(playerID, conn)
}

// Tick 推进 dt 秒；状态有变化时序列化，解锁后广播。已停止的会话直接返回 false。
func (c *Coordinator) Tick(ctx context.Context, dt float64) bool {
	c.mu.Lock()
	if c.status == sentity.StatusStopped {
		c.mu.Unlock()
		return false
	}
	changed := c.sim.SimulateTimeSlice(ctx, c.state, dt)
	if !changed {
		c.mu.Unlock()
		return false
	}
	c.dirty = true
	frame, err := protocol.EncodeStateUpdate(c.state)
	if err != nil {
		c.mu.Unlock()
		logx.ReportSysErrorWithLoggerContext(ctx, c.log, logx.NewSysLog("session.tick.encode", errx.ErrInternal.WithCause(err)))
		return true
	}
	c.outMu.Lock()
	c.mu.Unlock()
	c.broadcast(ctx, frame)
	c.outMu.Unlock()
	return true
}

// SetOrders 把一批动作追加到玩家的入站队列，由下一次 tick 消费。
// 任一动作的 player_id 与当前玩家不符则整批拒绝。
func (c *Coordinator) SetOrders(ctx context.Context, playerID string, actions []gentity.Action) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == sentity.StatusStopped {
		return 0, ErrSessionStopped
	}
	p := c.state.Players[playerID]
	if p == nil {
		return 0, ErrUnknownPlayer.WithData("player_id", playerID)
	}
	for i, a := range actions {
		if a.PlayerID != "" && a.PlayerID != playerID {
			return 0, ErrPlayerMismatch.WithDataMap(map[string]any{"index": i, "player_id": a.PlayerID})
		}
		if !a.Kind.Valid() {
			return 0, ErrBadAction.WithDataMap(map[string]any{"index": i, "action_type": string(a.Kind)})
		}
	}
	for _, a := range actions {
		a.PlayerID = playerID
		p.ActionQueue = append(p.ActionQueue, a)
	}
	if len(actions) > 0 {
		c.dirty = true
		c.log.WithContext(ctx).Debug("orders queued",
			zap.String("player_id", playerID),
			zap.Int("count", len(actions)),
			zap.Int("pending", len(p.ActionQueue)),
		)
	}
	return len(actions), nil
}

// CancelOrder 取消建造或招募队列中的一项并退款；成功后立即广播。
func (c *Coordinator) CancelOrder(ctx context.Context, playerID, cityID string, index int, queueName string) error {
	return c.mutateCity(ctx, playerID, cityID, func(city *gentity.City) error {
		switch queueName {
		case "", protocol.QueueBuild:
			_, err := queue.Cancel(city, index)
			return err
		case protocol.QueueRecruitment:
			_, err := queue.CancelRecruitment(c.sim.Executor().Tables(), city, index)
			return err
		default:
			return ErrBadQueue.WithData("queue", queueName)
		}
	})
}

// ReorderOrder 与相邻项交换，队首不可动。
func (c *Coordinator) ReorderOrder(ctx context.Context, playerID, cityID string, index int, direction string) error {
	return c.mutateCity(ctx, playerID, cityID, func(city *gentity.City) error {
		return queue.Reorder(city, index, queue.Direction(direction))
	})
}

func (c *Coordinator) mutateCity(ctx context.Context, playerID, cityID string, fn func(city *gentity.City) error) error {
	c.mu.Lock()
	if c.status == sentity.StatusStopped {
		c.mu.Unlock()
		return ErrSessionStopped
	}
	city := c.state.PlayerCity(playerID, cityID)
	if city == nil {
		c.mu.Unlock()
		return ErrCityNotOwned.WithDataMap(map[string]any{"player_id": playerID, "city_id": cityID})
	}
	if err := fn(city); err != nil {
		c.mu.Unlock()
		return err
	}
	c.dirty = true
	frame, encErr := protocol.EncodeStateUpdate(c.state)
	if encErr != nil {
		c.mu.Unlock()
		logx.ReportSysErrorWithLoggerContext(ctx, c.log, logx.NewSysLog("session.mutate.encode", errx.ErrInternal.WithCause(encErr)))
		return nil
	}
	c.outMu.Lock()
	c.mu.Unlock()
	c.broadcast(ctx, frame)
	c.outMu.Unlock()
	return nil
}

// Snapshot 返回锁内序列化的完整状态。
func (c *Coordinator) Snapshot() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Encode()
}

// Inspect 在锁内只读访问状态，fn 不得保留指针。
func (c *Coordinator) Inspect(fn func(st *gentity.GameState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.state)
}

func (c *Coordinator) Info() protocol.SessionInfo {
	c.mu.Lock()
	players := make([]string, 0, len(c.state.Players))
	for id := range c.state.Players {
		players = append(players, id)
	}
	info := protocol.SessionInfo{
		SessionID: c.id,
		Status:    string(c.status),
		Turn:      c.state.Turn,
	}
	c.mu.Unlock()

	sort.Strings(players)
	info.Players = players
	info.Clients = c.registry.Len()
	return info
}

func (c *Coordinator) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// BuildPersistSnapshot 生成落盘快照并清除脏标记；不脏时返回 false。
func (c *Coordinator) BuildPersistSnapshot(version uint64) (*sentity.SessionPersistSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil, false
	}
	raw, err := c.state.Encode()
	if err != nil {
		logx.ReportSysErrorWithLoggerContext(context.Background(), c.log, logx.NewSysLog("session.persist.encode", errx.ErrInternal.WithCause(err)))
		return nil, false
	}
	c.dirty = false
	return &sentity.SessionPersistSnapshot{
		Version:   version,
		SessionID: c.id,
		Status:    c.status,
		Turn:      c.state.Turn,
		State:     raw,
		UpdatedAt: c.now(),
	}, true
}

// Stop 是终态：不再调度 tick，丢弃注册表（连接本身不关闭）。可重复调用。
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.status == sentity.StatusStopped {
		c.mu.Unlock()
		return
	}
	c.status = sentity.StatusStopped
	c.dirty = true
	started := c.loopStarted
	close(c.stopCh)
	c.mu.Unlock()

	if started {
		<-c.loopDone
	}
	c.registry.Clear()
	c.log.Info("session stopped")
}

func (c *Coordinator) loop() {
	defer close(c.loopDone)
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	dt := c.tickInterval.Seconds()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			ctx := tracex.WithTraceID(context.Background(), tracex.NewTraceID())
			c.Tick(ctx, dt)
		}
	}
}

// broadcast 单条连接写失败只关闭并解绑它自己，不影响其余连接。
func (c *Coordinator) broadcast(ctx context.Context, frame []byte) {
	for _, e := range c.registry.Snapshot() {
		if err := e.Conn.Send(frame); err != nil {
			c.dropConn(ctx, e.PlayerID, e.Conn, err)
		}
	}
}

func (c *Coordinator) dropConn(ctx context.Context, playerID string, conn transport.Conn, cause error) {
	logx.ReportSysErrorWithLoggerContext(ctx, c.log, logx.NewSysLog("session.send", errx.ErrUnavailable.WithCause(cause)),
		zap.String("player_id", playerID),
		zap.String("conn_id", conn.ID()),
	)
	c.registry.Unbind(playerID, conn)
	conn.Close()
}

func (c *Coordinator) kick(old transport.Conn) {
	if frame, err := protocol.EncodeError(string(CodeReplaced), ErrReplaced.Msg()); err == nil {
		_ = old.Send(frame)
	}
	old.Close()
}
