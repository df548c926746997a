package transport

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// 连接属性 key。
const (
	PropSessionID = "session_id"
	PropPlayerID  = "player_id"
)

// Conn 是一条客户端连接，TCP 行协议与 WebSocket 共用。
// Send 只负责入队，不阻塞调用方；连接关闭后返回 ErrConnClosed。
type Conn interface {
	ID() string
	Addr() string
	Send(msg []byte) error
	SetProperty(key string, value any)
	GetProperty(key string) any
	RemoveProperty(key string)
	Close()
	// Done 用于感知连接生命周期结束（连接关闭时该 channel 会被关闭）
	Done() <-chan struct{}
}

// Handler 处理一条连接上的完整 JSON 消息。同一连接上的回调串行。
type Handler interface {
	OnOpen(c Conn)
	OnMessage(ctx context.Context, c Conn, msg []byte)
	// OnReject 是传输层拒绝（限流等），消息未交给 OnMessage。
	OnReject(c Conn, err error)
	OnClose(c Conn)
}

// NewLimiter 每秒 r 条、突发 burst；r<=0 表示不限流，返回 nil。
func NewLimiter(r float64, burst int) *rate.Limiter {
	if r <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(r) + 1
	}
	return rate.NewLimiter(rate.Limit(r), burst)
}

// Allow nil limiter 永远放行。
func Allow(l *rate.Limiter) bool {
	return l == nil || l.Allow()
}

// Properties 是 Conn 属性表的通用实现，供各传输嵌入。
type Properties struct {
	mu    sync.RWMutex
	props map[string]any
}

func (p *Properties) SetProperty(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.props == nil {
		p.props = make(map[string]any)
	}
	p.props[key] = value
}

func (p *Properties) GetProperty(key string) any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.props[key]
}

func (p *Properties) RemoveProperty(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.props, key)
}

// StringProperty 取字符串属性，不存在或类型不符返回空串。
func StringProperty(c Conn, key string) string {
	s, _ := c.GetProperty(key).(string)
	return s
}
