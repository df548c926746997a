package session

import (
	"errors"
	"sync"

	"Nightfall/internal/shared/transport"
)

type fakeConn struct {
	transport.Properties
	id string

	mu      sync.Mutex
	frames  [][]byte
	sendErr error
	closed  bool
	done    chan struct{}

	// beforeSend 在帧入列之前调用，n 是这条帧的序号（从 1 开始），不持有 mu。
	beforeSend func(n int)
	sends      int
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, done: make(chan struct{})}
}

func (c *fakeConn) ID() string   { return c.id }
func (c *fakeConn) Addr() string { return "fake:" + c.id }

func (c *fakeConn) Send(msg []byte) error {
	c.mu.Lock()
	c.sends++
	n, hook := c.sends, c.beforeSend
	c.mu.Unlock()
	if hook != nil {
		hook(n)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return transport.ErrConnClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.frames = append(c.frames, append([]byte(nil), msg...))
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

func (c *fakeConn) Done() <-chan struct{} { return c.done }

func (c *fakeConn) failSends() {
	c.mu.Lock()
	c.sendErr = errors.New("broken pipe")
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) last() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

func (c *fakeConn) all() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}
