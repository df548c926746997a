// Package client 是行分隔 JSON 协议的客户端，probe 命令行和集成测试共用。
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"Nightfall/internal/gateway/protocol"
	"Nightfall/modules/kit/logx"
)

var ErrClosed = errors.New("client closed")

// ServerError 是服务端回的 error 信封。
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type Options struct {
	MaxLineBytes int
	WriteTimeout time.Duration
	Logger       logx.Logger
}

// Client 一条连接：后台协程按行读取下发帧放进 frames，写操作串行。
type Client struct {
	nc   net.Conn
	opts Options
	log  logx.Logger

	wmu sync.Mutex
	w   *bufio.Writer

	frames chan *protocol.Inbound
	done   chan struct{}

	mu      sync.Mutex
	readErr error
	closed  bool
}

func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(nc, opts), nil
}

func New(nc net.Conn, opts Options) *Client {
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = 1 << 20
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logx.NewZapLogger(nil)
	}
	c := &Client{
		nc:     nc,
		opts:   opts,
		log:    opts.Logger,
		w:      bufio.NewWriter(nc),
		frames: make(chan *protocol.Inbound, 64),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Send 发一条命令。payload 为 nil 时不带 payload 字段。
func (c *Client) Send(command, playerID string, payload any) error {
	req := protocol.Request{Command: command, PlayerID: playerID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		req.Payload = raw
	}
	line, err := json.Marshal(req)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.isClosed() {
		return ErrClosed
	}
	_ = c.nc.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if _, err := c.w.Write(append(line, '\n')); err != nil {
		return err
	}
	return c.w.Flush()
}

// Recv 取下一条下发帧；连接断开后返回读错误。
func (c *Client) Recv(ctx context.Context) (*protocol.Inbound, error) {
	select {
	case in, ok := <-c.frames:
		if !ok {
			return nil, c.err()
		}
		return in, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.nc.Close()
	<-c.done
	return err
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return c.readErr
	}
	return ErrClosed
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.frames)

	scanner := bufio.NewScanner(c.nc)
	scanner.Buffer(make([]byte, 0, 4096), c.opts.MaxLineBytes)
	for scanner.Scan() {
		in, err := protocol.DecodeInbound(scanner.Bytes())
		if err != nil {
			c.log.Warn("drop malformed frame", zap.Error(err))
			continue
		}
		c.frames <- in
	}
	c.mu.Lock()
	if err := scanner.Err(); err != nil && !c.closed {
		c.readErr = err
	}
	c.mu.Unlock()
}

// AsError 把 error 帧转成 *ServerError，其他帧返回 nil。
func AsError(in *protocol.Inbound) error {
	if in == nil || in.Type != protocol.TypeError {
		return nil
	}
	var p protocol.ErrorPayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		return &ServerError{Code: "MALFORMED", Message: string(in.Payload)}
	}
	return &ServerError{Code: p.Code, Message: p.Message}
}
