// Package tcp 是行分隔 JSON 的 TCP 入口。
package tcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"Nightfall/internal/shared/transport"
	"Nightfall/internal/shared/utils"
	"Nightfall/modules/kit/errx"
	"Nightfall/modules/kit/logx"
)

type Options struct {
	MaxLineBytes int
	RateLimit    float64 // 每秒命令数，<=0 不限流
	RateBurst    int
}

type Server struct {
	addr    string
	handler transport.Handler
	opts    Options
	log     logx.Logger

	mu      sync.Mutex
	ln      net.Listener
	conns   map[*LineConn]struct{}
	wg      sync.WaitGroup
	closing atomic.Bool
	seq     atomic.Int64
}

func NewServer(addr string, h transport.Handler, opts Options, l logx.Logger) *Server {
	if l == nil {
		l = logx.NewZapLogger(nil)
	}
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = 1 << 20
	}
	return &Server{
		addr:    addr,
		handler: h,
		opts:    opts,
		log:     l,
		conns:   make(map[*LineConn]struct{}),
	}
}

// Start 监听并阻塞服务。Shutdown 后返回 net.ErrClosed。
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.log.Info("tcp server listening", zap.String("addr", ln.Addr().String()))

	for {
		nc, err := ln.Accept()
		if err != nil {
			if s.closing.Load() {
				return net.ErrClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(nc)
		}()
	}
}

// Addr 返回实际监听地址（端口为 0 时有用）。
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ServeConn 在当前 goroutine 读取直到连接断开。
func (s *Server) ServeConn(nc net.Conn) {
	c := newLineConn(s.nextID(), nc, s.log)
	if !s.track(c) {
		c.Close()
		return
	}
	defer s.untrack(c)

	go c.writeLoop()
	s.handler.OnOpen(c)
	defer s.handler.OnClose(c)
	defer c.Close()

	s.readLoop(c)
}

func (s *Server) readLoop(c *LineConn) {
	defer func() {
		if r := recover(); r != nil {
			err := errx.ErrInternal.WithCause(fmt.Errorf("panic: %v", r))
			logx.ReportSysErrorWithLoggerContext(context.Background(), s.log,
				logx.NewSysLog("tcp.read_loop", err), zap.String("conn_id", c.id))
		}
	}()

	limiter := transport.NewLimiter(s.opts.RateLimit, s.opts.RateBurst)
	scanner := bufio.NewScanner(c.nc)
	scanner.Buffer(make([]byte, 0, 4096), s.opts.MaxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !transport.Allow(limiter) {
			s.handler.OnReject(c, errx.ErrRateLimited)
			continue
		}
		msg := make([]byte, len(line))
		copy(msg, line)
		s.handler.OnMessage(context.Background(), c, msg)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.Warn("tcp read stopped", zap.String("conn_id", c.id), zap.Error(err))
	}
}

func (s *Server) nextID() string {
	if id, err := utils.NextSnowflakeID(); err == nil {
		return strconv.FormatInt(id, 10)
	}
	return "tcp-" + strconv.FormatInt(s.seq.Add(1), 10)
}

func (s *Server) track(c *LineConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *LineConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

// Shutdown 停止接入并关闭所有连接，等待读循环退出或 ctx 超时。
func (s *Server) Shutdown(ctx context.Context) error {
	s.closing.Store(true)
	s.mu.Lock()
	if s.ln != nil {
		_ = s.ln.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
