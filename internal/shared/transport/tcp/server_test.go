package tcp

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"Nightfall/internal/shared/transport"
	"Nightfall/modules/kit/errx"
)

type echoHandler struct {
	mu       sync.Mutex
	opened   int
	closed   chan struct{}
	rejected []error
}

func newEchoHandler() *echoHandler {
	return &echoHandler{closed: make(chan struct{})}
}

func (h *echoHandler) OnOpen(c transport.Conn) {
	h.mu.Lock()
	h.opened++
	h.mu.Unlock()
}

func (h *echoHandler) OnMessage(_ context.Context, c transport.Conn, msg []byte) {
	_ = c.Send(append([]byte("echo:"), msg...))
}

func (h *echoHandler) OnReject(c transport.Conn, err error) {
	h.mu.Lock()
	h.rejected = append(h.rejected, err)
	h.mu.Unlock()
	_ = c.Send([]byte("rejected"))
}

func (h *echoHandler) OnClose(c transport.Conn) {
	close(h.closed)
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read err=%v", err)
	}
	return line
}

func TestServeConn_按行收发(t *testing.T) {
	h := newEchoHandler()
	s := NewServer("", h, Options{}, nil)
	client, server := net.Pipe()
	go s.ServeConn(server)

	r := bufio.NewReader(client)
	if _, err := client.Write([]byte("{\"a\":1}\n\n  {\"b\":2}  \n")); err != nil {
		t.Fatalf("write err=%v", err)
	}
	if got := readLine(t, r); got != "echo:{\"a\":1}\n" {
		t.Fatalf("第一行回显不符, got=%q", got)
	}
	if got := readLine(t, r); got != "echo:{\"b\":2}\n" {
		t.Fatalf("空行应被忽略、首尾空白应去掉, got=%q", got)
	}

	_ = client.Close()
	select {
	case <-h.closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("客户端断开后应回调 OnClose")
	}
}

func TestServeConn_限流走OnReject(t *testing.T) {
	h := newEchoHandler()
	s := NewServer("", h, Options{RateLimit: 0.001, RateBurst: 1}, nil)
	client, server := net.Pipe()
	go s.ServeConn(server)
	defer client.Close()

	r := bufio.NewReader(client)
	go func() { _, _ = client.Write([]byte("one\ntwo\n")) }()
	if got := readLine(t, r); got != "echo:one\n" {
		t.Fatalf("第一条应放行, got=%q", got)
	}
	if got := readLine(t, r); got != "rejected\n" {
		t.Fatalf("第二条应被限流, got=%q", got)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.rejected) != 1 || errx.CodeOf(h.rejected[0]) != errx.CodeRateLimited {
		t.Fatalf("拒绝原因应为限流, got=%v", h.rejected)
	}
}

func TestServer_Shutdown关闭监听与连接(t *testing.T) {
	h := newEchoHandler()
	s := NewServer("127.0.0.1:0", h, Options{}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("无法监听本地端口: %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	c, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial err=%v", err)
	}
	defer c.Close()
	r := bufio.NewReader(c)
	_, _ = c.Write([]byte("ping\n"))
	if got := readLine(t, r); got != "echo:ping\n" {
		t.Fatalf("回显不符, got=%q", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown err=%v", err)
	}
	select {
	case err := <-errCh:
		if err != net.ErrClosed {
			t.Fatalf("Serve 应返回 net.ErrClosed, got=%v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve 未退出")
	}
}
