package session

import (
	"testing"
	"time"

	"Nightfall/internal/shared/transport"
)

func TestRegistry_重复绑定踢掉旧连接(t *testing.T) {
	var kicked []transport.Conn
	r := NewRegistry(func(old transport.Conn) {
		kicked = append(kicked, old)
		old.Close()
	})
	a, b := newFakeConn("a"), newFakeConn("b")

	if old := r.Bind("p1", a); old != nil {
		t.Fatalf("首次绑定不应返回旧连接")
	}
	if old := r.Bind("p1", b); old != a {
		t.Fatalf("期望返回被顶掉的连接 a")
	}
	if len(kicked) != 1 || kicked[0] != a || !a.isClosed() {
		t.Fatalf("期望旧连接被踢并关闭")
	}
	if conn, _ := r.Get("p1"); conn != b {
		t.Fatalf("期望 p1 绑定到 b")
	}
	if _, ok := r.PlayerOf(a); ok {
		t.Fatalf("旧连接不应再映射到玩家")
	}
	// 旧连接迟到的解绑不能误删新连接
	if r.Unbind("p1", a) {
		t.Fatalf("旧连接解绑应返回 false")
	}
	if r.Len() != 1 {
		t.Fatalf("期望仍有 1 个绑定, got=%d", r.Len())
	}
}

func TestRegistry_连接关闭自动解绑(t *testing.T) {
	r := NewRegistry(nil)
	c := newFakeConn("c")
	r.Bind("p1", c)
	c.Close()

	deadline := time.Now().Add(time.Second)
	for r.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("连接关闭后 1s 内未自动解绑")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRegistry_Snapshot按玩家排序且Clear不关连接(t *testing.T) {
	r := NewRegistry(nil)
	c2, c1 := newFakeConn("2"), newFakeConn("1")
	r.Bind("p2", c2)
	r.Bind("p1", c1)

	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].PlayerID != "p1" || snap[1].PlayerID != "p2" {
		t.Fatalf("快照顺序不对: %+v", snap)
	}
	dropped := r.Clear()
	if len(dropped) != 2 || r.Len() != 0 {
		t.Fatalf("Clear 后应为空, dropped=%d len=%d", len(dropped), r.Len())
	}
	if c1.isClosed() || c2.isClosed() {
		t.Fatalf("Clear 不应关闭连接")
	}
}

func (r *Registry) watchedLen() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.watched)
}

func TestRegistry_离开再加入不重复启动watcher(t *testing.T) {
	r := NewRegistry(nil)
	c := newFakeConn("c")
	for i := 0; i < 5; i++ {
		r.Bind("p1", c)
		if !r.Unbind("p1", c) {
			t.Fatalf("第 %d 次解绑应成功", i)
		}
	}
	r.Bind("p1", c)
	if got := r.watchedLen(); got != 1 {
		t.Fatalf("同一连接只应有一个 watcher, got=%d", got)
	}

	c.Close()
	deadline := time.Now().Add(time.Second)
	for r.watchedLen() != 0 || r.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("连接关闭后 1s 内 watcher 未退出, watched=%d len=%d", r.watchedLen(), r.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
