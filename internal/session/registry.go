package session

import (
	"sort"
	"sync"

	"Nightfall/internal/shared/transport"
)

// Entry 是注册表快照里的一项。
type Entry struct {
	PlayerID string
	Conn     transport.Conn
}

// Registry 维护 player_id → 连接。一个玩家同时只有一条连接，重复绑定会踢掉旧连接；
// 连接关闭后自动解绑，游戏数据不受影响。
type Registry struct {
	sync.RWMutex
	player2conn map[string]transport.Conn
	conn2player map[transport.Conn]string
	watched     map[transport.Conn]struct{}
	kick        func(old transport.Conn)
}

// NewRegistry kick 为 nil 时只关闭旧连接。
func NewRegistry(kick func(old transport.Conn)) *Registry {
	if kick == nil {
		kick = func(old transport.Conn) { old.Close() }
	}
	return &Registry{
		player2conn: make(map[string]transport.Conn),
		conn2player: make(map[transport.Conn]string),
		watched:     make(map[transport.Conn]struct{}),
		kick:        kick,
	}
}

// Bind 返回被顶掉的旧连接（没有则 nil）。
func (r *Registry) Bind(playerID string, conn transport.Conn) transport.Conn {
	if conn == nil {
		return nil
	}
	r.Lock()
	// 每条连接只启动一次 watcher，watched 的条目活到连接关闭为止，离开再加入不会重复启动
	if _, ok := r.watched[conn]; !ok {
		r.watched[conn] = struct{}{}
		go r.watchConnDone(conn)
	}
	// 同一连接换了玩家身份，先摘掉旧身份
	if prev, ok := r.conn2player[conn]; ok && prev != playerID && r.player2conn[prev] == conn {
		delete(r.player2conn, prev)
	}
	old := r.player2conn[playerID]
	if old != nil && old != conn {
		delete(r.conn2player, old)
	}
	r.player2conn[playerID] = conn
	r.conn2player[conn] = playerID
	r.Unlock()

	// 踢掉原来的那个
	if old != nil && old != conn {
		r.kick(old)
		return old
	}
	return nil
}

func (r *Registry) watchConnDone(conn transport.Conn) {
	<-conn.Done()
	r.UnbindConn(conn)
	r.Lock()
	delete(r.watched, conn)
	r.Unlock()
}

// Unbind 只有当前绑定的正是 conn 时才解绑，旧连接迟到的关闭不会误删新连接。
func (r *Registry) Unbind(playerID string, conn transport.Conn) bool {
	r.Lock()
	defer r.Unlock()
	if r.player2conn[playerID] != conn {
		return false
	}
	delete(r.player2conn, playerID)
	delete(r.conn2player, conn)
	return true
}

func (r *Registry) UnbindConn(conn transport.Conn) {
	r.Lock()
	defer r.Unlock()
	playerID, ok := r.conn2player[conn]
	delete(r.conn2player, conn)
	if ok && r.player2conn[playerID] == conn {
		delete(r.player2conn, playerID)
	}
}

func (r *Registry) Get(playerID string) (transport.Conn, bool) {
	r.RLock()
	defer r.RUnlock()
	conn, ok := r.player2conn[playerID]
	return conn, ok
}

func (r *Registry) PlayerOf(conn transport.Conn) (string, bool) {
	r.RLock()
	defer r.RUnlock()
	playerID, ok := r.conn2player[conn]
	return playerID, ok
}

func (r *Registry) Len() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.player2conn)
}

// Snapshot 按 player_id 排序，广播在锁外遍历它。
func (r *Registry) Snapshot() []Entry {
	r.RLock()
	out := make([]Entry, 0, len(r.player2conn))
	for pid, conn := range r.player2conn {
		out = append(out, Entry{PlayerID: pid, Conn: conn})
	}
	r.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// Clear 丢弃全部绑定，不关闭连接。
func (r *Registry) Clear() []Entry {
	out := r.Snapshot()
	r.Lock()
	r.player2conn = make(map[string]transport.Conn)
	r.conn2player = make(map[transport.Conn]string)
	r.Unlock()
	return out
}
