package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"Nightfall/internal/game/action"
	"Nightfall/internal/game/economy"
	"Nightfall/internal/game/engine"
	gentity "Nightfall/internal/game/entity"
	"Nightfall/internal/gateway/protocol"
	"Nightfall/internal/session"
	"Nightfall/internal/shared/gameconfig/balance"
	"Nightfall/internal/shared/transport"
	"Nightfall/modules/kit/errx"
)

const testTables = `{
  "buildings": {
    "CITADEL": {
      "storage": {"1": {"food": 1000, "wood": 1000, "iron": 1000}},
      "provides": {"1": {"max_buildings": 10}}
    },
    "FARM": {
      "build": {"cost": {"wood": 50, "iron": 10}, "time": 5},
      "allowed_terrain": ["GRASS"]
    }
  }
}`

var errLobbyNotFound = errx.NewBiz("LOBBY_SESSION_NOT_FOUND", "会话不存在")

// fakeLobby 用真实的 Coordinator，tick 间隔拉到 1 小时，只靠命令改状态。
type fakeLobby struct {
	t      *testing.T
	mu     sync.Mutex
	seq    int
	coords map[string]*session.Coordinator
}

func newFakeLobby(t *testing.T) *fakeLobby {
	return &fakeLobby{t: t, coords: make(map[string]*session.Coordinator)}
}

func (l *fakeLobby) CreateSession(ctx context.Context) (*session.Coordinator, error) {
	tables, err := balance.Parse([]byte(testTables))
	if err != nil {
		l.t.Fatalf("平衡表解析失败: %v", err)
	}
	res := gentity.Resources{Food: 100, Wood: 100, Iron: 20}
	st := &gentity.GameState{
		Players: map[string]*gentity.Player{
			"p1": {ID: "p1", CityIDs: []string{"city1"}},
			"p2": {ID: "p2", CityIDs: []string{"city2"}},
		},
		Cities: map[string]*gentity.City{
			"city1": newCity(tables, "city1", "p1", res),
			"city2": newCity(tables, "city2", "p2", res),
		},
	}
	sim := engine.NewSimulator(action.NewExecutor(tables, nil), nil)

	l.mu.Lock()
	l.seq++
	id := fmt.Sprintf("s%d", l.seq)
	c := session.New(id, st, sim, session.Options{TickInterval: time.Hour})
	l.coords[id] = c
	l.mu.Unlock()
	l.t.Cleanup(c.Stop)
	return c, nil
}

func (l *fakeLobby) GetSession(ctx context.Context, id string) (*session.Coordinator, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.coords[id]
	if !ok {
		return nil, errLobbyNotFound
	}
	return c, nil
}

func (l *fakeLobby) ListSessions(ctx context.Context) ([]protocol.SessionInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]protocol.SessionInfo, 0, len(l.coords))
	for _, c := range l.coords {
		out = append(out, c.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}

func newCity(tables *balance.Tables, id, owner string, res gentity.Resources) *gentity.City {
	cm := gentity.NewCityMap(3, 3)
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			cm.Tiles[x][y].Terrain = gentity.CityTerrainGrass
		}
	}
	cm.Tiles[1][1].Building = &gentity.Building{Type: gentity.BuildingCitadel, Level: 1}
	c := &gentity.City{ID: id, OwnerID: owner, CityMap: cm, Resources: res}
	economy.RecomputeDerived(tables, c)
	return c
}

type fakeConn struct {
	transport.Properties
	id string

	mu     sync.Mutex
	frames [][]byte
	closed bool
	done   chan struct{}
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, done: make(chan struct{})}
}

func (c *fakeConn) ID() string   { return c.id }
func (c *fakeConn) Addr() string { return "fake:" + c.id }

func (c *fakeConn) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return transport.ErrConnClosed
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

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// drain 取出并清空已收到的帧。
func (c *fakeConn) drain(t *testing.T) []*protocol.Inbound {
	t.Helper()
	c.mu.Lock()
	frames := c.frames
	c.frames = nil
	c.mu.Unlock()

	out := make([]*protocol.Inbound, 0, len(frames))
	for _, f := range frames {
		in, err := protocol.DecodeInbound(f)
		if err != nil {
			t.Fatalf("下发帧无法解析: %s err=%v", f, err)
		}
		out = append(out, in)
	}
	return out
}

func send(g *Gateway, c transport.Conn, line string) {
	g.OnMessage(context.Background(), c, []byte(line))
}

func decodeError(t *testing.T, in *protocol.Inbound) protocol.ErrorPayload {
	t.Helper()
	if in.Type != protocol.TypeError {
		t.Fatalf("期望 error 帧, got=%s payload=%s", in.Type, in.Payload)
	}
	var p protocol.ErrorPayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		t.Fatalf("error payload 解析失败: %v", err)
	}
	return p
}

func decodeAck(t *testing.T, in *protocol.Inbound) protocol.AckPayload {
	t.Helper()
	if in.Type != protocol.TypeAck {
		t.Fatalf("期望 ack 帧, got=%s payload=%s", in.Type, in.Payload)
	}
	var p protocol.AckPayload
	if err := json.Unmarshal(in.Payload, &p); err != nil {
		t.Fatalf("ack payload 解析失败: %v", err)
	}
	return p
}
