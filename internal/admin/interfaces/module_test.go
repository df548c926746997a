package interfaces

import (
	"context"
	"encoding/json"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"Nightfall/internal/game/action"
	"Nightfall/internal/game/engine"
	gentity "Nightfall/internal/game/entity"
	"Nightfall/internal/game/worldfile"
	lobbyactor "Nightfall/internal/lobby/actor"
	"Nightfall/internal/lobby/actors"
	"Nightfall/internal/session/infra/persistence/memory"
	"Nightfall/internal/shared/gameconfig/balance"
	"Nightfall/internal/shared/transport"
	transportgrpc "Nightfall/internal/shared/transport/grpc"
)

const worldPath = "../../../configs/world.json"

func newRuntime(t *testing.T) *lobbyactor.Runtime {
	t.Helper()
	tables := balance.Default()
	rt := lobbyactor.NewRuntime(actors.Deps{
		Repo:         memory.NewSessionRepository(),
		Simulator:    engine.NewSimulator(action.NewExecutor(tables, nil), nil),
		NewState:     func() (*gentity.GameState, error) { return worldfile.Load(worldPath, tables) },
		TickInterval: time.Hour,
		FlushEvery:   time.Hour,
		NewID:        func() string { return "adm1" },
	}, time.Second)
	t.Cleanup(rt.Shutdown)
	return rt
}

type apiResp struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func do(t *testing.T, h nethttp.Handler, method, path string) apiResp {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	if w.Code != nethttp.StatusOK {
		t.Fatalf("%s %s 状态码=%d", method, path, w.Code)
	}
	var r apiResp
	if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil {
		t.Fatalf("%s %s 响应不是 JSON: %s", method, path, w.Body.String())
	}
	return r
}

func TestHttpAdmin_会话全生命周期(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	New(newRuntime(t), nil).HttpRegister(engine.Group(""))

	r := do(t, engine, nethttp.MethodPost, "/sessions")
	if r.Code != transport.OK {
		t.Fatalf("建局失败: %+v", r)
	}

	r = do(t, engine, nethttp.MethodGet, "/sessions")
	var list []map[string]any
	_ = json.Unmarshal(r.Data, &list)
	if len(list) != 1 || list[0]["session_id"] != "adm1" {
		t.Fatalf("列表不对: %s", r.Data)
	}

	r = do(t, engine, nethttp.MethodGet, "/sessions/adm1/state")
	var st struct {
		Turn    *int           `json:"turn"`
		Players map[string]any `json:"players"`
	}
	if err := json.Unmarshal(r.Data, &st); err != nil || st.Turn == nil || len(st.Players) == 0 {
		t.Fatalf("state 应是完整 GameState: %s", r.Data)
	}

	r = do(t, engine, nethttp.MethodPost, "/sessions/adm1/flush")
	var flushed struct {
		Version uint64 `json:"version"`
	}
	_ = json.Unmarshal(r.Data, &flushed)
	if r.Code != transport.OK || flushed.Version != 1 {
		t.Fatalf("新会话首次落盘版本应为 1: %+v", r)
	}

	if r = do(t, engine, nethttp.MethodDelete, "/sessions/adm1"); r.Code != transport.OK {
		t.Fatalf("停止失败: %+v", r)
	}
	if r = do(t, engine, nethttp.MethodGet, "/sessions/adm1"); r.Code != transport.Rejected || r.Msg != "会话不存在" {
		t.Fatalf("停止后应查不到: %+v", r)
	}
}

func TestGrpcAdmin_列表与不存在(t *testing.T) {
	rt := newRuntime(t)
	if _, err := rt.CreateSession(context.Background()); err != nil {
		t.Fatalf("建局失败: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	s, _ := transportgrpc.NewServer()
	New(rt, nil).GrpcRegister(s)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := gogrpc.NewClient("passthrough:///bufnet",
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("NewClient err=%v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	client := transportgrpc.NewAdminClient(conn)

	out, err := client.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions err=%v", err)
	}
	items := out.GetFields()["sessions"].GetListValue().GetValues()
	if len(items) != 1 || items[0].GetStructValue().GetFields()["session_id"].GetStringValue() != "adm1" {
		t.Fatalf("返回内容不符: %v", out)
	}

	one, err := client.GetSession(ctx, "adm1")
	if err != nil || one.GetFields()["status"].GetStringValue() != "created" {
		t.Fatalf("GetSession 不符: %v err=%v", one, err)
	}
	if _, err := client.GetSession(ctx, "nope"); status.Code(err) != codes.NotFound {
		t.Fatalf("期望 NotFound, got=%v", err)
	}
	if _, err := client.GetSession(ctx, ""); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("空 id 期望 InvalidArgument, got=%v", err)
	}
}
