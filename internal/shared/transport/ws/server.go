package ws

import (
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Nightfall/internal/shared/transport"
	"Nightfall/internal/shared/utils"
	"Nightfall/modules/kit/logx"
)

type Options struct {
	NeedSecret bool
	RateLimit  float64
	RateBurst  int
}

// Server 把 HTTP 升级为 WebSocket，连接交给与 TCP 相同的 transport.Handler。
type Server struct {
	handler  transport.Handler
	opts     Options
	upgrader websocket.Upgrader
	seq      atomic.Int64
	log      logx.Logger
}

func NewServer(h transport.Handler, opts Options, l logx.Logger) *Server {
	if l == nil {
		l = logx.NewZapLogger(nil)
	}
	return &Server{
		handler: h,
		opts:    opts,
		upgrader: websocket.Upgrader{
			// 允许所有CORS跨域请求
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: l,
	}
}

func (s *Server) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	wsConn, err := s.upgrader.Upgrade(resp, req, nil)
	if err != nil {
		s.log.Warn("websocket upgrade error", zap.Error(err))
		return
	}

	id := "ws-" + strconv.FormatInt(s.seq.Add(1), 10)
	if sid, err := utils.NextSnowflakeID(); err == nil {
		id = strconv.FormatInt(sid, 10)
	}
	s.log.Debug("websocket upgrade success", zap.String("conn_id", id), zap.String("addr", wsConn.RemoteAddr().String()))

	c := NewWsConn(id, wsConn, s.handler, s.opts.NeedSecret, transport.NewLimiter(s.opts.RateLimit, s.opts.RateBurst), s.log)
	go c.Run()
}
