package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"

	"Nightfall/internal/shared/transport/http/middleware"
	"Nightfall/modules/kit/logx"
)

// Registrar 由各业务模块实现，把自己的路由挂到 HTTP 服务上。
type Registrar interface {
	HttpRegister(g *gin.RouterGroup)
}

type Server struct {
	engine *gin.Engine
	group  *gin.RouterGroup
	srv    *nethttp.Server
}

func NewHttpServer(add string, engine *gin.Engine, logger logx.Logger) *Server {
	if engine == nil {
		engine = gin.New()
		engine.Use(gin.Recovery())
	}
	engine.Use(middleware.Cors())
	engine.Use(middleware.AccessLog(logger))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		engine: engine,
		group:  engine.Group(""),
		srv: &nethttp.Server{
			Addr:              add,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start 启动 HTTP 服务（阻塞）。关闭时会返回 net/http.ErrServerClosed。
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Group() *gin.RouterGroup {
	return s.group
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Handler() nethttp.Handler {
	return s.engine
}

func (s *Server) Register(rs ...Registrar) {
	for _, r := range rs {
		r.HttpRegister(s.group)
	}
}

// Mount 把额外的 http.Handler（例如 WebSocket 升级）挂到路径上。
func (s *Server) Mount(path string, h nethttp.Handler) {
	s.engine.GET(path, gin.WrapH(h))
}
