package interfaces

import (
	"github.com/gin-gonic/gin"
	gogrpc "google.golang.org/grpc"

	"Nightfall/internal/admin/app"
	"Nightfall/internal/admin/interfaces/handler"
	"Nightfall/internal/admin/interfaces/handler/http"
	transportgrpc "Nightfall/internal/shared/transport/grpc"
	transporthttp "Nightfall/internal/shared/transport/http"
	"Nightfall/modules/kit/logx"
)

// Module 把管理能力同时挂到 HTTP 与 gRPC。
type Module struct {
	httpHandler *http.HttpHandler
	admin       *handler.Admin
}

func New(lobby app.Lobby, log logx.Logger) *Module {
	svc := app.NewAdminService(lobby)
	return &Module{
		httpHandler: http.NewHttpHandler(svc),
		admin:       handler.NewAdmin(svc, log),
	}
}

func (m *Module) HttpRegister(g *gin.RouterGroup) {
	m.httpHandler.RegisterRoutes(g)
}

func (m *Module) GrpcRegister(s gogrpc.ServiceRegistrar) {
	transportgrpc.RegisterAdminServer(s, m.admin)
}

var _ transporthttp.Registrar = (*Module)(nil)
