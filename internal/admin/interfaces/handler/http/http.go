package http

import (
	"context"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"Nightfall/internal/admin/app"
	"Nightfall/internal/admin/interfaces/handler"
	"Nightfall/internal/admin/interfaces/handler/dto"
	"Nightfall/internal/shared/transport"
)

type HttpHandler struct {
	svc *app.AdminService
}

func NewHttpHandler(svc *app.AdminService) *HttpHandler {
	return &HttpHandler{svc: svc}
}

func (h *HttpHandler) RegisterRoutes(group *gin.RouterGroup) {
	g := group.Group("/sessions")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.GET("/:id/state", h.State)
	g.POST("/:id/flush", h.Flush)
	g.DELETE("/:id", h.Stop)
}

func (h *HttpHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.svc.ListSessions(ctx)
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, list)
}

func (h *HttpHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	info, err := h.svc.CreateSession(ctx)
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, info)
}

func (h *HttpHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	info, err := h.svc.GetSession(ctx, c.Param("id"))
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, info)
}

func (h *HttpHandler) State(c *gin.Context) {
	ctx := c.Request.Context()
	raw, err := h.svc.SessionState(ctx, c.Param("id"))
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, raw)
}

func (h *HttpHandler) Flush(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	version, err := h.svc.FlushSession(ctx, id)
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, dto.FlushResp{SessionID: id, Version: version})
}

func (h *HttpHandler) Stop(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.svc.StopSession(ctx, c.Param("id")); err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, nil)
}

func (h *HttpHandler) ok(c *gin.Context, data any) {
	c.JSON(nethttp.StatusOK, dto.Success(transport.OK, data))
}

func (h *HttpHandler) fail(c *gin.Context, code int, msg string) {
	c.JSON(nethttp.StatusOK, dto.Error(code, msg))
}

func (h *HttpHandler) error(ctx context.Context, c *gin.Context, err error) {
	code, msg := handler.HandleError(ctx, err)
	h.fail(c, code, msg)
}
