package handler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"Nightfall/internal/admin/app"
	"Nightfall/internal/gateway/protocol"
	transportgrpc "Nightfall/internal/shared/transport/grpc"
	"Nightfall/modules/kit/errx"
	"Nightfall/modules/kit/logx"
	"Nightfall/modules/kit/tracex"
)

// Admin 是 gRPC 管理服务的实现。
type Admin struct {
	svc *app.AdminService
	log logx.Logger
}

var _ transportgrpc.AdminServer = (*Admin)(nil)

func NewAdmin(svc *app.AdminService, log logx.Logger) *Admin {
	if log == nil {
		log = logx.NewZapLogger(nil)
	}
	return &Admin{svc: svc, log: log}
}

func (a *Admin) ListSessions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ctx = tracex.WithSpanID(ctx, "admin")

	list, err := a.svc.ListSessions(ctx)
	if err != nil {
		a.report(ctx, "admin list sessions", err)
		return nil, toRPCError(err)
	}
	items := make([]any, 0, len(list))
	for _, info := range list {
		m, err := infoToMap(info)
		if err != nil {
			return nil, toRPCError(errx.ErrInternal.WithCause(err))
		}
		items = append(items, m)
	}
	out, err := structpb.NewStruct(map[string]any{"sessions": items})
	if err != nil {
		return nil, toRPCError(errx.ErrInternal.WithCause(err))
	}
	return out, nil
}

func (a *Admin) GetSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctx = tracex.WithSpanID(ctx, "admin")
	id := in.GetFields()["session_id"].GetStringValue()

	info, err := a.svc.GetSession(ctx, id)
	if err != nil {
		a.report(ctx, "admin get session", err, zap.String("session_id", id))
		return nil, toRPCError(err)
	}
	m, err := infoToMap(info)
	if err != nil {
		return nil, toRPCError(errx.ErrInternal.WithCause(err))
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, toRPCError(errx.ErrInternal.WithCause(err))
	}
	return out, nil
}

func (a *Admin) report(ctx context.Context, action string, err error, fields ...zap.Field) {
	if errx.IsBiz(err) {
		logx.ReportBizWithLoggerContext(ctx, a.log, logx.NewBizLogFromError(action, err), fields...)
		return
	}
	logx.ReportSysErrorWithLoggerContext(ctx, a.log, logx.NewSysLog(action, err), fields...)
}

// infoToMap 经 JSON 转一遍，字段名与 session_list 保持一致。
func infoToMap(info protocol.SessionInfo) (map[string]any, error) {
	raw, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
