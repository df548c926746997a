package logx

import (
	"errors"
	"testing"

	"Nightfall/modules/kit/errx"
)

func TestBuildErrorLog_能提取语义与栈(t *testing.T) {
	cause := errors.New("db down")
	e := errx.NewSys("SYS_INTERNAL", "服务器内部错误").
		WithData("method", "Login").
		WithCause(cause)

	meta := BuildErrorLog(e)
	if meta.Error == "" {
		t.Fatalf("期望 meta.Error 非空")
	}
	if meta.Code == "" {
		t.Fatalf("期望 meta.Code 非空")
	}
	if meta.Msg == "" {
		t.Fatalf("期望 meta.Msg 非空")
	}
	if meta.Data == nil || meta.Data["method"] != "Login" {
		t.Fatalf("期望 meta.Data 包含 method=Login, got=%v", meta.Data)
	}
	if len(meta.CauseChain) == 0 {
		t.Fatalf("期望 meta.CauseChain 非空")
	}
	if meta.Origin == "" || meta.Stack == "" {
		t.Fatalf("期望 meta.Origin/meta.Stack 非空（错误发生/转换处栈） origin=%q stack=%q", meta.Origin, meta.Stack)
	}
}

func TestNewBizLogFromError_code作为reason(t *testing.T) {
	e := errx.NewBiz("ACTION_TILE_OCCUPIED", "地块已有建筑")
	biz := NewBizLogFromError("action.build", e)
	if biz.Reason != "ACTION_TILE_OCCUPIED" {
		t.Fatalf("期望 reason=ACTION_TILE_OCCUPIED, got=%q", biz.Reason)
	}
	if biz.Message != "地块已有建筑" {
		t.Fatalf("期望 message 取 msg, got=%q", biz.Message)
	}
	if biz.Action != "action.build" {
		t.Fatalf("期望 action 透传, got=%q", biz.Action)
	}
}

func TestZapLogger_With_nil安全(t *testing.T) {
	var z *ZapLogger
	if z.With() == nil {
		t.Fatalf("期望 nil ZapLogger.With 返回可用 logger")
	}
	l := NewZapLogger(nil).With()
	l.Info("noop")
}
