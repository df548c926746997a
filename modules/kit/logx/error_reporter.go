package logx

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

type codeTextProvider interface {
	CodeText() string
}

type msgProvider interface {
	Msg() string
}

type dataProvider interface {
	Data() map[string]any
}

type stackProvider interface {
	Stack() []uintptr
}

type ErrorLog struct {
	Error      string
	Code       string
	Msg        string
	Data       map[string]any
	CauseChain []string
	Origin     string
	Stack      string
}

// BuildErrorLog 从 errx 错误里取出 code、msg、data、cause 链和发生处的栈，
// 非 errx 错误只有 Error 与 cause 链。网关、会话、落盘的日志都走这里。
func BuildErrorLog(err error) ErrorLog {
	if err == nil {
		return ErrorLog{}
	}

	out := ErrorLog{
		Error: err.Error(),
	}

	var cp codeTextProvider
	if errors.As(err, &cp) {
		out.Code = cp.CodeText()
	}
	var mp msgProvider
	if errors.As(err, &mp) {
		out.Msg = mp.Msg()
	}
	var dp dataProvider
	if errors.As(err, &dp) {
		out.Data = dp.Data()
	}
	var sp stackProvider
	if errors.As(err, &sp) {
		out.Origin, out.Stack = formatStack(sp.Stack(), 32)
	}
	out.CauseChain = buildCauseChain(err, 20)
	return out
}

// buildCauseChain 不含 err 本身。
func buildCauseChain(err error, maxDepth int) []string {
	if err == nil || maxDepth <= 0 {
		return nil
	}
	out := make([]string, 0, 4)
	cur := errors.Unwrap(err)
	for i := 0; i < maxDepth && cur != nil; i++ {
		out = append(out, fmt.Sprintf("%T: %v", cur, cur))
		cur = errors.Unwrap(cur)
	}
	return out
}

func formatStack(pcs []uintptr, maxFrames int) (originCaller string, stack string) {
	if len(pcs) == 0 || maxFrames <= 0 {
		return "", ""
	}
	frames := runtime.CallersFrames(pcs)
	var b strings.Builder
	for i := 0; i < maxFrames; i++ {
		f, more := frames.Next()
		if f.Function == "" && f.File == "" && f.Line == 0 {
			break
		}
		if originCaller == "" {
			originCaller = fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line)
		}
		b.WriteString(f.Function)
		fmt.Fprintf(&b, " %s:%d", f.File, f.Line)
		if !more {
			break
		}
		b.WriteString("\n")
	}
	return originCaller, b.String()
}
