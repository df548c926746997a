package errs

import "fmt"

type Kind string

const (
	KindUnknown    Kind = "unknown"
	KindInfra      Kind = "infra"
	KindDependency Kind = "dependency"
	KindBusiness   Kind = "business"
)

type Error struct {
	Op    string         // 发生位置：repo.session.Save / lobby.Restore
	Kind  Kind           // 粗分类
	Meta  map[string]any // 关键参数（session_id, version...）
	Cause error          // 根因（必须保留）
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap：统一包装入口，cause 为 nil 时返回 nil。
func Wrap(op string, kind Kind, cause error, meta map[string]any) error {
	if cause == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Cause: cause, Meta: meta}
}

// KindOf 取最外层包装的分类，非 *Error 返回 KindUnknown。
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok && e != nil {
		return e.Kind
	}
	return KindUnknown
}
