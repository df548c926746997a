package errs

import (
	"errors"
	"testing"
)

func TestWrap_保留根因(t *testing.T) {
	root := errors.New("connection refused")
	err := Wrap("repo.session.Save", KindInfra, root, map[string]any{"session_id": "abc"})
	if !errors.Is(err, root) {
		t.Fatalf("期望 errors.Is 能找到根因")
	}
	if KindOf(err) != KindInfra {
		t.Fatalf("期望 kind=infra, got=%s", KindOf(err))
	}
	if err.Error() != "repo.session.Save: connection refused" {
		t.Fatalf("错误文本不对: %s", err.Error())
	}
	if Wrap("x", KindInfra, nil, nil) != nil {
		t.Fatalf("cause 为 nil 时应返回 nil")
	}
	if KindOf(root) != KindUnknown {
		t.Fatalf("普通错误应为 unknown")
	}
}
