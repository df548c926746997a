package http

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewHttpServer_Healthz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := NewHttpServer(":0", gin.New(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/healthz", nil)
	s.Handler().ServeHTTP(w, req)

	if w.Code != nethttp.StatusOK {
		t.Fatalf("unexpected status code: got=%d want=%d", w.Code, nethttp.StatusOK)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("期望带 CORS 头")
	}
}

func TestCors_预检请求直接返回(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewHttpServer(":0", gin.New(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodOptions, "/healthz", nil)
	s.Handler().ServeHTTP(w, req)

	if w.Code != nethttp.StatusNoContent {
		t.Fatalf("预检请求应返回 204, got=%d", w.Code)
	}
}
