package status

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logx "raton/pkg/logx"
)

func get(t *testing.T, h http.Handler, target, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	t.Parallel()
	h := Routes(Config{}, func() any { return map[string]int{"runs": 3} })

	if rec := get(t, h, "/healthz", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("/healthz = %d %q", rec.Code, rec.Body.String())
	}
	rec := get(t, h, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/status = %d", rec.Code)
	}
	var doc map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil || doc["runs"] != 3 {
		t.Fatalf("/status body = %q (%v)", rec.Body.String(), err)
	}
	if rec := get(t, h, "/debug/pprof/", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("pprof should be off by default, got %d", rec.Code)
	}
}

func TestRoutesAuthAndPProf(t *testing.T) {
	t.Parallel()
	h := Routes(Config{Token: "s3cret", PProf: true}, nil)
	tests := []struct {
		target, bearer string
		want           int
	}{
		{"/healthz", "", http.StatusOK},
		{"/status", "", http.StatusUnauthorized},
		{"/status", "wrong", http.StatusUnauthorized},
		{"/status", "s3cret", http.StatusOK},
		{"/status?token=s3cret", "", http.StatusOK},
		{"/status?token=nope", "s3cret", http.StatusUnauthorized},
		{"/debug/pprof/", "s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		if rec := get(t, h, tt.target, tt.bearer); rec.Code != tt.want {
			t.Fatalf("GET %s (bearer %q) = %d, want %d", tt.target, tt.bearer, rec.Code, tt.want)
		}
	}
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()
	tests := map[string]bool{
		"127.0.0.1:8080": true,
		"localhost:80":   true,
		"[::1]:9000":     true,
		":8080":          false,
		"0.0.0.0:8080":   false,
		"10.0.0.5:8080":  false,
		"garbage":        false,
	}
	for addr, want := range tests {
		if got := isLoopbackAddr(addr); got != want {
			t.Fatalf("isLoopbackAddr(%q) = %v, want %v", addr, got, want)
		}
	}
}

func TestServiceStartStop(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, func() any { return "up" }, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	var addr string
	deadline := time.Now().Add(2 * time.Second)
	for addr == "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
		addr = s.Addr()
	}
	if addr == "" {
		t.Fatal("server did not start")
	}
	resp, err := http.Get("http://" + addr + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "\"up\"\n" {
		t.Fatalf("body = %q", body)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	s.Stop(stopCtx)
	if s.Supervisor() != nil {
		t.Fatal("supervisor should be cleared after Stop")
	}
}

func TestServiceRefusesInsecureBind(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Addr: "0.0.0.0:0"}, nil, logx.Nop())
	if err := s.serveOnce(context.Background()); err == nil {
		t.Fatal("expected insecure bind to be refused")
	}
}
