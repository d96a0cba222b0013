package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/giygas/medsummary/auth"
	"github.com/giygas/medsummary/config"
	"github.com/giygas/medsummary/controller"
	"github.com/giygas/medsummary/defaults"
	"github.com/giygas/medsummary/handlers"
	"github.com/giygas/medsummary/health"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/printing"
	"github.com/giygas/medsummary/session"
	"github.com/giygas/medsummary/store"
)

func TestMain(m *testing.M) {
	logging.InitLogger("")
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8000",
		Address:        "127.0.0.1",
		Env:            config.EnvTest,
		LogLevel:       "info",
		MaxRequestBody: 1024,
		MaxHeaderSize:  4096,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	rs := store.New(store.NewMemoryStore())
	gate := auth.NewGate(rs, auth.WithCost(bcrypt.MinCost))
	sessions := session.NewManager(rs, gate, 28*time.Minute, 30*time.Second)
	form := controller.New(rs, defaults.Default(), controller.WithActivity(sessions.Touch))
	h := handlers.NewHTTPHandler(form, gate, sessions, printing.NewPDFHost(t.TempDir()),
		health.NewHealthChecker(rs, sessions, time.Now()))
	s := NewServer(testConfig(), h)
	t.Cleanup(s.limiter.Stop)
	return s
}

func localRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:54321"
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCost int64
	}{
		{"Metrics are free", "/metrics", 0},
		{"Health endpoint", "/health", 5},
		{"Session state", "/session", 5},
		{"Signup", "/account", 200},
		{"Login", "/session/login", 200},
		{"Unlock", "/session/unlock", 200},
		{"Print", "/print", 100},
		{"PDF view", "/summary.pdf", 50},
		{"Clear", "/clear", 20},
		{"Defaults row", "/defaults/meds/0", 2},
		{"Field edit", "/patient/fields/name", 1},
		{"Unknown", "/unknown", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if cost := getTokenCost(req); cost != tt.expectedCost {
				t.Errorf("Expected cost %d for %s, got %d", tt.expectedCost, tt.path, cost)
			}
		})
	}
}

func TestLocalOnlyMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := LocalOnlyMiddleware(next)

	tests := []struct {
		remote string
		want   int
	}{
		{"127.0.0.1:1234", http.StatusOK},
		{"[::1]:1234", http.StatusOK},
		{"192.168.1.20:1234", http.StatusOK},
		{"10.0.0.5:1234", http.StatusOK},
		{"203.0.113.9:1234", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/health", nil)
			req.RemoteAddr = tt.remote
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RequestSizeMiddleware(testConfig())(next)

	req := localRequest("PUT", "/patient/fields/name", strings.Repeat("x", 2048))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", rr.Code)
	}

	req = localRequest("GET", "/health", "")
	req.Header.Set("X-Big", strings.Repeat("y", 5000))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestHeaderFieldsTooLarge {
		t.Errorf("Expected 431, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, localRequest("GET", "/health", ""))
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
}

func TestRateLimitCredentialGuessing(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	limited := false
	for range 10 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, localRequest("POST", "/session/login", ""))
		if rr.Code == http.StatusTooManyRequests {
			limited = true
			if rr.Header().Get("Retry-After") == "" {
				t.Error("Expected Retry-After")
			}
			break
		}
	}
	if !limited {
		t.Error("Repeated logins should hit the rate limit")
	}

	rl.sweep()
	if len(rl.clients) != 1 {
		t.Error("A drained bucket must survive cleanup")
	}
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)

	if rr := serve(s, localRequest("GET", "/patient", "")); rr.Code != http.StatusUnauthorized {
		t.Errorf("Editor routes need a session, got %d", rr.Code)
	}

	rr := serve(s, localRequest("POST", "/account", `{"name":"Alice","secret":"hunter2","confirm":"hunter2"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("Signup failed: %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("Expected rate limit headers")
	}

	rr = serve(s, localRequest("PUT", "/patient/fields/name", `{"value":"Alice"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("Field edit failed: %d %s", rr.Code, rr.Body.String())
	}
	rr = serve(s, localRequest("PATCH", "/visit/sections/meds/rows/0", `{"key":"name","value":"Metformin"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("Meds edit failed: %d %s", rr.Code, rr.Body.String())
	}

	rr = serve(s, localRequest("GET", "/summary.txt", ""))
	if rr.Body.String() != "Patient Medical Summary\nPatient: Alice\n\nCurrent Medications\n- Metformin\n" {
		t.Errorf("Unexpected summary %q", rr.Body.String())
	}

	rr = serve(s, localRequest("GET", "/metrics", ""))
	if rr.Code != http.StatusOK || !bytes.Contains(rr.Body.Bytes(), []byte("form_mutations_total")) {
		t.Errorf("Expected prometheus output, got %d", rr.Code)
	}

	rr = serve(s, localRequest("POST", "/session/logout", ""))
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rr.Code)
	}
}

func TestRemoteRequestBlocked(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "203.0.113.9:443"
	if rr := serve(s, req); rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rr.Code)
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
