package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORS_AllowedOrigin(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.AllowedOrigins = []string{"https://medlink.example.com"}
	})

	req := httptest.NewRequest(http.MethodPost, "/landing_chat", strings.NewReader(`{"query":"pricing"}`))
	req.Header.Set("Origin", "https://medlink.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://medlink.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.AllowedOrigins = []string{"https://medlink.example.com"}
	})

	req := httptest.NewRequest(http.MethodPost, "/landing_chat", strings.NewReader(`{"query":"pricing"}`))
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want no header", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.AllowedOrigins = []string{"https://medlink.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/landing_chat", nil)
	req.Header.Set("Origin", "https://medlink.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
}

func TestCORS_Wildcard(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.AllowedOrigins = []string{"*"}
	})

	req := httptest.NewRequest(http.MethodPost, "/landing_chat", strings.NewReader(`{"query":"pricing"}`))
	req.Header.Set("Origin", "https://anything.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRateLimit_Enforced(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.RateLimit = 0.001
		cfg.RateBurst = 1
	})

	first := postChat(s, "/doctor_chat", `{"query":"fever"}`)
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := postChat(s, "/doctor_chat", `{"query":"fever"}`)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
	if got := second.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}

	var resp errorResponse
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("429 body is not the JSON error shape: %v", err)
	}
	if resp.Error == "" {
		t.Error("429 body must carry an error message")
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want string
	}{
		{"10.0.0.1:1000", "10.0.0.1"},
		{"[::1]:8080", "::1"},
		{"10.0.0.1", "10.0.0.1"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.addr
		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestRateLimit_PerIP(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.RateLimit = 0.001
		cfg.RateBurst = 1
	})

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/doctor_chat", strings.NewReader(`{"query":"fever"}`))
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("10.0.0.1:1000"); code != http.StatusOK {
		t.Fatalf("first IP status = %d, want 200", code)
	}
	if code := send("10.0.0.2:1000"); code != http.StatusOK {
		t.Errorf("second IP status = %d, want 200 (buckets are per IP)", code)
	}
	if code := send("10.0.0.1:2000"); code != http.StatusTooManyRequests {
		t.Errorf("first IP retry status = %d, want 429", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, nil)

	// Complete one chat request so the counter exists with a value.
	if rec := postChat(s, "/doctor_chat", `{"query":"fever"}`); rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "medbot_chat_requests_total") {
		t.Error("metrics output missing chat request counter")
	}
	if !strings.Contains(body, `bot="doctor"`) {
		t.Error("chat counter missing bot label")
	}
}
