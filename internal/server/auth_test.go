package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAuth_Disabled(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, nil)
	rec := postChat(s, "/doctor_chat", `{"query":"fever"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", rec.Code)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.APIKey = "secret"
	})

	rec := postChat(s, "/doctor_chat", `{"query":"fever"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); !strings.Contains(got, "medbot") {
		t.Errorf("WWW-Authenticate = %q, want a bearer challenge", got)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.APIKey = "secret"
	})

	req := httptest.NewRequest(http.MethodPost, "/doctor_chat", strings.NewReader(`{"query":"fever"}`))
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.APIKey = "secret"
	})

	req := httptest.NewRequest(http.MethodPost, "/doctor_chat", strings.NewReader(`{"query":"fever"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuth_ProbesStayOpen(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.APIKey = "secret"
	})

	for _, path := range []string{"/", "/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code == http.StatusUnauthorized {
			t.Errorf("GET %s = 401, probes must not require auth", path)
		}
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"Bearer  abc ", "abc"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(req); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
