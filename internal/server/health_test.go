package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct {
	name string
	err  error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }
func (f *fakePinger) Name() string               { return f.name }

func TestHandleRoot(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "API running!" {
		t.Errorf("status body = %q, want %q", body["status"], "API running!")
	}
}

func TestHandleReady_AllHealthy(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.Pingers = []Pinger{
			&fakePinger{name: "pinecone"},
			&fakePinger{name: "docstore"},
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp readyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.Ready || len(resp.Checks) != 2 {
		t.Errorf("response = %+v, want ready with 2 checks", resp)
	}
}

func TestHandleReady_DependencyDown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBot{answer: "a"}, &fakeBot{answer: "a"}, func(cfg *Config) {
		cfg.Pingers = []Pinger{
			&fakePinger{name: "pinecone"},
			&fakePinger{name: "docstore", err: errors.New("no documents ingested")},
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp readyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Ready {
		t.Error("ready = true with a failing dependency")
	}
	if resp.Checks[1].Error == "" {
		t.Error("failing check should carry the error message")
	}
}

func TestMultiPinger_FirstFailureWins(t *testing.T) {
	t.Parallel()

	failing := errors.New("down")
	mp := NewMultiPinger(
		&fakePinger{name: "a"},
		&fakePinger{name: "b", err: failing},
		&fakePinger{name: "c"},
	)

	err := mp.Ping(context.Background())
	if !errors.Is(err, failing) {
		t.Errorf("Ping() error = %v, want wrapped failure from b", err)
	}
}
