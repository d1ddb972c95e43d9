package commands

import (
	"os"
	"testing"
)

func TestResolveHost(t *testing.T) {
	t.Setenv("SERVER_HOST", "")
	os.Unsetenv("SERVER_HOST")

	if got := resolveHost(false, "0.0.0.0"); got != "0.0.0.0" {
		t.Errorf("no flag, no env: got %q, want flag default", got)
	}

	t.Setenv("SERVER_HOST", "127.0.0.1")
	if got := resolveHost(false, "0.0.0.0"); got != "127.0.0.1" {
		t.Errorf("env set: got %q, want 127.0.0.1", got)
	}
	if got := resolveHost(true, "10.0.0.5"); got != "10.0.0.5" {
		t.Errorf("explicit flag must win over env: got %q", got)
	}
}

func TestResolvePort(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	os.Unsetenv("SERVER_PORT")

	if got := resolvePort(false, 8080); got != 8080 {
		t.Errorf("no flag, no env: got %d, want flag default", got)
	}

	t.Setenv("SERVER_PORT", "9090")
	if got := resolvePort(false, 8080); got != 9090 {
		t.Errorf("env set: got %d, want 9090", got)
	}
	if got := resolvePort(true, 7070); got != 7070 {
		t.Errorf("explicit flag must win over env: got %d", got)
	}

	t.Setenv("SERVER_PORT", "not-a-port")
	if got := resolvePort(false, 8080); got != 8080 {
		t.Errorf("unparseable env: got %d, want flag default", got)
	}
}

func TestAllowedOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	os.Unsetenv("CORS_ALLOWED_ORIGINS")
	if got := allowedOriginsFromEnv(); got != nil {
		t.Errorf("unset: got %v, want nil", got)
	}

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")
	got := allowedOriginsFromEnv()
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Errorf("got %v, want two trimmed origins", got)
	}
}
