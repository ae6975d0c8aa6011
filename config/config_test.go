package config

import "testing"

func TestPortDefault(t *testing.T) {
	t.Setenv("GAME_PORT", "")
	if got := Port(); got != DefaultPort {
		t.Errorf("Port() = %d, want %d", got, DefaultPort)
	}
}

func TestPortFromEnv(t *testing.T) {
	t.Setenv("GAME_PORT", "5555")
	if got := Port(); got != 5555 {
		t.Errorf("Port() = %d, want 5555", got)
	}
}

func TestBadIntFallsBack(t *testing.T) {
	t.Setenv("GAME_HTTP", "not-a-port")
	if got := HTTPPort(); got != DefaultHTTPPort {
		t.Errorf("HTTPPort() = %d, want %d", got, DefaultHTTPPort)
	}
}

func TestDBPathFromEnv(t *testing.T) {
	t.Setenv("GAME_DB", "/tmp/custom.db")
	if got := DBPath(); got != "/tmp/custom.db" {
		t.Errorf("DBPath() = %q, want /tmp/custom.db", got)
	}
}
