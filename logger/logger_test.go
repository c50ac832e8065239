package logger

import (
	"os"
	"testing"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("probe")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.component != "probe" {
		t.Errorf("expected component 'probe', got %q", l.component)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:  "nonsense",
		Format: "json",
		Output: "stderr",
	}
	l := New(cfg, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	l := NewFromEnv("env-test")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithComponent(t *testing.T) {
	l := NewDefault("")
	scoped := l.WithComponent("filter")
	if scoped.component != "filter" {
		t.Errorf("expected component 'filter', got %q", scoped.component)
	}
}

func TestRegistryFallsBackToGlobal(t *testing.T) {
	l := Get("not-registered")
	if l == nil {
		t.Fatal("expected non-nil logger from registry fallback")
	}
}

func TestRegistryReturnsRegistered(t *testing.T) {
	custom := NewDefault("cache")
	Register("cache", custom)
	if got := Get("cache"); got != custom {
		t.Error("expected registered logger instance")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Level: "info", Format: "console"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg = Config{Level: "loud", Format: "console"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}

	cfg = Config{Level: "info", Format: "xml"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestFieldsHelper(t *testing.T) {
	m := Fields("op", "probe", "count", 3)
	if m["op"] != "probe" {
		t.Errorf("expected op=probe, got %v", m["op"])
	}
	if m["count"] != 3 {
		t.Errorf("expected count=3, got %v", m["count"])
	}

	// Odd trailing key is dropped.
	m = Fields("only-key")
	if len(m) != 0 {
		t.Errorf("expected empty map, got %v", m)
	}
}
