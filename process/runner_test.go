package process_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/imchangchang/video2markdown/process"
	"github.com/imchangchang/video2markdown/resilience"
)

func TestRunnerPlain(t *testing.T) {
	r := process.NewRunner()
	result, err := r.Run(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"ok"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(result.Stdout)) != "ok" {
		t.Fatalf("expected 'ok', got %q", result.Stdout)
	}
}

func TestRunnerWithRetrySucceeds(t *testing.T) {
	r := process.NewRunner(process.WithRetry(resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
	}))
	result, err := r.Run(context.Background(), process.Command{
		Binary: "true",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", result.ExitCode)
	}
}

func TestRunnerWithRetryExhausts(t *testing.T) {
	r := process.NewRunner(process.WithRetry(resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
	}))
	_, err := r.Run(context.Background(), process.Command{
		Binary: "false",
	})
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
}

func TestRunnerWithBulkhead(t *testing.T) {
	bh := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "proc",
		MaxConcurrent: 1,
		MaxWait:       time.Second,
	})
	r := process.NewRunner(process.WithBulkhead(bh))

	result, err := r.Run(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"bulkheaded"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(result.Stdout)) != "bulkheaded" {
		t.Fatalf("unexpected output %q", result.Stdout)
	}
}

func TestRunJSON(t *testing.T) {
	var out map[string]any
	err := process.RunJSON(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{`{"format":{"duration":"12.5"}}`},
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	format, ok := out["format"].(map[string]any)
	if !ok {
		t.Fatal("expected format object in output")
	}
	if format["duration"] != "12.5" {
		t.Fatalf("expected duration 12.5, got %v", format["duration"])
	}
}

func TestRunJSONInvalid(t *testing.T) {
	var out map[string]any
	err := process.RunJSON(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"not json"},
	}, &out)
	if err == nil {
		t.Fatal("expected error for invalid JSON output")
	}
}

func TestBinaryAvailable(t *testing.T) {
	if !process.BinaryAvailable("echo") {
		t.Error("expected echo to be available")
	}
	if process.BinaryAvailable("definitely-not-a-real-binary-xyz") {
		t.Error("expected missing binary to be unavailable")
	}
}
