package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadEmbeddedDefault(t *testing.T) {
	store := NewStore("")

	p, err := store.Load("transcript_optimization", "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Name != "transcript_optimization" {
		t.Errorf("unexpected name %q", p.Name)
	}
	if p.Content == "" || strings.HasPrefix(p.Content, "---") {
		t.Errorf("frontmatter not stripped: %q", p.Content[:40])
	}
	if p.APIParams().Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", p.APIParams().Temperature)
	}
	if p.UserTemplate() == "" {
		t.Error("expected a user template")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := NewStore("").Load("no_such_prompt", ""); err == nil {
		t.Fatal("expected error for unknown prompt")
	}
}

func TestModelVersionSelection(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("greeting.md", "default body")
	write("greeting.kimi.md", "kimi family body")
	write("greeting.kimi-k2.5.md", "exact model body")

	store := NewStore(dir)

	tests := []struct {
		model string
		want  string
	}{
		{"kimi-k2.5", "exact model body"},
		{"kimi-k1", "kimi family body"},
		{"gpt-4o", "default body"},
		{"", "default body"},
	}
	for _, tc := range tests {
		p, err := store.Load("greeting", tc.model)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", tc.model, err)
		}
		if p.Content != tc.want {
			t.Errorf("Load(%q) = %q, want %q", tc.model, p.Content, tc.want)
		}
	}
}

func TestDiskOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "image_analysis.md"), []byte("local override"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := NewStore(dir).Load("image_analysis", "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Content != "local override" {
		t.Errorf("disk file should win over embedded default, got %q", p.Content)
	}
}

func TestRender(t *testing.T) {
	p := &Prompt{Content: "Title: {title}, Lang: {language}, keep {unknown}"}
	got := p.Render(map[string]string{"title": "Demo", "language": "zh"})
	want := "Title: Demo, Lang: zh, keep {unknown}"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestFrontmatterParsing(t *testing.T) {
	data := []byte("---\nname: custom\nversion: 3\nparameters:\n  temperature: 1\n  max_tokens: 2000\n  timeout: 5m\n---\nbody text")
	p, err := parse("fallback", data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.Name != "custom" {
		t.Errorf("metadata name should win, got %q", p.Name)
	}
	if p.Content != "body text" {
		t.Errorf("unexpected body %q", p.Content)
	}
	params := p.APIParams()
	if params.Temperature != 1 || params.MaxTokens != 2000 {
		t.Errorf("unexpected params %+v", params)
	}
	if params.Timeout != 5*time.Minute {
		t.Errorf("unexpected timeout %v", params.Timeout)
	}
	if p.Version() != "3" {
		t.Errorf("unexpected version %q", p.Version())
	}
}

func TestFrontmatterTimeoutSeconds(t *testing.T) {
	data := []byte("---\nparameters:\n  timeout: 300\n---\nbody")
	p, err := parse("plain", data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := p.APIParams().Timeout; got != 300*time.Second {
		t.Errorf("timeout = %v, want 300s", got)
	}
}

func TestNoFrontmatter(t *testing.T) {
	p, err := parse("plain", []byte("just a prompt"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.Content != "just a prompt" || p.Name != "plain" {
		t.Errorf("unexpected prompt %+v", p)
	}
}
