package llm

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// stubProvider returns canned content and records the last request.
type stubProvider struct {
	content string
	usage   Usage
	err     error
	lastReq CompletionRequest
}

func (s *stubProvider) Name() string                            { return "stub" }
func (s *stubProvider) IsAvailable(ctx context.Context) bool    { return true }
func (s *stubProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &CompletionResponse{Content: s.content, Model: "stub-model", Usage: s.usage}, nil
}
func (s *stubProvider) CompleteStructured(ctx context.Context, req CompletionRequest, schema any) (*CompletionResponse, error) {
	return s.Complete(ctx, req)
}
func (s *stubProvider) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk)
	close(ch)
	return ch, nil
}

func TestComplete(t *testing.T) {
	p := &stubProvider{content: "answer", usage: Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}

	text, usage, err := Complete(context.Background(), p, "be brief", "question")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "answer" {
		t.Errorf("expected answer, got %q", text)
	}
	if usage.TotalTokens != 15 {
		t.Errorf("expected 15 total tokens, got %d", usage.TotalTokens)
	}
	if p.lastReq.SystemPrompt != "be brief" {
		t.Errorf("system prompt not passed: %q", p.lastReq.SystemPrompt)
	}
}

func TestCompleteError(t *testing.T) {
	p := &stubProvider{err: fmt.Errorf("backend down")}
	if _, _, err := Complete(context.Background(), p, "", "q"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCompleteStructured(t *testing.T) {
	p := &stubProvider{content: "```json\n{\"title\": \"Intro\", \"count\": 3}\n```"}

	var out struct {
		Title string `json:"title"`
		Count int    `json:"count"`
	}
	if _, err := CompleteStructured(context.Background(), p, "sys", "user", &out); err != nil {
		t.Fatalf("CompleteStructured failed: %v", err)
	}
	if out.Title != "Intro" || out.Count != 3 {
		t.Errorf("unexpected result: %+v", out)
	}
	if !strings.Contains(p.lastReq.SystemPrompt, "ONLY the JSON object") {
		t.Error("JSON instructions should be appended to the system prompt")
	}
}

func TestCompleteStructuredMalformed(t *testing.T) {
	p := &stubProvider{content: "I cannot answer that."}
	var out map[string]any
	if _, err := CompleteStructured(context.Background(), p, "sys", "user", &out); err == nil {
		t.Fatal("expected unmarshal error for non-JSON content")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced no lang", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around", `Here you go: {"a": 1} hope that helps`, `{"a": 1}`},
		{"no json", "no object here", "no object here"},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.in); got != tc.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestUsageAdd(t *testing.T) {
	a := Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	b := Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}
	sum := a.Add(b)
	if sum.PromptTokens != 13 || sum.CompletionTokens != 7 || sum.TotalTokens != 20 {
		t.Errorf("unexpected sum: %+v", sum)
	}
}
