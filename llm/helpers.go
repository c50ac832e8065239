package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Complete is a convenience helper: sends system + user prompts and returns
// the text response along with token usage.
func Complete(ctx context.Context, p Provider, system, user string) (string, Usage, error) {
	resp, err := p.Complete(ctx, CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", Usage{}, err
	}
	return resp.Content, resp.Usage, nil
}

// CompleteStructured sends a prompt expecting JSON and unmarshals the response
// into result. It appends JSON formatting instructions to the system prompt.
func CompleteStructured(ctx context.Context, p Provider, system, user string, result any) (Usage, error) {
	system += "\n\nIMPORTANT: Respond with ONLY the JSON object. " +
		"No markdown, no code blocks, no explanations. " +
		"Start with { and end with }."

	resp, err := p.CompleteStructured(ctx, CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: "user", Content: user}},
	}, nil)
	if err != nil {
		return Usage{}, err
	}

	content := ExtractJSON(resp.Content)
	if err := json.Unmarshal([]byte(content), result); err != nil {
		return resp.Usage, fmt.Errorf("llm: unmarshal structured response: %w", err)
	}
	return resp.Usage, nil
}

// ExtractJSON pulls a JSON object from LLM output that may contain markdown fences.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	// Strip markdown code fences
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s[3:], "\n"); idx >= 0 {
			s = s[3+idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Find first { and last }
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// Add combines two usage reports.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}
