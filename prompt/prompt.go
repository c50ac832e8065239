package prompt

import (
	"fmt"
	"strings"
	"time"
)

// Prompt is a loaded prompt template with its frontmatter metadata.
type Prompt struct {
	// Name identifies the prompt, from metadata or the file stem.
	Name string
	// Content is the template body with {variable} placeholders.
	Content string
	// Metadata holds the parsed YAML frontmatter.
	Metadata map[string]any
}

// Render substitutes {key} placeholders in the template body.
// Unknown placeholders are left intact.
func (p *Prompt) Render(vars map[string]string) string {
	out := p.Content
	for key, val := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", val)
	}
	return out
}

// UserTemplate returns the user-message template from metadata, if declared.
func (p *Prompt) UserTemplate() string {
	if v, ok := p.Metadata["user_template"].(string); ok {
		return v
	}
	return ""
}

// RenderUser substitutes placeholders in the user-message template.
// Returns "" when no user template is declared.
func (p *Prompt) RenderUser(vars map[string]string) string {
	tpl := p.UserTemplate()
	if tpl == "" {
		return ""
	}
	for key, val := range vars {
		tpl = strings.ReplaceAll(tpl, "{"+key+"}", val)
	}
	return tpl
}

// APIParams returns model parameters declared in the frontmatter under
// "parameters" (temperature, max_tokens, timeout).
func (p *Prompt) APIParams() APIParams {
	params := APIParams{}
	raw, ok := p.Metadata["parameters"].(map[string]any)
	if !ok {
		return params
	}
	if v, ok := toFloat(raw["temperature"]); ok {
		params.Temperature = v
	}
	if v, ok := toFloat(raw["max_tokens"]); ok {
		params.MaxTokens = int(v)
	}
	if v, ok := toDuration(raw["timeout"]); ok {
		params.Timeout = v
	}
	return params
}

// APIParams are model invocation parameters a prompt file can pin.
type APIParams struct {
	Temperature float64
	MaxTokens   int
	// Timeout bounds each call made with this prompt. Zero means the
	// provider's configured default.
	Timeout time.Duration
}

// Version returns the version string from metadata, or "unknown".
func (p *Prompt) Version() string {
	if v, ok := p.Metadata["version"]; ok {
		return fmt.Sprintf("%v", v)
	}
	return "unknown"
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// toDuration accepts "5m" style strings or plain numbers of seconds.
func toDuration(v any) (time.Duration, bool) {
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, false
		}
		return d, true
	}
	if n, ok := toFloat(v); ok {
		return time.Duration(n * float64(time.Second)), true
	}
	return 0, false
}
