// Package openai implements llm.Provider against the OpenAI chat completions
// API, or any compatible endpoint via a custom base URL.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/imchangchang/video2markdown/llm"
	"github.com/imchangchang/video2markdown/provider"
)

const (
	// ProviderName is the registered name for the OpenAI provider.
	ProviderName = "openai"

	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI provider.
type Config struct {
	// APIKey authenticates requests. Required.
	APIKey string `json:"api_key" yaml:"api_key"`
	// BaseURL overrides the API endpoint for OpenAI-compatible services.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url"`
	// Model is the default model.
	Model string `json:"model" yaml:"model"`
	// Temperature is the default sampling temperature.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature"`
	// Timeout bounds each API call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Provider implements llm.Provider using the official OpenAI client.
type Provider struct {
	cfg    Config
	client openai.Client
}

// NewProvider creates an OpenAI LLM provider.
func NewProvider(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Provider{
		cfg:    cfg,
		client: openai.NewClient(opts...),
	}
}

// callContext bounds one API call. The request timeout wins over the
// configured default so long structuring calls are not capped by it.
func (p *Provider) callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = p.cfg.Timeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Factory returns a provider.Factory that creates OpenAI Provider instances
// from a generic config map.
func Factory() provider.Factory[llm.Provider] {
	return func(cfg map[string]any) (llm.Provider, error) {
		oc := Config{}
		if v, ok := cfg["api_key"].(string); ok {
			oc.APIKey = v
		}
		if v, ok := cfg["base_url"].(string); ok {
			oc.BaseURL = v
		}
		if v, ok := cfg["model"].(string); ok {
			oc.Model = v
		}
		if v, ok := cfg["temperature"].(float64); ok {
			oc.Temperature = v
		}
		timeout, err := provider.DurationSetting(cfg, "timeout", 0)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		oc.Timeout = timeout
		if oc.APIKey == "" {
			return nil, fmt.Errorf("openai: api_key is required")
		}
		return NewProvider(oc), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether the provider is configured.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.cfg.APIKey != ""
}

// Complete sends a completion request and returns the full response.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params := p.buildParams(req)
	ctx, cancel := p.callContext(ctx, req.Timeout)
	defer cancel()

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai complete: %w", err)
	}
	return toCompletionResponse(resp)
}

// CompleteStructured sends a completion request with JSON response format.
func (p *Provider) CompleteStructured(ctx context.Context, req llm.CompletionRequest, schema any) (*llm.CompletionResponse, error) {
	params := p.buildParams(req)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
	}
	ctx, cancel := p.callContext(ctx, req.Timeout)
	defer cancel()

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai complete structured: %w", err)
	}
	return toCompletionResponse(resp)
}

// Stream sends a completion request and returns a channel of streamed chunks.
func (p *Provider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	params := p.buildParams(req)
	ctx, cancel := p.callContext(ctx, req.Timeout)
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		defer cancel()
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			select {
			case ch <- llm.StreamChunk{Content: chunk.Choices[0].Delta.Content}:
			case <-ctx.Done():
				ch <- llm.StreamChunk{Err: ctx.Err()}
				return
			}
		}
		if err := stream.Err(); err != nil {
			ch <- llm.StreamChunk{Err: err}
			return
		}
		ch <- llm.StreamChunk{Done: true}
	}()
	return ch, nil
}

func (p *Provider) buildParams(req llm.CompletionRequest) openai.ChatCompletionNewParams {
	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: msgs,
	}
	temp := p.cfg.Temperature
	if req.Temperature != 0 {
		temp = req.Temperature
	}
	if temp != 0 {
		params.Temperature = openai.Float(temp)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	return params
}

func toCompletionResponse(resp *openai.ChatCompletion) (*llm.CompletionResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response contained no choices")
	}
	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}
