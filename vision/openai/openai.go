// Package openai implements vision.Provider against the OpenAI chat
// completions API using multi-part user messages.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/imchangchang/video2markdown/llm"
	"github.com/imchangchang/video2markdown/provider"
	"github.com/imchangchang/video2markdown/vision"
)

const (
	// ProviderName is the registered name for the OpenAI vision provider.
	ProviderName = "openai"

	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 180 * time.Second
)

// Config holds configuration for the OpenAI vision provider.
type Config struct {
	// APIKey authenticates requests. Required.
	APIKey string `json:"api_key" yaml:"api_key"`
	// BaseURL overrides the API endpoint for OpenAI-compatible services.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url"`
	// Model is the default multimodal model.
	Model string `json:"model" yaml:"model"`
	// Timeout bounds each API call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Provider implements vision.Provider using the official OpenAI client.
type Provider struct {
	cfg    Config
	client openai.Client
}

// NewProvider creates an OpenAI vision provider.
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

// Factory returns a provider.Factory that creates OpenAI vision providers
// from a generic config map.
func Factory() provider.Factory[vision.Provider] {
	return func(cfg map[string]any) (vision.Provider, error) {
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
		timeout, err := provider.DurationSetting(cfg, "timeout", 0)
		if err != nil {
			return nil, fmt.Errorf("openai vision: %w", err)
		}
		oc.Timeout = timeout
		if oc.APIKey == "" {
			return nil, fmt.Errorf("openai vision: api_key is required")
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

// Describe sends the image and its context as one multi-part user message.
func (p *Provider) Describe(ctx context.Context, req vision.Request) (*vision.Result, error) {
	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(req.UserText),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: vision.DataURL(req.ImageJPEG),
		}),
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(parts))

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: msgs,
	}
	if req.Temperature != 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	timeout := p.cfg.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai vision: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai vision: response contained no choices")
	}

	return &vision.Result{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}
