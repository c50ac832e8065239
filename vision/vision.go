// Package vision describes extracted video frames with a multimodal model.
// Providers take an image plus surrounding transcript text and return a
// structured description; the Stage fans frames out across a bounded worker
// pool and collects results in timestamp order.
package vision

import (
	"context"
	"time"

	"github.com/imchangchang/video2markdown/llm"
	"github.com/imchangchang/video2markdown/provider"
)

// Request is one image description call.
type Request struct {
	// SystemPrompt sets the analyst instructions.
	SystemPrompt string
	// UserText is the textual part of the user message, typically the
	// transcript context around the frame.
	UserText string
	// ImageJPEG is the JPEG-encoded frame.
	ImageJPEG []byte
	// Model overrides the provider default when set.
	Model string
	// Temperature is the sampling temperature. Zero means provider default.
	Temperature float64
	// MaxTokens caps the response length when positive.
	MaxTokens int
	// Timeout bounds this call. Zero means the provider default.
	Timeout time.Duration
}

// Result is the raw model output for one frame.
type Result struct {
	// Content is the model's text response.
	Content string
	// Model is the model that produced the response.
	Model string
	// Usage is the token consumption of the call.
	Usage llm.Usage
}

// Provider is a multimodal backend capable of describing images.
type Provider interface {
	provider.Provider

	// Describe sends one image with its textual context and returns the
	// model response.
	Describe(ctx context.Context, req Request) (*Result, error)
}

// NewRegistry creates a provider registry for vision providers.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
