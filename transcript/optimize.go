package transcript

import (
	"context"
	"strings"

	apperrors "github.com/imchangchang/video2markdown/errors"
	"github.com/imchangchang/video2markdown/llm"
	"github.com/imchangchang/video2markdown/logger"
	"github.com/imchangchang/video2markdown/prompt"
)

// optimizationPrompt is the prompt store key for the cleanup pass.
const optimizationPrompt = "transcript_optimization"

// Optimizer runs the AI cleanup pass over a raw transcript: filler removal,
// error correction, paragraph re-segmentation with headings.
type Optimizer struct {
	provider llm.Provider
	prompts  *prompt.Store
	model    string
	log      *logger.Logger
}

// NewOptimizer creates an Optimizer. model selects prompt variants and is
// passed through to the completion request.
func NewOptimizer(p llm.Provider, prompts *prompt.Store, model string) *Optimizer {
	return &Optimizer{
		provider: p,
		prompts:  prompts,
		model:    model,
		log:      logger.Get("transcript-optimizer"),
	}
}

// Model returns the model the optimizer requests.
func (o *Optimizer) Model() string { return o.model }

// Optimize fills t.OptimizedText with the cleaned transcript. On any failure
// it falls back to the raw text, marks the transcript degraded, and returns
// a non-fatal OptimizationFailed error alongside whatever usage accrued.
// The caller may log the error and continue.
func (o *Optimizer) Optimize(ctx context.Context, t *Transcript) (llm.Usage, error) {
	tpl, err := o.prompts.Load(optimizationPrompt, o.model)
	if err != nil {
		return llm.Usage{}, o.fallback(t, err)
	}

	vars := map[string]string{
		"title":      t.Title,
		"language":   t.Language,
		"transcript": t.ToWordDocument(),
	}

	req := llm.CompletionRequest{
		Model:        o.model,
		SystemPrompt: tpl.Render(vars),
		Messages:     []llm.Message{{Role: "user", Content: tpl.RenderUser(vars)}},
	}
	params := tpl.APIParams()
	req.Temperature = params.Temperature
	req.MaxTokens = params.MaxTokens
	req.Timeout = params.Timeout

	resp, err := o.provider.Complete(ctx, req)
	if err != nil {
		return llm.Usage{}, o.fallback(t, err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return resp.Usage, o.fallback(t, apperrors.OptimizationFailed(nil))
	}

	t.OptimizedText = CanonicalScript(text, t.Language)
	t.Degraded = false
	o.log.Info("transcript optimized", map[string]interface{}{
		"segments":   len(t.Segments),
		"chars":      len(t.OptimizedText),
		"model_used": resp.Model,
	})
	return resp.Usage, nil
}

// fallback keeps the raw transcript usable when the cleanup pass fails.
func (o *Optimizer) fallback(t *Transcript, cause error) error {
	t.OptimizedText = t.FullText()
	t.Degraded = true
	o.log.Warn("transcript optimization failed, using raw text", map[string]interface{}{
		"error": cause.Error(),
	})
	return apperrors.OptimizationFailed(cause)
}
