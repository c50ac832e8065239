package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/imchangchang/video2markdown/errors"
	"github.com/imchangchang/video2markdown/keyframe"
	"github.com/imchangchang/video2markdown/llm"
	"github.com/imchangchang/video2markdown/logger"
	"github.com/imchangchang/video2markdown/media"
	"github.com/imchangchang/video2markdown/prompt"
	"github.com/imchangchang/video2markdown/resilience"
	"github.com/imchangchang/video2markdown/transcript"
	"github.com/imchangchang/video2markdown/usage"
)

const (
	analysisPrompt = "image_analysis"

	// irrelevantMarker is what the model writes when a frame carries no
	// content worth keeping (scenery, black frames, transitions).
	irrelevantMarker = "[无关]"

	usageStage = "vision"
)

// FrameDescription is the model's account of one extracted frame.
type FrameDescription struct {
	// Timestamp is the frame position in seconds.
	Timestamp float64 `json:"timestamp"`
	// ImagePath is where the extracted JPEG was written.
	ImagePath string `json:"image_path"`
	// Description is the model's description of the frame.
	Description string `json:"description"`
	// KeyElements lists notable items the model identified.
	KeyElements []string `json:"key_elements,omitempty"`
	// RelatedTranscript is the transcript text surrounding the frame.
	RelatedTranscript string `json:"related_transcript,omitempty"`
	// Irrelevant marks frames the model judged content-free. They keep
	// their image on disk but downstream stages skip them.
	Irrelevant bool `json:"irrelevant,omitempty"`
}

// SkippedFrame records a frame the stage gave up on after extraction or
// description failed. Skips are returned so callers can audit incomplete
// output instead of digging through logs.
type SkippedFrame struct {
	// Timestamp is the frame position in seconds.
	Timestamp float64 `json:"timestamp"`
	// Reason is the failure that caused the skip.
	Reason string `json:"reason"`
}

// StageConfig holds the description stage settings.
type StageConfig struct {
	// Workers bounds concurrent API calls.
	Workers int
	// RequestsPerMinute throttles the API call rate.
	RequestsPerMinute int
	// ContextWindow is the transcript lookup radius in seconds.
	ContextWindow float64
	// Model overrides the provider's default model when set.
	Model string
}

// DefaultStageConfig returns the stage defaults.
func DefaultStageConfig() StageConfig {
	return StageConfig{
		Workers:           3,
		RequestsPerMinute: 20,
		ContextWindow:     10.0,
	}
}

// Stage extracts kept frames, describes each through the vision provider,
// and returns descriptions in timestamp order. Individual frame failures
// are logged and skipped; only cancellation aborts the stage.
type Stage struct {
	cfg      StageConfig
	provider Provider
	prompts  *prompt.Store
	decoder  media.Decoder
	limiter  *resilience.RateLimiter
	retry    resilience.RetryConfig
	log      *logger.Logger
}

// NewStage creates a description stage.
func NewStage(cfg StageConfig, p Provider, prompts *prompt.Store, decoder media.Decoder) *Stage {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultStageConfig().Workers
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultStageConfig().RequestsPerMinute
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultStageConfig().ContextWindow
	}
	return &Stage{
		cfg:      cfg,
		provider: p,
		prompts:  prompts,
		decoder:  decoder,
		limiter:  resilience.NewRateLimiter(resilience.PerMinute(cfg.RequestsPerMinute)),
		retry:    resilience.DefaultRetryConfig(),
		log:      logger.Get("vision-stage"),
	}
}

// analysisPayload matches the JSON the prompt asks the model to emit.
type analysisPayload struct {
	Description string   `json:"description"`
	KeyElements []string `json:"key_elements"`
}

// Run extracts each frame into imagesDir as frame_NNNN_<ts>s.jpg, describes
// it with transcript context, and returns the descriptions sorted by
// timestamp plus a record of every frame that had to be skipped. On
// cancellation the descriptions completed so far are returned alongside the
// context error. Token usage is recorded on the ledger.
func (s *Stage) Run(ctx context.Context, mediaPath string, frames []keyframe.CandidateFrame, t *transcript.Transcript, imagesDir string, ledger *usage.Ledger) ([]FrameDescription, []SkippedFrame, error) {
	if len(frames) == 0 {
		return nil, nil, nil
	}
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("vision: create images dir: %w", err)
	}

	tpl, err := s.prompts.Load(analysisPrompt, s.cfg.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("vision: load prompt: %w", err)
	}
	system := tpl.Render(nil)
	params := tpl.APIParams()

	results := make([]*FrameDescription, len(frames))
	skips := make([]*SkippedFrame, len(frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, frame := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			desc, err := s.describeFrame(gctx, tpl, system, params, mediaPath, imagesDir, i, frame, t, ledger)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				s.log.Warn("frame description skipped", map[string]interface{}{
					"timestamp": frame.Timestamp,
					"error":     err.Error(),
				})
				skips[i] = &SkippedFrame{Timestamp: frame.Timestamp, Reason: err.Error()}
				return nil
			}
			results[i] = desc
			return nil
		})
	}
	waitErr := g.Wait()

	described := make([]FrameDescription, 0, len(frames))
	for _, r := range results {
		if r != nil {
			described = append(described, *r)
		}
	}
	sort.Slice(described, func(a, b int) bool {
		return described[a].Timestamp < described[b].Timestamp
	})

	skipped := make([]SkippedFrame, 0, len(frames))
	for _, sk := range skips {
		if sk != nil {
			skipped = append(skipped, *sk)
		}
	}
	sort.Slice(skipped, func(a, b int) bool {
		return skipped[a].Timestamp < skipped[b].Timestamp
	})

	s.log.Info("frame description complete", map[string]interface{}{
		"frames":    len(frames),
		"described": len(described),
		"skipped":   len(skipped),
	})
	return described, skipped, waitErr
}

func (s *Stage) describeFrame(ctx context.Context, tpl *prompt.Prompt, system string, params prompt.APIParams, mediaPath, imagesDir string, index int, frame keyframe.CandidateFrame, t *transcript.Transcript, ledger *usage.Ledger) (*FrameDescription, error) {
	imagePath := filepath.Join(imagesDir, fmt.Sprintf("frame_%04d_%.1fs.jpg", index+1, frame.Timestamp))
	if err := s.decoder.ExtractFrame(ctx, mediaPath, frame.Timestamp, imagePath); err != nil {
		return nil, apperrors.FrameExtractFailed(frame.Timestamp, err)
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, apperrors.FrameExtractFailed(frame.Timestamp, err)
	}

	if scaled, err := Downscale(data, maxImageDimension); err == nil {
		data = scaled
	} else {
		s.log.Warn("frame downscale failed, sending original", map[string]interface{}{
			"timestamp": frame.Timestamp,
			"error":     err.Error(),
		})
	}

	contextText := ""
	if t != nil {
		contextText = t.TextAround(frame.Timestamp, s.cfg.ContextWindow)
	}

	req := Request{
		SystemPrompt: system,
		UserText:     tpl.RenderUser(map[string]string{"context": contextText}),
		ImageJPEG:    data,
		Model:        s.cfg.Model,
		Temperature:  params.Temperature,
		MaxTokens:    params.MaxTokens,
		Timeout:      params.Timeout,
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	result, err := resilience.Retry(ctx, s.retry, func() (*Result, error) {
		return s.provider.Describe(ctx, req)
	})
	if err != nil {
		return nil, apperrors.FrameAnalysisFailed(frame.Timestamp, err)
	}
	ledger.Add(usageStage, result.Model, result.Usage)

	desc := &FrameDescription{
		Timestamp:         frame.Timestamp,
		ImagePath:         imagePath,
		RelatedTranscript: contextText,
	}
	var payload analysisPayload
	if jsonErr := json.Unmarshal([]byte(llm.ExtractJSON(result.Content)), &payload); jsonErr == nil && payload.Description != "" {
		desc.Description = payload.Description
		desc.KeyElements = payload.KeyElements
	} else {
		// Unparseable output still beats losing the frame.
		desc.Description = strings.TrimSpace(result.Content)
	}
	desc.Irrelevant = strings.Contains(desc.Description, irrelevantMarker)
	return desc, nil
}
