package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imchangchang/video2markdown/document"
	apperrors "github.com/imchangchang/video2markdown/errors"
	"github.com/imchangchang/video2markdown/keyframe"
	"github.com/imchangchang/video2markdown/logger"
	"github.com/imchangchang/video2markdown/media"
	"github.com/imchangchang/video2markdown/render"
	"github.com/imchangchang/video2markdown/transcript"
	"github.com/imchangchang/video2markdown/transcription"
	"github.com/imchangchang/video2markdown/usage"
	"github.com/imchangchang/video2markdown/vision"
)

// Deps are the collaborators the orchestrator drives. Decoder, transcriber,
// cache, assembler and writer are required; optimizer and vision stage are
// optional and their stages are skipped when nil.
type Deps struct {
	Decoder     media.Decoder
	Transcriber transcription.Provider
	Cache       *transcription.Cache
	Optimizer   *transcript.Optimizer
	Vision      *vision.Stage
	Assembler   *document.Assembler
	Writer      *render.Writer
}

func (d Deps) validate() error {
	switch {
	case d.Decoder == nil:
		return fmt.Errorf("pipeline: decoder is required")
	case d.Transcriber == nil:
		return fmt.Errorf("pipeline: transcriber is required")
	case d.Cache == nil:
		return fmt.Errorf("pipeline: transcription cache is required")
	case d.Assembler == nil:
		return fmt.Errorf("pipeline: assembler is required")
	case d.Writer == nil:
		return fmt.Errorf("pipeline: writer is required")
	}
	return nil
}

// Runner executes the full pipeline for one media file at a time.
type Runner struct {
	cfg  Config
	deps Deps
	log  *logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, deps Deps) (*Runner, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if cfg.Language == "" {
		cfg.Language = "auto"
	}
	return &Runner{cfg: cfg, deps: deps, log: logger.Get("pipeline")}, nil
}

// Run processes one media file end to end and returns the run result.
// A fatal stage error aborts and returns it; degraded stages are recorded
// on the result and the run continues.
func (r *Runner) Run(ctx context.Context, mediaPath string) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID: uuid.New().String(),
		Usage: usage.NewLedger(),
	}
	log := r.log.WithFields(map[string]interface{}{"run_id": res.RunID, "media": mediaPath})
	log.Info("run started")

	workDir := r.cfg.WorkDir
	keepWorkDir := false
	if workDir == "" {
		dir, err := os.MkdirTemp("", "video2markdown-*")
		if err != nil {
			return nil, fmt.Errorf("pipeline: create work dir: %w", err)
		}
		defer func() {
			// An interrupted run keeps its scratch dir so the extracted
			// images referenced by the partial result stay readable.
			if !keepWorkDir {
				os.RemoveAll(dir)
			}
		}()
		workDir = dir
	}

	info, err := media.ProbeWithScenes(ctx, r.deps.Decoder, mediaPath, r.cfg.Probe)
	if err != nil {
		return nil, err
	}
	res.MediaInfo = info
	log.Info("media probed", map[string]interface{}{
		"duration": info.Duration,
		"video":    info.HasVideo,
		"scenes":   len(info.SceneChanges),
	})

	resp, hit, err := r.deps.Cache.GetOrCreate(ctx, mediaPath, r.cfg.Model, r.cfg.Language, func(ctx context.Context) (*transcription.TranscriptionResponse, error) {
		audioPath := filepath.Join(workDir, "audio.wav")
		if err := r.deps.Decoder.ExtractAudio(ctx, mediaPath, audioPath); err != nil {
			return nil, apperrors.MediaRead(mediaPath, err)
		}
		return r.deps.Transcriber.Transcribe(ctx, transcription.TranscriptionRequest{
			AudioPath: audioPath,
			Language:  r.cfg.Language,
			Model:     r.cfg.Model,
		})
	})
	if err != nil {
		return nil, err
	}
	res.CacheHit = hit

	t := transcript.FromTranscription(r.title(mediaPath), resp, r.cfg.Language)
	if err := t.Validate(); err != nil {
		return nil, apperrors.TranscriptionFailed(r.deps.Transcriber.Name(), err)
	}
	res.Transcript = t

	if r.deps.Optimizer != nil {
		u, err := r.deps.Optimizer.Optimize(ctx, t)
		res.Usage.Add("optimization", r.deps.Optimizer.Model(), u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.degrade(res, log, "optimization", err)
		}
	}

	var kept []keyframe.CandidateFrame
	if info.HasVideo {
		candidates := keyframe.Select(info.SceneChanges, info.Duration, r.cfg.Selector)
		analyzer := keyframe.NewDecoderAnalyzer(r.deps.Decoder, mediaPath, workDir)
		filter := keyframe.NewFilter(r.cfg.Filter, analyzer)
		var decisions []keyframe.FilterDecision
		kept, decisions, err = filter.Run(ctx, candidates, t)
		if err != nil {
			return nil, err
		}
		res.Decisions = decisions
	}

	if len(kept) > 0 && r.deps.Vision != nil {
		descs, skipped, err := r.deps.Vision.Run(ctx, mediaPath, kept, t, filepath.Join(workDir, "images"), res.Usage)
		res.Descriptions = descs
		res.SkippedFrames = skipped
		if err != nil {
			// Cancellation mid-stage still hands back the frames that
			// finished, together with their images.
			keepWorkDir = len(descs) > 0
			return res, err
		}
		if len(descs) == 0 {
			r.degrade(res, log, "vision", fmt.Errorf("no frame could be described"))
		} else if len(skipped) > 0 {
			r.degrade(res, log, "vision", fmt.Errorf("%d of %d frames skipped", len(skipped), len(kept)))
		}
	}

	doc, err := r.deps.Assembler.Assemble(ctx, t, res.Descriptions, info.Duration, res.Usage)
	if err != nil {
		if doc == nil || apperrors.IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}
		r.degrade(res, log, "chapters", err)
	}
	res.Document = doc

	key, err := r.deps.Writer.Write(ctx, doc, t, res.Descriptions)
	if err != nil {
		return nil, err
	}
	res.OutputKey = key
	res.Elapsed = time.Since(start)

	total := res.Usage.Total()
	log.Info("run finished", map[string]interface{}{
		"output":       key,
		"chapters":     len(doc.Chapters),
		"frames":       len(res.Descriptions),
		"cache_hit":    hit,
		"degradations": len(res.Degradations),
		"total_tokens": total.TotalTokens,
		"elapsed":      res.Elapsed.String(),
	})
	return res, nil
}

func (r *Runner) degrade(res *Result, log *logger.Logger, stage string, err error) {
	res.Degradations = append(res.Degradations, Degradation{Stage: stage, Reason: err.Error()})
	log.Warn("stage degraded", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

// title derives the document title from the override or the file stem.
func (r *Runner) title(mediaPath string) string {
	if r.cfg.Title != "" {
		return r.cfg.Title
	}
	base := filepath.Base(mediaPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
