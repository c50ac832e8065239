package keyframe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imchangchang/video2markdown/logger"
	"github.com/imchangchang/video2markdown/media"
	"github.com/imchangchang/video2markdown/transcript"
)

// Layer identifies which filter layer produced a terminal decision.
type Layer int

const (
	// LayerDedup is the temporal deduplication layer.
	LayerDedup Layer = 1
	// LayerVisual is the edge-density / background-uniformity layer.
	LayerVisual Layer = 2
	// LayerContext is the transcript-relevance layer.
	LayerContext Layer = 3
)

// FilterDecision records the terminal verdict for one candidate.
type FilterDecision struct {
	Frame  CandidateFrame `json:"frame"`
	Keep   bool           `json:"keep"`
	Layer  Layer          `json:"layer"`
	Reason string         `json:"reason"`
}

// FilterConfig holds the filter pipeline thresholds.
type FilterConfig struct {
	// MinInterval is the Layer 1 dedup window in seconds.
	MinInterval float64
	// MinEdgeRatio is the Layer 2 floor below which a frame is provisionally
	// rejected unless it looks like a slide.
	MinEdgeRatio float64
	// ContextWindow is the Layer 3 transcript lookup radius in seconds.
	ContextWindow float64
}

// DefaultFilterConfig returns the filter defaults.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinInterval:   10.0,
		MinEdgeRatio:  0.02,
		ContextWindow: 15.0,
	}
}

// FrameAnalyzer produces visual stats for a frame timestamp. The production
// implementation extracts the frame with the decoder; tests substitute
// canned stats.
type FrameAnalyzer interface {
	Analyze(ctx context.Context, timestamp float64) (FrameStats, error)
}

// Filter is the three-layer frame filter. Given identical candidates,
// transcript and thresholds it always returns identical decisions.
type Filter struct {
	cfg      FilterConfig
	analyzer FrameAnalyzer
	log      *logger.Logger
}

// NewFilter creates a Filter.
func NewFilter(cfg FilterConfig, analyzer FrameAnalyzer) *Filter {
	return &Filter{
		cfg:      cfg,
		analyzer: analyzer,
		log:      logger.Get("keyframe-filter"),
	}
}

// Run filters candidates in timestamp order. It returns the retained subset
// and a decision record for every input frame.
//
// Layer 1 rejects frames closer than MinInterval to the last kept frame.
// Layer 2 provisionally rejects frames with neither slide-like appearance
// nor sufficient edge density. Layer 3 reinstates a provisional reject when
// the surrounding transcript suggests an on-screen reference, and confirms
// a Layer 2 accept unconditionally.
func (f *Filter) Run(ctx context.Context, candidates []CandidateFrame, t *transcript.Transcript) ([]CandidateFrame, []FilterDecision, error) {
	var kept []CandidateFrame
	decisions := make([]FilterDecision, 0, len(candidates))

	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return kept, decisions, err
		}

		decision := f.decide(ctx, cand, kept, t)
		decisions = append(decisions, decision)
		if decision.Keep {
			kept = append(kept, cand)
		}
	}

	f.log.Info("frame filter complete", map[string]interface{}{
		"candidates": len(candidates),
		"kept":       len(kept),
	})
	return kept, decisions, nil
}

func (f *Filter) decide(ctx context.Context, cand CandidateFrame, kept []CandidateFrame, t *transcript.Transcript) FilterDecision {
	// Layer 1: temporal dedup against already kept frames.
	if len(kept) > 0 {
		lastKept := kept[len(kept)-1].Timestamp
		if cand.Timestamp-lastKept < f.cfg.MinInterval {
			return FilterDecision{
				Frame:  cand,
				Keep:   false,
				Layer:  LayerDedup,
				Reason: fmt.Sprintf("within %.0fs of kept frame at %.1fs", f.cfg.MinInterval, lastKept),
			}
		}
	}

	// Layer 2: visual heuristic. Analysis failure counts as a provisional
	// reject so Layer 3 still gets a chance to reinstate the frame.
	var provisionalReason string
	stats, err := f.analyzer.Analyze(ctx, cand.Timestamp)
	switch {
	case err != nil:
		provisionalReason = "frame analysis failed: " + err.Error()
		f.log.Warn("frame analysis failed", map[string]interface{}{
			"timestamp": cand.Timestamp,
			"error":     err.Error(),
		})
	case stats.LikelySlide():
		return FilterDecision{
			Frame:  cand,
			Keep:   true,
			Layer:  LayerVisual,
			Reason: fmt.Sprintf("likely slide (edge=%.3f white=%.2f dark=%.2f)", stats.EdgeRatio, stats.WhiteRatio, stats.DarkRatio),
		}
	case stats.EdgeRatio >= f.cfg.MinEdgeRatio:
		return FilterDecision{
			Frame:  cand,
			Keep:   true,
			Layer:  LayerVisual,
			Reason: fmt.Sprintf("sufficient detail (edge=%.3f)", stats.EdgeRatio),
		}
	default:
		provisionalReason = fmt.Sprintf("low edge density (edge=%.3f)", stats.EdgeRatio)
	}

	// Layer 3: transcript context can reinstate a provisional reject.
	if reason, relevant := f.contextRelevant(cand.Timestamp, t); relevant {
		return FilterDecision{
			Frame:  cand,
			Keep:   true,
			Layer:  LayerContext,
			Reason: reason + "; reinstated after " + provisionalReason,
		}
	}
	return FilterDecision{
		Frame:  cand,
		Keep:   false,
		Layer:  LayerVisual,
		Reason: provisionalReason,
	}
}

// contextRelevant checks the transcript around a timestamp for signs that
// the speaker refers to something on screen.
func (f *Filter) contextRelevant(timestamp float64, t *transcript.Transcript) (string, bool) {
	if t == nil {
		return "", false
	}
	text := t.TextAround(timestamp, f.cfg.ContextWindow)

	if len([]rune(text)) < 10 {
		return "transcript too short, frame may fill the gap", true
	}
	if cue, ok := containsAny(text, cuesFor(visualCues, t.Language)); ok {
		return fmt.Sprintf("visual reference %q in transcript", cue), true
	}
	if concept, ok := containsAny(text, cuesFor(abstractConcepts, t.Language)); ok {
		return fmt.Sprintf("abstract concept %q in transcript", concept), true
	}
	return "", false
}

// DecoderAnalyzer extracts frames through a media decoder into a scratch
// directory and measures them.
type DecoderAnalyzer struct {
	decoder   media.Decoder
	mediaPath string
	dir       string
}

// NewDecoderAnalyzer creates a FrameAnalyzer backed by the decoder. dir is
// used for scratch frame files; empty means the system temp directory.
func NewDecoderAnalyzer(d media.Decoder, mediaPath, dir string) *DecoderAnalyzer {
	if dir == "" {
		dir = os.TempDir()
	}
	return &DecoderAnalyzer{decoder: d, mediaPath: mediaPath, dir: dir}
}

// Analyze extracts the frame at the timestamp and measures it. The scratch
// file is removed afterwards.
func (a *DecoderAnalyzer) Analyze(ctx context.Context, timestamp float64) (FrameStats, error) {
	path := filepath.Join(a.dir, fmt.Sprintf("probe_%.3f.jpg", timestamp))
	if err := a.decoder.ExtractFrame(ctx, a.mediaPath, timestamp, path); err != nil {
		return FrameStats{}, err
	}
	defer os.Remove(path)
	return AnalyzeImageFile(path)
}
