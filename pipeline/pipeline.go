// Package pipeline orchestrates the full video-to-document run: probe,
// transcribe, normalize, select and filter frames, describe them, assemble
// chapters, render. Fatal errors abort the run; degraded stages are recorded
// on the result and the run continues with reduced quality.
package pipeline

import (
	"time"

	"github.com/imchangchang/video2markdown/document"
	"github.com/imchangchang/video2markdown/keyframe"
	"github.com/imchangchang/video2markdown/media"
	"github.com/imchangchang/video2markdown/transcript"
	"github.com/imchangchang/video2markdown/usage"
	"github.com/imchangchang/video2markdown/vision"
)

// Config holds per-run settings for the orchestrator.
type Config struct {
	// Title overrides the document title. Empty derives it from the file name.
	Title string
	// Language hints the expected speech language ("auto" to detect).
	Language string
	// Model is the transcription model identifier used in cache keys.
	Model string
	// WorkDir is the scratch directory for audio and frame files. Empty
	// means a temp directory per run.
	WorkDir string

	Probe     media.ProbeOptions
	Selector  keyframe.SelectorOptions
	Filter    keyframe.FilterConfig
	Assembler document.AssemblerConfig
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		Language: "auto",
		Probe:    media.DefaultProbeOptions(),
		Selector: keyframe.DefaultSelectorOptions(),
		Filter:   keyframe.DefaultFilterConfig(),
	}
}

// Degradation records one stage that fell back to reduced quality.
type Degradation struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// Result is the outcome of one run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string `json:"run_id"`
	// OutputKey is the storage key of the main rendered document.
	OutputKey string `json:"output_key"`
	// Document is the assembled chapter structure.
	Document *document.Document `json:"document"`
	// MediaInfo is the probed input metadata.
	MediaInfo *media.MediaInfo `json:"media_info"`
	// Transcript is the normalized transcript.
	Transcript *transcript.Transcript `json:"-"`
	// CacheHit reports whether the transcription came from cache.
	CacheHit bool `json:"cache_hit"`
	// Decisions is the frame filter audit, one entry per candidate.
	Decisions []keyframe.FilterDecision `json:"decisions"`
	// Descriptions are the frame descriptions in timestamp order.
	Descriptions []vision.FrameDescription `json:"descriptions"`
	// SkippedFrames lists frames the vision stage gave up on.
	SkippedFrames []vision.SkippedFrame `json:"skipped_frames,omitempty"`
	// Degradations lists stages that fell back to reduced quality.
	Degradations []Degradation `json:"degradations,omitempty"`
	// Usage is the token ledger for the run.
	Usage *usage.Ledger `json:"-"`
	// Elapsed is the wall-clock run duration.
	Elapsed time.Duration `json:"elapsed"`
}

// Degraded reports whether any stage fell back.
func (r *Result) Degraded() bool {
	return len(r.Degradations) > 0
}
