package main

import (
	"github.com/imchangchang/video2markdown/config"
	"github.com/imchangchang/video2markdown/document"
	"github.com/imchangchang/video2markdown/keyframe"
	"github.com/imchangchang/video2markdown/media"
	"github.com/imchangchang/video2markdown/pipeline"
	"github.com/imchangchang/video2markdown/storage"
	"github.com/imchangchang/video2markdown/usage"
	"github.com/imchangchang/video2markdown/validation"
	"github.com/imchangchang/video2markdown/vision"
)

// AppConfig is the full application configuration, loaded from config.yml
// and environment variables.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Storage       storage.Config      `yaml:"storage" mapstructure:"storage"`
	Transcription TranscriptionConfig `yaml:"transcription" mapstructure:"transcription"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Vision        VisionConfig        `yaml:"vision" mapstructure:"vision"`
	Media         MediaConfig         `yaml:"media" mapstructure:"media"`
	Pipeline      PipelineConfig      `yaml:"pipeline" mapstructure:"pipeline"`
	Pricing       usage.Pricing       `yaml:"pricing" mapstructure:"pricing"`
}

// TranscriptionConfig selects and configures the speech-to-text backend.
type TranscriptionConfig struct {
	// Provider is the registered transcription provider name.
	Provider string `yaml:"provider" mapstructure:"provider" json:"provider" validate:"required,oneof=whispercpp whisper"`
	// Model is the transcription model identifier, also part of cache keys.
	Model string `yaml:"model" mapstructure:"model" json:"model"`
	// Language hints the expected speech language ("auto" to detect).
	Language string `yaml:"language" mapstructure:"language" json:"language"`
	// Settings carries provider-specific options (model_path, url, threads).
	Settings map[string]any `yaml:"settings" mapstructure:"settings" json:"settings"`
	// Fallback names a second provider to stand in when the primary is
	// unavailable, e.g. the whisper sidecar behind a local whisper.cpp.
	Fallback string `yaml:"fallback" mapstructure:"fallback" json:"fallback" validate:"omitempty,oneof=whispercpp whisper"`
	// FallbackSettings configures the fallback provider.
	FallbackSettings map[string]any `yaml:"fallback_settings" mapstructure:"fallback_settings" json:"fallback_settings"`
}

// LLMConfig selects and configures the text model used for transcript
// optimization and chapter structuring.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider" json:"provider" validate:"required,oneof=openai ollama"`
	Model    string `yaml:"model" mapstructure:"model" json:"model"`
	// Settings carries provider-specific options (api_key, base_url, model).
	Settings map[string]any `yaml:"settings" mapstructure:"settings" json:"settings"`
}

// VisionConfig selects and configures the multimodal model that describes
// extracted frames. Disabled produces a text-only document.
type VisionConfig struct {
	Enabled           bool           `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Provider          string         `yaml:"provider" mapstructure:"provider" json:"provider" validate:"omitempty,oneof=openai"`
	Model             string         `yaml:"model" mapstructure:"model" json:"model"`
	Workers           int            `yaml:"workers" mapstructure:"workers" json:"workers" validate:"omitempty,min=1,max=32"`
	RequestsPerMinute int            `yaml:"requests_per_minute" mapstructure:"requests_per_minute" json:"requests_per_minute" validate:"omitempty,min=1"`
	ContextWindow     float64        `yaml:"context_window" mapstructure:"context_window" json:"context_window"`
	Settings          map[string]any `yaml:"settings" mapstructure:"settings" json:"settings"`
}

// MediaConfig locates the ffmpeg tools and tunes scene detection.
type MediaConfig struct {
	FFmpegPath     string  `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path" json:"ffmpeg_path"`
	FFprobePath    string  `yaml:"ffprobe_path" mapstructure:"ffprobe_path" json:"ffprobe_path"`
	SceneThreshold float64 `yaml:"scene_threshold" mapstructure:"scene_threshold" json:"scene_threshold" validate:"omitempty,gt=0,lte=1"`
	MinSceneGap    float64 `yaml:"min_scene_gap" mapstructure:"min_scene_gap" json:"min_scene_gap"`
}

// PipelineConfig tunes frame selection, filtering and chapter assembly.
type PipelineConfig struct {
	// WorkDir is the scratch directory; empty means a temp dir per run.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir" json:"work_dir"`
	// PromptDir overrides the embedded prompt templates when set.
	PromptDir string `yaml:"prompt_dir" mapstructure:"prompt_dir" json:"prompt_dir"`

	FrameInterval   float64 `yaml:"frame_interval" mapstructure:"frame_interval" json:"frame_interval"`
	MinFrameSpacing float64 `yaml:"min_frame_spacing" mapstructure:"min_frame_spacing" json:"min_frame_spacing"`

	FilterMinInterval   float64 `yaml:"filter_min_interval" mapstructure:"filter_min_interval" json:"filter_min_interval"`
	FilterMinEdgeRatio  float64 `yaml:"filter_min_edge_ratio" mapstructure:"filter_min_edge_ratio" json:"filter_min_edge_ratio"`
	FilterContextWindow float64 `yaml:"filter_context_window" mapstructure:"filter_context_window" json:"filter_context_window"`

	ChunkRunes int `yaml:"chunk_runes" mapstructure:"chunk_runes" json:"chunk_runes" validate:"omitempty,min=1000"`
}

// ApplyDefaults fills zero-valued fields with working defaults.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "video2markdown"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Storage.ApplyDefaults()

	if c.Transcription.Provider == "" {
		c.Transcription.Provider = "whispercpp"
	}
	if c.Transcription.Language == "" {
		c.Transcription.Language = "auto"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.Vision.Provider == "" {
		c.Vision.Provider = "openai"
	}

	probe := media.DefaultProbeOptions()
	if c.Media.SceneThreshold == 0 {
		c.Media.SceneThreshold = probe.SceneThreshold
	}
	if c.Media.MinSceneGap == 0 {
		c.Media.MinSceneGap = probe.MinSceneGap
	}

	sel := keyframe.DefaultSelectorOptions()
	if c.Pipeline.FrameInterval == 0 {
		c.Pipeline.FrameInterval = sel.Interval
	}
	if c.Pipeline.MinFrameSpacing == 0 {
		c.Pipeline.MinFrameSpacing = sel.MinSpacing
	}

	filter := keyframe.DefaultFilterConfig()
	if c.Pipeline.FilterMinInterval == 0 {
		c.Pipeline.FilterMinInterval = filter.MinInterval
	}
	if c.Pipeline.FilterMinEdgeRatio == 0 {
		c.Pipeline.FilterMinEdgeRatio = filter.MinEdgeRatio
	}
	if c.Pipeline.FilterContextWindow == 0 {
		c.Pipeline.FilterContextWindow = filter.ContextWindow
	}

	stage := vision.DefaultStageConfig()
	if c.Vision.Workers == 0 {
		c.Vision.Workers = stage.Workers
	}
	if c.Vision.RequestsPerMinute == 0 {
		c.Vision.RequestsPerMinute = stage.RequestsPerMinute
	}
	if c.Vision.ContextWindow == 0 {
		c.Vision.ContextWindow = stage.ContextWindow
	}
}

// Validate checks the configuration after defaults are applied.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}

// PipelineConfig converts the application settings into the orchestrator
// configuration. Title and workDir override the file-based values when
// non-empty.
func (c *AppConfig) pipelineConfig(title, workDir string) pipeline.Config {
	cfg := pipeline.Config{
		Title:    title,
		Language: c.Transcription.Language,
		Model:    c.Transcription.Model,
		WorkDir:  c.Pipeline.WorkDir,
		Probe: media.ProbeOptions{
			SceneThreshold: c.Media.SceneThreshold,
			MinSceneGap:    c.Media.MinSceneGap,
		},
		Selector: keyframe.SelectorOptions{
			Interval:   c.Pipeline.FrameInterval,
			MinSpacing: c.Pipeline.MinFrameSpacing,
		},
		Filter: keyframe.FilterConfig{
			MinInterval:   c.Pipeline.FilterMinInterval,
			MinEdgeRatio:  c.Pipeline.FilterMinEdgeRatio,
			ContextWindow: c.Pipeline.FilterContextWindow,
		},
		Assembler: document.AssemblerConfig{
			Model:      c.LLM.Model,
			ChunkRunes: c.Pipeline.ChunkRunes,
		},
	}
	if workDir != "" {
		cfg.WorkDir = workDir
	}
	return cfg
}

// visionStageConfig converts the vision settings into the stage configuration.
func (c *AppConfig) visionStageConfig() vision.StageConfig {
	return vision.StageConfig{
		Workers:           c.Vision.Workers,
		RequestsPerMinute: c.Vision.RequestsPerMinute,
		ContextWindow:     c.Vision.ContextWindow,
		Model:             c.Vision.Model,
	}
}
