// Package whispercpp implements transcription.Provider on top of a local
// whisper.cpp binary. Unlike the HTTP sidecar backend it needs no running
// service, only the binary and a model file on disk.
package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imchangchang/video2markdown/process"
	"github.com/imchangchang/video2markdown/provider"
	"github.com/imchangchang/video2markdown/transcription"
)

const (
	// ProviderName is the registered name for the whisper.cpp provider.
	ProviderName = "whispercpp"

	defaultBinary = "whisper-cli"
)

// Config holds configuration for the whisper.cpp provider.
type Config struct {
	// Binary is the whisper.cpp executable (resolved via PATH if relative).
	Binary string `json:"binary" yaml:"binary"`
	// ModelPath points at the ggml model file.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// Language is the default language code; empty means auto-detect.
	Language string `json:"language,omitempty" yaml:"language"`
	// Threads caps the CPU threads used per invocation. Zero lets the
	// binary decide.
	Threads int `json:"threads,omitempty" yaml:"threads"`
}

// Provider implements transcription.Provider using a local whisper.cpp binary.
type Provider struct {
	cfg    Config
	runner *process.Runner
}

// NewProvider creates a whisper.cpp transcription provider.
func NewProvider(cfg Config) *Provider {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	return &Provider{
		cfg:    cfg,
		runner: process.NewRunner(),
	}
}

// Factory returns a provider.Factory that creates whisper.cpp Provider
// instances from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		wc := Config{}
		if v, ok := cfg["binary"].(string); ok {
			wc.Binary = v
		}
		if v, ok := cfg["model_path"].(string); ok {
			wc.ModelPath = v
		}
		if v, ok := cfg["language"].(string); ok {
			wc.Language = v
		}
		if v, ok := cfg["threads"].(int); ok {
			wc.Threads = v
		}
		if wc.ModelPath == "" {
			return nil, fmt.Errorf("whispercpp: model_path is required")
		}
		return NewProvider(wc), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether both the binary and the model file exist.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	if !process.BinaryAvailable(p.cfg.Binary) {
		return false
	}
	_, err := os.Stat(p.cfg.ModelPath)
	return err == nil
}

// Health reports which of the two local prerequisites is missing.
func (p *Provider) Health(ctx context.Context) provider.HealthStatus {
	details := map[string]any{"binary": p.cfg.Binary, "model_path": p.cfg.ModelPath}
	if !process.BinaryAvailable(p.cfg.Binary) {
		return provider.HealthStatus{
			Status:  provider.StatusUnavailable,
			Message: "whisper.cpp binary not found",
			Details: details,
		}
	}
	if _, err := os.Stat(p.cfg.ModelPath); err != nil {
		return provider.HealthStatus{
			Status:  provider.StatusUnavailable,
			Message: "model file not found",
			Details: details,
		}
	}
	return provider.HealthStatus{Status: provider.StatusHealthy, Details: details}
}

// Transcribe runs whisper.cpp on the audio file and parses its JSON output.
func (p *Provider) Transcribe(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	outDir, err := os.MkdirTemp("", "whispercpp-*")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	outPrefix := filepath.Join(outDir, "transcript")

	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}

	args := []string{
		"-m", p.cfg.ModelPath,
		"-f", req.AudioPath,
		"-oj",
		"-of", outPrefix,
	}
	if lang != "" {
		args = append(args, "-l", lang)
	}
	if p.cfg.Threads > 0 {
		args = append(args, "-t", fmt.Sprintf("%d", p.cfg.Threads))
	}

	result, err := p.runner.Run(ctx, process.Command{
		Binary: p.cfg.Binary,
		Args:   args,
	})
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp run: %w", err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("whisper.cpp exited %d: %s", result.ExitCode, strings.TrimSpace(string(result.Stderr)))
	}

	data, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("read whisper.cpp output: %w", err)
	}
	return parseOutput(data)
}

// --- whisper.cpp JSON output types ---

type cppOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []cppSegment `json:"transcription"`
}

type cppSegment struct {
	Offsets struct {
		From int64 `json:"from"`
		To   int64 `json:"to"`
	} `json:"offsets"`
	Text string `json:"text"`
}

func parseOutput(data []byte) (*transcription.TranscriptionResponse, error) {
	var out cppOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode whisper.cpp output: %w", err)
	}

	segments := make([]transcription.Segment, 0, len(out.Transcription))
	var text strings.Builder
	for _, seg := range out.Transcription {
		t := strings.TrimSpace(seg.Text)
		if t == "" {
			continue
		}
		// Offsets are milliseconds.
		segments = append(segments, transcription.Segment{
			Start: float64(seg.Offsets.From) / 1000.0,
			End:   float64(seg.Offsets.To) / 1000.0,
			Text:  t,
		})
		if text.Len() > 0 {
			text.WriteByte(' ')
		}
		text.WriteString(t)
	}

	var duration float64
	if len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	return &transcription.TranscriptionResponse{
		Text:     text.String(),
		Segments: segments,
		Duration: duration,
		Language: out.Result.Language,
	}, nil
}
