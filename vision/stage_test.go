package vision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/imchangchang/video2markdown/keyframe"
	"github.com/imchangchang/video2markdown/llm"
	"github.com/imchangchang/video2markdown/media"
	"github.com/imchangchang/video2markdown/prompt"
	"github.com/imchangchang/video2markdown/transcript"
	"github.com/imchangchang/video2markdown/usage"
)

// stubDecoder writes a small real JPEG for every extraction request.
type stubDecoder struct {
	t        *testing.T
	mu       sync.Mutex
	extracts int
	failAt   float64
}

func (d *stubDecoder) Probe(ctx context.Context, path string) (*media.MediaInfo, error) {
	return nil, fmt.Errorf("not implemented")
}

func (d *stubDecoder) DetectScenes(ctx context.Context, path string, threshold float64) ([]float64, error) {
	return nil, fmt.Errorf("not implemented")
}

func (d *stubDecoder) ExtractAudio(ctx context.Context, path, outPath string) error {
	return fmt.Errorf("not implemented")
}

func (d *stubDecoder) ExtractFrame(ctx context.Context, path string, timestamp float64, outPath string) error {
	d.mu.Lock()
	d.extracts++
	d.mu.Unlock()
	if d.failAt != 0 && timestamp == d.failAt {
		return fmt.Errorf("seek failed")
	}
	return os.WriteFile(outPath, encodeTestJPEG(d.t, 64, 48), 0o644)
}

// stubVision answers with canned content, optionally failing when the user
// text contains a trigger substring.
type stubVision struct {
	mu      sync.Mutex
	calls   []Request
	content string
	failOn  string
	onCall  func()
}

func (s *stubVision) Name() string { return "stub" }

func (s *stubVision) IsAvailable(ctx context.Context) bool { return true }

func (s *stubVision) Describe(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.onCall != nil {
		s.onCall()
	}
	if s.failOn != "" && strings.Contains(req.UserText, s.failOn) {
		return nil, fmt.Errorf("model overloaded")
	}
	return &Result{
		Content: s.content,
		Model:   "stub-vision",
		Usage:   llm.Usage{PromptTokens: 100, CompletionTokens: 40, TotalTokens: 140},
	}, nil
}

func stageTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		Language: "zh",
		Segments: []transcript.Segment{
			{Start: 0, End: 12, Text: "开场介绍"},
			{Start: 55, End: 70, Text: "集群拓扑讲解"},
			{Start: 100, End: 130, Text: "性能对比数据"},
		},
	}
}

func newTestStage(t *testing.T, p Provider, d media.Decoder) *Stage {
	t.Helper()
	cfg := DefaultStageConfig()
	cfg.RequestsPerMinute = 600000
	return NewStage(cfg, p, prompt.NewStore(""), d)
}

func TestStageDescribesFramesInOrder(t *testing.T) {
	decoder := &stubDecoder{t: t}
	provider := &stubVision{content: `{"description": "集群拓扑图", "key_elements": ["节点", "连线"]}`}
	stage := newTestStage(t, provider, decoder)

	frames := []keyframe.CandidateFrame{
		{Timestamp: 5.0, Source: keyframe.SourceInterval},
		{Timestamp: 60.0, Source: keyframe.SourceSceneChange},
		{Timestamp: 110.0, Source: keyframe.SourceInterval},
	}
	ledger := usage.NewLedger()
	dir := t.TempDir()

	described, skipped, err := stage.Run(context.Background(), "input.mp4", frames, stageTranscript(), dir, ledger)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(described) != 3 {
		t.Fatalf("expected 3 descriptions, got %d", len(described))
	}
	if len(skipped) != 0 {
		t.Fatalf("expected no skips, got %+v", skipped)
	}

	for i := 1; i < len(described); i++ {
		if described[i].Timestamp <= described[i-1].Timestamp {
			t.Fatalf("descriptions not in timestamp order: %+v", described)
		}
	}

	first := described[0]
	if first.Description != "集群拓扑图" {
		t.Errorf("description = %q", first.Description)
	}
	if len(first.KeyElements) != 2 {
		t.Errorf("key elements = %v", first.KeyElements)
	}
	if filepath.Base(first.ImagePath) != "frame_0001_5.0s.jpg" {
		t.Errorf("image path = %s", first.ImagePath)
	}
	if _, err := os.Stat(first.ImagePath); err != nil {
		t.Errorf("extracted image missing: %v", err)
	}
	if !strings.Contains(described[1].RelatedTranscript, "集群拓扑") {
		t.Errorf("related transcript = %q", described[1].RelatedTranscript)
	}

	if ledger.Calls() != 3 {
		t.Errorf("expected 3 usage records, got %d", ledger.Calls())
	}
	if ledger.Total().TotalTokens != 420 {
		t.Errorf("total tokens = %d, want 420", ledger.Total().TotalTokens)
	}
}

func TestStageSkipsFailedFrames(t *testing.T) {
	decoder := &stubDecoder{t: t}
	provider := &stubVision{
		content: `{"description": "图表", "key_elements": []}`,
		failOn:  "集群拓扑",
	}
	stage := newTestStage(t, provider, decoder)

	frames := []keyframe.CandidateFrame{
		{Timestamp: 5.0},
		{Timestamp: 60.0},
		{Timestamp: 110.0},
	}
	described, skipped, err := stage.Run(context.Background(), "input.mp4", frames, stageTranscript(), t.TempDir(), usage.NewLedger())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(described) != 2 {
		t.Fatalf("expected the failing frame to be skipped, got %d results", len(described))
	}
	for _, d := range described {
		if d.Timestamp == 60.0 {
			t.Errorf("failed frame should not appear in results")
		}
	}
	if len(skipped) != 1 || skipped[0].Timestamp != 60.0 {
		t.Fatalf("expected a skip record for the failing frame, got %+v", skipped)
	}
	if !strings.Contains(skipped[0].Reason, "model overloaded") {
		t.Errorf("skip reason = %q", skipped[0].Reason)
	}
}

func TestStageSkipsExtractionFailures(t *testing.T) {
	decoder := &stubDecoder{t: t, failAt: 60.0}
	provider := &stubVision{content: `{"description": "图表", "key_elements": []}`}
	stage := newTestStage(t, provider, decoder)

	frames := []keyframe.CandidateFrame{{Timestamp: 5.0}, {Timestamp: 60.0}}
	described, skipped, err := stage.Run(context.Background(), "input.mp4", frames, stageTranscript(), t.TempDir(), usage.NewLedger())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(described) != 1 || described[0].Timestamp != 5.0 {
		t.Fatalf("expected only the extractable frame, got %+v", described)
	}
	if len(skipped) != 1 || skipped[0].Timestamp != 60.0 {
		t.Fatalf("expected a skip record for the extraction failure, got %+v", skipped)
	}
}

func TestStageMarksIrrelevantFrames(t *testing.T) {
	decoder := &stubDecoder{t: t}
	provider := &stubVision{content: `{"description": "[无关]", "key_elements": []}`}
	stage := newTestStage(t, provider, decoder)

	described, _, err := stage.Run(context.Background(), "input.mp4", []keyframe.CandidateFrame{{Timestamp: 5.0}}, stageTranscript(), t.TempDir(), usage.NewLedger())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(described) != 1 || !described[0].Irrelevant {
		t.Fatalf("expected irrelevant flag: %+v", described)
	}
}

func TestStageUnparseableFallsBackToRawContent(t *testing.T) {
	decoder := &stubDecoder{t: t}
	provider := &stubVision{content: "这是一张架构图，没有按格式输出"}
	stage := newTestStage(t, provider, decoder)

	described, _, err := stage.Run(context.Background(), "input.mp4", []keyframe.CandidateFrame{{Timestamp: 5.0}}, stageTranscript(), t.TempDir(), usage.NewLedger())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(described) != 1 || described[0].Description != "这是一张架构图，没有按格式输出" {
		t.Fatalf("expected raw content fallback: %+v", described)
	}
}

func TestStageCancellationPreservesCompleted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	decoder := &stubDecoder{t: t}
	provider := &stubVision{content: `{"description": "图", "key_elements": []}`}
	provider.onCall = cancel

	cfg := DefaultStageConfig()
	cfg.Workers = 1
	cfg.RequestsPerMinute = 600000
	stage := NewStage(cfg, provider, prompt.NewStore(""), decoder)

	frames := []keyframe.CandidateFrame{{Timestamp: 5.0}, {Timestamp: 60.0}, {Timestamp: 110.0}}
	described, _, err := stage.Run(ctx, "input.mp4", frames, stageTranscript(), t.TempDir(), usage.NewLedger())
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(described) != 1 {
		t.Fatalf("expected the completed frame to survive cancellation, got %d", len(described))
	}
}

func TestStageEmptyInput(t *testing.T) {
	stage := newTestStage(t, &stubVision{}, &stubDecoder{t: t})
	described, skipped, err := stage.Run(context.Background(), "input.mp4", nil, stageTranscript(), t.TempDir(), usage.NewLedger())
	if err != nil || described != nil || skipped != nil {
		t.Fatalf("expected empty no-op, got %v %v %v", described, skipped, err)
	}
}
