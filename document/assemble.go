package document

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/imchangchang/video2markdown/errors"
	"github.com/imchangchang/video2markdown/llm"
	"github.com/imchangchang/video2markdown/logger"
	"github.com/imchangchang/video2markdown/prompt"
	"github.com/imchangchang/video2markdown/transcript"
	"github.com/imchangchang/video2markdown/usage"
	"github.com/imchangchang/video2markdown/vision"
)

const (
	chapterPrompt = "chapter_generation"

	// defaultChunkRunes bounds the transcript text sent per structuring
	// call. Longer transcripts are split at segment boundaries.
	defaultChunkRunes = 12000

	usageStage = "chapters"
)

// AssemblerConfig holds the chapter assembler settings.
type AssemblerConfig struct {
	// Model overrides the provider's default model when set.
	Model string
	// ChunkRunes bounds the transcript runes per structuring call.
	ChunkRunes int
}

// Assembler partitions a transcript into chapters through a structuring
// model call and associates frame descriptions with the result.
type Assembler struct {
	cfg      AssemblerConfig
	provider llm.Provider
	prompts  *prompt.Store
	log      *logger.Logger
}

// NewAssembler creates a chapter assembler.
func NewAssembler(cfg AssemblerConfig, p llm.Provider, prompts *prompt.Store) *Assembler {
	if cfg.ChunkRunes <= 0 {
		cfg.ChunkRunes = defaultChunkRunes
	}
	return &Assembler{
		cfg:      cfg,
		provider: p,
		prompts:  prompts,
		log:      logger.Get("chapter-assembler"),
	}
}

// structuredResponse matches the JSON the chapter prompt asks for.
type structuredResponse struct {
	Title    string    `json:"title"`
	Chapters []Chapter `json:"chapters"`
}

// chunk is a contiguous run of transcript segments sent in one call.
type chunk struct {
	segments []transcript.Segment
	start    float64
	end      float64
}

// imagePayload is the frame info shared with the structuring model.
type imagePayload struct {
	Timestamp   float64  `json:"timestamp"`
	Description string   `json:"description"`
	KeyElements []string `json:"key_elements,omitempty"`
}

// Assemble structures the transcript into chapters. On structuring failure
// it degrades to chapters that span the unstructured text verbatim and
// returns the document together with a non-fatal error. Chapter times are
// normalized into a gap-free partition of [0, duration] and each chapter
// gets at most one associated frame.
func (a *Assembler) Assemble(ctx context.Context, t *transcript.Transcript, frames []vision.FrameDescription, duration float64, ledger *usage.Ledger) (*Document, error) {
	if t == nil || len(t.Segments) == 0 {
		return nil, apperrors.InvalidInput("transcript", "no segments to structure")
	}

	tpl, err := a.prompts.Load(chapterPrompt, a.cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("document: load prompt: %w", err)
	}
	system := tpl.Render(nil)
	params := tpl.APIParams()

	chunks := splitChunks(t.Segments, a.cfg.ChunkRunes)
	a.log.Info("structuring transcript", map[string]interface{}{
		"segments": len(t.Segments),
		"chunks":   len(chunks),
		"frames":   len(frames),
	})

	doc := &Document{Title: t.Title}
	var structureErr error
	for _, c := range chunks {
		resp, err := a.structureChunk(ctx, t.Title, c, frames, system, params, ledger)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.log.Warn("chunk structuring failed, using verbatim chapter", map[string]interface{}{
				"chunk_start": c.start,
				"chunk_end":   c.end,
				"error":       err.Error(),
			})
			doc.Chapters = append(doc.Chapters, a.fallbackChapter(t, c))
			structureErr = err
			continue
		}
		if doc.Title == "" || doc.Title == t.Title {
			if resp.Title != "" {
				doc.Title = resp.Title
			}
		}
		doc.Chapters = append(doc.Chapters, resp.Chapters...)
	}

	doc.Normalize(duration)
	doc.AssignFrames(frames)
	if doc.Title == "" {
		doc.Title = t.Title
	}

	if structureErr != nil {
		return doc, apperrors.StructuringFailed(structureErr)
	}
	return doc, nil
}

func (a *Assembler) structureChunk(ctx context.Context, title string, c chunk, frames []vision.FrameDescription, system string, params prompt.APIParams, ledger *usage.Ledger) (*structuredResponse, error) {
	input := map[string]any{
		"title":      title,
		"transcript": renderChunk(c),
		"images":     framesIn(frames, c.start, c.end),
	}
	userJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("document: marshal input: %w", err)
	}

	req := llm.CompletionRequest{
		Model:        a.cfg.Model,
		SystemPrompt: system + "\n\nIMPORTANT: Respond with ONLY the JSON object, no explanations or markdown fences.",
		Messages:     []llm.Message{{Role: "user", Content: string(userJSON)}},
		Temperature:  params.Temperature,
		MaxTokens:    params.MaxTokens,
		Timeout:      params.Timeout,
	}
	resp, err := a.provider.CompleteStructured(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	ledger.Add(usageStage, resp.Model, resp.Usage)

	var out structuredResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(resp.Content)), &out); err != nil {
		return nil, fmt.Errorf("document: parse structuring response: %w", err)
	}
	if len(out.Chapters) == 0 {
		return nil, fmt.Errorf("document: structuring response contained no chapters")
	}
	return &out, nil
}

// fallbackChapter wraps a chunk's raw text in a single chapter so the
// document stays producible when structuring fails.
func (a *Assembler) fallbackChapter(t *transcript.Transcript, c chunk) Chapter {
	var b strings.Builder
	for _, seg := range c.segments {
		b.WriteString(seg.Text)
		b.WriteString("\n")
	}
	return Chapter{
		Title:             t.Title,
		StartTime:         FormatClock(c.start),
		EndTime:           FormatClock(c.end),
		CleanedTranscript: strings.TrimSpace(b.String()),
	}
}

// splitChunks groups segments into runs whose rendered text stays under
// maxRunes. A single oversized segment still forms its own chunk.
func splitChunks(segments []transcript.Segment, maxRunes int) []chunk {
	var chunks []chunk
	var current []transcript.Segment
	runes := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, chunk{
			segments: current,
			start:    current[0].Start,
			end:      current[len(current)-1].End,
		})
		current = nil
		runes = 0
	}

	for _, seg := range segments {
		segRunes := len([]rune(seg.Text)) + 12
		if runes+segRunes > maxRunes && len(current) > 0 {
			flush()
		}
		current = append(current, seg)
		runes += segRunes
	}
	flush()
	return chunks
}

// renderChunk formats segments as timestamped lines so the model can emit
// accurate HH:MM:SS chapter boundaries.
func renderChunk(c chunk) string {
	var b strings.Builder
	for _, seg := range c.segments {
		fmt.Fprintf(&b, "[%s] %s\n", FormatClock(seg.Start), seg.Text)
	}
	return strings.TrimSpace(b.String())
}

// framesIn returns the relevant frame payloads within [start, end].
func framesIn(frames []vision.FrameDescription, start, end float64) []imagePayload {
	out := make([]imagePayload, 0, len(frames))
	for _, f := range frames {
		if f.Irrelevant {
			continue
		}
		if f.Timestamp < start || f.Timestamp > end {
			continue
		}
		out = append(out, imagePayload{
			Timestamp:   f.Timestamp,
			Description: f.Description,
			KeyElements: f.KeyElements,
		})
	}
	return out
}
