// Package transcript holds the time-stamped transcript model produced from
// raw speech-to-text output, its canonical-script normalization, and the
// optional AI cleanup pass.
package transcript

import (
	"fmt"
	"strings"

	"github.com/imchangchang/video2markdown/transcription"
)

// Segment is one time-stamped span of transcript text.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the ordered transcript of one media file.
type Transcript struct {
	Title    string    `json:"title"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
	// OptimizedText is the AI-cleaned rendition of the transcript.
	// Empty until Optimizer.Optimize runs; falls back to the raw text
	// when optimization fails.
	OptimizedText string `json:"optimized_text,omitempty"`
	// Degraded marks that optimization failed and OptimizedText carries
	// the raw fallback.
	Degraded bool `json:"degraded,omitempty"`
}

// FromTranscription builds a Transcript from a raw transcription response,
// dropping empty segments and normalizing the script for the language.
func FromTranscription(title string, resp *transcription.TranscriptionResponse, language string) *Transcript {
	if language == "" {
		language = resp.Language
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  CanonicalScript(text, language),
		})
	}

	return &Transcript{
		Title:    title,
		Language: language,
		Segments: segments,
	}
}

// Validate checks segment ordering invariants.
func (t *Transcript) Validate() error {
	prev := -1.0
	for i, seg := range t.Segments {
		if seg.Start >= seg.End {
			return fmt.Errorf("transcript: segment %d has start %.3f >= end %.3f", i, seg.Start, seg.End)
		}
		if seg.Start < prev {
			return fmt.Errorf("transcript: segment %d starts at %.3f before previous start %.3f", i, seg.Start, prev)
		}
		if strings.TrimSpace(seg.Text) == "" {
			return fmt.Errorf("transcript: segment %d has empty text", i)
		}
		prev = seg.Start
	}
	return nil
}

// Duration returns the end time of the last segment.
func (t *Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// TextAround joins the text of all segments overlapping [timestamp-window,
// timestamp+window], deduplicating consecutive identical segments.
func (t *Transcript) TextAround(timestamp, window float64) string {
	var parts []string
	for _, seg := range t.Segments {
		if seg.Start <= timestamp+window && seg.End >= timestamp-window {
			if len(parts) == 0 || parts[len(parts)-1] != seg.Text {
				parts = append(parts, seg.Text)
			}
		}
	}
	return strings.Join(parts, " ")
}

// FullText joins all segment texts with spaces.
func (t *Transcript) FullText() string {
	parts := make([]string, len(t.Segments))
	for i, seg := range t.Segments {
		parts[i] = seg.Text
	}
	return strings.Join(parts, " ")
}

// BestText returns the optimized text when available, the raw text otherwise.
func (t *Transcript) BestText() string {
	if t.OptimizedText != "" {
		return t.OptimizedText
	}
	return t.FullText()
}
