// Package document turns a transcript and frame descriptions into a
// chaptered document via a structuring model call, with deterministic
// post-processing for time normalization and image association.
package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/imchangchang/video2markdown/vision"
)

// Chapter is one time-bounded section of the document. StartTime and
// EndTime use HH:MM:SS, the format the structuring model emits.
type Chapter struct {
	ID                int      `json:"id"`
	Title             string   `json:"title"`
	StartTime         string   `json:"start_time"`
	EndTime           string   `json:"end_time"`
	Summary           string   `json:"summary"`
	KeyPoints         []string `json:"key_points,omitempty"`
	CleanedTranscript string   `json:"cleaned_transcript,omitempty"`
	// VisualTimestamp points at the associated frame description, nil when
	// the chapter has no image.
	VisualTimestamp *float64 `json:"visual_timestamp,omitempty"`
	VisualReason    string   `json:"visual_reason,omitempty"`
}

// Document is the final structured output handed to the renderer.
type Document struct {
	Title    string    `json:"title"`
	Chapters []Chapter `json:"chapters"`
}

// FormatClock renders seconds as HH:MM:SS, truncating fractions.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// ParseClock parses HH:MM:SS or MM:SS into seconds.
func ParseClock(clock string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("document: invalid clock %q", clock)
	}
	total := 0.0
	for _, p := range parts {
		n, err := strconv.ParseFloat(p, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("document: invalid clock %q", clock)
		}
		total = total*60 + n
	}
	return total, nil
}

// Validate checks the chapter invariants against the media duration:
// ranges inside [0, duration], start before end, starts strictly increasing.
func (d *Document) Validate(duration float64) error {
	prevStart := -1.0
	for _, ch := range d.Chapters {
		start, err := ParseClock(ch.StartTime)
		if err != nil {
			return err
		}
		end, err := ParseClock(ch.EndTime)
		if err != nil {
			return err
		}
		if start >= end {
			return fmt.Errorf("document: chapter %d range [%s, %s] is empty", ch.ID, ch.StartTime, ch.EndTime)
		}
		if end > duration {
			return fmt.Errorf("document: chapter %d ends at %s beyond media duration %.0fs", ch.ID, ch.EndTime, duration)
		}
		if start <= prevStart {
			return fmt.Errorf("document: chapter %d start %s does not increase", ch.ID, ch.StartTime)
		}
		prevStart = start
	}
	return nil
}

// Normalize repairs model-emitted chapter times into a gap-free partition
// of [0, duration]: chapters are sorted by start, duplicate starts dropped,
// each chapter ends where the next begins, the first starts at zero and the
// last ends at the media duration. IDs are renumbered sequentially.
//
// Gap-free partitioning is a policy choice: uncovered intervals would make
// the rendered table of contents skip content with no visible trace.
func (d *Document) Normalize(duration float64) {
	type timed struct {
		ch    Chapter
		start float64
	}

	kept := make([]timed, 0, len(d.Chapters))
	for _, ch := range d.Chapters {
		start, err := ParseClock(ch.StartTime)
		if err != nil {
			start = 0
		}
		if start < 0 {
			start = 0
		}
		if start >= duration {
			continue
		}
		kept = append(kept, timed{ch: ch, start: start})
	}
	sort.SliceStable(kept, func(a, b int) bool { return kept[a].start < kept[b].start })

	deduped := kept[:0]
	prev := -1.0
	for _, tc := range kept {
		if tc.start == prev {
			continue
		}
		deduped = append(deduped, tc)
		prev = tc.start
	}

	chapters := make([]Chapter, 0, len(deduped))
	for i, tc := range deduped {
		start := tc.start
		if i == 0 {
			start = 0
		}
		end := duration
		if i+1 < len(deduped) {
			end = deduped[i+1].start
		}
		ch := tc.ch
		ch.ID = i + 1
		ch.StartTime = FormatClock(start)
		ch.EndTime = FormatClock(end)
		chapters = append(chapters, ch)
	}
	d.Chapters = chapters
}

// AssignFrames associates at most one frame description with each chapter.
// A model-chosen visual_timestamp is kept when it matches a real, relevant
// frame inside the chapter range; otherwise the relevant in-range frame
// closest to the chapter midpoint is chosen. Chapters with no in-range
// frame get none, never a neighbor's.
func (d *Document) AssignFrames(frames []vision.FrameDescription) {
	usable := make([]vision.FrameDescription, 0, len(frames))
	for _, f := range frames {
		if !f.Irrelevant {
			usable = append(usable, f)
		}
	}

	for i := range d.Chapters {
		ch := &d.Chapters[i]
		start, err1 := ParseClock(ch.StartTime)
		end, err2 := ParseClock(ch.EndTime)
		if err1 != nil || err2 != nil {
			ch.VisualTimestamp = nil
			ch.VisualReason = ""
			continue
		}

		inRange := make([]vision.FrameDescription, 0, len(usable))
		for _, f := range usable {
			if f.Timestamp >= start && f.Timestamp < end {
				inRange = append(inRange, f)
			}
		}
		if len(inRange) == 0 {
			ch.VisualTimestamp = nil
			ch.VisualReason = ""
			continue
		}

		if ch.VisualTimestamp != nil {
			if f, ok := nearestFrame(inRange, *ch.VisualTimestamp); ok && abs(f.Timestamp-*ch.VisualTimestamp) <= 1.0 {
				ts := f.Timestamp
				ch.VisualTimestamp = &ts
				continue
			}
		}

		mid := (start + end) / 2
		f, _ := nearestFrame(inRange, mid)
		ts := f.Timestamp
		ch.VisualTimestamp = &ts
		ch.VisualReason = ""
	}
}

// nearestFrame returns the frame closest to ts, earlier one on a tie.
func nearestFrame(frames []vision.FrameDescription, ts float64) (vision.FrameDescription, bool) {
	if len(frames) == 0 {
		return vision.FrameDescription{}, false
	}
	best := frames[0]
	for _, f := range frames[1:] {
		if abs(f.Timestamp-ts) < abs(best.Timestamp-ts) {
			best = f
		}
	}
	return best, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
