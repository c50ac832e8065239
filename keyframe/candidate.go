// Package keyframe selects candidate frame timestamps from a video and
// filters them through a three-layer decision pipeline so only frames likely
// to carry information beyond the transcript reach the vision model.
package keyframe

import "sort"

// Source tags where a candidate frame timestamp came from.
type Source string

const (
	// SourceSceneChange marks a detected visual cut.
	SourceSceneChange Source = "scene_change"
	// SourceInterval marks a fixed-interval sample.
	SourceInterval Source = "interval"
)

// CandidateFrame is one proposed frame timestamp.
type CandidateFrame struct {
	Timestamp float64 `json:"timestamp"`
	Source    Source  `json:"source"`
}

// SelectorOptions configures candidate generation.
type SelectorOptions struct {
	// Interval is the fixed sampling step in seconds.
	Interval float64
	// MinSpacing collapses candidates closer than this many seconds.
	MinSpacing float64
}

// DefaultSelectorOptions returns the selector defaults.
func DefaultSelectorOptions() SelectorOptions {
	return SelectorOptions{
		Interval:   30.0,
		MinSpacing: 5.0,
	}
}

// Select unions scene-change timestamps with interval samples over
// [0, duration], sorted ascending and collapsed to the minimum spacing.
// Scene-change candidates win ties against interval samples at the same
// position since a cut carries stronger signal than uniform sampling.
// The list always starts at t=0 and is never sparser than the interval.
func Select(sceneChanges []float64, duration float64, opts SelectorOptions) []CandidateFrame {
	if duration <= 0 {
		return nil
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultSelectorOptions().Interval
	}

	var all []CandidateFrame
	for ts := 0.0; ts < duration; ts += opts.Interval {
		all = append(all, CandidateFrame{Timestamp: ts, Source: SourceInterval})
	}
	for _, ts := range sceneChanges {
		if ts >= 0 && ts <= duration {
			all = append(all, CandidateFrame{Timestamp: ts, Source: SourceSceneChange})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Timestamp != all[j].Timestamp {
			return all[i].Timestamp < all[j].Timestamp
		}
		return all[i].Source == SourceSceneChange && all[j].Source == SourceInterval
	})

	// Collapse to min spacing, keep-first. Ties sorted scene-change first,
	// so a cut at the same position as an interval sample survives.
	var out []CandidateFrame
	for _, c := range all {
		if len(out) == 0 || c.Timestamp-out[len(out)-1].Timestamp >= opts.MinSpacing {
			out = append(out, c)
		}
	}
	return out
}
