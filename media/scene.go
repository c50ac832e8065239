package media

import (
	"strconv"
	"strings"
)

// parseSceneOutput extracts pts_time values from ffmpeg showinfo stderr.
func parseSceneOutput(output string) []float64 {
	var scenes []float64
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "pts_time:") {
			continue
		}
		parts := strings.Split(line, "pts_time:")
		if len(parts) != 2 {
			continue
		}
		fields := strings.Fields(strings.TrimSpace(parts[1]))
		if len(fields) == 0 {
			continue
		}
		if seconds, err := strconv.ParseFloat(fields[0], 64); err == nil {
			scenes = append(scenes, seconds)
		}
	}
	return scenes
}

// CollapseMinGap drops timestamps closer than minGap seconds to the previously
// kept one, keeping the first of each cluster. Input must be ascending.
func CollapseMinGap(timestamps []float64, minGap float64) []float64 {
	if len(timestamps) == 0 {
		return nil
	}
	kept := []float64{timestamps[0]}
	for _, ts := range timestamps[1:] {
		if ts-kept[len(kept)-1] >= minGap {
			kept = append(kept, ts)
		}
	}
	return kept
}
