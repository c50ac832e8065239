// Package media probes input files and extracts frames and audio through
// an external decoder. The FFmpeg implementation shells out to ffprobe and
// ffmpeg; everything else in the pipeline consumes the Decoder interface.
package media

import (
	"context"
	"fmt"
)

// MediaInfo holds immutable metadata about an input file, created once per run.
type MediaInfo struct {
	// Path is the absolute or caller-relative path of the input.
	Path string `json:"path"`
	// Duration is the media duration in seconds.
	Duration float64 `json:"duration"`
	// Width and Height are the video dimensions. Zero for audio-only input.
	Width  int `json:"width"`
	Height int `json:"height"`
	// FrameRate is the video frame rate. Zero for audio-only input.
	FrameRate float64 `json:"frame_rate"`
	// HasAudio reports whether an audio stream is present.
	HasAudio bool `json:"has_audio"`
	// HasVideo reports whether a video stream is present.
	HasVideo bool `json:"has_video"`
	// SceneChanges is the ordered list of detected scene-change timestamps,
	// strictly increasing, within [0, Duration].
	SceneChanges []float64 `json:"scene_changes,omitempty"`
}

// Validate checks the structural invariants of MediaInfo.
func (m *MediaInfo) Validate() error {
	if m.Duration <= 0 {
		return fmt.Errorf("media: duration must be positive, got %f", m.Duration)
	}
	if m.HasVideo && (m.Width <= 0 || m.Height <= 0) {
		return fmt.Errorf("media: video input requires positive dimensions, got %dx%d", m.Width, m.Height)
	}
	prev := -1.0
	for _, ts := range m.SceneChanges {
		if ts < 0 || ts > m.Duration {
			return fmt.Errorf("media: scene change %f outside [0, %f]", ts, m.Duration)
		}
		if ts <= prev {
			return fmt.Errorf("media: scene changes must be strictly increasing, %f after %f", ts, prev)
		}
		prev = ts
	}
	return nil
}

// Decoder is the external frame-extraction service the pipeline depends on.
type Decoder interface {
	// Probe returns stream metadata for the file at path.
	Probe(ctx context.Context, path string) (*MediaInfo, error)

	// DetectScenes returns raw scene-change timestamps above the given
	// visual-difference threshold, ascending, without gap collapsing.
	DetectScenes(ctx context.Context, path string, threshold float64) ([]float64, error)

	// ExtractFrame writes the frame nearest timestamp (seconds) to outPath as JPEG.
	ExtractFrame(ctx context.Context, path string, timestamp float64, outPath string) error

	// ExtractAudio writes the audio stream to outPath as 16 kHz mono PCM WAV.
	ExtractAudio(ctx context.Context, path, outPath string) error
}
