package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/imchangchang/video2markdown/errors"
	"github.com/imchangchang/video2markdown/logger"
	"github.com/imchangchang/video2markdown/process"
	"github.com/imchangchang/video2markdown/resilience"
)

// Default binary names, resolved via PATH.
const (
	DefaultFFmpegBinary  = "ffmpeg"
	DefaultFFprobeBinary = "ffprobe"
)

// maxConcurrentExtracts caps simultaneous ffmpeg frame extraction
// processes. The vision stage calls ExtractFrame from its worker pool.
const maxConcurrentExtracts = 4

// FFmpegDecoder implements Decoder by shelling out to ffprobe and ffmpeg.
// Frame extraction runs through a bulkheaded runner because the vision
// stage calls it from concurrent workers.
type FFmpegDecoder struct {
	ffmpeg    string
	ffprobe   string
	runner    *process.Runner
	extractor *process.Runner
	log       *logger.Logger
}

// NewFFmpegDecoder creates a decoder using the given binary paths.
// Empty paths fall back to PATH resolution of the default names.
func NewFFmpegDecoder(ffmpegPath, ffprobePath string) (*FFmpegDecoder, error) {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegBinary
	}
	if ffprobePath == "" {
		ffprobePath = DefaultFFprobeBinary
	}
	if !process.BinaryAvailable(ffmpegPath) {
		return nil, fmt.Errorf("media: ffmpeg not found: %s", ffmpegPath)
	}
	if !process.BinaryAvailable(ffprobePath) {
		return nil, fmt.Errorf("media: ffprobe not found: %s", ffprobePath)
	}
	return &FFmpegDecoder{
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		runner:  process.NewRunner(),
		extractor: process.NewRunner(process.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "ffmpeg-extract",
			MaxConcurrent: maxConcurrentExtracts,
			MaxWait:       5 * time.Minute,
		}))),
		log: logger.Get("media"),
	}, nil
}

// probeResult matches the ffprobe -print_format json output structure.
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// Probe returns stream metadata via ffprobe.
func (d *FFmpegDecoder) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	if path == "" {
		return nil, apperrors.MediaRead(path, fmt.Errorf("empty path"))
	}

	var probe probeResult
	err := process.RunJSON(ctx, process.Command{
		Binary: d.ffprobe,
		Args: []string{
			"-v", "quiet",
			"-print_format", "json",
			"-show_format",
			"-show_streams",
			path,
		},
	}, &probe)
	if err != nil {
		return nil, apperrors.MediaRead(path, err)
	}

	info := &MediaInfo{Path: path}
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = dur
	}
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			info.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.FrameRate = parseFrameRate(stream.RFrameRate)
		case "audio":
			info.HasAudio = true
		}
	}

	if info.Duration <= 0 {
		return nil, apperrors.MediaRead(path, fmt.Errorf("zero or unknown duration"))
	}
	if err := info.Validate(); err != nil {
		return nil, apperrors.MediaRead(path, err)
	}

	d.log.Debug("probed media", map[string]interface{}{
		"path":      path,
		"duration":  info.Duration,
		"has_video": info.HasVideo,
		"has_audio": info.HasAudio,
	})
	return info, nil
}

// DetectScenes runs ffmpeg scene detection and parses showinfo timestamps.
// ffmpeg writes showinfo lines to stderr while encoding to the null muxer.
func (d *FFmpegDecoder) DetectScenes(ctx context.Context, path string, threshold float64) ([]float64, error) {
	result, err := d.runner.Run(ctx, process.Command{
		Binary: d.ffmpeg,
		Args: []string{
			"-hide_banner",
			"-i", path,
			"-vf", fmt.Sprintf("select='gt(scene,%f)',showinfo", threshold),
			"-f", "null",
			"-",
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.MediaRead(path, err)
	}

	scenes := parseSceneOutput(string(result.Stderr))
	d.log.Debug("scene detection complete", map[string]interface{}{
		"path":   path,
		"scenes": len(scenes),
	})
	return scenes, nil
}

// ExtractFrame writes the frame nearest timestamp to outPath as a high
// quality JPEG. Seeking before the input keeps extraction fast.
func (d *FFmpegDecoder) ExtractFrame(ctx context.Context, path string, timestamp float64, outPath string) error {
	_, err := d.extractor.Run(ctx, process.Command{
		Binary: d.ffmpeg,
		Args: []string{
			"-y",
			"-hide_banner",
			"-loglevel", "error",
			"-ss", formatSeconds(timestamp),
			"-i", path,
			"-vframes", "1",
			"-q:v", "2",
			outPath,
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.FrameExtractFailed(timestamp, err)
	}
	return nil
}

// ExtractAudio writes the audio stream as 16 kHz mono PCM WAV, the input
// format speech-to-text backends expect.
func (d *FFmpegDecoder) ExtractAudio(ctx context.Context, path, outPath string) error {
	_, err := d.runner.Run(ctx, process.Command{
		Binary: d.ffmpeg,
		Args: []string{
			"-y",
			"-hide_banner",
			"-loglevel", "error",
			"-i", path,
			"-vn",
			"-acodec", "pcm_s16le",
			"-ar", "16000",
			"-ac", "1",
			outPath,
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.MediaRead(path, err)
	}
	return nil
}

// parseFrameRate converts ffprobe's rational frame rate ("30/1") to a float.
func parseFrameRate(rate string) float64 {
	parts := strings.SplitN(rate, "/", 2)
	if len(parts) != 2 {
		if f, err := strconv.ParseFloat(rate, 64); err == nil {
			return f
		}
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// formatSeconds renders a timestamp for ffmpeg -ss.
func formatSeconds(ts float64) string {
	return strconv.FormatFloat(ts, 'f', 3, 64)
}
