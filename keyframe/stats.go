package keyframe

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
)

// FrameStats are the visual measurements Layer 2 decides on.
type FrameStats struct {
	// EdgeRatio is the fraction of pixels on a luminance edge. Text-heavy
	// frames (slides, code, whiteboards) land in a mid band; near-blank or
	// photographic frames fall below it.
	EdgeRatio float64 `json:"edge_ratio"`
	// WhiteRatio is the fraction of near-white pixels.
	WhiteRatio float64 `json:"white_ratio"`
	// DarkRatio is the fraction of near-black pixels.
	DarkRatio float64 `json:"dark_ratio"`
}

// slide/text detection bands, matching the edge-density heuristic the
// filter thresholds reference.
const (
	textEdgeLow  = 0.05
	textEdgeHigh = 0.50

	uniformBackgroundRatio = 0.40
)

// HasSignificantText reports whether the edge density sits in the band
// typical for slides and writing. Too low is a blank or photographic frame,
// too high is noise.
func (s FrameStats) HasSignificantText() bool {
	return s.EdgeRatio > textEdgeLow && s.EdgeRatio < textEdgeHigh
}

// LikelySlide reports whether the frame looks like a slide, whiteboard or
// document: a large uniform background, or significant detected text.
func (s FrameStats) LikelySlide() bool {
	if s.WhiteRatio > uniformBackgroundRatio || s.DarkRatio > uniformBackgroundRatio {
		return true
	}
	return s.HasSignificantText()
}

// AnalyzeImageFile decodes an image from disk and measures it.
func AnalyzeImageFile(path string) (FrameStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return FrameStats{}, fmt.Errorf("keyframe: open frame image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return FrameStats{}, fmt.Errorf("keyframe: decode frame image: %w", err)
	}
	return AnalyzeImage(img), nil
}

// AnalyzeImage measures edge density and background uniformity.
func AnalyzeImage(img image.Image) FrameStats {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return FrameStats{}
	}

	lum := make([]float64, w*h)
	var white, dark int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rf, gf, bf := float64(r>>8), float64(g>>8), float64(b>>8)
			lum[y*w+x] = 0.299*rf + 0.587*gf + 0.114*bf
			if rf > 240 && gf > 240 && bf > 240 {
				white++
			}
			if rf < 30 && gf < 30 && bf < 30 {
				dark++
			}
		}
	}

	// Gradient-magnitude edge detection over the luminance plane.
	const edgeThreshold = 50.0
	var edges int
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := lum[y*w+x+1] - lum[y*w+x-1]
			gy := lum[(y+1)*w+x] - lum[(y-1)*w+x]
			if math.Sqrt(gx*gx+gy*gy) > edgeThreshold {
				edges++
			}
		}
	}

	total := float64(w * h)
	return FrameStats{
		EdgeRatio:  float64(edges) / float64((w-2)*(h-2)),
		WhiteRatio: float64(white) / total,
		DarkRatio:  float64(dark) / total,
	}
}
