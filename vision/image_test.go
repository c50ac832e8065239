package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"
)

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDownscaleLargeImage(t *testing.T) {
	data := encodeTestJPEG(t, 2048, 1152)

	scaled, err := Downscale(data, 1024)
	if err != nil {
		t.Fatalf("Downscale failed: %v", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(scaled))
	if err != nil {
		t.Fatalf("decode scaled image: %v", err)
	}
	if cfg.Width != 1024 {
		t.Errorf("width = %d, want 1024", cfg.Width)
	}
	if cfg.Height != 576 {
		t.Errorf("height = %d, want 576", cfg.Height)
	}
}

func TestDownscalePortraitBoundsByHeight(t *testing.T) {
	data := encodeTestJPEG(t, 720, 2048)

	scaled, err := Downscale(data, 1024)
	if err != nil {
		t.Fatalf("Downscale failed: %v", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(scaled))
	if err != nil {
		t.Fatalf("decode scaled image: %v", err)
	}
	if cfg.Height != 1024 {
		t.Errorf("height = %d, want 1024", cfg.Height)
	}
	if cfg.Width != 360 {
		t.Errorf("width = %d, want 360", cfg.Width)
	}
}

func TestDownscaleSmallImageUnchanged(t *testing.T) {
	data := encodeTestJPEG(t, 320, 240)

	scaled, err := Downscale(data, 1024)
	if err != nil {
		t.Fatalf("Downscale failed: %v", err)
	}
	if !bytes.Equal(scaled, data) {
		t.Error("image within bounds should be returned unchanged")
	}
}

func TestDownscaleRejectsGarbage(t *testing.T) {
	if _, err := Downscale([]byte("not an image"), 1024); err == nil {
		t.Error("expected decode error")
	}
}

func TestDataURL(t *testing.T) {
	url := DataURL([]byte{0xFF, 0xD8})
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Errorf("unexpected prefix: %s", url)
	}
}
