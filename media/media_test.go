package media

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"
)

func TestMediaInfoValidate(t *testing.T) {
	tests := []struct {
		name    string
		info    MediaInfo
		wantErr bool
	}{
		{
			name: "valid video",
			info: MediaInfo{Duration: 60, Width: 1920, Height: 1080, HasVideo: true, SceneChanges: []float64{10, 35}},
		},
		{
			name: "valid audio only",
			info: MediaInfo{Duration: 60, HasAudio: true},
		},
		{
			name:    "zero duration",
			info:    MediaInfo{Duration: 0, Width: 100, Height: 100, HasVideo: true},
			wantErr: true,
		},
		{
			name:    "video without dimensions",
			info:    MediaInfo{Duration: 60, HasVideo: true},
			wantErr: true,
		},
		{
			name:    "scene change out of range",
			info:    MediaInfo{Duration: 60, Width: 100, Height: 100, HasVideo: true, SceneChanges: []float64{70}},
			wantErr: true,
		},
		{
			name:    "scene changes not increasing",
			info:    MediaInfo{Duration: 60, Width: 100, Height: 100, HasVideo: true, SceneChanges: []float64{20, 10}},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.info.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestParseSceneOutput(t *testing.T) {
	output := `[Parsed_showinfo_1 @ 0x5] n:   0 pts: 256256 pts_time:10.6773 duration: 512
[Parsed_showinfo_1 @ 0x5] n:   1 pts: 857856 pts_time:35.744  duration: 512
frame=  2 fps=0.8 q=-0.0 size=N/A
[Parsed_showinfo_1 @ 0x5] color_range:tv`

	scenes := parseSceneOutput(output)
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(scenes))
	}
	if math.Abs(scenes[0]-10.6773) > 1e-9 {
		t.Errorf("expected 10.6773, got %f", scenes[0])
	}
	if math.Abs(scenes[1]-35.744) > 1e-9 {
		t.Errorf("expected 35.744, got %f", scenes[1])
	}
}

func TestParseSceneOutputEmpty(t *testing.T) {
	if scenes := parseSceneOutput("no scene lines here"); scenes != nil {
		t.Errorf("expected nil, got %v", scenes)
	}
}

func TestCollapseMinGap(t *testing.T) {
	tests := []struct {
		name   string
		in     []float64
		minGap float64
		want   []float64
	}{
		{"empty", nil, 1.0, nil},
		{"single", []float64{5}, 1.0, []float64{5}},
		{"no collapse", []float64{0, 2, 4}, 1.0, []float64{0, 2, 4}},
		{"collapse cluster keeps first", []float64{10.0, 10.4, 10.9, 12.0}, 1.0, []float64{10.0, 12.0}},
		{"chained closeness still measures from kept", []float64{0, 0.6, 1.2, 1.8}, 1.0, []float64{0, 1.2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CollapseMinGap(tc.in, tc.minGap)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("CollapseMinGap(%v, %v) = %v, want %v", tc.in, tc.minGap, got, tc.want)
			}
		})
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997002997},
		{"25", 25},
		{"0/0", 0},
		{"garbage", 0},
	}
	for _, tc := range tests {
		if got := parseFrameRate(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("parseFrameRate(%q) = %f, want %f", tc.in, got, tc.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := formatSeconds(12.5); got != "12.500" {
		t.Errorf("expected 12.500, got %q", got)
	}
	if got := formatSeconds(0); got != "0.000" {
		t.Errorf("expected 0.000, got %q", got)
	}
}

// fakeDecoder implements Decoder for probe tests.
type fakeDecoder struct {
	info      *MediaInfo
	probeErr  error
	scenes    []float64
	scenesErr error
}

func (f *fakeDecoder) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	cp := *f.info
	return &cp, nil
}

func (f *fakeDecoder) DetectScenes(ctx context.Context, path string, threshold float64) ([]float64, error) {
	return f.scenes, f.scenesErr
}

func (f *fakeDecoder) ExtractFrame(ctx context.Context, path string, ts float64, out string) error {
	return nil
}

func (f *fakeDecoder) ExtractAudio(ctx context.Context, path, out string) error {
	return nil
}

func TestProbeWithScenesCollapsesAndBounds(t *testing.T) {
	d := &fakeDecoder{
		info:   &MediaInfo{Path: "in.mp4", Duration: 60, Width: 1280, Height: 720, HasVideo: true, HasAudio: true},
		scenes: []float64{10.0, 10.5, 35.0, 61.5},
	}

	info, err := ProbeWithScenes(context.Background(), d, "in.mp4", DefaultProbeOptions())
	if err != nil {
		t.Fatalf("ProbeWithScenes failed: %v", err)
	}
	want := []float64{10.0, 35.0}
	if !reflect.DeepEqual(info.SceneChanges, want) {
		t.Errorf("expected scenes %v, got %v", want, info.SceneChanges)
	}
}

func TestProbeWithScenesAudioOnly(t *testing.T) {
	d := &fakeDecoder{
		info:   &MediaInfo{Path: "talk.wav", Duration: 120, HasAudio: true},
		scenes: []float64{5.0},
	}

	info, err := ProbeWithScenes(context.Background(), d, "talk.wav", DefaultProbeOptions())
	if err != nil {
		t.Fatalf("ProbeWithScenes failed: %v", err)
	}
	if len(info.SceneChanges) != 0 {
		t.Errorf("audio-only input should have no scene changes, got %v", info.SceneChanges)
	}
}

func TestProbeWithScenesProbeFailure(t *testing.T) {
	d := &fakeDecoder{probeErr: fmt.Errorf("unreadable")}
	_, err := ProbeWithScenes(context.Background(), d, "bad.mp4", DefaultProbeOptions())
	if err == nil {
		t.Fatal("expected error from probe failure")
	}
}
