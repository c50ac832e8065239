package media

import "context"

// ProbeOptions configures the combined probe + scene detection operation.
type ProbeOptions struct {
	// SceneThreshold is the frame-to-frame visual difference above which a
	// frame counts as a scene change (0..1).
	SceneThreshold float64
	// MinSceneGap is the minimum spacing in seconds between kept scene
	// changes; closer ones collapse to the first.
	MinSceneGap float64
}

// DefaultProbeOptions returns the probe defaults.
func DefaultProbeOptions() ProbeOptions {
	return ProbeOptions{
		SceneThreshold: 0.3,
		MinSceneGap:    1.0,
	}
}

// ProbeWithScenes probes the file and, for video input, fills SceneChanges
// with gap-collapsed scene-change timestamps. Audio-only input yields an
// empty scene list. Unreadable or zero-duration input fails fatally.
func ProbeWithScenes(ctx context.Context, d Decoder, path string, opts ProbeOptions) (*MediaInfo, error) {
	info, err := d.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if !info.HasVideo {
		return info, nil
	}

	scenes, err := d.DetectScenes(ctx, path, opts.SceneThreshold)
	if err != nil {
		return nil, err
	}
	var bounded []float64
	for _, ts := range scenes {
		if ts >= 0 && ts <= info.Duration {
			bounded = append(bounded, ts)
		}
	}
	info.SceneChanges = CollapseMinGap(bounded, opts.MinSceneGap)
	return info, nil
}
