package provider

import (
	"fmt"
	"time"
)

// DurationSetting reads a duration value from a factory settings map.
// Config files hand factories plain decoded values, so "timeout: 300"
// arrives as an int (seconds), "timeout: 5m" as a string, and values set
// programmatically may already be a time.Duration. A missing or nil value
// returns the fallback; an unparseable one is an error.
func DurationSetting(cfg map[string]any, key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := cfg[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case string:
		if v == "" {
			return fallback, nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("provider: setting %q: %w", key, err)
		}
		return d, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("provider: setting %q: cannot read %T as a duration", key, raw)
	}
}
