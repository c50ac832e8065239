package provider

import (
	"testing"
	"time"
)

func TestDurationSetting(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]any
		want     time.Duration
		wantErr  bool
		fallback time.Duration
	}{
		{name: "missing key uses fallback", cfg: map[string]any{}, fallback: 2 * time.Minute, want: 2 * time.Minute},
		{name: "nil value uses fallback", cfg: map[string]any{"timeout": nil}, fallback: time.Minute, want: time.Minute},
		{name: "native duration", cfg: map[string]any{"timeout": 90 * time.Second}, want: 90 * time.Second},
		{name: "int is seconds", cfg: map[string]any{"timeout": 300}, want: 300 * time.Second},
		{name: "int64 is seconds", cfg: map[string]any{"timeout": int64(45)}, want: 45 * time.Second},
		{name: "float is seconds", cfg: map[string]any{"timeout": 1.5}, want: 1500 * time.Millisecond},
		{name: "duration string", cfg: map[string]any{"timeout": "5m"}, want: 5 * time.Minute},
		{name: "suffixed seconds string", cfg: map[string]any{"timeout": "300s"}, want: 300 * time.Second},
		{name: "empty string uses fallback", cfg: map[string]any{"timeout": ""}, fallback: time.Minute, want: time.Minute},
		{name: "junk string errors", cfg: map[string]any{"timeout": "soon"}, wantErr: true},
		{name: "unsupported type errors", cfg: map[string]any{"timeout": []string{"5m"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DurationSetting(tt.cfg, "timeout", tt.fallback)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DurationSetting failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
