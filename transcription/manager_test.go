package transcription

import (
	"context"
	"testing"

	"github.com/imchangchang/video2markdown/provider"
)

// switchableProvider is a transcription backend whose availability the test
// flips to drive selector decisions.
type switchableProvider struct {
	name      string
	available bool
}

func (p *switchableProvider) Name() string { return p.name }

func (p *switchableProvider) IsAvailable(ctx context.Context) bool { return p.available }

func (p *switchableProvider) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	return &TranscriptionResponse{Text: p.name}, nil
}

func factoryFor(p *switchableProvider) provider.Factory[Provider] {
	return func(cfg map[string]any) (Provider, error) { return p, nil }
}

func newFallbackManager(primary, backup *switchableProvider) *provider.Manager[Provider] {
	m := NewManager(WithSelector(&provider.PrioritySelector[Provider]{
		Priority: []string{primary.name, backup.name},
	}))
	m.Register(primary.name, factoryFor(primary))
	m.Register(backup.name, factoryFor(backup))
	return m
}

func TestManagerPrefersPrimaryProvider(t *testing.T) {
	ctx := context.Background()
	primary := &switchableProvider{name: "local", available: true}
	backup := &switchableProvider{name: "sidecar", available: true}
	m := newFallbackManager(primary, backup)

	for _, name := range []string{"local", "sidecar"} {
		if err := m.Initialize(ctx, name, nil); err != nil {
			t.Fatalf("Initialize(%q) failed: %v", name, err)
		}
	}

	got, err := m.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name() != "local" {
		t.Errorf("selected %q, want the primary", got.Name())
	}
}

func TestManagerFallsBackWhenPrimaryUnavailable(t *testing.T) {
	ctx := context.Background()
	primary := &switchableProvider{name: "local", available: false}
	backup := &switchableProvider{name: "sidecar", available: true}
	m := newFallbackManager(primary, backup)

	for _, name := range []string{"local", "sidecar"} {
		if err := m.Initialize(ctx, name, nil); err != nil {
			t.Fatalf("Initialize(%q) failed: %v", name, err)
		}
	}

	got, err := m.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name() != "sidecar" {
		t.Errorf("selected %q, want the fallback", got.Name())
	}
}

func TestManagerErrsWhenNoProviderAvailable(t *testing.T) {
	ctx := context.Background()
	primary := &switchableProvider{name: "local", available: false}
	backup := &switchableProvider{name: "sidecar", available: false}
	m := newFallbackManager(primary, backup)

	for _, name := range []string{"local", "sidecar"} {
		if err := m.Initialize(ctx, name, nil); err != nil {
			t.Fatalf("Initialize(%q) failed: %v", name, err)
		}
	}

	if _, err := m.Get(ctx); err == nil {
		t.Fatal("expected an error with every provider down")
	}
}
