// Package transcription defines the provider interface and common types
// for interacting with speech-to-text backends, plus a content-addressed
// cache that avoids re-transcribing unchanged media.
//
// # Backends
//
//   - transcription/whisper: faster-whisper HTTP sidecar
//   - transcription/whispercpp: local whisper.cpp binary
//
// # Usage
//
//	mgr := transcription.NewManager()
//	mgr.Register(whisper.ProviderName, whisper.Factory())
//	mgr.Initialize(ctx, whisper.ProviderName, cfg)
//
//	cache := transcription.NewCache(byteClient)
//	resp, err := cache.GetOrCreate(ctx, mediaPath, model, lang, func(ctx context.Context) (*transcription.TranscriptionResponse, error) {
//	    p, _ := mgr.Get(ctx)
//	    return p.Transcribe(ctx, req)
//	})
package transcription
