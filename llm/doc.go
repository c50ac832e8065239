// Package llm defines the provider interface and common types for chat
// completion backends.
//
// Backends register through the generic provider framework:
//
//	mgr := llm.NewManager()
//	mgr.Register(openai.ProviderName, openai.Factory())
//	mgr.Initialize(ctx, openai.ProviderName, cfg)
//
//	p, _ := mgr.Get(ctx)
//	text, usage, err := llm.Complete(ctx, p, systemPrompt, userPrompt)
//
// Two backends ship with the module: llm/openai (hosted API) and llm/ollama
// (local server). CompleteStructured handles JSON-mode responses, tolerating
// markdown code fences around the object.
package llm
