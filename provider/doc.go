// Package provider implements a generic provider framework using Go generics
// for swappable backends with runtime selection.
//
// It provides a registry for managing multiple provider implementations with
// factory-based instantiation, availability checking, and runtime selection.
// Transcription, language-model, and vision backends all register through it.
//
// Opt-in lifecycle:
//   - Initializable: providers that need setup (validate binary, ping endpoint)
//   - Closeable: providers that hold resources (connections, daemon processes)
//
// # Usage
//
//	reg := provider.NewRegistry[MyProvider]()
//	reg.RegisterFactory("default", myFactory)
//	mgr := provider.NewManager(reg, &provider.HealthCheckSelector[MyProvider]{})
//	mgr.Initialize(ctx, "default", cfg)
//	p, _ := mgr.Get(ctx)
package provider
