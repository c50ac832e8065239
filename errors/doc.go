// Package errors provides unified error handling for the pipeline.
// It implements structured error types with machine-readable codes,
// retryable detection, and a fatal/degraded severity split that the
// orchestrator uses to decide between aborting and continuing.
package errors
