// Package storage provides object storage abstractions with pluggable backends.
//
// It defines interfaces for common storage operations (upload, download, delete,
// list). The transcription cache and rendered document artifacts are written
// through it, so a run can target a local directory or a shared S3 bucket
// without the callers knowing the difference.
//
// # Backends
//
//   - storage/local: Local filesystem storage (default)
//   - storage/s3: Amazon S3 and S3-compatible storage
//
// # Configuration
//
// Backend selection and settings are provided via Config:
//
//	storage:
//	  provider: "s3"
//	  bucket: "transcript-cache"
//	  region: "us-east-1"
package storage
