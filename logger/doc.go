// Package logger provides structured logging for the video2markdown
// pipeline using zerolog.
//
// It supports JSON and console output formats, log level configuration,
// and component-scoped loggers with structured fields.
//
// # Usage
//
//	log := logger.Get("keyframe")
//	log.Info("filter complete", logger.Fields("kept", 7, "rejected", 12))
package logger
