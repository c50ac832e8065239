package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Fatal indicates the error aborts the whole run rather than degrading it.
	Fatal bool `json:"fatal"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic severity detection from the code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
		Fatal:     IsFatalCode(code),
	}
}

// IsRetryable reports whether err (or any error it wraps) is a retryable AppError.
func IsRetryable(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// IsFatal reports whether err (or any error it wraps) is a fatal AppError.
// Non-AppError errors are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Fatal
	}
	return true
}

// CodeOf returns the error code of err, or ErrCodeInternal for plain errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// --- Common Error Constructors ---

// MediaRead creates a fatal AppError for an unreadable or unprobeable input.
func MediaRead(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeMediaRead, Message: fmt.Sprintf("Unable to read media file %s.", path),
		Fatal: true, Cause: cause,
		Details: map[string]any{"path": path},
	}
}

// TranscriptionFailed creates a fatal AppError for a failed transcription.
func TranscriptionFailed(provider string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTranscriptionFailed, Message: fmt.Sprintf("Transcription via %s failed.", provider),
		Fatal: true, Cause: cause,
		Details: map[string]any{"provider": provider},
	}
}

// OptimizationFailed creates a degraded AppError for a failed text optimization.
func OptimizationFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeOptimizationFailed, Message: "Transcript optimization failed, using raw transcript.",
		Cause: cause,
	}
}

// StructuringFailed creates a degraded AppError for a failed chapter structuring.
func StructuringFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeStructuringFailed, Message: "Chapter structuring failed, falling back to a single chapter.",
		Cause: cause,
	}
}

// FrameAnalysisFailed creates a degraded AppError for a frame that could not be described.
func FrameAnalysisFailed(timestamp float64, cause error) *AppError {
	return &AppError{
		Code: ErrCodeFrameAnalysisFailed, Message: "Frame description failed, frame skipped.",
		Cause:   cause,
		Details: map[string]any{"timestamp": timestamp},
	}
}

// FrameExtractFailed creates a degraded AppError for a frame extraction failure.
func FrameExtractFailed(timestamp float64, cause error) *AppError {
	return &AppError{
		Code: ErrCodeFrameExtractFailed, Message: "Frame extraction failed, frame skipped.",
		Cause:   cause,
		Details: map[string]any{"timestamp": timestamp},
	}
}

// CacheError creates a degraded AppError for a transcription cache failure.
func CacheError(op string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCacheError, Message: fmt.Sprintf("Transcription cache %s failed.", op),
		Cause:   cause,
		Details: map[string]any{"operation": op},
	}
}

// Timeout creates a retryable AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The operation took too long.",
		Retryable: true,
		Details:   map[string]any{"operation": operation},
	}
}

// RateLimited creates a retryable AppError for too many requests.
func RateLimited(service string) *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: fmt.Sprintf("Rate limited by %s.", service),
		Retryable: true,
		Details:   map[string]any{"service": service},
	}
}

// ExternalServiceError creates a retryable AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error.", service),
		Retryable: true, Cause: cause,
		Details: map[string]any{"service": service},
	}
}

// ConnectionFailed creates a retryable AppError for a failed connection.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s.", service),
		Retryable: true,
		Details:   map[string]any{"service": service},
	}
}

// InvalidInput creates a fatal AppError for invalid input or configuration.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Fatal: true, Details: details,
	}
}

// NotFound creates an AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		Details: details,
	}
}

// Internal creates an AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}
