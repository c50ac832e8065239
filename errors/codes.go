package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Fatal errors. The pipeline cannot produce any output.
const (
	// ErrCodeMediaRead indicates the input media could not be opened or probed.
	ErrCodeMediaRead ErrorCode = "MEDIA_READ_ERROR"
	// ErrCodeTranscriptionFailed indicates speech-to-text produced no usable transcript.
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	// ErrCodeInvalidInput indicates the input or configuration is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Degraded errors. A stage failed but the pipeline continues with reduced output.
const (
	// ErrCodeOptimizationFailed indicates transcript text optimization failed.
	ErrCodeOptimizationFailed ErrorCode = "OPTIMIZATION_FAILED"
	// ErrCodeStructuringFailed indicates chapter structuring failed.
	ErrCodeStructuringFailed ErrorCode = "STRUCTURING_FAILED"
	// ErrCodeFrameAnalysisFailed indicates a frame could not be described.
	ErrCodeFrameAnalysisFailed ErrorCode = "FRAME_ANALYSIS_FAILED"
	// ErrCodeFrameExtractFailed indicates a frame could not be extracted from the media.
	ErrCodeFrameExtractFailed ErrorCode = "FRAME_EXTRACT_FAILED"
	// ErrCodeCacheError indicates a transcription cache read or write failed.
	ErrCodeCacheError ErrorCode = "CACHE_ERROR"
)

// Transient errors (retryable)
const (
	// ErrCodeTimeout indicates an operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the client is rate limited by a remote service.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeConnectionFailed indicates a failed connection to a service or subprocess.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeNotFound indicates a required resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:          true,
	ErrCodeRateLimited:      true,
	ErrCodeExternalService:  true,
	ErrCodeConnectionFailed: true,
}

var fatalCodes = map[ErrorCode]bool{
	ErrCodeMediaRead:           true,
	ErrCodeTranscriptionFailed: true,
	ErrCodeInvalidInput:        true,
}

// IsRetryableCode returns true if the error code indicates a transient failure.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsFatalCode returns true if the error code aborts the whole pipeline run.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}
