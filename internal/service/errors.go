package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped with context using fmt.Errorf and %w
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrUnsupportedFormat indicates an upload whose extension is not accepted.
	// API layer should map this to HTTP 400 Bad Request.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUploadTooLarge indicates an upload exceeding the configured limit.
	// API layer should map this to HTTP 413 Request Entity Too Large.
	ErrUploadTooLarge = errors.New("upload exceeds size limit")

	// ErrAnalysisUnavailable indicates the worker pool could not accept the
	// analysis. No task is left behind.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrAnalysisUnavailable = errors.New("analysis capacity exhausted, try again later")
)
