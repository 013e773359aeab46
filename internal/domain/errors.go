package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidAnalysisType is returned for analysis types outside the supported set.
	ErrInvalidAnalysisType = errors.New("invalid analysis type")

	// ErrInvalidTaskStatus is returned when a task status is not recognised.
	ErrInvalidTaskStatus = errors.New("invalid task status")
)
