// Package task runs slide analyses in the background. A Runner owns a
// bounded queue and a fixed set of workers; an AnalysisJob walks a handler's
// progress schedule and records the outcome in the task registry.
package task
