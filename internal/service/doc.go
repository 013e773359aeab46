// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and the stores
// defined in internal/store to fulfill application features.
//
// Key components:
//
//   - UserService registers accounts and exchanges credentials for tokens.
//   - UploadService validates, stores and registers slide images.
//   - AnalysisService creates analysis tasks and hands them to the worker pool.
//
// Services receive their dependencies through constructor injection and never
// depend on a specific store implementation.
package service
