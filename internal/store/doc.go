// Package store defines the registry interfaces for users, uploaded files and
// analysis tasks. Implementations live in internal/platform/memory (the
// default, process-lifetime registries) and internal/platform/postgres.
package store
