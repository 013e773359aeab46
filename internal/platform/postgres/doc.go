// Package postgres provides PostgreSQL implementations of the registries
// defined in internal/store, plus the embedded schema migrations they need.
// It is used when storage.driver is "postgres"; the default build keeps all
// registries in memory.
package postgres
