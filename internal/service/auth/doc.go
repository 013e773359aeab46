// Package auth issues and validates bearer tokens, hashes passwords and
// classifies Authorization headers into an explicit authentication result.
package auth
