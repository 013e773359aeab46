// Package memory provides in-process implementations of the store
// interfaces. Each store is an explicit object guarding its map with a
// sync.RWMutex; nothing is held in package-level state. Records handed out
// are copies, so callers never observe or cause torn writes.
package memory
