// Package domain contains the core entities of the slide analysis service:
// users, uploaded slide files and analysis tasks, along with the small amount
// of validation and state logic that belongs to them.
package domain
