// Package id provides unique ID generation utilities for rag-chat.
//
// This package supports two ID strategies:
//   - UUID: Standard UUID v4 (random) plus deterministic UUID v5 derivation
//   - ULID: Universally Unique Lexicographically Sortable Identifier
//
// Usage:
//
//	uuid := id.NewUUID()  // e.g., "550e8400-e29b-41d4-a716-446655440000"
//	ulid := id.NewULID()  // e.g., "01ARZ3NDEKTSV4RRFFQ69G5FAV"
package id

import (
	"sync"
)

// Generator defines the interface for ID generators.
type Generator interface {
	// Generate creates a new unique ID.
	Generate() string

	// GenerateN creates n unique IDs.
	GenerateN(n int) []string
}

// Type represents the type of ID generator.
type Type string

const (
	// TypeUUID represents UUID v4 generator.
	TypeUUID Type = "uuid"

	// TypeULID represents ULID generator.
	TypeULID Type = "ulid"
)

var (
	defaultUUID Generator
	defaultULID Generator
	initOnce    sync.Once
)

// initDefaults initializes default generators.
func initDefaults() {
	initOnce.Do(func() {
		defaultUUID = NewUUIDGenerator()
		defaultULID = NewULIDGenerator()
	})
}

// NewUUID generates a new UUID v4 string.
func NewUUID() string {
	initDefaults()
	return defaultUUID.Generate()
}

// NewULID generates a new ULID string.
func NewULID() string {
	initDefaults()
	return defaultULID.Generate()
}

// New generates a new ID using the specified generator type.
func New(t Type) string {
	switch t {
	case TypeUUID:
		return NewUUID()
	case TypeULID:
		return NewULID()
	default:
		return NewUUID()
	}
}
