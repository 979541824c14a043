package id

import (
	"github.com/google/uuid"
)

// uuidGenerator generates UUID v4 identifiers.
type uuidGenerator struct{}

// NewUUIDGenerator creates a UUID v4 generator.
func NewUUIDGenerator() Generator {
	return &uuidGenerator{}
}

// Generate creates a new UUID v4 string.
func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// GenerateN creates n UUID v4 strings.
func (g *uuidGenerator) GenerateN(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = g.Generate()
	}
	return ids
}

// ParseUUID validates a UUID string.
func ParseUUID(s string) error {
	if _, err := uuid.Parse(s); err != nil {
		return ErrInvalidUUID
	}
	return nil
}

// DeterministicUUID derives a stable UUID v5 from the given name within the
// rag-chat namespace. The same name always yields the same UUID, which makes
// repeated ingestion of a document idempotent for stores that key points by
// UUID.
func DeterministicUUID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
