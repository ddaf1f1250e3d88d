package graph

import "github.com/google/uuid"

// IDSource hands out node identifiers. The default source issues random
// uuid-based IDs so no shared counter state is needed; tests inject a
// deterministic generator instead.
type IDSource struct {
	next func() string
}

// NewIDSource returns a uuid-backed source.
func NewIDSource() *IDSource {
	return &IDSource{next: uuid.NewString}
}

// NewIDSourceFunc returns a source backed by a caller-supplied generator.
func NewIDSourceFunc(next func() string) *IDSource {
	return &IDSource{next: next}
}

// Next returns a fresh identifier. IDs are never reused within a source.
func (s *IDSource) Next() string { return s.next() }
