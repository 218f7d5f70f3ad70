// Package store abstracts the vector database behind a small interface so
// the engine can run against Qdrant in production and an in-memory scan in
// tests and local development.
package store

import (
	"context"
	"errors"
)

// ErrNotFound reports that the requested collection does not exist.
// Implementations wrap it so callers can distinguish a missing
// collection from a backend failure.
var ErrNotFound = errors.New("collection not found")

// Point is a vector plus payload ready for upsert. ID must be a UUID string.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a search hit with its similarity score.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Record is a scrolled point (no score).
type Record struct {
	ID      string
	Payload map[string]any
}

// Condition matches a single payload field. Exactly one of Match or the
// range bounds should be set. Match supports string, int64, and bool.
type Condition struct {
	Field string
	Match any
	GTE   *float64
	LT    *float64
}

// Filter is a conjunction of conditions.
type Filter struct {
	Must []Condition
}

// CollectionInfo describes a collection for diagnostics.
type CollectionInfo struct {
	Name     string `json:"name"`
	Points   uint64 `json:"points_count"`
	Dim      uint64 `json:"vector_dim"`
	Distance string `json:"distance"`
}

// Store is the vector database surface the engine depends on.
type Store interface {
	// EnsureCollection creates the collection with the given dimension if
	// it does not exist. Creating is idempotent; an existing collection
	// with a different dimension is an error.
	EnsureCollection(ctx context.Context, name string, dim int) error

	// Upsert writes points into the collection, waiting for durability.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the top limit points by cosine similarity to vector,
	// optionally restricted by filter.
	Search(ctx context.Context, collection string, vector []float32, limit int, filter *Filter) ([]ScoredPoint, error)

	// Scroll returns up to limit points matching filter, payload included,
	// starting at cursor (empty starts from the beginning). The returned
	// cursor resumes the scan on the next call; empty means the scan is
	// complete.
	Scroll(ctx context.Context, collection string, filter *Filter, limit int, cursor string) ([]Record, string, error)

	// Delete removes points matching filter and returns how many matched
	// before deletion.
	Delete(ctx context.Context, collection string, filter *Filter) (int, error)

	// DeleteIDs removes specific points by ID.
	DeleteIDs(ctx context.Context, collection string, ids []string) error

	// Count returns the number of points matching filter (all points when
	// filter is nil).
	Count(ctx context.Context, collection string, filter *Filter) (uint64, error)

	// Drop removes the collection entirely.
	Drop(ctx context.Context, collection string) error

	// Info returns collection diagnostics.
	Info(ctx context.Context, collection string) (*CollectionInfo, error)

	// Close releases the underlying connection.
	Close() error
}

// Eq builds an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Match: value}
}

// Lt builds a strict upper-bound range condition.
func Lt(field string, bound float64) Condition {
	return Condition{Field: field, LT: &bound}
}
