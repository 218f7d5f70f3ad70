package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Mem is an in-memory Store with exact cosine search. It backs tests and
// local development where a Qdrant instance is not available.
type Mem struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	dim    int
	points map[string]Point
	order  []string // insertion order, stable scroll results
}

// NewMem returns an empty in-memory store.
func NewMem() *Mem {
	return &Mem{collections: make(map[string]*memCollection)}
}

func (m *Mem) EnsureCollection(_ context.Context, name string, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.collections[name]; ok {
		if c.dim != dim {
			return fmt.Errorf("collection %s has dimension %d, configured %d", name, c.dim, dim)
		}
		return nil
	}
	m.collections[name] = &memCollection{dim: dim, points: make(map[string]Point)}
	return nil
}

func (m *Mem) Upsert(_ context.Context, collection string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s does not exist", collection)
	}
	for _, p := range points {
		if len(p.Vector) != c.dim {
			return fmt.Errorf("point %s has dimension %d, collection %s expects %d", p.ID, len(p.Vector), collection, c.dim)
		}
		if _, exists := c.points[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		c.points[p.ID] = p
	}
	return nil
}

func (m *Mem) Search(_ context.Context, collection string, vector []float32, limit int, filter *Filter) ([]ScoredPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s does not exist", collection)
	}

	var hits []ScoredPoint
	for _, id := range c.order {
		p := c.points[id]
		if !matches(p.Payload, filter) {
			continue
		}
		hits = append(hits, ScoredPoint{
			ID:      p.ID,
			Score:   cosine(vector, p.Vector),
			Payload: p.Payload,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *Mem) Scroll(_ context.Context, collection string, filter *Filter, limit int, cursor string) ([]Record, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, "", fmt.Errorf("collection %s does not exist", collection)
	}

	start := 0
	if cursor != "" {
		start = -1
		for i, id := range c.order {
			if id == cursor {
				start = i
				break
			}
		}
		if start < 0 {
			return nil, "", fmt.Errorf("unknown scroll cursor in %s", collection)
		}
	}

	var records []Record
	for _, id := range c.order[start:] {
		p := c.points[id]
		if !matches(p.Payload, filter) {
			continue
		}
		if len(records) >= limit {
			// First unreturned match resumes the scan.
			return records, p.ID, nil
		}
		records = append(records, Record{ID: p.ID, Payload: p.Payload})
	}
	return records, "", nil
}

func (m *Mem) Delete(_ context.Context, collection string, filter *Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return 0, fmt.Errorf("collection %s does not exist", collection)
	}

	deleted := 0
	kept := c.order[:0]
	for _, id := range c.order {
		if matches(c.points[id].Payload, filter) {
			delete(c.points, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	return deleted, nil
}

func (m *Mem) DeleteIDs(_ context.Context, collection string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s does not exist", collection)
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := c.order[:0]
	for _, id := range c.order {
		if drop[id] {
			delete(c.points, id)
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	return nil
}

func (m *Mem) Count(_ context.Context, collection string, filter *Filter) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return 0, fmt.Errorf("collection %s does not exist", collection)
	}
	var n uint64
	for _, id := range c.order {
		if matches(c.points[id].Payload, filter) {
			n++
		}
	}
	return n, nil
}

func (m *Mem) Drop(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, collection)
	return nil
}

func (m *Mem) Info(_ context.Context, collection string) (*CollectionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", collection, ErrNotFound)
	}
	return &CollectionInfo{
		Name:     collection,
		Points:   uint64(len(c.points)),
		Dim:      uint64(c.dim),
		Distance: "Cosine",
	}, nil
}

func (m *Mem) Close() error { return nil }

// matches evaluates a filter conjunction against a payload.
func matches(payload map[string]any, f *Filter) bool {
	if f == nil {
		return true
	}
	for _, c := range f.Must {
		v, ok := payload[c.Field]
		if !ok {
			return false
		}
		if c.Match != nil {
			if !equalValue(v, c.Match) {
				return false
			}
			continue
		}
		num, ok := asFloat(v)
		if !ok {
			return false
		}
		if c.GTE != nil && num < *c.GTE {
			return false
		}
		if c.LT != nil && num >= *c.LT {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	if a == b {
		return true
	}
	// int vs int64 payloads compare as numbers
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	return aok && bok && af == bf
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// cosine returns the cosine similarity of two vectors. Mismatched lengths
// or zero vectors score 0.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
