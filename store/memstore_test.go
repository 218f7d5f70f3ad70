package store

import (
	"context"
	"testing"
)

func TestMemEnsureCollection(t *testing.T) {
	m := NewMem()
	ctx := context.Background()

	if err := m.EnsureCollection(ctx, "docs", 4); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	// Idempotent with the same dimension.
	if err := m.EnsureCollection(ctx, "docs", 4); err != nil {
		t.Fatalf("EnsureCollection twice: %v", err)
	}
	// Dimension mismatch is an error.
	if err := m.EnsureCollection(ctx, "docs", 8); err == nil {
		t.Error("expected error for dimension mismatch")
	}
}

func TestMemSearchOrdering(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	m.EnsureCollection(ctx, "docs", 2)

	points := []Point{
		{ID: "a", Vector: []float32{1, 0}, Payload: map[string]any{"content": "aligned"}},
		{ID: "b", Vector: []float32{0, 1}, Payload: map[string]any{"content": "orthogonal"}},
		{ID: "c", Vector: []float32{1, 1}, Payload: map[string]any{"content": "diagonal"}},
	}
	if err := m.Upsert(ctx, "docs", points); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := m.Search(ctx, "docs", []float32{1, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ID != "a" {
		t.Errorf("top hit = %s, want a", hits[0].ID)
	}
	if hits[1].ID != "c" {
		t.Errorf("second hit = %s, want c", hits[1].ID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("scores not descending: %f then %f", hits[0].Score, hits[1].Score)
	}
}

func TestMemFilterEqualityAndRange(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	m.EnsureCollection(ctx, "mem", 2)

	m.Upsert(ctx, "mem", []Point{
		{ID: "1", Vector: []float32{0, 0}, Payload: map[string]any{"session_id": "s1", "timestamp": 10.0}},
		{ID: "2", Vector: []float32{0, 0}, Payload: map[string]any{"session_id": "s1", "timestamp": 20.0}},
		{ID: "3", Vector: []float32{0, 0}, Payload: map[string]any{"session_id": "s2", "timestamp": 30.0}},
	})

	recs, next, err := m.Scroll(ctx, "mem", &Filter{Must: []Condition{Eq("session_id", "s1")}}, 100, "")
	if err != nil {
		t.Fatalf("Scroll: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("session filter: got %d records, want 2", len(recs))
	}
	if next != "" {
		t.Errorf("exhausted scan returned cursor %q", next)
	}

	deleted, err := m.Delete(ctx, "mem", &Filter{Must: []Condition{Lt("timestamp", 25)}})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	n, _ := m.Count(ctx, "mem", nil)
	if n != 1 {
		t.Errorf("remaining = %d, want 1", n)
	}
}

func TestMemScrollPagination(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	m.EnsureCollection(ctx, "mem", 1)

	ids := []string{"p1", "p2", "p3", "p4", "p5"}
	for _, id := range ids {
		m.Upsert(ctx, "mem", []Point{
			{ID: id, Vector: []float32{1}, Payload: map[string]any{"session_id": "s1"}},
		})
	}

	var seen []string
	cursor := ""
	pages := 0
	for {
		recs, next, err := m.Scroll(ctx, "mem", &Filter{Must: []Condition{Eq("session_id", "s1")}}, 2, cursor)
		if err != nil {
			t.Fatalf("Scroll page %d: %v", pages, err)
		}
		for _, r := range recs {
			seen = append(seen, r.ID)
		}
		pages++
		if next == "" {
			break
		}
		cursor = next
	}

	if pages != 3 {
		t.Errorf("got %d pages, want 3", pages)
	}
	if len(seen) != len(ids) {
		t.Fatalf("paged scan returned %d records, want %d: %v", len(seen), len(ids), seen)
	}
	for i, id := range ids {
		if seen[i] != id {
			t.Errorf("record %d = %s, want %s", i, seen[i], id)
		}
	}

	if _, _, err := m.Scroll(ctx, "mem", nil, 2, "missing"); err == nil {
		t.Error("unknown cursor should error")
	}
}

func TestMemDeleteIDs(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	m.EnsureCollection(ctx, "docs", 1)
	m.Upsert(ctx, "docs", []Point{
		{ID: "x", Vector: []float32{1}},
		{ID: "y", Vector: []float32{1}},
	})

	if err := m.DeleteIDs(ctx, "docs", []string{"x"}); err != nil {
		t.Fatalf("DeleteIDs: %v", err)
	}
	n, _ := m.Count(ctx, "docs", nil)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestMemUpsertDimensionCheck(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	m.EnsureCollection(ctx, "docs", 3)

	err := m.Upsert(ctx, "docs", []Point{{ID: "bad", Vector: []float32{1, 2}}})
	if err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestCosine(t *testing.T) {
	if got := cosine([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Errorf("identical vectors: %f, want ~1", got)
	}
	if got := cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors: %f, want 0", got)
	}
	if got := cosine([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("mismatched lengths: %f, want 0", got)
	}
}
