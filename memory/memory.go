// Package memory persists conversation turns in the vector store so the
// generation prompt can carry recent history. Messages are stored as
// points with zero dummy vectors; they are never searched by similarity,
// only filtered by session and timestamp.
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dalilchat/dalil/store"
)

// Roles for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// scrollWindow is the page size for history scans. Sessions larger than
// one page are read page by page so no turn is missed.
const scrollWindow = 1024

// Memory reads and writes conversation turns.
type Memory struct {
	store      store.Store
	collection string
	dim        int
	maxHistory int
	ttl        time.Duration
}

// Config for conversation memory.
type Config struct {
	Collection string        // default "conversation_memory"
	Dim        int           // dummy vector dimension, must match the collection
	MaxHistory int           // default 10
	TTL        time.Duration // default 24h
}

// New creates the memory layer and ensures its collection exists.
func New(ctx context.Context, s store.Store, cfg Config) (*Memory, error) {
	if cfg.Collection == "" {
		cfg.Collection = "conversation_memory"
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 10
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("memory dimension must be positive")
	}
	if err := s.EnsureCollection(ctx, cfg.Collection, cfg.Dim); err != nil {
		return nil, fmt.Errorf("ensuring memory collection: %w", err)
	}
	return &Memory{
		store:      s,
		collection: cfg.Collection,
		dim:        cfg.Dim,
		maxHistory: cfg.MaxHistory,
		ttl:        cfg.TTL,
	}, nil
}

// Append stores one turn. The timestamp is now unless msg.Timestamp is
// set (tests set it to build ordered fixtures).
func (m *Memory) Append(ctx context.Context, msg Message) error {
	if msg.SessionID == "" {
		return fmt.Errorf("message has no session id")
	}
	if msg.Role != RoleUser && msg.Role != RoleAssistant {
		return fmt.Errorf("invalid role %q", msg.Role)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	point := store.Point{
		ID:     msg.ID,
		Vector: make([]float32, m.dim), // dummy, never searched
		Payload: map[string]any{
			"session_id": msg.SessionID,
			"role":       msg.Role,
			"content":    msg.Content,
			"timestamp":  toUnixSeconds(msg.Timestamp),
		},
	}
	return m.store.Upsert(ctx, m.collection, []store.Point{point})
}

// History returns the session's last n messages, oldest first. n <= 0
// uses the configured maximum.
func (m *Memory) History(ctx context.Context, sessionID string, n int) ([]Message, error) {
	if n <= 0 {
		n = m.maxHistory
	}

	filter := &store.Filter{
		Must: []store.Condition{store.Eq("session_id", sessionID)},
	}
	var messages []Message
	cursor := ""
	for {
		records, next, err := m.store.Scroll(ctx, m.collection, filter, scrollWindow, cursor)
		if err != nil {
			return nil, fmt.Errorf("scrolling history: %w", err)
		}
		for _, r := range records {
			messages = append(messages, fromRecord(r))
		}
		if next == "" {
			break
		}
		cursor = next
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	if len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	return messages, nil
}

// Clear deletes all messages of a session and returns how many were
// removed.
func (m *Memory) Clear(ctx context.Context, sessionID string) (int, error) {
	deleted, err := m.store.Delete(ctx, m.collection, &store.Filter{
		Must: []store.Condition{store.Eq("session_id", sessionID)},
	})
	if err != nil {
		return 0, fmt.Errorf("clearing session %s: %w", sessionID, err)
	}
	return deleted, nil
}

// Sweep removes messages older than the TTL across all sessions and
// returns the number deleted.
func (m *Memory) Sweep(ctx context.Context) (int, error) {
	cutoff := toUnixSeconds(time.Now().Add(-m.ttl))
	deleted, err := m.store.Delete(ctx, m.collection, &store.Filter{
		Must: []store.Condition{store.Lt("timestamp", cutoff)},
	})
	if err != nil {
		return 0, fmt.Errorf("sweeping expired messages: %w", err)
	}
	return deleted, nil
}

// toUnixSeconds keeps sub-second ordering: float64 holds unix seconds
// with roughly 100ns resolution at current epochs.
func toUnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromRecord(r store.Record) Message {
	msg := Message{ID: r.ID}
	if v, ok := r.Payload["session_id"].(string); ok {
		msg.SessionID = v
	}
	if v, ok := r.Payload["role"].(string); ok {
		msg.Role = v
	}
	if v, ok := r.Payload["content"].(string); ok {
		msg.Content = v
	}
	if v, ok := r.Payload["timestamp"].(float64); ok {
		sec := int64(v)
		nsec := int64((v - float64(sec)) * 1e9)
		msg.Timestamp = time.Unix(sec, nsec)
	}
	return msg
}
