package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dalilchat/dalil/store"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m, err := New(context.Background(), store.NewMem(), Config{
		Collection: "test_memory",
		Dim:        4,
		MaxHistory: 3,
		TTL:        time.Hour,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func appendAt(t *testing.T, m *Memory, session, role, content string, ts time.Time) {
	t.Helper()
	err := m.Append(context.Background(), Message{
		SessionID: session,
		Role:      role,
		Content:   content,
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("Append(%s): %v", content, err)
	}
}

func TestHistoryOrderAndCap(t *testing.T) {
	m := newTestMemory(t)
	base := time.Now()

	for i, content := range []string{"first", "second", "third", "fourth", "fifth"} {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		appendAt(t, m, "s1", role, content, base.Add(time.Duration(i)*time.Second))
	}

	// MaxHistory is 3: expect the last three, oldest first.
	msgs, err := m.History(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	want := []string{"third", "fourth", "fifth"}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i, w := range want {
		if msgs[i].Content != w {
			t.Errorf("message %d = %q, want %q", i, msgs[i].Content, w)
		}
	}
}

func TestHistoryBeyondOnePage(t *testing.T) {
	m := newTestMemory(t)
	base := time.Now()

	// More turns than one scroll page holds; the newest must survive.
	total := scrollWindow + 50
	for i := 0; i < total; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		appendAt(t, m, "s1", role, fmt.Sprintf("turn %d", i), base.Add(time.Duration(i)*time.Millisecond))
	}

	msgs, err := m.History(context.Background(), "s1", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != fmt.Sprintf("turn %d", total-2) ||
		msgs[1].Content != fmt.Sprintf("turn %d", total-1) {
		t.Errorf("newest turns missing: %q, %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestHistorySessionIsolation(t *testing.T) {
	m := newTestMemory(t)
	now := time.Now()
	appendAt(t, m, "s1", RoleUser, "for s1", now)
	appendAt(t, m, "s2", RoleUser, "for s2", now)

	msgs, err := m.History(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "for s1" {
		t.Errorf("session isolation broken: %+v", msgs)
	}
}

func TestHistoryEmptySession(t *testing.T) {
	m := newTestMemory(t)
	msgs, err := m.History(context.Background(), "missing", 5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages, want 0", len(msgs))
	}
}

func TestClearReturnsCount(t *testing.T) {
	m := newTestMemory(t)
	now := time.Now()
	appendAt(t, m, "s1", RoleUser, "a", now)
	appendAt(t, m, "s1", RoleAssistant, "b", now.Add(time.Second))
	appendAt(t, m, "s2", RoleUser, "c", now)

	deleted, err := m.Clear(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	// The other session is untouched.
	msgs, _ := m.History(context.Background(), "s2", 10)
	if len(msgs) != 1 {
		t.Errorf("s2 has %d messages, want 1", len(msgs))
	}
}

func TestSweepDeletesExpired(t *testing.T) {
	m := newTestMemory(t) // TTL one hour
	now := time.Now()
	appendAt(t, m, "s1", RoleUser, "old", now.Add(-2*time.Hour))
	appendAt(t, m, "s1", RoleUser, "fresh", now)

	deleted, err := m.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	msgs, _ := m.History(context.Background(), "s1", 10)
	if len(msgs) != 1 || msgs[0].Content != "fresh" {
		t.Errorf("surviving messages: %+v", msgs)
	}
}

func TestAppendValidation(t *testing.T) {
	m := newTestMemory(t)
	if err := m.Append(context.Background(), Message{Role: RoleUser, Content: "x"}); err == nil {
		t.Error("missing session id should error")
	}
	if err := m.Append(context.Background(), Message{SessionID: "s", Role: "system", Content: "x"}); err == nil {
		t.Error("invalid role should error")
	}
}
