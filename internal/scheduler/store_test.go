package scheduler

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "reminders_test.db"))
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	s, err := NewStore(db)
	if err != nil {
		db.Close()
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_InsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Millisecond)
	r := &Reminder{Text: "call mom", FireAt: now.Add(5 * time.Minute), CreatedAt: now}
	if err := s.Insert(ctx, r); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if r.ID == 0 {
		t.Fatal("Insert did not assign an ID")
	}

	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for inserted reminder")
	}
	if got.Text != "call mom" {
		t.Errorf("Text = %q, want %q", got.Text, "call mom")
	}
	if got.Status != StatusPending {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if !got.FireAt.Equal(r.FireAt) {
		t.Errorf("FireAt = %v, want %v", got.FireAt, r.FireAt)
	}
	if got.FiredAt != nil {
		t.Errorf("FiredAt = %v, want nil", got.FiredAt)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil reminder, got %+v", got)
	}
}

func TestStore_MarkFiredOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	r := &Reminder{Text: "stretch", FireAt: now, CreatedAt: now}
	if err := s.Insert(ctx, r); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	ok, err := s.MarkFired(ctx, r.ID, now)
	if err != nil || !ok {
		t.Fatalf("first MarkFired = %v, %v; want true, nil", ok, err)
	}
	ok, err = s.MarkFired(ctx, r.ID, now)
	if err != nil || ok {
		t.Fatalf("second MarkFired = %v, %v; want false, nil", ok, err)
	}

	got, _ := s.Get(ctx, r.ID)
	if got.Status != StatusFired {
		t.Errorf("Status = %q, want fired", got.Status)
	}
	if got.FiredAt == nil {
		t.Error("FiredAt not set")
	}
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	for i, text := range []string{"late", "early", "middle"} {
		delay := []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour}[i]
		if err := s.Insert(ctx, &Reminder{Text: text, FireAt: now.Add(delay), CreatedAt: now}); err != nil {
			t.Fatalf("Insert(%s): %v", text, err)
		}
	}

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List returned %d rows, want 3", len(all))
	}
	for i, want := range []string{"early", "middle", "late"} {
		if all[i].Text != want {
			t.Errorf("List[%d] = %q, want %q", i, all[i].Text, want)
		}
	}

	if _, err := s.MarkFired(ctx, all[0].ID, now); err != nil {
		t.Fatalf("MarkFired: %v", err)
	}
	pending, err := s.List(ctx, StatusPending)
	if err != nil {
		t.Fatalf("List(pending): %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending = %d, want 2", len(pending))
	}
	fired, _ := s.List(ctx, StatusFired)
	if len(fired) != 1 || fired[0].Text != "early" {
		t.Errorf("fired = %+v, want [early]", fired)
	}
}

func TestOpenStore_CreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "assistant.db")
	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer s.Close()

	now := time.Now()
	if err := s.Insert(context.Background(), &Reminder{Text: "x", FireAt: now, CreatedAt: now}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
}

func TestStore_MalformedTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	r := &Reminder{Text: "water plants", FireAt: now.Add(time.Hour), CreatedAt: now}
	if err := s.Insert(ctx, r); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE reminders SET time = 'tomorrow-ish' WHERE id = ?`, r.ID); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	if got, err := s.Get(ctx, r.ID); err == nil || !strings.Contains(err.Error(), "parse time") {
		t.Errorf("Get() = %+v, %v; want parse error", got, err)
	}
	if _, err := s.List(ctx, StatusPending); err == nil {
		t.Error("List() accepted a malformed time")
	}

	sched := New(discardLogger(), s, func(context.Context, *Reminder) {
		t.Error("malformed reminder fired")
	})
	if err := sched.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sched.Stop()
	if n, err := sched.Restore(ctx); err == nil || n != 0 {
		t.Errorf("Restore() = %d, %v; want error and nothing armed", n, err)
	}
}
