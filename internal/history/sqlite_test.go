package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndList(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, q := range []string{"first", "second", "third"} {
		if _, err := store.Record(ctx, Exchange{
			Tenant:    "t1",
			Question:  q,
			Answer:    "a-" + q,
			Document:  "notes.txt",
			Quiz:      i == 1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Record(%s) failed: %v", q, err)
		}
	}
	if _, err := store.Record(ctx, Exchange{Tenant: "t2", Question: "other", Answer: "x"}); err != nil {
		t.Fatalf("Record(t2) failed: %v", err)
	}

	got, err := store.List(ctx, "t1", 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d exchanges, want 2", len(got))
	}
	if got[0].Question != "third" || got[1].Question != "second" {
		t.Errorf("List order = [%s, %s], want [third, second]", got[0].Question, got[1].Question)
	}
	if !got[1].Quiz || got[0].Quiz {
		t.Errorf("quiz flags = %v/%v, want false/true", got[0].Quiz, got[1].Quiz)
	}
	if got[0].ID == "" || !got[0].CreatedAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("unexpected exchange: %+v", got[0])
	}
	if got[0].Document != "notes.txt" {
		t.Errorf("Document = %q, want notes.txt", got[0].Document)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", path, err)
	}
	ctx := context.Background()
	if _, err := store.Record(ctx, Exchange{Tenant: "t", Question: "q", Answer: "a"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.List(ctx, "t", 0)
	if err != nil || len(got) != 1 {
		t.Fatalf("List after reopen = %v, %v; want 1 exchange", got, err)
	}
}
