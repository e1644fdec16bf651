package library

import (
	"errors"
	"testing"
)

func TestBadgerKVRoundTrip(t *testing.T) {
	kv, err := OpenBadger("") // in-memory
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	t.Cleanup(func() {
		if err := kv.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})

	if _, err := kv.Get("missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := kv.Set("k", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := kv.Get("k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `[{"id":1}]` {
		t.Errorf("unexpected value %q", got)
	}

	if err := kv.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := kv.Get("k"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestBadgerKVPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	kv, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	store := NewStore(kv)
	created, err := store.CreateList("Durable", "", []FilmRef{{ID: 1, Title: "Dune"}})
	if err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	kv, err = OpenBadger(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	lists, err := NewStore(kv).Lists()
	if err != nil {
		t.Fatalf("Lists failed: %v", err)
	}
	if len(lists) != 1 || lists[0].ID != created.ID {
		t.Fatalf("expected the created list to survive reopen, got %+v", lists)
	}
}
