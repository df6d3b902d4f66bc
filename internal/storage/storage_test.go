package storage

import (
	"testing"
	"time"

	"github.com/meridian-gallery/curator/internal/gallery"
)

func newSession(id string) *gallery.GallerySession {
	return &gallery.GallerySession{ID: id, CreatedAt: time.Now()}
}

func TestSetAndGet(t *testing.T) {
	store := New()
	sess := newSession("s1")

	store.Set("s1", sess)

	got, exists := store.Get("s1")
	if !exists {
		t.Fatal("Expected session to exist")
	}
	if got != sess {
		t.Error("Expected the same session pointer back")
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 session, got %d", store.Len())
	}
}

func TestGetMissing(t *testing.T) {
	store := New()

	if _, exists := store.Get("nope"); exists {
		t.Error("Expected missing session to not exist")
	}
}

func TestDeleteEvicts(t *testing.T) {
	store := New()
	var evicted []*gallery.GallerySession
	store.OnEvict(func(s *gallery.GallerySession) {
		evicted = append(evicted, s)
	})

	sess := newSession("s1")
	store.Set("s1", sess)
	store.Delete("s1")

	if _, exists := store.Get("s1"); exists {
		t.Error("Expected session removed")
	}
	if len(evicted) != 1 || evicted[0] != sess {
		t.Errorf("Expected one eviction for the deleted session, got %v", evicted)
	}

	// Deleting a missing session must not evict anything.
	store.Delete("s1")
	if len(evicted) != 1 {
		t.Errorf("Expected no further evictions, got %d", len(evicted))
	}
}

func TestSetSamePointerDoesNotEvict(t *testing.T) {
	store := New()
	evictions := 0
	store.OnEvict(func(*gallery.GallerySession) { evictions++ })

	sess := newSession("s1")
	store.Set("s1", sess)
	// Writing the same session back is an update, not a replacement.
	store.Set("s1", sess)

	if evictions != 0 {
		t.Errorf("Expected no evictions for in-place update, got %d", evictions)
	}
}

func TestSetReplacementEvictsOld(t *testing.T) {
	store := New()
	var evicted []*gallery.GallerySession
	store.OnEvict(func(s *gallery.GallerySession) {
		evicted = append(evicted, s)
	})

	first := newSession("s1")
	second := newSession("s1")
	store.Set("s1", first)
	store.Set("s1", second)

	if len(evicted) != 1 || evicted[0] != first {
		t.Errorf("Expected the replaced session evicted, got %v", evicted)
	}

	got, _ := store.Get("s1")
	if got != second {
		t.Error("Expected the replacement session stored")
	}
}

func TestGetAllIsACopy(t *testing.T) {
	store := New()
	store.Set("s1", newSession("s1"))
	store.Set("s2", newSession("s2"))

	all := store.GetAll()
	if len(all) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(all))
	}

	delete(all, "s1")
	if store.Len() != 2 {
		t.Error("Expected mutating the snapshot to leave the store alone")
	}
}
