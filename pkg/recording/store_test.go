package recording

import "testing"

func TestStorePutGetDelete(t *testing.T) {
	store := NewStore()

	if _, ok := store.Get("math-101"); ok {
		t.Fatalf("expected an empty store")
	}

	store.Put("math-101", Session{EgressID: "EG_1", StartedAt: 100, StartedBy: "teacher-1", NotBeforeStop: 5100})
	sess, ok := store.Get("math-101")
	if !ok || sess.EgressID != "EG_1" {
		t.Fatalf("unexpected session: %+v ok=%v", sess, ok)
	}

	// One session per room: a second put replaces, never accumulates.
	store.Put("math-101", Session{EgressID: "EG_2", StartedAt: 200, NotBeforeStop: 5200})
	if store.Len() != 1 {
		t.Fatalf("expected one session, got %d", store.Len())
	}
	if sess, _ = store.Get("math-101"); sess.EgressID != "EG_2" {
		t.Fatalf("expected the replacement to win, got %q", sess.EgressID)
	}

	store.Delete("math-101")
	store.Delete("math-101") // deleting twice is a no-op
	if store.Len() != 0 {
		t.Fatalf("expected an empty store, got %d", store.Len())
	}
}
