package state

import (
	"errors"
	"testing"
)

func TestBatchReadYourWrites(t *testing.T) {
	store := NewMemoryStore()
	b := NewBatch(store)

	if err := b.Put("a", []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if v, ok := b.Get("a"); !ok || string(v) != "1" {
		t.Fatalf("batch write not visible to batch read: %q %v", v, ok)
	}
	if _, ok := store.Get("a"); ok {
		t.Fatalf("uncommitted write visible to external readers")
	}

	if err := b.Del("a"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok := b.Get("a"); ok {
		t.Fatalf("same-batch delete not visible")
	}
}

func TestBatchCommitAtomic(t *testing.T) {
	store := NewMemoryStore()
	store.apply(map[string][]byte{"old": []byte("x")}, nil)

	b := NewBatch(store)
	_ = b.Put("a", []byte("1"))
	_ = b.Put("b", []byte("2"))
	_ = b.Del("old")
	b.Commit(store)

	if v, _ := store.Get("a"); string(v) != "1" {
		t.Fatalf("a = %q", v)
	}
	if v, _ := store.Get("b"); string(v) != "2" {
		t.Fatalf("b = %q", v)
	}
	if _, ok := store.Get("old"); ok {
		t.Fatalf("deleted key survived commit")
	}
	if b.Size() != 0 {
		t.Fatalf("batch not reset after commit: %d", b.Size())
	}
}

func TestBatchDiscard(t *testing.T) {
	store := NewMemoryStore()
	b := NewBatch(store)
	_ = b.Put("a", []byte("1"))
	b.Discard()
	b.Commit(store)

	if _, ok := store.Get("a"); ok {
		t.Fatalf("discarded write committed")
	}
}

func TestBatchOverlayStacks(t *testing.T) {
	store := NewMemoryStore()
	base := NewBatch(store)
	_ = base.Put("a", []byte("1"))

	overlay := NewBatch(base)
	if v, ok := overlay.Get("a"); !ok || string(v) != "1" {
		t.Fatalf("overlay does not see base write: %q %v", v, ok)
	}
	_ = overlay.Put("a", []byte("2"))
	if v, _ := base.Get("a"); string(v) != "1" {
		t.Fatalf("overlay write leaked into base: %q", v)
	}
}

func TestGuardedRejectsReservedKeys(t *testing.T) {
	b := NewBatch(NewMemoryStore())
	g := Guard(b)

	for _, key := range []string{"admin", "sh/abc", "tx/1", "mod/x", "msgl", "wrt/w"} {
		if err := g.Put(key, []byte("v")); !errors.Is(err, ErrReservedKey) {
			t.Fatalf("Put(%q) = %v, want ErrReservedKey", key, err)
		}
		if err := g.Del(key); !errors.Is(err, ErrReservedKey) {
			t.Fatalf("Del(%q) = %v, want ErrReservedKey", key, err)
		}
	}
	if err := g.Put("bal/abc", []byte("v")); err != nil {
		t.Fatalf("unreserved Put: %v", err)
	}
	if _, ok := b.Get("bal/abc"); !ok {
		t.Fatalf("guarded write not visible in batch")
	}
}

func TestIsReserved(t *testing.T) {
	for _, key := range []string{
		"admin", "admin_set", "wlst", "chat_status", "auto_add_writers", "txen",
		"msgl", "txl", "delml", "pnl",
		"mod/a", "mtd/a", "nick/a", "kcin/n", "wl/a", "sh/h",
		"msg/0", "umsg/a/0", "umsgl/a", "tx/id", "txi/0", "utxi/a/0",
		"utxl/a", "delm/0", "pni/0", "wrt/w", "ban/w",
	} {
		if !IsReserved(key) {
			t.Fatalf("IsReserved(%q) = false", key)
		}
	}
	for _, key := range []string{"bal/a", "admina", "tkn/x", "mode", "t"} {
		if IsReserved(key) {
			t.Fatalf("IsReserved(%q) = true", key)
		}
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := NewMemoryStore()
	b := NewMemoryStore()

	ba := NewBatch(a)
	_ = ba.Put("x", []byte("1"))
	_ = ba.Put("y", []byte("2"))
	ba.Commit(a)

	bb := NewBatch(b)
	_ = bb.Put("y", []byte("2"))
	_ = bb.Put("x", []byte("1"))
	bb.Commit(b)

	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("same content, different fingerprints")
	}

	bc := NewBatch(b)
	_ = bc.Put("x", []byte("other"))
	bc.Commit(b)
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatalf("different content, same fingerprint")
	}
}

func TestGetCopies(t *testing.T) {
	store := NewMemoryStore()
	b := NewBatch(store)
	_ = b.Put("k", []byte("abc"))
	b.Commit(store)

	v, _ := store.Get("k")
	v[0] = 'X'
	if v2, _ := store.Get("k"); string(v2) != "abc" {
		t.Fatalf("caller mutation reached the store: %q", v2)
	}
}
