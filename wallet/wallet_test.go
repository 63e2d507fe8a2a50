package wallet

import (
	"strings"
	"testing"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	msg := []byte("subnet op digest")
	sig, err := w.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !w.Verify(sig, msg, w.Address()) {
		t.Fatalf("signature did not verify against own address")
	}
	if w.Verify(sig, []byte("other"), w.Address()) {
		t.Fatalf("signature verified against wrong message")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	a, _ := New()
	b, _ := New()

	sig, _ := a.Sign([]byte("msg"))
	if Verify(sig, []byte("msg"), b.Address()) {
		t.Fatalf("signature verified against a foreign address")
	}
}

func TestVerifyRejectsMalformedInput(t *testing.T) {
	w, _ := New()
	sig, _ := w.Sign([]byte("msg"))

	if Verify("zz", []byte("msg"), w.Address()) {
		t.Fatalf("malformed signature must not verify")
	}
	if Verify(sig, []byte("msg"), "not-hex") {
		t.Fatalf("malformed address must not verify")
	}
	if Verify(sig[:8], []byte("msg"), w.Address()) {
		t.Fatalf("truncated signature must not verify")
	}
}

func TestFromSeedDeterministic(t *testing.T) {
	seed := strings.Repeat("ab", 32)
	a, err := FromSeed(seed)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	b, err := FromSeed(seed)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	if a.Address() != b.Address() {
		t.Fatalf("same seed produced different addresses")
	}
	if len(a.Address()) != 64 {
		t.Fatalf("address length = %d, want 64", len(a.Address()))
	}

	if _, err := FromSeed("abcd"); err == nil {
		t.Fatalf("short seed must fail")
	}
}
