package auth

import (
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	h := NewHasher()
	a := h.Hash("hunter2")
	b := h.Hash("hunter2")
	if a != b {
		t.Errorf("equal plaintexts hashed differently: %q vs %q", a, b)
	}
	if a == "hunter2" {
		t.Error("hash must not equal the plaintext")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
}

func TestVerify(t *testing.T) {
	h := NewHasher()
	opaque := h.Hash("correct horse")
	if !h.Verify("correct horse", opaque) {
		t.Error("correct plaintext rejected")
	}
	if h.Verify("battery staple", opaque) {
		t.Error("wrong plaintext accepted")
	}
	if h.Verify("", opaque) {
		t.Error("empty plaintext accepted")
	}
}

func TestVerifySurvivesRestart(t *testing.T) {
	opaque := NewHasher().Hash("secret")
	if !NewHasher().Verify("secret", opaque) {
		t.Error("hash from one instance not verifiable by another")
	}
}

func TestGeneratePassword(t *testing.T) {
	h := NewHasher()
	p, err := h.GeneratePassword()
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != GeneratedPasswordLength {
		t.Errorf("expected %d characters, got %d", GeneratedPasswordLength, len(p))
	}
	q, err := h.GeneratePassword()
	if err != nil {
		t.Fatal(err)
	}
	if p == q {
		t.Error("two generated passwords were identical")
	}
}
