package cache

import (
	"context"
	"testing"
)

func TestLRUGetSetRemove(t *testing.T) {
	l, err := NewLRU(10)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, ok, _ := l.Get(ctx, "missing"); ok {
		t.Error("expected miss for absent key")
	}
	if err := l.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := l.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != "v" {
		t.Errorf("expected hit with v, got ok=%v v=%q", ok, v)
	}
	if err := l.Remove(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := l.Get(ctx, "k"); ok {
		t.Error("expected miss after removal")
	}
}

func TestLRUIncrement(t *testing.T) {
	l, err := NewLRU(10)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	existed, err := l.Increment(ctx, "n")
	if err != nil {
		t.Fatal(err)
	}
	if existed {
		t.Error("first increment should report the key as new")
	}
	existed, err = l.Increment(ctx, "n")
	if err != nil {
		t.Fatal(err)
	}
	if !existed {
		t.Error("second increment should report the key as existing")
	}
	v, ok, _ := l.Get(ctx, "n")
	if !ok || v != "2" {
		t.Errorf("expected counter value 2, got ok=%v v=%q", ok, v)
	}
}

func TestLRUIncrementNonNumeric(t *testing.T) {
	l, err := NewLRU(10)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := l.Set(ctx, "k", "not a number"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Increment(ctx, "k"); err == nil {
		t.Fatal("expected error incrementing non-numeric value")
	}
}

func TestLRUEviction(t *testing.T) {
	l, err := NewLRU(2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	l.Set(ctx, "a", "1")
	l.Set(ctx, "b", "2")
	l.Set(ctx, "c", "3")
	if _, ok, _ := l.Get(ctx, "a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok, _ := l.Get(ctx, "c"); !ok {
		t.Error("newest entry should survive")
	}
}

func TestLRURejectsBadSize(t *testing.T) {
	if _, err := NewLRU(0); err == nil {
		t.Error("expected error for zero size")
	}
	if _, err := NewLRU(-5); err == nil {
		t.Error("expected error for negative size")
	}
}
