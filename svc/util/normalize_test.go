package util

import (
	"strings"
	"testing"
)

func TestNormalizeURLLowercases(t *testing.T) {
	if got := NormalizeURL("MyPaste"); got != "mypaste" {
		t.Errorf("expected mypaste, got %q", got)
	}
}

func TestNormalizeURLPunycode(t *testing.T) {
	got := NormalizeURL("bücher")
	if got != "xn--bcher-kva" {
		t.Errorf("expected xn--bcher-kva, got %q", got)
	}
	for _, r := range got {
		if r > 127 {
			t.Fatalf("normalized slug contains non-ASCII rune %q", r)
		}
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	inputs := []string{
		"plain-slug",
		"MyPaste",
		"bücher",
		"trailing-",
		"notes.2024",
		"a!b",
	}
	for _, in := range inputs {
		once := NormalizeURL(in)
		twice := NormalizeURL(once)
		if once != twice {
			t.Errorf("NormalizeURL not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeURLKeepsUserTrailingDash(t *testing.T) {
	if got := NormalizeURL("abc-"); got != "abc-" {
		t.Errorf("expected abc-, got %q", got)
	}
	if got := NormalizeURL("ABC-"); got != "abc-" {
		t.Errorf("expected abc-, got %q", got)
	}
}

func TestNormalizeURLASCIIPassthrough(t *testing.T) {
	in := "already-normal.slug"
	if got := NormalizeURL(in); got != in {
		t.Errorf("expected passthrough for %q, got %q", in, got)
	}
	if strings.ToLower(in) != in {
		t.Fatal("test input must already be lowercase")
	}
}
