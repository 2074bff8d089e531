package util

import (
	"strings"
	"testing"
)

func TestHashUserKey(t *testing.T) {
	id := "6f1c2a9e-4b1d-4d6a-9a53-0d1e2f3a4b5c"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	if got == HashUserKey("someone-else") {
		t.Fatalf("expected distinct keys per subject")
	}
	if len(got) != 32 {
		t.Fatalf("expected 32 hex characters, got %d", len(got))
	}
	if strings.Trim(got, "0123456789abcdef") != "" {
		t.Fatalf("hash contains non-hex characters: %s", got)
	}
}
