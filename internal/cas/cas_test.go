package cas

import (
	"testing"
)

func TestPutGet_RoundTrip(t *testing.T) {
	s := Open(t.TempDir())

	content := []byte("# serde::Serialize\n\nA data structure that can be serialized.")
	hash, err := s.Put(content)
	if err != nil {
		t.Fatal(err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}

	got, err := s.Get(hash)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("round-trip failed: got %q, want %q", got, content)
	}
}

func TestPut_Dedup(t *testing.T) {
	s := Open(t.TempDir())

	content := []byte("duplicate content")
	hash1, err := s.Put(content)
	if err != nil {
		t.Fatal(err)
	}
	hash2, err := s.Put(content)
	if err != nil {
		t.Fatal(err)
	}
	if hash1 != hash2 {
		t.Errorf("same content produced different hashes: %s vs %s", hash1, hash2)
	}
	if !s.Has(hash1) {
		t.Error("Has() = false after Put")
	}
}

func TestPut_DifferentContent(t *testing.T) {
	s := Open(t.TempDir())

	hash1, err := s.Put([]byte("content A"))
	if err != nil {
		t.Fatal(err)
	}
	hash2, err := s.Put([]byte("content B"))
	if err != nil {
		t.Fatal(err)
	}
	if hash1 == hash2 {
		t.Error("different content should produce different hashes")
	}
}

func TestGet_MissingHash(t *testing.T) {
	s := Open(t.TempDir())

	const missing = "0000000000000000000000000000000000000000000000000000000000000000"
	if _, err := s.Get(missing); err == nil {
		t.Fatal("expected error for missing hash")
	}
	if s.Has(missing) {
		t.Error("Has() = true for missing hash")
	}
}

func TestGet_MalformedHash(t *testing.T) {
	s := Open(t.TempDir())

	if _, err := s.Get("ab"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
