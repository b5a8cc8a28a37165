package storage

import (
	"errors"
	"testing"
)

func TestDocumentCacheRoundTrip(t *testing.T) {
	cache, err := NewDocumentCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewDocumentCache: %v", err)
	}

	if cache.Exists("42") {
		t.Error("empty cache reports item 42")
	}
	if _, err := cache.Read("42"); !errors.Is(err, ErrNotCached) {
		t.Errorf("expected ErrNotCached, got %v", err)
	}

	doc := []byte("<ICECAT-interface/>")
	if err := cache.Write("42", doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !cache.Exists("42") {
		t.Error("cache does not report written item")
	}

	got, err := cache.Read("42")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(doc) {
		t.Errorf("Read = %q; want %q", got, doc)
	}

	// overwrite replaces the previous copy
	if err := cache.Write("42", []byte("new")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = cache.Read("42")
	if string(got) != "new" {
		t.Errorf("overwrite not effective: %q", got)
	}
}
