package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeDocFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIndexerIndexesMatchingFiles(t *testing.T) {
	root := t.TempDir()
	writeDocFile(t, root, "readme.md", "about the project")
	writeDocFile(t, root, "notes/design.txt", "design considerations")
	writeDocFile(t, root, "main.go", "package main")
	writeDocFile(t, root, ".git/config", "should be skipped")

	store := newTestStore(t)
	indexer := &Indexer{
		Store:    store,
		Embedder: &fakeEmbedder{docVectors: [][]float32{{1, 0}}},
	}

	stats, err := indexer.Index(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 2 {
		t.Fatalf("expected 2 indexed files, got %d", stats.Files)
	}
	if stats.Chunks != 2 {
		t.Fatalf("expected 2 chunks, got %d", stats.Chunks)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 stored chunks, got %d", count)
	}
}

func TestIndexerExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeDocFile(t, root, "keep.md", "keep me")
	writeDocFile(t, root, "drafts/skip.md", "skip me")

	store := newTestStore(t)
	indexer := &Indexer{
		Store:    store,
		Embedder: &fakeEmbedder{docVectors: [][]float32{{1, 0}}},
		Exclude:  []string{"drafts/**"},
	}

	stats, err := indexer.Index(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 1 {
		t.Fatalf("expected 1 indexed file, got %d", stats.Files)
	}
}

func TestIndexerReindexReplacesChunks(t *testing.T) {
	root := t.TempDir()
	writeDocFile(t, root, "doc.md", "first paragraph\n\nsecond paragraph")

	store := newTestStore(t)
	indexer := &Indexer{
		Store:         store,
		Embedder:      &fakeEmbedder{docVectors: [][]float32{{1, 0}, {0, 1}}},
		MaxChunkChars: 20,
	}

	if _, err := indexer.Index(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	first, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first != 2 {
		t.Fatalf("expected 2 chunks after the first pass, got %d", first)
	}

	// Shrink the file; re-indexing must drop the stale chunk.
	writeDocFile(t, root, "doc.md", "only paragraph")
	if _, err := indexer.Index(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	second, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second != 1 {
		t.Fatalf("expected 1 chunk after re-indexing, got %d", second)
	}
}

func TestIndexerRequiresStoreAndEmbedder(t *testing.T) {
	indexer := &Indexer{}
	if _, err := indexer.Index(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected an error without a store and embedder")
	}
}
