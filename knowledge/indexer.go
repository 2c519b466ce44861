package knowledge

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

// Indexer walks a documents directory, chunks each file, embeds the chunks
// in batches, and upserts them into the store.
type Indexer struct {
	Store    *Store
	Embedder Embedder

	// Include patterns select files relative to the root; empty means the
	// defaults (markdown and plain text).
	Include []string
	// Exclude patterns drop files even when included.
	Exclude []string

	MaxChunkChars int
	ChunkOverlap  int
	BatchSize     int

	// Progress draws a bar on stderr while indexing.
	Progress bool
}

// IndexStats summarizes one indexing run.
type IndexStats struct {
	Files  int
	Chunks int
}

var defaultInclude = []string{"**/*.md", "**/*.txt"}

func (ix *Indexer) include() []string {
	if len(ix.Include) > 0 {
		return ix.Include
	}
	return defaultInclude
}

func (ix *Indexer) matches(relPath string) bool {
	for _, pattern := range ix.Exclude {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return false
		}
	}
	for _, pattern := range ix.include() {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

func (ix *Indexer) collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if ix.matches(filepath.ToSlash(rel)) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Index processes every matching file under root. Files indexed before are
// re-indexed from scratch.
func (ix *Indexer) Index(ctx context.Context, root string) (*IndexStats, error) {
	if ix.Store == nil || ix.Embedder == nil {
		return nil, fmt.Errorf("indexer requires a store and an embedder")
	}

	files, err := ix.collectFiles(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	var bar *progressbar.ProgressBar
	if ix.Progress && len(files) > 0 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("indexing"),
			progressbar.OptionSetWidth(32),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	stats := &IndexStats{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks, err := ix.indexFile(ctx, root, file)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", file, err)
		}
		stats.Files++
		stats.Chunks += chunks
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return stats, nil
}

func (ix *Indexer) indexFile(ctx context.Context, root, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0, err
	}
	source := filepath.ToSlash(rel)

	chunks := ChunkText(string(content), ix.MaxChunkChars, ix.ChunkOverlap)
	if err := ix.Store.RemoveSource(ctx, source); err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	batchSize := ix.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	model := ""
	if e, ok := ix.Embedder.(*OpenAIEmbedder); ok {
		model = e.Model
	}

	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		embeddings, err := ix.Embedder.EmbedDocuments(ctx, batch)
		if err != nil {
			return 0, err
		}

		docs := make([]Document, len(batch))
		for i, chunk := range batch {
			docs[i] = Document{
				ID:      uuid.NewString(),
				Source:  source,
				Title:   fmt.Sprintf("%s #%d", title, start+i+1),
				Content: chunk,
			}
		}
		if err := ix.Store.Add(ctx, docs, embeddings, model); err != nil {
			return 0, err
		}
	}

	return len(chunks), nil
}
