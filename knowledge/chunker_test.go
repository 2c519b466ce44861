package knowledge

import (
	"strings"
	"testing"
)

func TestChunkTextEmpty(t *testing.T) {
	if chunks := ChunkText("   \n\n  ", 100, 10); chunks != nil {
		t.Fatalf("expected no chunks for whitespace input, got %v", chunks)
	}
}

func TestChunkTextShortInput(t *testing.T) {
	chunks := ChunkText("a short note", 100, 10)
	if len(chunks) != 1 || chunks[0] != "a short note" {
		t.Fatalf("expected the input back as a single chunk, got %v", chunks)
	}
}

func TestChunkTextPrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("a", 60)
	para2 := strings.Repeat("b", 60)
	para3 := strings.Repeat("c", 60)
	text := para1 + "\n\n" + para2 + "\n\n" + para3

	chunks := ChunkText(text, 130, 0)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != para1+"\n\n"+para2 {
		t.Fatalf("first chunk should hold the first two paragraphs, got %q", chunks[0])
	}
	if chunks[1] != para3 {
		t.Fatalf("second chunk should hold the last paragraph, got %q", chunks[1])
	}
}

func TestChunkTextSplitsOversizedParagraph(t *testing.T) {
	text := strings.Repeat("x", 450)
	chunks := ChunkText(text, 200, 50)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 200 {
			t.Fatalf("chunk %d exceeds the budget: %d chars", i, len(chunk))
		}
	}
}

func TestChunkTextDefaults(t *testing.T) {
	text := strings.Repeat("y", DefaultMaxChunkChars+500)
	chunks := ChunkText(text, 0, -1)
	if len(chunks) < 2 {
		t.Fatalf("expected the defaults to apply, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > DefaultMaxChunkChars {
			t.Fatalf("chunk %d exceeds the default budget: %d chars", i, len(chunk))
		}
	}
}

func TestSplitByCharsSkipsWhitespaceWindows(t *testing.T) {
	// A run of spaces wide enough to fill a whole window on its own.
	text := strings.Repeat("x", 50) + strings.Repeat(" ", 50) + strings.Repeat("y", 10)

	chunks := ChunkText(text, 50, 0)
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			t.Fatalf("chunk %d is empty: %q", i, chunk)
		}
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 non-empty chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != strings.Repeat("x", 50) || chunks[1] != strings.Repeat("y", 10) {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}
