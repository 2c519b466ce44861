package knowledge

import "strings"

const (
	// DefaultMaxChunkChars keeps a chunk within a few hundred embedding
	// tokens.
	DefaultMaxChunkChars = 2000
	DefaultChunkOverlap  = 200
)

// ChunkText splits text into chunks of at most maxChars characters,
// preferring paragraph boundaries. Overlap carries context between adjacent
// windows when an oversized paragraph has to be cut mid-text; chunks that
// break cleanly at a paragraph boundary do not overlap. Whitespace-only
// input yields no chunks.
func ChunkText(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(paragraph)+2 > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}

		// A single paragraph larger than the budget is split by characters.
		if len(paragraph) > maxChars {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, splitByChars(paragraph, maxChars, overlap)...)
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func splitByChars(text string, maxChars, overlap int) []string {
	var out []string
	step := maxChars - overlap
	for start := 0; start < len(text); start += step {
		end := start + maxChars
		if end > len(text) {
			end = len(text)
		}
		// A window can land on pure whitespace; nothing to embed there.
		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			out = append(out, chunk)
		}
		if end == len(text) {
			break
		}
	}
	return out
}
