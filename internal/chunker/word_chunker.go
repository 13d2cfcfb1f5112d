package chunker

import (
	"strings"

	"docrag/internal/domain"
)

// DefaultWordsPerChunk is the window size used when none is configured.
const DefaultWordsPerChunk = 500

// WordChunker splits text on whitespace into contiguous, non-overlapping
// windows of a fixed number of words. The last window may be shorter.
type WordChunker struct {
	wordsPerChunk int
}

// NewWordChunker returns a chunker producing windows of wordsPerChunk words.
func NewWordChunker(wordsPerChunk int) (*WordChunker, error) {
	if wordsPerChunk <= 0 {
		return nil, domain.InvalidInputf("words per chunk must be positive, got %d", wordsPerChunk)
	}
	return &WordChunker{wordsPerChunk: wordsPerChunk}, nil
}

// Chunk implements domain.Chunker.
func (c *WordChunker) Chunk(text string) ([]domain.Chunk, error) {
	return Split(text, c.wordsPerChunk)
}

// Split groups the whitespace-separated words of text into ordered chunks of
// size words. Empty or whitespace-only text yields no chunks.
func Split(text string, size int) ([]domain.Chunk, error) {
	if size <= 0 {
		return nil, domain.InvalidInputf("chunk size must be positive, got %d", size)
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}
	chunks := make([]domain.Chunk, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, domain.Chunk{
			ID:        len(chunks),
			Text:      strings.Join(words[start:end], " "),
			WordCount: end - start,
		})
	}
	return chunks, nil
}
