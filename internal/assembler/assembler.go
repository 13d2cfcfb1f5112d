// Package assembler turns ranked retrieval hits into a context string.
package assembler

import (
	"fmt"
	"strings"

	"docrag/internal/domain"
)

// DefaultMaxChunks is the number of chunks joined when none is configured.
const DefaultMaxChunks = 3

// Assemble joins the texts of the first maxChunks hits with single spaces,
// in rank order. A hit whose id does not address a chunk means the hits and
// chunks come from different documents, and is reported as an error.
func Assemble(hits []domain.Hit, chunks []domain.Chunk, maxChunks int) (string, error) {
	if maxChunks <= 0 || len(hits) == 0 {
		return "", nil
	}
	if maxChunks > len(hits) {
		maxChunks = len(hits)
	}
	parts := make([]string, 0, maxChunks)
	for _, h := range hits[:maxChunks] {
		if h.ChunkID < 0 || h.ChunkID >= len(chunks) {
			return "", fmt.Errorf("assemble: hit %d addresses none of %d chunks", h.ChunkID, len(chunks))
		}
		parts = append(parts, chunks[h.ChunkID].Text)
	}
	return strings.Join(parts, " "), nil
}
