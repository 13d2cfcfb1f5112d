// Package index provides exact nearest-neighbor search over embedding vectors.
package index

import "docrag/internal/domain"

// Index is an immutable set of vectors addressed by ordinal id (the row the
// vector was built at) that answers k-nearest-neighbor queries.
type Index interface {
	// Search returns up to k hits ordered by ascending distance, ties broken
	// by lower chunk id.
	Search(query []float32, k int) ([]domain.Hit, error)
	// Len returns the number of stored vectors.
	Len() int
	// Dimension returns the shared dimension of the stored vectors.
	Dimension() int
}

// Builder constructs an Index from vectors in chunk order.
type Builder func(vectors [][]float32) (Index, error)
