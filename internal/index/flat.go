package index

import (
	"container/heap"
	"sort"

	"docrag/internal/domain"
)

// Flat is an exhaustive index under squared Euclidean distance.
// Search is O(N·D) per query.
type Flat struct {
	dim     int
	vectors [][]float32
}

// BuildFlat copies vectors into a new Flat index. All vectors must be
// non-empty and share one dimension.
func BuildFlat(vectors [][]float32) (*Flat, error) {
	if len(vectors) == 0 {
		return nil, domain.InvalidInputf("index: no vectors to build from")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, domain.InvalidInputf("index: vector 0 is empty")
	}
	stored := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, domain.InvalidInputf("index: inconsistent vector dims %d vs %d at row %d", len(v), dim, i)
		}
		stored[i] = append([]float32(nil), v...)
	}
	return &Flat{dim: dim, vectors: stored}, nil
}

// Build adapts BuildFlat to the Builder signature.
func Build(vectors [][]float32) (Index, error) {
	f, err := BuildFlat(vectors)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Dimension returns the dimension of the stored vectors.
func (f *Flat) Dimension() int { return f.dim }

// Search scans every stored vector and keeps the k closest in a bounded
// max-heap. k larger than the stored count returns everything, sorted.
func (f *Flat) Search(query []float32, k int) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, domain.InvalidInputf("index: k must be positive, got %d", k)
	}
	if len(query) != f.dim {
		return nil, domain.InvalidInputf("index: query dim %d != index dim %d", len(query), f.dim)
	}
	if k > len(f.vectors) {
		k = len(f.vectors)
	}
	h := make(hitHeap, 0, k)
	for id, v := range f.vectors {
		hit := domain.Hit{ChunkID: id, Distance: squaredL2(query, v)}
		if h.Len() < k {
			heap.Push(&h, hit)
		} else if closer(hit, h[0]) {
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}
	out := []domain.Hit(h)
	sort.Slice(out, func(i, j int) bool { return closer(out[i], out[j]) })
	return out, nil
}

// SquaredL2 returns the squared Euclidean distance between a and b.
func SquaredL2(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.InvalidInputf("index: dimension mismatch: %d vs %d", len(a), len(b))
	}
	return squaredL2(a, b), nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// closer orders hits by distance, then by chunk id.
func closer(a, b domain.Hit) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ChunkID < b.ChunkID
}

// hitHeap keeps the worst retained hit at the root so it can be evicted.
type hitHeap []domain.Hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return closer(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(domain.Hit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
