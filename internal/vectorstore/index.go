package vectorstore

import (
	"container/heap"
	"fmt"

	"docrag/internal/domain"
)

// Neighbor is a single search result: the vector id and its squared
// Euclidean distance to the query.
type Neighbor struct {
	ID       int
	Distance float64
}

// FlatIndex is an exact nearest-neighbor index over float32 vectors of a
// fixed dimension. Vectors are addressed by insertion position; ids are
// never reused. A FlatIndex is not safe for concurrent mutation; Store
// provides the locking.
type FlatIndex struct {
	dim  int
	data []float32 // row-major, len(data) == Len()*dim
}

// NewFlatIndex creates an empty index. Panics if dim is not positive.
func NewFlatIndex(dim int) *FlatIndex {
	if dim <= 0 {
		panic("vectorstore: index dimension must be positive")
	}
	return &FlatIndex{dim: dim}
}

// Dim returns the vector dimension.
func (x *FlatIndex) Dim() int { return x.dim }

// Len returns the number of vectors in the index.
func (x *FlatIndex) Len() int { return len(x.data) / x.dim }

// Add appends vectors in order and returns the id of the first one. The
// batch is rejected as a whole if any vector has the wrong dimension.
func (x *FlatIndex) Add(vectors [][]float32) (int, error) {
	if err := x.check(vectors); err != nil {
		return 0, err
	}
	first := x.Len()
	for _, v := range vectors {
		x.data = append(x.data, v...)
	}
	return first, nil
}

// extended returns a new index holding x's vectors followed by vectors.
// x itself is left untouched so concurrent readers keep a stable view.
func (x *FlatIndex) extended(vectors [][]float32) (*FlatIndex, error) {
	if err := x.check(vectors); err != nil {
		return nil, err
	}
	data := make([]float32, len(x.data), len(x.data)+len(vectors)*x.dim)
	copy(data, x.data)
	for _, v := range vectors {
		data = append(data, v...)
	}
	return &FlatIndex{dim: x.dim, data: data}, nil
}

func (x *FlatIndex) check(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("vectorstore: vector %d: %w: got %d, want %d", i, domain.ErrDimensionMismatch, len(v), x.dim)
		}
	}
	return nil
}

// Vector returns a copy of the vector stored under id.
func (x *FlatIndex) Vector(id int) ([]float32, error) {
	if id < 0 || id >= x.Len() {
		return nil, fmt.Errorf("vectorstore: vector %d: %w", id, domain.ErrNotFound)
	}
	v := make([]float32, x.dim)
	copy(v, x.row(id))
	return v, nil
}

func (x *FlatIndex) row(id int) []float32 {
	return x.data[id*x.dim : (id+1)*x.dim]
}

// Search returns up to k nearest vectors to query by squared Euclidean
// distance, closest first. Equal distances are ordered by smaller id. An
// empty index or a non-positive k yields no results.
func (x *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("vectorstore: query: %w: got %d, want %d", domain.ErrDimensionMismatch, len(query), x.dim)
	}
	n := x.Len()
	if n == 0 || k <= 0 {
		return nil, nil
	}
	k = min(k, n)

	// Bounded max-heap: the root is the worst of the current best k.
	h := make(neighborHeap, 0, k)
	for id := 0; id < n; id++ {
		d := squaredL2(query, x.row(id))
		if h.Len() < k {
			heap.Push(&h, Neighbor{ID: id, Distance: d})
			continue
		}
		// Ids are visited in increasing order, so an equal distance never
		// displaces an earlier id.
		if d < h[0].Distance {
			h[0] = Neighbor{ID: id, Distance: d}
			heap.Fix(&h, 0)
		}
	}

	out := make([]Neighbor, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Neighbor)
	}
	return out, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// neighborHeap is a max-heap ordered by distance, then id.
type neighborHeap []Neighbor

func (h neighborHeap) Len() int { return len(h) }
func (h neighborHeap) Less(i, j int) bool {
	if h[i].Distance != h[j].Distance {
		return h[i].Distance > h[j].Distance
	}
	return h[i].ID > h[j].ID
}
func (h neighborHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x any)   { *h = append(*h, x.(Neighbor)) }
func (h *neighborHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
