// Package index implements an exact, flat inner-product vector index.
// With unit-normalized vectors the inner product equals cosine
// similarity, so a linear scan gives exact ranking with no recall
// trade-off to tune.
package index

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"semsearch/internal/domain"
)

// Flat stores dense float32 vectors of one fixed dimension in
// insertion order. The position of a vector is the authoritative key
// for joining it with passage metadata.
type Flat struct {
	dim     int
	vectors [][]float32
}

// Hit is one search result: the stored vector's position and its inner
// product with the query vector.
type Hit struct {
	Score    float32
	Position int
}

// Build creates an index from vectors in the given order. All vectors
// must share one dimension.
func Build(vectors [][]float32) (*Flat, error) {
	if len(vectors) == 0 {
		return nil, domain.ErrEmptyInput
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("vector 0 has zero dimension: %w", domain.ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d: %w",
				i, len(v), dim, domain.ErrDimensionMismatch)
		}
	}
	return &Flat{dim: dim, vectors: vectors}, nil
}

// Size returns the number of stored vectors.
func (f *Flat) Size() int { return len(f.vectors) }

// Dimension returns the vector dimension.
func (f *Flat) Dimension() (int, error) {
	if len(f.vectors) == 0 {
		return 0, domain.ErrEmptyIndex
	}
	return f.dim, nil
}

// Search returns the min(k, Size()) stored vectors most similar to the
// query, ordered by descending score. Ties break by ascending position
// so rankings are deterministic. The caller is responsible for
// normalizing vectors; the index does not.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(f.vectors) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d: %w",
			len(query), f.dim, domain.ErrDimensionMismatch)
	}

	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{Score: dot(query, v), Position: i}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// persisted is the gob wire form of the index.
type persisted struct {
	Dim     int
	Vectors [][]float32
}

// Persist writes the full vector collection to path. The file is
// written to a temp name first and renamed into place so a crash never
// leaves a truncated index behind.
func (f *Flat) Persist(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(persisted{Dim: f.dim, Vectors: f.vectors}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads an index previously written by Persist. A missing,
// truncated or internally inconsistent file yields ErrIndexLoad; the
// index is never partially populated.
func Load(path string) (*Flat, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, domain.ErrIndexLoad)
	}
	defer r.Close()

	var p persisted
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, domain.ErrIndexLoad)
	}
	if len(p.Vectors) == 0 || p.Dim <= 0 {
		return nil, fmt.Errorf("%s holds no vectors: %w", path, domain.ErrIndexLoad)
	}
	for i, v := range p.Vectors {
		if len(v) != p.Dim {
			return nil, fmt.Errorf("%s: vector %d has dimension %d, want %d: %w",
				path, i, len(v), p.Dim, domain.ErrIndexLoad)
		}
	}
	return &Flat{dim: p.Dim, vectors: p.Vectors}, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
