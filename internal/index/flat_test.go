package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/domain"
)

// Unit vectors along distinct axes keep the ranking math obvious.
func axisVectors(n, dim int) [][]float32 {
	vectors := make([][]float32, n)
	for i := range vectors {
		v := make([]float32, dim)
		v[i%dim] = 1
		vectors[i] = v
	}
	return vectors
}

func TestBuild_EmptyInput(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestBuild_DimensionMismatch(t *testing.T) {
	_, err := Build([][]float32{{1, 0}, {0, 1, 0}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearch_ExactMatchScoresOne(t *testing.T) {
	idx, err := Build(axisVectors(4, 4))
	require.NoError(t, err)

	hits, err := idx.Search([]float32{0, 0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Position)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestSearch_DescendingWithPositionTieBreak(t *testing.T) {
	idx, err := Build([][]float32{
		{0, 1},
		{1, 0},
		{1, 0}, // same score as position 1
	})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, 1, hits[0].Position)
	assert.Equal(t, 2, hits[1].Position)
	assert.Equal(t, 0, hits[2].Position)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
	assert.GreaterOrEqual(t, hits[1].Score, hits[2].Score)
}

func TestSearch_KClampedToSize(t *testing.T) {
	idx, err := Build(axisVectors(3, 3))
	require.NoError(t, err)

	hits, err := idx.Search([]float32{1, 0, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestSearch_Errors(t *testing.T) {
	idx, err := Build(axisVectors(2, 2))
	require.NoError(t, err)

	_, err = idx.Search([]float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = idx.Search([]float32{1, 0}, 0)
	assert.Error(t, err)

	empty := &Flat{}
	_, err = empty.Search([]float32{1}, 1)
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
}

func TestDimension(t *testing.T) {
	idx, err := Build(axisVectors(2, 7))
	require.NoError(t, err)

	dim, err := idx.Dimension()
	require.NoError(t, err)
	assert.Equal(t, 7, dim)

	_, err = (&Flat{}).Dimension()
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.idx")
	idx, err := Build([][]float32{{0.6, 0.8}, {1, 0}})
	require.NoError(t, err)
	require.NoError(t, idx.Persist(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Size())

	hits, err := loaded.Search([]float32{0.6, 0.8}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, hits[0].Position)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.idx"))
	assert.ErrorIs(t, err, domain.ErrIndexLoad)
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.idx")
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrIndexLoad)
}
