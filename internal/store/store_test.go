package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/domain"
)

func samplePassages() []domain.Passage {
	return []domain.Passage{
		{DocID: "abc123", FileName: "a.pdf", ChunkID: "abc123_0", PageStart: 1, PageEnd: 2, Text: "first passage"},
		{DocID: "abc123", FileName: "a.pdf", ChunkID: "abc123_1", PageStart: 2, PageEnd: 3, Text: "second passage"},
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	want := samplePassages()

	require.NoError(t, s.SaveMetadata(want))
	got, err := s.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMetadata_MissingOrCorrupt(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.LoadMetadata()
	assert.ErrorIs(t, err, domain.ErrIndexLoad)

	require.NoError(t, s.EnsureDirs())
	require.NoError(t, os.WriteFile(s.MetadataPath(), []byte("{broken"), 0o644))
	_, err = s.LoadMetadata()
	assert.ErrorIs(t, err, domain.ErrIndexLoad)

	// Structurally invalid records are rejected, not half-loaded.
	require.NoError(t, os.WriteFile(s.MetadataPath(),
		[]byte(`[{"doc_id":"","chunk_id":"x_0","file_name":"x.pdf","page_start":1,"page_end":1,"text":"t"}]`), 0o644))
	_, err = s.LoadMetadata()
	assert.ErrorIs(t, err, domain.ErrIndexLoad)
}

func TestIndexExists_RequiresBothFiles(t *testing.T) {
	s := New(t.TempDir())
	assert.False(t, s.IndexExists())

	require.NoError(t, s.SaveMetadata(samplePassages()))
	assert.False(t, s.IndexExists(), "metadata alone is not an index")

	require.NoError(t, os.WriteFile(s.VectorsPath(), []byte{1}, 0o644))
	assert.True(t, s.IndexExists())
}

func TestClearIndex_LeavesUploads(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.SaveMetadata(samplePassages()))
	require.NoError(t, os.WriteFile(s.VectorsPath(), []byte{1}, 0o644))

	src := filepath.Join(t.TempDir(), "keep.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4"), 0o644))
	_, err := s.AddDocument(src)
	require.NoError(t, err)

	require.NoError(t, s.ClearIndex())
	assert.False(t, s.IndexExists())

	docs, err := s.ListDocuments()
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	// Clearing an already-clear index is fine.
	assert.NoError(t, s.ClearIndex())
}

func TestDocumentLifecycle(t *testing.T) {
	s := New(t.TempDir())

	src := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4"), 0o644))

	dest, err := s.AddDocument(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.UploadsDir(), "doc.pdf"), dest)

	docs, err := s.ListDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 1)

	require.NoError(t, s.DeleteDocument("doc.pdf"))
	docs, err = s.ListDocuments()
	require.NoError(t, err)
	assert.Empty(t, docs)

	assert.Error(t, s.DeleteDocument("doc.pdf"))
	assert.Error(t, s.DeleteDocument("../escape.pdf"))
}

func TestAddDocument_RejectsNonPDF(t *testing.T) {
	s := New(t.TempDir())
	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("text"), 0o644))

	_, err := s.AddDocument(src)
	assert.Error(t, err)
}
