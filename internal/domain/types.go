package domain

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Page is one page of extracted document text. Numbering starts at 1.
// Pages with no extractable text are never materialized.
type Page struct {
	PageNum int
	Text    string
}

// Document is one source file's extracted pages, in page order.
type Document struct {
	FileName string
	Pages    []Page
}

// Passage is the atomic retrievable unit: a window of words from one
// document, with the page range those words came from.
type Passage struct {
	DocID     string `json:"doc_id"`
	FileName  string `json:"file_name"`
	ChunkID   string `json:"chunk_id"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
	Text      string `json:"text"`
}

// Validate reports whether the passage carries every required field
// with a sane page span.
func (p Passage) Validate() error {
	if p.DocID == "" || p.ChunkID == "" || p.FileName == "" {
		return fmt.Errorf("passage %q: missing identity fields", p.ChunkID)
	}
	if p.PageStart < 1 || p.PageEnd < p.PageStart {
		return fmt.Errorf("passage %s: invalid page span %d-%d", p.ChunkID, p.PageStart, p.PageEnd)
	}
	return nil
}

// SearchResult is a passage matched by a query, with its cosine
// similarity score.
type SearchResult struct {
	Passage Passage
	Score   float32
}

// DocID derives a stable short identifier from a filename. The same
// filename yields the same id across runs and machines. Distinct
// filenames may collide; accepted as a known limitation.
func DocID(filename string) string {
	h := sha1.Sum([]byte(filename))
	return hex.EncodeToString(h[:])[:12]
}

// Embedder converts text into unit-length vectors of one fixed
// dimension. Batch output preserves input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	ModelInfo() string
}

// Extractor yields the ordered pages of document files. ExtractAll
// never fails as a whole: unreadable files are skipped and reported by
// base name.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Page, error)
	ExtractAll(ctx context.Context, paths []string) (docs []Document, skipped []string)
}

// Chunker splits a document's pages into passages suitable for
// retrieval indexing.
type Chunker interface {
	ChunkDocument(pages []Page, filename string) []Passage
}
