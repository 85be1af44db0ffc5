// Package service coordinates the build and query paths, enforcing the
// one invariant everything depends on: vector position i and metadata
// position i always describe the same passage.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"semsearch/internal/domain"
	"semsearch/internal/index"
	"semsearch/internal/store"
)

// embedProgressStep is how many passages are embedded between progress
// callbacks.
const embedProgressStep = 32

// ProgressFunc observes a long build. current is monotonically
// non-decreasing and reaches total exactly once, at completion.
type ProgressFunc func(current, total int)

// Corpus turns stored documents into passages.
type Corpus interface {
	ChunkDocument(pages []domain.Page, filename string) []domain.Passage
	ChunkCorpus(docs []domain.Document) []domain.Passage
}

// Service is the retrieval orchestrator.
type Service struct {
	chunker   Corpus
	embedder  domain.Embedder
	extractor domain.Extractor
	store     *store.Store
	logger    *zap.Logger
}

// New wires the orchestrator. All collaborators are injected; the
// service holds no hidden global state.
func New(chunker Corpus, embedder domain.Embedder, extractor domain.Extractor, st *store.Store, logger *zap.Logger) *Service {
	return &Service{chunker: chunker, embedder: embedder, extractor: extractor, store: st, logger: logger}
}

// BuildReport summarizes a completed corpus build.
type BuildReport struct {
	Documents int
	Passages  int
	Skipped   []string
}

// BuildIndex embeds the passages in order and returns the index paired
// with the unchanged passage list. The pairing is the alignment
// invariant: the caller must persist or replace both together.
func (s *Service) BuildIndex(ctx context.Context, passages []domain.Passage, progress ProgressFunc) (*index.Flat, []domain.Passage, error) {
	if len(passages) == 0 {
		return nil, nil, domain.ErrEmptyCorpus
	}
	total := len(passages)
	if progress != nil {
		progress(0, total)
	}

	vectors := make([][]float32, 0, total)
	for start := 0; start < total; start += embedProgressStep {
		end := start + embedProgressStep
		if end > total {
			end = total
		}
		texts := make([]string, 0, end-start)
		for _, p := range passages[start:end] {
			texts = append(texts, p.Text)
		}
		batch, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, nil, fmt.Errorf("embed passages %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
		if progress != nil {
			progress(end, total)
		}
	}

	idx, err := index.Build(vectors)
	if err != nil {
		return nil, nil, err
	}
	return idx, passages, nil
}

// IndexCorpus rebuilds the whole index from every stored document:
// extract, chunk, embed, persist. A previously persisted index is only
// replaced after the new pair is fully written.
func (s *Service) IndexCorpus(ctx context.Context, progress ProgressFunc) (*BuildReport, error) {
	paths, err := s.store.ListDocuments()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no documents uploaded: %w", domain.ErrEmptyCorpus)
	}

	docs, skipped := s.extractor.ExtractAll(ctx, paths)
	if len(docs) == 0 {
		return nil, fmt.Errorf("no text could be extracted from %d document(s): %w", len(paths), domain.ErrEmptyCorpus)
	}

	passages := s.chunker.ChunkCorpus(docs)
	if len(passages) == 0 {
		return nil, fmt.Errorf("documents produced no passages: %w", domain.ErrEmptyCorpus)
	}

	idx, meta, err := s.BuildIndex(ctx, passages, progress)
	if err != nil {
		return nil, err
	}
	if err := s.persistPair(idx, meta); err != nil {
		return nil, err
	}

	s.logger.Info("index built",
		zap.Int("documents", len(docs)),
		zap.Int("passages", len(meta)),
		zap.Int("skipped", len(skipped)))
	return &BuildReport{Documents: len(docs), Passages: len(meta), Skipped: skipped}, nil
}

// AddDocuments indexes new documents by concatenating their passages
// with the existing metadata and rebuilding from scratch. There is no
// true incremental insert; for a small or medium corpus a rebuild is
// fast enough and keeps the alignment trivially correct.
func (s *Service) AddDocuments(ctx context.Context, docs []domain.Document, progress ProgressFunc) (*BuildReport, error) {
	existing := []domain.Passage{}
	if s.store.IndexExists() {
		loaded, err := s.store.LoadMetadata()
		if err != nil {
			return nil, err
		}
		existing = loaded
	}

	passages := append(existing, s.chunker.ChunkCorpus(docs)...)
	idx, meta, err := s.BuildIndex(ctx, passages, progress)
	if err != nil {
		return nil, err
	}
	if err := s.persistPair(idx, meta); err != nil {
		return nil, err
	}
	return &BuildReport{Documents: len(docs), Passages: len(meta)}, nil
}

// Query embeds the query text and returns the k most similar passages
// with scores, best first. k is clamped to the number of stored
// vectors. Returns ErrNoIndex when nothing has been indexed yet.
func (s *Service) Query(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query")
	}
	idx, meta, err := s.loadPair()
	if err != nil {
		return nil, err
	}

	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if k < 1 {
		k = 1
	}
	if k > idx.Size() {
		k = idx.Size()
	}
	hits, err := idx.Search(vec, k)
	if err != nil {
		// An empty but valid index means "no matches", not a failure.
		if errors.Is(err, domain.ErrEmptyIndex) {
			return []domain.SearchResult{}, nil
		}
		return nil, err
	}

	results := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = domain.SearchResult{Passage: meta[h.Position], Score: h.Score}
	}
	return results, nil
}

// Stats describes the current index for the knowledge-base view.
type Stats struct {
	TotalChunks int
	TotalDocs   int
	DocNames    []string
	Dimension   int
	IndexSize   string
}

// Stats loads the index pair and summarizes it.
func (s *Service) Stats() (*Stats, error) {
	idx, meta, err := s.loadPair()
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool)
	for _, p := range meta {
		names[p.FileName] = true
	}
	docNames := make([]string, 0, len(names))
	for n := range names {
		docNames = append(docNames, n)
	}
	sort.Strings(docNames)

	dim, err := idx.Dimension()
	if err != nil {
		return nil, err
	}
	size, err := s.store.IndexFileSize()
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalChunks: idx.Size(),
		TotalDocs:   len(docNames),
		DocNames:    docNames,
		Dimension:   dim,
		IndexSize:   humanSize(size),
	}, nil
}

// loadPair loads both halves of the persisted index and verifies they
// still line up. A length mismatch means a torn write; the pair is
// rejected rather than searched out of alignment.
func (s *Service) loadPair() (*index.Flat, []domain.Passage, error) {
	if !s.store.IndexExists() {
		return nil, nil, domain.ErrNoIndex
	}
	idx, err := index.Load(s.store.VectorsPath())
	if err != nil {
		return nil, nil, err
	}
	meta, err := s.store.LoadMetadata()
	if err != nil {
		return nil, nil, err
	}
	if idx.Size() != len(meta) {
		return nil, nil, fmt.Errorf("index holds %d vectors but metadata holds %d passages: %w",
			idx.Size(), len(meta), domain.ErrIndexLoad)
	}
	return idx, meta, nil
}

// persistPair writes vectors first, then metadata. Both writes are
// temp-and-rename, so the worst crash outcome is a stale pair or a
// length mismatch that loadPair rejects.
func (s *Service) persistPair(idx *index.Flat, meta []domain.Passage) error {
	if err := idx.Persist(s.store.VectorsPath()); err != nil {
		return fmt.Errorf("persist vectors: %w", err)
	}
	if err := s.store.SaveMetadata(meta); err != nil {
		return fmt.Errorf("persist metadata: %w", err)
	}
	return nil
}

func humanSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	}
}
