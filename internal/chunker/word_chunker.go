package chunker

import (
	"fmt"
	"strings"

	"semsearch/internal/domain"
)

// Defaults: roughly 400 tokens per passage, which suits embedding models.
const (
	DefaultChunkSize = 300
	DefaultOverlap   = 50
)

// WordChunker splits documents into fixed-size overlapping word windows,
// tracking which pages each window spans.
type WordChunker struct {
	chunkSize int
	overlap   int
}

// New creates a word chunker. Non-positive sizes fall back to defaults,
// and the overlap is clamped below the chunk size.
func New(chunkSize, overlap int) *WordChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &WordChunker{chunkSize: chunkSize, overlap: overlap}
}

// pagedWord is a single word tagged with the page it came from.
type pagedWord struct {
	word string
	page int
}

// ChunkDocument flattens the pages into one word sequence and slides a
// window of chunkSize words over it, advancing by chunkSize-overlap.
// The final window may be shorter; it is emitted exactly once.
func (c *WordChunker) ChunkDocument(pages []domain.Page, filename string) []domain.Passage {
	var words []pagedWord
	for _, p := range pages {
		for _, w := range strings.Fields(p.Text) {
			words = append(words, pagedWord{word: w, page: p.PageNum})
		}
	}
	if len(words) == 0 {
		return nil
	}

	docID := domain.DocID(filename)
	if len(words) <= c.chunkSize {
		return []domain.Passage{c.passage(words, docID, filename, 0)}
	}

	var passages []domain.Passage
	step := c.chunkSize - c.overlap
	seq := 0
	for start := 0; start < len(words); start += step {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		passages = append(passages, c.passage(words[start:end], docID, filename, seq))
		seq++
	}
	return passages
}

// ChunkCorpus chunks every document and concatenates the results in
// input order, so repeated builds over the same corpus are identical.
func (c *WordChunker) ChunkCorpus(docs []domain.Document) []domain.Passage {
	var all []domain.Passage
	for _, d := range docs {
		all = append(all, c.ChunkDocument(d.Pages, d.FileName)...)
	}
	return all
}

func (c *WordChunker) passage(window []pagedWord, docID, filename string, seq int) domain.Passage {
	parts := make([]string, len(window))
	pageStart, pageEnd := window[0].page, window[0].page
	for i, pw := range window {
		parts[i] = pw.word
		if pw.page < pageStart {
			pageStart = pw.page
		}
		if pw.page > pageEnd {
			pageEnd = pw.page
		}
	}
	return domain.Passage{
		DocID:     docID,
		FileName:  filename,
		ChunkID:   fmt.Sprintf("%s_%d", docID, seq),
		PageStart: pageStart,
		PageEnd:   pageEnd,
		Text:      strings.Join(parts, " "),
	}
}
