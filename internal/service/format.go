package service

import (
	"fmt"
	"strings"

	"semsearch/internal/domain"
)

// punctuation stripped from result words before matching them against
// query words.
const wordPunct = ".,!?;:\"'()[]"

// FormatCitation renders a passage reference as (file, p. 4) for a
// single page or (file, p. 4–5) for a span.
func FormatCitation(p domain.Passage) string {
	if p.PageStart == p.PageEnd {
		return fmt.Sprintf("(%s, p. %d)", p.FileName, p.PageStart)
	}
	return fmt.Sprintf("(%s, p. %d–%d)", p.FileName, p.PageStart, p.PageEnd)
}

// HighlightKeywords wraps every word of text whose lowercased,
// punctuation-stripped form matches a query word longer than two
// characters. Word order and original casing are preserved. Display
// only; this has no effect on ranking.
func HighlightKeywords(text, query, prefix, suffix string) string {
	queryWords := make(map[string]bool)
	for _, w := range strings.Fields(query) {
		if len(w) > 2 {
			queryWords[strings.ToLower(w)] = true
		}
	}
	if len(queryWords) == 0 {
		return text
	}

	words := strings.Fields(text)
	for i, w := range words {
		bare := strings.ToLower(strings.Trim(w, wordPunct))
		if queryWords[bare] {
			words[i] = prefix + w + suffix
		}
	}
	return strings.Join(words, " ")
}
