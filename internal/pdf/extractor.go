// Package pdf extracts per-page text from PDF files by shelling out to
// poppler's pdfinfo and pdftotext.
package pdf

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"semsearch/internal/domain"
)

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor reads PDFs page by page. Page numbers are 1-based and
// pages without extractable text are dropped.
type Extractor struct {
	runner CommandRunner
	logger *zap.Logger
}

// New creates an extractor using the real pdftotext/pdfinfo binaries.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{runner: execRunner{}, logger: logger}
}

// Extract returns the non-empty pages of one PDF in page order.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.Page, error) {
	total, err := e.pageCount(ctx, path)
	if err != nil {
		return nil, err
	}

	var pages []domain.Page
	for n := 1; n <= total; n++ {
		out, err := e.runner.Run(ctx, "pdftotext",
			"-f", strconv.Itoa(n), "-l", strconv.Itoa(n), path, "-")
		if err != nil {
			return nil, fmt.Errorf("pdftotext page %d of %s: %w", n, path, err)
		}
		text := strings.TrimSpace(string(out))
		if text == "" {
			continue
		}
		pages = append(pages, domain.Page{PageNum: n, Text: text})
	}
	return pages, nil
}

// ExtractAll extracts every file, in input order. A file that fails is
// logged, recorded in the skipped list and left out of the result; one
// malformed PDF never aborts a corpus build.
func (e *Extractor) ExtractAll(ctx context.Context, paths []string) ([]domain.Document, []string) {
	var docs []domain.Document
	var skipped []string
	for _, path := range paths {
		name := filepath.Base(path)
		pages, err := e.Extract(ctx, path)
		if err != nil {
			e.logger.Warn("skipping unreadable document",
				zap.String("file", name), zap.Error(err))
			skipped = append(skipped, name)
			continue
		}
		if len(pages) == 0 {
			e.logger.Warn("no extractable text, possibly a scanned document",
				zap.String("file", name))
			skipped = append(skipped, name)
			continue
		}
		docs = append(docs, domain.Document{FileName: name, Pages: pages})
	}
	return docs, skipped
}

func (e *Extractor) pageCount(ctx context.Context, path string) (int, error) {
	out, err := e.runner.Run(ctx, "pdfinfo", path)
	if err != nil {
		return 0, fmt.Errorf("pdfinfo %s: %w", path, err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		rest, ok := strings.CutPrefix(line, "Pages:")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return 0, fmt.Errorf("pdfinfo %s: bad page count %q", path, rest)
		}
		return n, nil
	}
	return 0, fmt.Errorf("pdfinfo %s: no page count in output", path)
}
