package pdf

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRunner scripts pdfinfo/pdftotext output per file.
type fakeRunner struct {
	pages map[string][]string // path -> text per page
	fail  map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	switch name {
	case "pdfinfo":
		path := args[0]
		if f.fail[path] {
			return nil, errors.New("exit status 1")
		}
		return []byte("Title:          x\nPages:          " +
			itoa(len(f.pages[path])) + "\nEncrypted:      no\n"), nil
	case "pdftotext":
		path := args[4]
		if f.fail[path] {
			return nil, errors.New("exit status 1")
		}
		n := atoi(args[1])
		return []byte(f.pages[path][n-1]), nil
	}
	return nil, errors.New("unexpected command " + name)
}

func itoa(n int) string { return string(rune('0' + n)) }
func atoi(s string) int { return int(s[0] - '0') }

func TestExtract_SkipsEmptyPages(t *testing.T) {
	e := &Extractor{
		runner: &fakeRunner{pages: map[string][]string{
			"/docs/a.pdf": {"first page text", "   \n ", "third page text"},
		}},
		logger: zap.NewNop(),
	}

	pages, err := e.Extract(context.Background(), "/docs/a.pdf")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].PageNum)
	assert.Equal(t, "first page text", pages[0].Text)
	assert.Equal(t, 3, pages[1].PageNum)
}

func TestExtractAll_SkipsFailingFiles(t *testing.T) {
	e := &Extractor{
		runner: &fakeRunner{
			pages: map[string][]string{
				"/docs/good.pdf":    {"hello world"},
				"/docs/bad.pdf":     {"unused"},
				"/docs/scanned.pdf": {"", ""},
			},
			fail: map[string]bool{"/docs/bad.pdf": true},
		},
		logger: zap.NewNop(),
	}

	docs, skipped := e.ExtractAll(context.Background(),
		[]string{"/docs/good.pdf", "/docs/bad.pdf", "/docs/scanned.pdf"})

	require.Len(t, docs, 1)
	assert.Equal(t, "good.pdf", docs[0].FileName)
	assert.Equal(t, []string{"bad.pdf", "scanned.pdf"}, skipped)
}

func TestPageCount_BadOutput(t *testing.T) {
	e := &Extractor{
		runner: runnerFunc(func(context.Context, string, ...string) ([]byte, error) {
			return []byte("Title: whatever\n"), nil
		}),
		logger: zap.NewNop(),
	}
	_, err := e.pageCount(context.Background(), "x.pdf")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "page count"))
}

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f runnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}
