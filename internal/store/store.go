// Package store keeps all on-disk layout in one place: the uploads
// folder holding source PDFs and the index pair (vector blob plus
// passage metadata JSON).
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"semsearch/internal/domain"
)

const (
	uploadsDir   = "uploads"
	indexDir     = "index"
	vectorsFile  = "vectors.idx"
	metadataFile = "metadata.json"
)

// Store manages files under one data directory.
type Store struct {
	dataDir string
}

// New creates a store rooted at dataDir.
func New(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// EnsureDirs creates the uploads and index directories if missing.
func (s *Store) EnsureDirs() error {
	for _, dir := range []string{s.UploadsDir(), filepath.Join(s.dataDir, indexDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// UploadsDir is where source PDFs live.
func (s *Store) UploadsDir() string { return filepath.Join(s.dataDir, uploadsDir) }

// VectorsPath is the persisted vector index file.
func (s *Store) VectorsPath() string { return filepath.Join(s.dataDir, indexDir, vectorsFile) }

// MetadataPath is the persisted passage metadata file.
func (s *Store) MetadataPath() string { return filepath.Join(s.dataDir, indexDir, metadataFile) }

// AddDocument copies a PDF into the uploads folder and returns the
// stored path.
func (s *Store) AddDocument(src string) (string, error) {
	if !strings.EqualFold(filepath.Ext(src), ".pdf") {
		return "", fmt.Errorf("%s is not a PDF", src)
	}
	if err := s.EnsureDirs(); err != nil {
		return "", err
	}
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dest := filepath.Join(s.UploadsDir(), filepath.Base(src))
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	return dest, out.Close()
}

// ListDocuments returns the stored PDF paths in sorted order.
func (s *Store) ListDocuments() ([]string, error) {
	if err := s.EnsureDirs(); err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(s.UploadsDir(), "*.pdf"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// DeleteDocument removes a PDF from the uploads folder by base name.
// An already-built index is untouched until the next rebuild.
func (s *Store) DeleteDocument(name string) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid document name %q", name)
	}
	path := filepath.Join(s.UploadsDir(), name)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no stored document named %s", name)
		}
		return err
	}
	return nil
}

// SaveMetadata writes the passage list as indented JSON, temp file
// first so a crash cannot leave a torn metadata file next to a valid
// vector file.
func (s *Store) SaveMetadata(passages []domain.Passage) error {
	if err := s.EnsureDirs(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(passages, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.MetadataPath()), ".metadata-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.MetadataPath())
}

// LoadMetadata reads and validates the persisted passage list. Any
// unreadable or structurally invalid file is reported as ErrIndexLoad.
func (s *Store) LoadMetadata() ([]domain.Passage, error) {
	data, err := os.ReadFile(s.MetadataPath())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.MetadataPath(), domain.ErrIndexLoad)
	}
	var passages []domain.Passage
	if err := json.Unmarshal(data, &passages); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.MetadataPath(), domain.ErrIndexLoad)
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("%s holds no passages: %w", s.MetadataPath(), domain.ErrIndexLoad)
	}
	for i, p := range passages {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("metadata entry %d: %v: %w", i, err, domain.ErrIndexLoad)
		}
	}
	return passages, nil
}

// IndexExists reports whether both halves of the index pair are
// present. Absence of either means "no index".
func (s *Store) IndexExists() bool {
	for _, path := range []string{s.VectorsPath(), s.MetadataPath()} {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// ClearIndex removes the index pair. Uploaded documents stay.
func (s *Store) ClearIndex() error {
	for _, path := range []string{s.VectorsPath(), s.MetadataPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// IndexFileSize returns the vector file size in bytes.
func (s *Store) IndexFileSize() (int64, error) {
	info, err := os.Stat(s.VectorsPath())
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
