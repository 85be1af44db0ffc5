package domain

import "errors"

var (
	// ErrEmptyCorpus means there were no passages to build from.
	ErrEmptyCorpus = errors.New("no passages to index")

	// ErrEmptyInput means a vector collection was built from zero vectors.
	ErrEmptyInput = errors.New("no vectors to build index from")

	// ErrDimensionMismatch means vectors of different dimensions met,
	// typically because the embedding model changed between build and
	// query. The index must be rebuilt.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyIndex means the index holds no vectors.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrNoIndex means no index has been built or persisted yet.
	ErrNoIndex = errors.New("no index found")

	// ErrIndexLoad means the persisted index pair is missing, truncated
	// or mutually inconsistent and must be rebuilt.
	ErrIndexLoad = errors.New("index corrupted or unreadable")
)
