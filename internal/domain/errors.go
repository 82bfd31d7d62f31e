package domain

import "errors"

var (
	// ErrInvalidQuery signals an empty or whitespace-only search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrDataLoad signals an unreadable or malformed catalog source.
	ErrDataLoad = errors.New("catalog data load failed")
	// ErrBookNotFound signals a missing catalog record.
	ErrBookNotFound = errors.New("book not found")
	// ErrUnknownTone signals a tone outside the supported set.
	ErrUnknownTone = errors.New("unknown tone")
	// ErrUnknownCategory signals a category filter not present in the catalog.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrEmbeddingUnavailable signals an embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrIndexUnavailable signals a vector index failure.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrDeadlineExceeded signals a collaborator call that ran out of time.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
)
