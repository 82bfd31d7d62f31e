package recommend

import (
	"context"

	"github.com/bookwise/bookwise/internal/domain"
	domrec "github.com/bookwise/bookwise/internal/domain/recommend"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorIndex runs nearest-neighbor queries over the book vectors.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, k int) ([]domrec.Candidate, error)
}

// CatalogReader joins index hits back to full catalog records.
type CatalogReader interface {
	Lookup(id string) (domain.Book, error)
	Categories() []string
	HasCategory(category string) bool
}
