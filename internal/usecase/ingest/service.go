// Package ingest populates the vector index from the catalog: it embeds
// each book's tagged description and writes the vectors in pipelined
// batches.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/bookwise/bookwise/internal/domain"
)

// IndexWriter writes vectors to the index and reports its size.
type IndexWriter interface {
	EnsureIndex(ctx context.Context) error
	UpsertBatch(ctx context.Context, ids []string, vectors [][]float32) error
	Count(ctx context.Context) (int, error)
}

// CatalogSource supplies the records to index.
type CatalogSource interface {
	Books() []domain.Book
	Len() int
}

// Service drives the catalog-to-index ingestion.
type Service struct {
	embed     domain.BatchEmbedder
	index     IndexWriter
	catalog   CatalogSource
	workers   int
	batchSize int
	logger    *zap.Logger
}

// New creates an ingestion service. workers bounds concurrent embedding
// batches; batchSize is the number of descriptions per embedding call.
func New(embed domain.BatchEmbedder, index IndexWriter, catalog CatalogSource, workers, batchSize int, logger *zap.Logger) *Service {
	if workers <= 0 {
		workers = 4
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Service{
		embed:     embed,
		index:     index,
		catalog:   catalog,
		workers:   workers,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run ensures the index exists and fills it from the catalog. When the
// index already holds one vector per catalog record the embedding pass
// is skipped entirely.
func (s *Service) Run(ctx context.Context) error {
	if err := s.index.EnsureIndex(ctx); err != nil {
		return err
	}

	indexed, err := s.index.Count(ctx)
	if err != nil {
		return err
	}
	if indexed == s.catalog.Len() {
		s.logger.Info("Index already populated, skipping ingestion",
			zap.Int("books", indexed))
		return nil
	}

	books := s.catalog.Books()
	s.logger.Info("Ingesting catalog into vector index",
		zap.Int("books", len(books)),
		zap.Int("indexed", indexed),
		zap.Int("workers", s.workers),
		zap.Int("batch_size", s.batchSize),
	)

	// runCtx is canceled on the first worker error so the feeder never
	// blocks sending to a pool that has stopped receiving.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	batches := make(chan []domain.Book)
	errCh := make(chan error, s.workers)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				if err := s.ingestBatch(runCtx, batch); err != nil {
					select {
					case errCh <- err:
					default:
					}
					cancel()
					return
				}
			}
		}()
	}

feed:
	for start := 0; start < len(books); start += s.batchSize {
		end := start + s.batchSize
		if end > len(books) {
			end = len(books)
		}
		select {
		case batches <- books[start:end]:
		case <-runCtx.Done():
			break feed
		}
	}
	close(batches)
	wg.Wait()

	select {
	case err := <-errCh:
		return fmt.Errorf("ingest: %w", err)
	default:
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	s.logger.Info("Ingestion complete", zap.Int("books", len(books)))
	return nil
}

// ingestBatch embeds one batch of tagged descriptions and writes the
// vectors in a single pipelined upsert.
func (s *Service) ingestBatch(ctx context.Context, batch []domain.Book) error {
	ids := make([]string, len(batch))
	texts := make([]string, len(batch))
	for i, b := range batch {
		ids[i] = b.ID
		texts[i] = TaggedDescription(b)
	}

	res, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(res.Embeddings) != len(ids) {
		return fmt.Errorf("embed batch: got %d vectors for %d texts", len(res.Embeddings), len(ids))
	}

	if err := s.index.UpsertBatch(ctx, ids, res.Embeddings); err != nil {
		return err
	}
	return nil
}

// TaggedDescription is the text that gets embedded for a book: the
// identifier prefixed to the description, so the identifier can be
// recovered from retrieval text if needed.
func TaggedDescription(b domain.Book) string {
	text := b.Description
	if text == "" {
		text = b.FullDescription
	}
	if text == "" {
		return b.ID
	}
	return b.ID + " " + text
}
