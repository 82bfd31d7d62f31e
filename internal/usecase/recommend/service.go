// Package recommend implements the retrieval pipeline: embed the query,
// over-fetch nearest neighbors, join to the catalog, filter, re-sort by
// tone, and truncate.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/bookwise/bookwise/internal/domain"
	domrec "github.com/bookwise/bookwise/internal/domain/recommend"
	"github.com/bookwise/bookwise/internal/logger"
	"github.com/bookwise/bookwise/internal/metrics"
)

// Service runs recommendation queries. Stateless between calls; the same
// request against the same catalog and index yields the same results.
type Service struct {
	embed   Embedder
	index   VectorIndex
	catalog CatalogReader
	timeout time.Duration
}

// New creates a recommendation service. timeout bounds one whole query;
// zero means the caller's context deadline applies alone.
func New(embed Embedder, index VectorIndex, catalog CatalogReader, timeout time.Duration) *Service {
	return &Service{embed: embed, index: index, catalog: catalog, timeout: timeout}
}

// Recommend executes the full pipeline for a validated request.
// An empty result is not an error: it means no candidate survived the
// filters. Index hits whose identifier is missing from the catalog are
// dropped silently.
func (s *Service) Recommend(ctx context.Context, req *domrec.Request) ([]domrec.Recommendation, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	recs, err := s.run(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrDeadlineExceeded) {
			err = fmt.Errorf("%w: %w", domain.ErrDeadlineExceeded, err)
		}
		metrics.RecommendationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(recs) == 0 {
		metrics.RecommendationsTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.RecommendationsTotal.WithLabelValues("ok").Inc()
	}
	return recs, nil
}

func (s *Service) run(ctx context.Context, req *domrec.Request) ([]domrec.Recommendation, error) {
	if req.FiltersCategory() && !s.catalog.HasCategory(req.Category()) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, req.Category())
	}

	embRes, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	candidates, err := s.index.Query(ctx, embRes.Embedding, req.OverFetch())
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	recs := s.join(ctx, candidates, req)

	// Tone re-sort is stable: on equal tone scores the similarity
	// ordering from the index is preserved.
	if req.FiltersTone() {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].ToneScore > recs[j].ToneScore
		})
	}

	if len(recs) > req.Limit() {
		recs = recs[:req.Limit()]
	}
	return recs, nil
}

// join resolves candidates against the catalog in index order, applying
// the category filter and attaching tone scores.
func (s *Service) join(ctx context.Context, candidates []domrec.Candidate, req *domrec.Request) []domrec.Recommendation {
	recs := make([]domrec.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		book, err := s.catalog.Lookup(c.ID)
		if err != nil {
			logger.FromContext(ctx).Debug("Dropping index hit absent from catalog",
				zap.String("identifier", c.ID))
			continue
		}
		if req.FiltersCategory() && book.Category != req.Category() {
			continue
		}

		rec := domrec.Recommendation{Book: book, Similarity: c.Similarity}
		if req.FiltersTone() {
			rec.ToneScore = book.Emotions.Score(req.Tone())
			rec.HasTone = true
		}
		recs = append(recs, rec)
	}
	return recs
}

// Filters returns the selectable filter values: catalog categories with
// the "All" sentinel first, and the tone names in their fixed order.
func (s *Service) Filters() (categories []string, tones []string) {
	categories = append([]string{domain.AllSentinel}, s.catalog.Categories()...)
	tones = append(tones, domain.AllSentinel)
	for _, t := range domain.Tones() {
		tones = append(tones, t.String())
	}
	return categories, tones
}
