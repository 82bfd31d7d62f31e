package bookwise

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bookwise/bookwise/internal/catalog"
	dbRedis "github.com/bookwise/bookwise/internal/db/redis"
	"github.com/bookwise/bookwise/internal/domain"
	domrec "github.com/bookwise/bookwise/internal/domain/recommend"
	indexrepo "github.com/bookwise/bookwise/internal/repository/index"
	openaiEmb "github.com/bookwise/bookwise/internal/transport/openai"
	healthuc "github.com/bookwise/bookwise/internal/usecase/health"
	ingestuc "github.com/bookwise/bookwise/internal/usecase/ingest"
	recommenduc "github.com/bookwise/bookwise/internal/usecase/recommend"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the bookwise SDK entry point.
type Client struct {
	store     *dbRedis.Store
	catalog   *catalog.Store
	recommend *recommenduc.Service
	ingest    *ingestuc.Service
	health    *healthuc.Service
	overFetch int
	limit     int
}

// Recommendation is a single result from the pipeline.
type Recommendation struct {
	ID          string
	Title       string
	Authors     []string
	Category    string
	Description string
	Thumbnail   string
	Rating      float64
	Similarity  float64
	ToneScore   float64
	HasTone     bool
}

// New creates a bookwise Client, connects to Redis, and loads the
// catalog. The context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		indexName:       "bookwise:books:idx",
		keyPrefix:       "bookwise:books:",
		overFetch:       domrec.DefaultOverFetch,
		limit:           domrec.DefaultLimit,
		ingestWorkers:   4,
		ingestBatchSize: 32,
		logger:          zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("bookwise: redis address required (use WithRedis)")
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	books, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("bookwise: create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("bookwise: redis not ready: %w", err)
	}

	repo := indexrepo.New(store, indexrepo.Config{
		Name:            cfg.indexName,
		KeyPrefix:       cfg.keyPrefix,
		VectorDim:       cfg.vectorDimensions,
		HNSWM:           cfg.hnswM,
		HNSWEFConstruct: cfg.hnswEFConstruct,
	})

	return &Client{
		store:     store,
		catalog:   books,
		recommend: recommenduc.New(embedder, repo, books, 0),
		ingest:    ingestuc.New(embedder, repo, books, cfg.ingestWorkers, cfg.ingestBatchSize, cfg.logger),
		health:    healthuc.New(store, nil, books),
		overFetch: cfg.overFetch,
		limit:     cfg.limit,
	}, nil
}

func buildEmbedder(cfg *clientConfig) (interface {
	domain.Embedder
	domain.BatchEmbedder
}, error) {
	if cfg.embedder != nil {
		return &embedderAdapter{inner: cfg.embedder}, nil
	}
	if cfg.openAIKey != "" {
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.openAIKey,
			BaseURL:    cfg.openAIBase,
			Model:      cfg.openAIModel,
			Dimensions: cfg.vectorDimensions,
			Logger:     cfg.logger,
		}), nil
	}
	return nil, errors.New("bookwise: embedder required (use WithEmbedder or WithOpenAI)")
}

func loadCatalog(cfg *clientConfig) (*catalog.Store, error) {
	if cfg.catalogSource != nil {
		s, err := catalog.Parse(cfg.catalogSource, cfg.logger)
		if err != nil {
			return nil, fmt.Errorf("bookwise: %w", err)
		}
		return s, nil
	}
	if cfg.catalogPath != "" {
		s, err := catalog.Load(cfg.catalogPath, cfg.logger)
		if err != nil {
			return nil, fmt.Errorf("bookwise: %w", err)
		}
		return s, nil
	}
	return nil, errors.New("bookwise: catalog required (use WithCatalogFile or WithCatalogSource)")
}

// Close releases the Redis connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ingest populates the vector index from the catalog. Safe to call on
// every start: a fully populated index is skipped.
func (c *Client) Ingest(ctx context.Context) error {
	return c.ingest.Run(ctx)
}

// QueryOption narrows a Recommend call.
type QueryOption func(*queryParams)

type queryParams struct {
	category string
	tone     string
	limit    int
}

// InCategory keeps only books whose category matches exactly.
func InCategory(category string) QueryOption {
	return func(p *queryParams) { p.category = category }
}

// WithTone re-sorts results by the given emotional tone
// (Happy, Surprising, Angry, Suspenseful, Sad).
func WithTone(tone string) QueryOption {
	return func(p *queryParams) { p.tone = tone }
}

// Limit caps the number of results for this call.
func Limit(n int) QueryOption {
	return func(p *queryParams) { p.limit = n }
}

// Recommend runs the retrieval pipeline for a free-text query.
func (c *Client) Recommend(ctx context.Context, query string, opts ...QueryOption) ([]Recommendation, error) {
	p := queryParams{limit: c.limit}
	for _, o := range opts {
		o(&p)
	}

	req, err := domrec.NewRequest(query, p.category, p.tone, c.overFetch, p.limit)
	if err != nil {
		return nil, err
	}

	recs, err := c.recommend.Recommend(ctx, &req)
	if err != nil {
		return nil, err
	}

	out := make([]Recommendation, len(recs))
	for i, r := range recs {
		out[i] = Recommendation{
			ID:          r.Book.ID,
			Title:       r.Book.Title,
			Authors:     r.Book.Authors,
			Category:    r.Book.Category,
			Description: r.Book.Description,
			Thumbnail:   r.Book.Thumbnail,
			Rating:      r.Book.Rating,
			Similarity:  r.Similarity,
			ToneScore:   r.ToneScore,
			HasTone:     r.HasTone,
		}
	}
	return out, nil
}

// Filters returns the selectable filter values: categories with the
// "All" sentinel first, then the tone names.
func (c *Client) Filters() (categories []string, tones []string) {
	return c.recommend.Filters()
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok" or "degraded"
	Checks map[string]string // component to "ok"/"error"
}

// Health checks every component.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}
