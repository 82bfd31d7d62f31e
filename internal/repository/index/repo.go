// Package index is the domain-facing repository over the vector store:
// it upserts book vectors and answers nearest-neighbor queries.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bookwise/bookwise/internal/db"
	dbredis "github.com/bookwise/bookwise/internal/db/redis"
	"github.com/bookwise/bookwise/internal/domain"
	"github.com/bookwise/bookwise/internal/domain/recommend"
)

// store is the consumer interface for index operations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Config holds index naming and HNSW parameters.
type Config struct {
	Name            string
	KeyPrefix       string
	VectorDim       int
	HNSWM           int
	HNSWEFConstruct int
}

// Repo implements the retrieval pipeline's VectorIndex contract.
type Repo struct {
	store store
	cfg   Config
}

// New creates a vector index repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.cfg.Name)
	if err != nil {
		return fmt.Errorf("index exists %s: %w: %w", r.cfg.Name, domain.ErrIndexUnavailable, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:            r.cfg.Name,
		KeyPrefix:       r.cfg.KeyPrefix,
		VectorDim:       r.cfg.VectorDim,
		HNSWM:           r.cfg.HNSWM,
		HNSWEFConstruct: r.cfg.HNSWEFConstruct,
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w: %w", r.cfg.Name, domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Upsert stores a book vector. Re-upserting the same identifier replaces it.
func (r *Repo) Upsert(ctx context.Context, id string, vector []float32) error {
	err := r.store.HSet(ctx, r.cfg.KeyPrefix+id, map[string]string{
		"id":     id,
		"vector": dbredis.VectorToBytes(vector),
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w: %w", id, domain.ErrIndexUnavailable, err)
	}
	return nil
}

// UpsertBatch stores multiple book vectors in one pipelined round-trip.
func (r *Repo) UpsertBatch(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids/vectors length mismatch: %d != %d", len(ids), len(vectors))
	}

	items := make([]db.HashSetItem, len(ids))
	for i, id := range ids {
		items[i] = db.HashSetItem{
			Key: r.cfg.KeyPrefix + id,
			Fields: map[string]string{
				"id":     id,
				"vector": dbredis.VectorToBytes(vectors[i]),
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert batch: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Query returns up to k candidates ordered by descending similarity,
// ties broken by identifier ascending. The backend's relative order of
// equal-score hits is unspecified, so the tie-break is applied here.
func (r *Repo) Query(ctx context.Context, vector []float32, k int) ([]recommend.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:    r.cfg.Name,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"id", "__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("knn query: %w: %w", domain.ErrIndexUnavailable, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	candidates := make([]recommend.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := entry.Fields["id"]
		if id == "" {
			continue
		}
		candidates = append(candidates, recommend.Candidate{
			ID:         id,
			Similarity: entry.Score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].ID < candidates[j].ID
	})

	return candidates, nil
}

// Count returns the number of indexed books.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.cfg.Name, "*")
	if err != nil {
		return 0, fmt.Errorf("index count: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return n, nil
}
