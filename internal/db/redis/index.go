package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/bookwise/bookwise/internal/db"
)

// CreateIndex creates the book FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// buildCreateArgs assembles FT.CREATE arguments for the book index:
// HASH storage, identifier TAG field, HNSW FLOAT32 cosine vector field.
func buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if def.KeyPrefix == "" {
		return nil, errors.New("key prefix is required")
	}
	if def.VectorDim <= 0 {
		return nil, errors.New("vector dimension must be positive")
	}

	args := []string{
		def.Name,
		"ON", "HASH",
		"PREFIX", "1", def.KeyPrefix,
		"SCHEMA",
		"id", "TAG",
		"vector", "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(def.VectorDim),
		"DISTANCE_METRIC", "COSINE",
		"M", strconv.Itoa(def.HNSWM),
		"EF_CONSTRUCTION", strconv.Itoa(def.HNSWEFConstruct),
	}
	return args, nil
}
