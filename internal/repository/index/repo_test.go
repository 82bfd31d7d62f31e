package index

import (
	"context"
	"errors"
	"testing"

	"github.com/bookwise/bookwise/internal/db"
	"github.com/bookwise/bookwise/internal/domain"
)

func TestQuery_OrderedBySimilarityDesc(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{
			Total: 3,
			Entries: []db.SearchEntry{
				knnEntry("b", 0.9),
				knnEntry("a", 0.7),
				knnEntry("c", 0.5),
			},
		}, nil
	}

	got, err := repo.Query(context.Background(), []float32{0.1, 0.2, 0.3, 0.4}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantIDs := []string{"b", "a", "c"}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d candidates, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestQuery_TieBrokenByIdentifierAscending(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{
			Total: 3,
			Entries: []db.SearchEntry{
				knnEntry("zzz", 0.8),
				knnEntry("aaa", 0.8),
				knnEntry("mmm", 0.8),
			},
		}, nil
	}

	got, err := repo.Query(context.Background(), []float32{1, 0, 0, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantIDs := []string{"aaa", "mmm", "zzz"}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestQuery_StoreFailureIsIndexUnavailable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("connection refused")}
	}

	_, err := repo.Query(context.Background(), []float32{1, 0, 0, 0}, 5)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestQuery_EmptyResult(t *testing.T) {
	repo, _ := newTestRepo(t)

	got, err := repo.Query(context.Background(), []float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty candidates, got %d", len(got))
	}
}

func TestUpsert_KeyUsesPrefix(t *testing.T) {
	repo, ms := newTestRepo(t)

	if err := repo.Upsert(context.Background(), "9780001", []float32{1, 2, 3, 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms.hsetKeys) != 1 || ms.hsetKeys[0] != "test:books:9780001" {
		t.Errorf("unexpected keys written: %v", ms.hsetKeys)
	}
}

func TestUpsertBatch_LengthMismatch(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.UpsertBatch(context.Background(), []string{"a", "b"}, [][]float32{{1}})
	if err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestUpsertBatch_PipelinesAllItems(t *testing.T) {
	repo, ms := newTestRepo(t)

	ids := []string{"a", "b", "c"}
	vecs := [][]float32{{1}, {2}, {3}}
	if err := repo.UpsertBatch(context.Background(), ids, vecs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms.hsetMultiCall) != 1 || len(ms.hsetMultiCall[0]) != 3 {
		t.Fatalf("expected one batch of 3 items, got %v", ms.hsetMultiCall)
	}
}

func TestEnsureIndex_SkipsWhenPresent(t *testing.T) {
	repo, ms := newTestRepo(t)
	created := false
	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		created = true
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("CreateIndex should not be called when the index exists")
	}
}

func TestEnsureIndex_ToleratesConcurrentCreate(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return db.ErrIndexExists
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
