package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bookwise/bookwise/internal/domain"
)

type mockBatchEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	fail  bool
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return domain.BatchEmbeddingResult{}, domain.ErrEmbeddingUnavailable
	}
	m.calls = append(m.calls, texts)
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{0.1, 0.2}
	}
	return domain.BatchEmbeddingResult{Embeddings: vecs}, nil
}

type mockIndexWriter struct {
	mu       sync.Mutex
	count    int
	upserted []string
	ensured  bool
	failUp   bool
}

func (m *mockIndexWriter) EnsureIndex(context.Context) error {
	m.ensured = true
	return nil
}

func (m *mockIndexWriter) UpsertBatch(_ context.Context, ids []string, vectors [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUp {
		return domain.ErrIndexUnavailable
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("length mismatch")
	}
	m.upserted = append(m.upserted, ids...)
	return nil
}

func (m *mockIndexWriter) Count(context.Context) (int, error) {
	return m.count, nil
}

type staticCatalog struct{ books []domain.Book }

func (c *staticCatalog) Books() []domain.Book { return c.books }
func (c *staticCatalog) Len() int             { return len(c.books) }

func testBooks(n int) []domain.Book {
	books := make([]domain.Book, n)
	for i := range books {
		books[i] = domain.Book{
			ID:          fmt.Sprintf("978%04d", i),
			Description: fmt.Sprintf("description %d", i),
		}
	}
	return books
}

func TestRun_IngestsEveryBook(t *testing.T) {
	catalog := &staticCatalog{books: testBooks(10)}
	embed := &mockBatchEmbedder{}
	index := &mockIndexWriter{}

	svc := New(embed, index, catalog, 3, 4, zap.NewNop())
	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !index.ensured {
		t.Error("index was not ensured before ingestion")
	}
	if len(index.upserted) != 10 {
		t.Fatalf("expected 10 upserts, got %d", len(index.upserted))
	}

	sort.Strings(index.upserted)
	for i, id := range index.upserted {
		want := fmt.Sprintf("978%04d", i)
		if id != want {
			t.Errorf("missing upsert for %s, got %s", want, id)
		}
	}
}

func TestRun_SkipsWhenIndexPopulated(t *testing.T) {
	catalog := &staticCatalog{books: testBooks(5)}
	embed := &mockBatchEmbedder{}
	index := &mockIndexWriter{count: 5}

	svc := New(embed, index, catalog, 2, 2, zap.NewNop())
	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(embed.calls) != 0 {
		t.Errorf("expected no embedding calls, got %d", len(embed.calls))
	}
}

func TestRun_EmbedderFailureStopsIngestion(t *testing.T) {
	catalog := &staticCatalog{books: testBooks(8)}
	embed := &mockBatchEmbedder{fail: true}
	index := &mockIndexWriter{}

	svc := New(embed, index, catalog, 2, 4, zap.NewNop())
	err := svc.Run(context.Background())
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

// A failing embedder must not wedge Run: with more batches than workers
// every worker exits on its first batch, and the feeder has to notice
// instead of blocking on a channel nobody reads.
func TestRun_ReturnsWhenAllWorkersFail(t *testing.T) {
	catalog := &staticCatalog{books: testBooks(100)}
	embed := &mockBatchEmbedder{fail: true}
	index := &mockIndexWriter{}

	svc := New(embed, index, catalog, 2, 1, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after every worker failed")
	}
}

func TestRun_UpsertFailurePropagates(t *testing.T) {
	catalog := &staticCatalog{books: testBooks(4)}
	index := &mockIndexWriter{failUp: true}

	svc := New(&mockBatchEmbedder{}, index, catalog, 1, 2, zap.NewNop())
	err := svc.Run(context.Background())
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestRun_RespectsBatchSize(t *testing.T) {
	catalog := &staticCatalog{books: testBooks(10)}
	embed := &mockBatchEmbedder{}
	index := &mockIndexWriter{}

	svc := New(embed, index, catalog, 1, 4, zap.NewNop())
	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 10 books in batches of 4: sizes 4, 4, 2.
	sizes := make([]int, len(embed.calls))
	for i, c := range embed.calls {
		sizes[i] = len(c)
	}
	sort.Ints(sizes)
	if len(sizes) != 3 || sizes[0] != 2 || sizes[1] != 4 || sizes[2] != 4 {
		t.Errorf("unexpected batch sizes %v", sizes)
	}
}

func TestTaggedDescription(t *testing.T) {
	tests := []struct {
		name string
		book domain.Book
		want string
	}{
		{
			name: "short description",
			book: domain.Book{ID: "9780001", Description: "A tale."},
			want: "9780001 A tale.",
		},
		{
			name: "falls back to full description",
			book: domain.Book{ID: "9780002", FullDescription: "Long tale."},
			want: "9780002 Long tale.",
		},
		{
			name: "no description at all",
			book: domain.Book{ID: "9780003"},
			want: "9780003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TaggedDescription(tt.book); got != tt.want {
				t.Errorf("TaggedDescription() = %q, want %q", got, tt.want)
			}
		})
	}
}
