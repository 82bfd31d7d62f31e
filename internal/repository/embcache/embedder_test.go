package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bookwise/bookwise/internal/db"
	"github.com/bookwise/bookwise/internal/domain"
)

type mockKV struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string][]byte)}
}

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKV) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

type countingEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (e *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	return e.result, e.err
}

func TestEmbed_MissThenHit(t *testing.T) {
	kv := newMockKV()
	inner := &countingEmbedder{
		result: domain.EmbeddingResult{Embedding: []float32{0.5, -1.25}, TotalTokens: 7},
	}
	cached := New(inner, kv, nil, zap.NewNop())

	first, err := cached.Embed(context.Background(), "cozy mystery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
	if first.TotalTokens != 7 {
		t.Errorf("miss should carry inner token usage, got %d", first.TotalTokens)
	}

	second, err := cached.Embed(context.Background(), "cozy mystery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("hit should not call inner, got %d calls", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit should report zero tokens, got %d", second.TotalTokens)
	}
	if len(second.Embedding) != 2 || second.Embedding[0] != 0.5 || second.Embedding[1] != -1.25 {
		t.Errorf("cached vector corrupted: %v", second.Embedding)
	}
}

func TestEmbed_StoreFailureFallsThrough(t *testing.T) {
	kv := newMockKV()
	kv.getErr = errors.New("connection reset")
	kv.setErr = errors.New("connection reset")
	inner := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	cached := New(inner, kv, nil, zap.NewNop())

	if _, err := cached.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("store failure must not fail the embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected inner call on cache failure, got %d", inner.calls)
	}
}

func TestEmbed_InnerErrorPropagates(t *testing.T) {
	kv := newMockKV()
	inner := &countingEmbedder{err: domain.ErrEmbeddingUnavailable}
	cached := New(inner, kv, nil, zap.NewNop())

	_, err := cached.Embed(context.Background(), "q")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if len(kv.data) != 0 {
		t.Error("failed embedding must not be cached")
	}
}

func TestEmbed_CorruptCacheEntryIgnored(t *testing.T) {
	kv := newMockKV()
	inner := &countingEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	cached := New(inner, kv, nil, zap.NewNop())

	kv.data[cached.cacheKey("q")] = []byte("abc") // not a multiple of 4

	if _, err := cached.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry should fall through to inner, got %d calls", inner.calls)
	}
}
