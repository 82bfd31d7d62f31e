package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bookwise/bookwise/internal/domain"
	"github.com/bookwise/bookwise/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// embeddingAPIResponse mirrors the OpenAI-compatible embedding response.
type embeddingAPIResponse struct {
	Object string             `json:"object"`
	Data   []embeddingAPIData `json:"data"`
	Model  string             `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

type embeddingAPIData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

func embeddingServer(t *testing.T, vectors ...[]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		resp := embeddingAPIResponse{Object: "list", Model: "test-model"}
		for i, vec := range vectors {
			resp.Data = append(resp.Data, embeddingAPIData{
				Object: "embedding", Embedding: vec, Index: i,
			})
		}
		resp.Usage.PromptTokens = 10
		resp.Usage.TotalTokens = 12

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestEmbedder(serverURL string) *Embedder {
	return NewEmbedder(&Config{
		APIKey:   "test-key",
		BaseURL:  serverURL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestEmbed(t *testing.T) {
	expectedVec := []float32{0.1, 0.2, 0.3, 0.4}
	server := embeddingServer(t, expectedVec)
	defer server.Close()

	emb := newTestEmbedder(server.URL)

	result, err := emb.Embed(context.Background(), "a heartwarming story")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(result.Embedding) != len(expectedVec) {
		t.Fatalf("expected %d dimensions, got %d", len(expectedVec), len(result.Embedding))
	}
	for i, v := range result.Embedding {
		if v != expectedVec[i] {
			t.Errorf("vec[%d] = %f, expected %f", i, v, expectedVec[i])
		}
	}
	if result.TotalTokens != 12 || result.PromptTokens != 10 {
		t.Errorf("unexpected usage: %+v", result)
	}
}

func TestBatchEmbed(t *testing.T) {
	server := embeddingServer(t, []float32{0.1}, []float32{0.2})
	defer server.Close()

	emb := newTestEmbedder(server.URL)

	result, err := emb.BatchEmbed(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("BatchEmbed failed: %v", err)
	}
	if len(result.Embeddings) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(result.Embeddings))
	}
}

func TestEmbed_ShortResponse(t *testing.T) {
	server := embeddingServer(t) // zero vectors back
	defer server.Close()

	emb := newTestEmbedder(server.URL)

	_, err := emb.Embed(context.Background(), "text")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestEmbed_APIErrorWrapsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "upstream exploded"}`))
	}))
	defer server.Close()

	emb := newTestEmbedder(server.URL)

	_, err := emb.Embed(context.Background(), "text")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestEmbed_DeadlineMapsToDeadlineExceeded(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		server.Close()
	}()

	emb := newTestEmbedder(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := emb.Embed(ctx, "text")
	if !errors.Is(err, domain.ErrDeadlineExceeded) {
		t.Fatalf("expected ErrDeadlineExceeded, got %v", err)
	}
}
