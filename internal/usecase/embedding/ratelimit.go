package embedding

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/bookwise/bookwise/internal/domain"
)

// RateLimitedEmbedder throttles calls to the embedding provider so bulk
// ingestion cannot trip the provider's request quota.
type RateLimitedEmbedder struct {
	inner   domain.Embedder
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder wraps an embedder with a token-bucket limiter.
// requestsPerSec <= 0 disables throttling.
func NewRateLimitedEmbedder(inner domain.Embedder, requestsPerSec float64) *RateLimitedEmbedder {
	var limiter *rate.Limiter
	if requestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}
	return &RateLimitedEmbedder{inner: inner, limiter: limiter}
}

// Embed waits for limiter capacity, then delegates.
func (e *RateLimitedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return domain.EmbeddingResult{}, fmt.Errorf("rate limiter wait: %w", domain.ErrDeadlineExceeded)
			}
			return domain.EmbeddingResult{}, fmt.Errorf("rate limiter wait: %w", err)
		}
	}
	return e.inner.Embed(ctx, text)
}

// BatchEmbed consumes one limiter slot per batch call: the provider counts
// requests, not inputs.
func (e *RateLimitedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return domain.BatchEmbeddingResult{}, fmt.Errorf("rate limiter wait: %w", domain.ErrDeadlineExceeded)
			}
			return domain.BatchEmbeddingResult{}, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	if be, ok := e.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}

	// Fallback for inner embedders without native batch support.
	embeddings := make([][]float32, len(texts))
	var prompt, total int
	for i, text := range texts {
		res, err := e.inner.Embed(ctx, text)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		prompt += res.PromptTokens
		total += res.TotalTokens
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: prompt,
		TotalTokens:  total,
	}, nil
}
