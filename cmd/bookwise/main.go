package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bookwise/bookwise/internal/catalog"
	"github.com/bookwise/bookwise/internal/config"
	dbRedis "github.com/bookwise/bookwise/internal/db/redis"
	"github.com/bookwise/bookwise/internal/domain"
	logpkg "github.com/bookwise/bookwise/internal/logger"
	"github.com/bookwise/bookwise/internal/metrics"
	"github.com/bookwise/bookwise/internal/present"
	"github.com/bookwise/bookwise/internal/repository/embcache"
	indexrepo "github.com/bookwise/bookwise/internal/repository/index"
	chiTransport "github.com/bookwise/bookwise/internal/transport/chi"
	openaiEmb "github.com/bookwise/bookwise/internal/transport/openai"
	embeddinguc "github.com/bookwise/bookwise/internal/usecase/embedding"
	healthuc "github.com/bookwise/bookwise/internal/usecase/health"
	ingestuc "github.com/bookwise/bookwise/internal/usecase/ingest"
	recommenduc "github.com/bookwise/bookwise/internal/usecase/recommend"
	"github.com/bookwise/bookwise/internal/version"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bookwise API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store")

	metrics.Register()

	// Catalog is mandatory: without it there is nothing to recommend.
	books, err := catalog.Load(cfg.Catalog.Path, logger)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	// Query embedder chain: OpenAI -> Cached -> RateLimited -> Instrumented.
	var queryEmbedder domain.Embedder = base
	if cfg.Embedding.CacheEnabled {
		queryEmbedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}
	queryEmbedder = embeddinguc.NewRateLimitedEmbedder(queryEmbedder, cfg.Embedding.RequestsPerSec)
	queryEmbedder = embeddinguc.NewInstrumentedEmbedder(queryEmbedder, "openai", cfg.Embedding.Model, logger)

	// Ingestion embeds each description exactly once, so it bypasses the
	// cache and batches straight against the provider.
	ingestEmbedder := embeddinguc.NewRateLimitedEmbedder(base, cfg.Embedding.RequestsPerSec)

	logger.Info("Embedders created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.CacheEnabled),
	)

	indexRepo := indexrepo.New(store, indexrepo.Config{
		Name:            cfg.Index.Name,
		KeyPrefix:       cfg.Index.KeyPrefix,
		VectorDim:       cfg.Embedding.Dimensions,
		HNSWM:           cfg.Index.HNSWM,
		HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
	})

	ingestSvc := ingestuc.New(
		ingestEmbedder, indexRepo, books,
		cfg.Index.IngestWorkers, cfg.Index.IngestBatchSize, logger,
	)
	if err := ingestSvc.Run(ctx); err != nil {
		logger.Fatal("Failed to populate vector index", zap.Error(err))
	}

	recommendSvc := recommenduc.New(
		queryEmbedder, indexRepo, books,
		time.Duration(cfg.Recommend.QueryTimeoutSec)*time.Second,
	)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(base), books)
	presenter := present.New(cfg.Recommend.DescriptionWords, cfg.Catalog.FallbackThumbnail)

	server := chiTransport.NewServer(recommendSvc, healthSvc, presenter, cfg.Recommend.OverFetch, cfg.Recommend.Limit, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request.
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
