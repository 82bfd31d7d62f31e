package bookwise

import (
	"io"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	embedder    Embedder
	openAIKey   string
	openAIBase  string
	openAIModel string

	catalogPath   string
	catalogSource io.Reader

	vectorDimensions int
	indexName        string
	keyPrefix        string
	hnswM            int
	hnswEFConstruct  int
	overFetch        int
	limit            int
	ingestWorkers    int
	ingestBatchSize  int

	logger *zap.Logger
}

// WithRedis configures the Redis connection.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets a custom embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI configures the built-in OpenAI-compatible embedding
// provider. dimensions must match the index the vectors land in.
func WithOpenAI(apiKey, model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIModel = model
		c.vectorDimensions = dimensions
	})
}

// WithOpenAIBaseURL points the built-in provider at a compatible API.
func WithOpenAIBaseURL(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIBase = baseURL
	})
}

// WithCatalogFile loads the book catalog from a CSV file.
func WithCatalogFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogPath = path
	})
}

// WithCatalogSource loads the book catalog from CSV content.
func WithCatalogSource(r io.Reader) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogSource = r
	})
}

// WithIndex overrides the index name and key prefix.
// Defaults: "bookwise:books:idx" and "bookwise:books:".
func WithIndex(name, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexName = name
		c.keyPrefix = keyPrefix
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithRetrieval tunes the pipeline: overFetch candidates are pulled from
// the index before filtering, limit results come back. Defaults: 50 and 16.
func WithRetrieval(overFetch, limit int) Option {
	return optionFunc(func(c *clientConfig) {
		c.overFetch = overFetch
		c.limit = limit
	})
}

// WithIngestion tunes bulk indexing concurrency and batch size.
// Defaults: 4 workers, batches of 32.
func WithIngestion(workers, batchSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.ingestWorkers = workers
		c.ingestBatchSize = batchSize
	})
}

// WithLogger enables structured logging for client operations.
// Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
