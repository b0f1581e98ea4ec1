package knowledge

import (
	"context"
	"fmt"
	"time"

	"CoPenny/internal/domain/models"
	"CoPenny/pkg/cache"
	pkghttp "CoPenny/pkg/http"
	"CoPenny/pkg/logger"
)

// Client retrieves ranked text chunks from the external vector store
// service. Results are cached per (query, namespace, topK).
type Client struct {
	baseURL  string
	topK     int
	cacheTTL time.Duration
	http     *pkghttp.Client
	cache    cache.Service
	log      *logger.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithCache attaches a result cache.
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(k *Client) {
		k.cache = c
		k.cacheTTL = ttl
	}
}

// WithLogger attaches a logger.
func WithLogger(l *logger.Logger) Option {
	return func(k *Client) { k.log = l }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(k *Client) { k.http = pkghttp.NewClient(pkghttp.WithTimeout(d)) }
}

// NewClient creates a knowledge store client.
func NewClient(baseURL string, defaultTopK int, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		topK:     defaultTopK,
		cacheTTL: 10 * time.Minute,
		http:     pkghttp.NewClient(pkghttp.WithTimeout(10 * time.Second)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.topK <= 0 {
		c.topK = 5
	}
	return c
}

type retrieveRequest struct {
	Query     string `json:"query"`
	Namespace string `json:"namespace,omitempty"`
	TopK      int    `json:"top_k"`
}

type retrieveResponse struct {
	Results []models.Chunk `json:"results"`
}

// Retrieve returns the most relevant chunks, best first. May return
// empty. An unreachable service yields nil chunks and the error, so
// callers can degrade.
func (c *Client) Retrieve(ctx context.Context, query, namespace string, topK int) ([]models.Chunk, error) {
	if topK <= 0 {
		topK = c.topK
	}

	key := cacheKey(query, namespace, topK)
	if c.cache != nil {
		var cached []models.Chunk
		if err := c.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	var resp retrieveResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.baseURL + "/retrieve",
		Body: retrieveRequest{
			Query:     query,
			Namespace: namespace,
			TopK:      topK,
		},
	}, &resp)
	if err != nil {
		if c.log != nil {
			c.log.Warn("knowledge retrieval failed", logger.Error(err))
		}
		return nil, fmt.Errorf("knowledge retrieve: %w", err)
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, key, resp.Results, c.cacheTTL)
	}
	return resp.Results, nil
}

// cacheKey hashes the query so free-text never lands in a redis key.
func cacheKey(query, namespace string, topK int) string {
	return cache.GenerateKey("knowledge", cache.HashKey(cache.GenerateKeyWithParams(namespace, topK, query)))
}
