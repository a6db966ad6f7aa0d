package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ppiankov/teachload/internal/cache"
	"github.com/ppiankov/teachload/internal/model"
)

// Cached wraps a backend and memoizes its output by document content.
type Cached struct {
	Backend
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps b. A nil store returns b unchanged.
func NewCached(b Backend, store cache.Cache, ttl time.Duration, logger *slog.Logger) Backend {
	if store == nil {
		return b
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{Backend: b, cache: store, ttl: ttl, logger: logger}
}

// ExtractText serves page text from the cache when the content was seen.
func (c *Cached) ExtractText(ctx context.Context, path string) ([]model.TextPage, error) {
	return cachedCall(c, path, model.ModeText, func() ([]model.TextPage, error) {
		return c.Backend.ExtractText(ctx, path)
	})
}

// ExtractGrid serves tables from the cache when the content was seen.
func (c *Cached) ExtractGrid(ctx context.Context, path string) ([]model.GridTable, error) {
	return cachedCall(c, path, model.ModeGrid, func() ([]model.GridTable, error) {
		return c.Backend.ExtractGrid(ctx, path)
	})
}

func cachedCall[T any](c *Cached, path, mode string, extract func() ([]T, error)) ([]T, error) {
	digest, err := cache.FileDigest(path)
	if err != nil {
		return nil, err
	}
	parts := []string{c.Name(), mode}
	if f, ok := c.Backend.(Fingerprinter); ok {
		parts = append(parts, f.Fingerprint())
	}
	key := cache.Key(digest, parts...)

	if data, ok := c.cache.Get(key); ok {
		var out []T
		if err := json.Unmarshal(data, &out); err == nil {
			c.logger.Debug("extraction cache hit", "path", path, "backend", c.Name(), "mode", mode)
			return out, nil
		}
		_ = c.cache.Delete(key)
	}

	out, err := extract()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(out); err == nil {
		if err := c.cache.Set(key, data, c.ttl); err != nil {
			c.logger.Warn("extraction cache write failed", "error", err)
		}
	}
	return out, nil
}
