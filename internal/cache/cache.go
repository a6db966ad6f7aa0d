// Package cache stores extraction output keyed by document content.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/teachload/internal/model"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// New builds the cache described by cfg: memory only, or memory over disk
// when a directory is configured. It returns nil when caching is disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.TTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
}

// Key builds a cache key from a content digest and the parts that change the
// extraction result (backend name, mode).
func Key(digest string, parts ...string) string {
	return "teachload:v1:" + strings.Join(parts, ":") + ":" + digest
}

// FileDigest returns the hex sha256 of a file's content.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
