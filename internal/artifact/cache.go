package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"lambda-ml/internal/storage"
)

type DecodeFunc[T any] func(data []byte) (T, error)

// Cache holds the model stored at bucket/key. Get checks the object's ETag on every call and
// only downloads and decodes the object again when it changed.
type Cache[T any] struct {
	store  storage.Provider
	bucket string
	key    string
	decode DecodeFunc[T]

	mu     sync.RWMutex
	etag   string
	value  T
	loaded bool
}

func NewCache[T any](store storage.Provider, bucket, key string, decode DecodeFunc[T]) *Cache[T] {
	return &Cache[T]{store: store, bucket: bucket, key: key, decode: decode}
}

func (c *Cache[T]) current(etag string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.loaded && c.etag == etag
}

func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	var zero T

	info, err := c.store.HeadObject(ctx, c.bucket, c.key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return zero, fmt.Errorf("%w: s3://%s/%s", ErrArtifactNotFound, c.bucket, c.key)
		}
		return zero, fmt.Errorf("error checking model %s/%s: %w", c.bucket, c.key, err)
	}

	if value, ok := c.current(info.ETag); ok {
		return value, nil
	}

	data, err := c.store.GetObject(ctx, c.bucket, c.key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return zero, fmt.Errorf("%w: s3://%s/%s", ErrArtifactNotFound, c.bucket, c.key)
		}
		return zero, fmt.Errorf("error downloading model %s/%s: %w", c.bucket, c.key, err)
	}

	value, err := c.decode(data)
	if err != nil {
		return zero, fmt.Errorf("error decoding model %s/%s: %w", c.bucket, c.key, err)
	}

	c.mu.Lock()
	c.value, c.etag, c.loaded = value, info.ETag, true
	c.mu.Unlock()

	slog.Info("model loaded", "bucket", c.bucket, "key", c.key, "etag", info.ETag)
	return value, nil
}
