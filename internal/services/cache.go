package services

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"databoard/internal/dataset"
	"databoard/internal/infrastructure"
)

// tableCache memoizes normalized tables per (path, modtime). A changed
// modtime is a miss, so a rewritten file is reloaded without explicit
// invalidation; the watcher still invalidates eagerly so editors that
// preserve modtimes cannot serve stale boards.
type tableCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

type cacheEntry struct {
	modTime time.Time
	table   *dataset.Table
}

func newTableCache(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *tableCache {
	return &tableCache{
		entries: make(map[string]cacheEntry),
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns the normalized table for path, loading it at most once per
// (path, modtime) even under concurrent requests. Callers must treat the
// returned table as immutable.
func (c *tableCache) Get(ctx context.Context, path string) (*dataset.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &dataset.SourceNotFoundError{Path: path}
		}
		return nil, err
	}
	modTime := info.ModTime()

	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && entry.modTime.Equal(modTime) {
		if c.metrics != nil {
			c.metrics.CacheHitsTotal.Add(ctx, 1)
		}
		return entry.table, nil
	}

	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Add(ctx, 1)
	}

	key := path + "|" + strconv.FormatInt(modTime.UnixNano(), 10)
	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		raw, err := dataset.Load(path)
		if c.metrics != nil {
			outcome := "success"
			if err != nil {
				outcome = "error"
			}
			c.metrics.DatasetLoadsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("outcome", outcome)))
		}
		if err != nil {
			return nil, err
		}
		table := dataset.Normalize(raw)

		c.mu.Lock()
		c.entries[path] = cacheEntry{modTime: modTime, table: table}
		c.mu.Unlock()
		return table, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "dataset loaded",
		slog.String("path", path),
		slog.Bool("shared", shared))
	return v.(*dataset.Table), nil
}

// Invalidate drops the cached table for path.
func (c *tableCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}
