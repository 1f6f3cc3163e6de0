package services

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"housing-explorer/models"
	"housing-explorer/storage"
	"housing-explorer/utils"
)

type cacheEntry struct {
	table   *models.Table
	size    int64
	modTime time.Time
}

// DatasetCache loads listing tables lazily and keeps one per input path.
// A cached table is reused until the file's size or modification time
// changes, or until the entry is invalidated.
type DatasetCache struct {
	logger *utils.Logger
	read   func(path string) (*models.Table, error)

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewDatasetCache creates an empty cache that reads CSV files.
func NewDatasetCache(logger *utils.Logger) *DatasetCache {
	return &DatasetCache{
		logger:  logger,
		read:    storage.ReadCSV,
		entries: make(map[string]cacheEntry),
	}
}

// Load returns the table for path, reading the file only when it has not been
// read before or has changed since. Failures are *storage.LoadError.
func (c *DatasetCache) Load(path string) (*models.Table, error) {
	key := cacheKey(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, &storage.LoadError{Path: path, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e.table, nil
	}

	start := time.Now()
	table, err := c.read(path)
	if err != nil {
		return nil, err
	}

	c.entries[key] = cacheEntry{table: table, size: info.Size(), modTime: info.ModTime()}
	c.logger.Info("[loader] Loaded %d rows × %d columns from %s in %v",
		table.Len(), len(table.Columns()), path, time.Since(start).Round(time.Millisecond))
	return table, nil
}

// Invalidate drops the cached table for path so the next Load re-reads it.
func (c *DatasetCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(path)
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.logger.Debug("[loader] Invalidated cached table for %s", path)
	}
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
