package scan

import (
	"io/fs"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 4096

type cacheEntry struct {
	size    int64
	modTime time.Time
	result  FileResult
}

// ResultCache memoizes per-file results across rescans, keyed by path
// and validated against file size and mtime. Watch mode re-walks the
// whole tree on every change batch; the cache keeps that cheap by
// re-parsing only files whose stat actually moved. Bounded so very
// large trees cannot grow memory without limit.
type ResultCache struct {
	entries *lru.Cache[string, cacheEntry]
}

func NewResultCache(size int) (*ResultCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{entries: entries}, nil
}

// Lookup returns the cached result for path if the file has not changed
// since it was stored.
func (c *ResultCache) Lookup(path string, info fs.FileInfo) (FileResult, bool) {
	entry, ok := c.entries.Get(path)
	if !ok || entry.size != info.Size() || !entry.modTime.Equal(info.ModTime()) {
		return FileResult{}, false
	}
	return entry.result, true
}

// Store records a successful result. Failures are not cached: they are
// cheap to reproduce and may be transient.
func (c *ResultCache) Store(path string, info fs.FileInfo, result FileResult) {
	if result.Err != nil {
		return
	}
	c.entries.Add(path, cacheEntry{
		size:    info.Size(),
		modTime: info.ModTime(),
		result:  result,
	})
}

// Drop forgets one path, used when a file is deleted or renamed away.
func (c *ResultCache) Drop(path string) {
	c.entries.Remove(path)
}

func (c *ResultCache) Len() int {
	return c.entries.Len()
}
