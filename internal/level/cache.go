package level

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"
)

// DefaultCacheLevels is the default number of levels kept by a Cache.
const DefaultCacheLevels = 8

// Cache keeps recently loaded levels keyed by file contents and options.
// It is safe for concurrent use.
type Cache struct {
	levels *ristretto.Cache[string, *Level]
	log    *zap.Logger
}

// NewCache returns a cache holding up to maxLevels levels.
func NewCache(maxLevels int, log *zap.Logger) (*Cache, error) {
	if maxLevels <= 0 {
		maxLevels = DefaultCacheLevels
	}
	if log == nil {
		log = zap.NewNop()
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *Level]{
		NumCounters: int64(maxLevels) * 10,
		MaxCost:     int64(maxLevels),
		BufferItems: 64,
		// Cost counts levels, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating level cache: %w", err)
	}
	return &Cache{levels: c, log: log}, nil
}

// Key returns the cache key of data loaded with opts.
func Key(data []byte, opts Options) string {
	h := sha256.New()
	h.Write(data)
	h.Write(opts.Lit)
	a, v := opts.Atlas, opts.Volume
	fmt.Fprintf(h, "|%d|%d|%d|%d|%t|%v|%d|%v|%t|%t|%d",
		a.MaxWidth, a.MaxHeight, a.Padding, a.MaxAtlases, a.Trim,
		v.MaxSize, v.Layout, v.Multipliers, v.Flood, opts.SkipVolume, opts.LightmapScale)
	return hex.EncodeToString(h.Sum(nil))
}

// Load returns the cached level for data and opts, loading it on a miss.
func (c *Cache) Load(ctx context.Context, data []byte, opts Options) (*Level, error) {
	key := Key(data, opts)
	if l, ok := c.levels.Get(key); ok {
		c.log.Debug("level cache hit", zap.String("key", key[:12]))
		return l, nil
	}

	l, err := Load(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	c.levels.Set(key, l, 1)
	c.levels.Wait()
	return l, nil
}

// LoadFile reads path like LoadFile and loads it through the cache. An
// unchanged file is a cache hit; an edited one loads afresh.
func (c *Cache) LoadFile(ctx context.Context, path string, opts Options) (*Level, error) {
	data, opts, err := readFile(path, opts)
	if err != nil {
		return nil, err
	}
	return c.Load(ctx, data, opts)
}

// Invalidate drops the level cached for data and opts.
func (c *Cache) Invalidate(data []byte, opts Options) {
	c.levels.Del(Key(data, opts))
}

// Close releases the cache.
func (c *Cache) Close() {
	c.levels.Close()
}
