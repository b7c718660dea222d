// Package teradata manages one pooled database connection per configured
// environment: pools are built lazily on first acquisition, verified with a
// liveness probe, and reused until the cache is torn down.
package teradata

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"pdcr/internal/metrics"
	"pdcr/internal/registry"
	"pdcr/pkg/errors"
	"pdcr/pkg/logger"
)

const (
	// DefaultDriver is the database/sql driver name the default opener uses.
	// The Teradata driver registers under this name; the embedding binary
	// links the driver it wants available.
	DefaultDriver = "teradata"

	// DefaultPoolSize is the per-environment connection pool size
	DefaultPoolSize = 5
)

// OpenFunc opens a connection pool for a DSN. Injected in tests and when the
// embedder wants full control over pool setup.
type OpenFunc func(dsn string, poolSize int) (*sqlx.DB, error)

// Cache lazily builds and memoizes one pooled connection per environment name.
// It owns the lifetime of every pool it creates; callers never close handles
// themselves. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	reg      *registry.Registry
	open     OpenFunc
	pools    map[string]*sqlx.DB
	poolSize int
	log      *logger.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithOpener replaces the default sqlx-based opener
func WithOpener(open OpenFunc) Option {
	return func(c *Cache) { c.open = open }
}

// WithDriver selects the database/sql driver name used by the default opener
func WithDriver(name string) Option {
	return func(c *Cache) { c.open = driverOpener(name) }
}

// WithPoolSize sets the pool size used by Acquire
func WithPoolSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// NewCache creates a connection cache backed by the given registry
func NewCache(reg *registry.Registry, opts ...Option) *Cache {
	c := &Cache{
		reg:      reg,
		open:     driverOpener(DefaultDriver),
		pools:    make(map[string]*sqlx.DB),
		poolSize: DefaultPoolSize,
		log:      logger.Get().With("component", "connection_cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func driverOpener(driver string) OpenFunc {
	return func(dsn string, poolSize int) (*sqlx.DB, error) {
		db, err := sqlx.Open(driver, dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(poolSize)
		db.SetMaxIdleConns(poolSize)
		// database/sql re-validates stale connections on checkout and
		// reconnects transparently, so no periodic re-validation here
		db.SetConnMaxLifetime(time.Hour)
		return db, nil
	}
}

// Acquire returns the pooled connection for the named environment, opening it
// on first use with the cache's configured pool size
func (c *Cache) Acquire(ctx context.Context, name string) (*sqlx.DB, error) {
	return c.AcquirePool(ctx, name, c.poolSize)
}

// AcquirePool is Acquire with an explicit pool size. The size only matters on
// first acquisition; a cached handle is returned as-is.
func (c *Cache) AcquirePool(ctx context.Context, name string, poolSize int) (*sqlx.DB, error) {
	// The lock covers the whole check-then-open-then-insert sequence so that
	// concurrent first access never constructs two pools for the same name
	c.mu.Lock()
	defer c.mu.Unlock()

	if db, ok := c.pools[name]; ok {
		metrics.RecordCacheAcquire(name, "hit")
		return db, nil
	}

	env, err := c.reg.Get(name)
	if err != nil {
		metrics.RecordCacheAcquire(name, "error")
		return nil, err
	}

	dsn := BuildDSN(env)
	db, err := c.open(dsn, poolSize)
	if err != nil {
		metrics.RecordCacheAcquire(name, "error")
		return nil, errors.Newf("%w: failed to connect to %q: %w", errors.ErrConnection, name, err)
	}

	// Liveness probe. The cache entry is written only after the pool answers,
	// so a failed acquire leaves no partial state behind.
	if err := probe(ctx, db); err != nil {
		_ = db.Close()
		metrics.RecordCacheAcquire(name, "error")
		return nil, errors.Newf("%w: failed to connect to %q: %w", errors.ErrConnection, name, err)
	}

	c.pools[name] = db
	metrics.RecordCacheAcquire(name, "miss")
	metrics.SetPoolsOpen(len(c.pools))
	c.log.Infof("opened connection pool for %q (%s)", name, maskDSN(dsn))
	return db, nil
}

func probe(ctx context.Context, db *sqlx.DB) error {
	var one int
	return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// WithConnection acquires the environment's pool and runs fn with it. Nothing
// is released on return: pooled connections hand themselves back to the pool,
// the scope only bounds the caller's usage window.
func (c *Cache) WithConnection(ctx context.Context, name string, fn func(*sqlx.DB) error) error {
	db, err := c.Acquire(ctx, name)
	if err != nil {
		return err
	}
	return fn(db)
}

// ReleaseAll disposes every cached pool and clears the cache. A disposal
// failure does not stop the loop; failures are collected and returned together
// once every pool has been visited. Calling it on an empty cache is a no-op.
func (c *Cache) ReleaseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var merr errors.MultiError
	for name, db := range c.pools {
		if err := db.Close(); err != nil {
			merr.Add(errors.Wrapf(err, "closing pool for %q", name))
			continue
		}
		c.log.Infof("closed connection pool for %q", name)
	}
	c.pools = make(map[string]*sqlx.DB)
	metrics.SetPoolsOpen(0)
	return merr.ToError()
}

// ListKnownEnvironments returns all configured environment names in load order
func (c *Cache) ListKnownEnvironments() []string {
	return c.reg.Names()
}
