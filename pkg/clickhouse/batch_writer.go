// Package clickhouse provides a size/age-bounded batch buffer for ClickHouse
// inserts. Single-row inserts are pathological for ClickHouse, so writers
// accumulate rows and flush them in batches.
package clickhouse

import (
	"context"
	"sync"
	"time"

	"pdcr/pkg/logger"
)

// FlushFunc performs the actual INSERT for one accumulated batch
type FlushFunc func(ctx context.Context, batch []interface{}) error

// BatchWriter accumulates items in memory and flushes them when the buffer is
// full or the oldest item gets too stale
type BatchWriter struct {
	flushFunc FlushFunc
	log       *logger.Logger

	maxBatchSize int
	maxAge       time.Duration
	table        string

	mu        sync.Mutex
	buffer    []interface{}
	lastFlush time.Time
	running   bool

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// BatchWriterConfig configures a BatchWriter
type BatchWriterConfig struct {
	FlushFunc    FlushFunc
	Table        string        // destination table, used for logging
	MaxBatchSize int           // default 500
	MaxAge       time.Duration // default 5s
}

// NewBatchWriter creates a batch writer. Call Start to enable the periodic
// age-based flush; size-based flushing works without it.
func NewBatchWriter(cfg BatchWriterConfig) *BatchWriter {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 500
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 5 * time.Second
	}

	return &BatchWriter{
		flushFunc:    cfg.FlushFunc,
		maxBatchSize: cfg.MaxBatchSize,
		maxAge:       cfg.MaxAge,
		table:        cfg.Table,
		buffer:       make([]interface{}, 0, cfg.MaxBatchSize),
		lastFlush:    time.Now(),
		stopCh:       make(chan struct{}),
		log:          logger.Get().With("component", "batch_writer", "table", cfg.Table),
	}
}

// Start begins the background flush ticker
func (bw *BatchWriter) Start(ctx context.Context) {
	bw.mu.Lock()
	if bw.running {
		bw.mu.Unlock()
		return
	}
	bw.running = true
	bw.ticker = time.NewTicker(bw.maxAge)
	bw.mu.Unlock()

	bw.wg.Add(1)
	go bw.flushLoop(ctx)
}

// Add buffers one item, flushing immediately when the buffer reaches its
// maximum size
func (bw *BatchWriter) Add(ctx context.Context, item interface{}) error {
	bw.mu.Lock()
	bw.buffer = append(bw.buffer, item)
	full := len(bw.buffer) >= bw.maxBatchSize
	bw.mu.Unlock()

	if full {
		return bw.Flush(ctx)
	}
	return nil
}

// Flush writes all buffered items. The buffer is swapped out under the lock
// and flushed outside it so Add never blocks on the INSERT.
func (bw *BatchWriter) Flush(ctx context.Context) error {
	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return nil
	}
	batch := bw.buffer
	bw.buffer = make([]interface{}, 0, bw.maxBatchSize)
	bw.lastFlush = time.Now()
	bw.mu.Unlock()

	start := time.Now()
	if err := bw.flushFunc(ctx, batch); err != nil {
		bw.log.Errorf("failed to flush %d items to %s: %v (took %v)",
			len(batch), bw.table, err, time.Since(start))
		return err
	}

	bw.log.Debugf("flushed %d items to %s (took %v)", len(batch), bw.table, time.Since(start))
	return nil
}

func (bw *BatchWriter) flushLoop(ctx context.Context) {
	defer bw.wg.Done()

	for {
		select {
		case <-ctx.Done():
			if err := bw.Flush(context.Background()); err != nil {
				bw.log.Errorf("final flush failed: %v", err)
			}
			return

		case <-bw.stopCh:
			if err := bw.Flush(context.Background()); err != nil {
				bw.log.Errorf("final flush failed: %v", err)
			}
			return

		case <-bw.ticker.C:
			if bw.BufferSize() > 0 {
				if err := bw.Flush(ctx); err != nil {
					bw.log.Errorf("periodic flush failed: %v", err)
				}
			}
		}
	}
}

// Stop flushes any remaining items and shuts the writer down. Safe to call
// when Start was never called.
func (bw *BatchWriter) Stop(ctx context.Context) error {
	bw.mu.Lock()
	if !bw.running {
		bw.mu.Unlock()
		return bw.Flush(ctx)
	}
	bw.running = false
	bw.mu.Unlock()

	bw.ticker.Stop()
	close(bw.stopCh)

	done := make(chan struct{})
	go func() {
		bw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bw.log.Warn("batch writer stop timed out")
		return ctx.Err()
	}
}

// BufferSize returns the current buffer size (for monitoring)
func (bw *BatchWriter) BufferSize() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}
