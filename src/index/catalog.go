package index

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"gourmet/src/types"
)

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "loading"
	}
}

// Catalog owns the dataset lifecycle. A successful load is kept for the life
// of the process; a failed one stays failed until the next Start, which is
// what a page reload triggers. No timeout is applied to a running load.
type Catalog struct {
	shops   types.Source
	reviews types.Source
	logger  *zap.Logger

	mu      sync.Mutex
	status  Status
	running bool
	ix      *Index
	err     error
	done    chan struct{}
}

func NewCatalog(shops, reviews types.Source, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	done := make(chan struct{})
	return &Catalog{shops: shops, reviews: reviews, logger: logger, done: done}
}

// Start begins a load unless one is in flight or the data is already loaded.
func (c *Catalog) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running || c.status == StatusReady {
		c.mu.Unlock()
		return
	}
	if c.status == StatusFailed {
		c.done = make(chan struct{})
	}
	c.status = StatusLoading
	c.running = true
	c.err = nil
	done := c.done
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		ix, err := Load(ctx, c.shops, c.reviews, c.logger)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.running = false
		if err != nil {
			c.status = StatusFailed
			c.err = err
		} else {
			c.status = StatusReady
			c.ix = ix
		}
		close(done)
	}()
}

// Snapshot reports the current status, the index when ready and the load
// error when failed.
func (c *Catalog) Snapshot() (Status, *Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.ix, c.err
}

// Wait blocks until the in-flight load settles or ctx is done.
func (c *Catalog) Wait(ctx context.Context) (*Index, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	_, ix, err := c.Snapshot()
	return ix, err
}
