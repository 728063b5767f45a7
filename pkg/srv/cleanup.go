package srv

import (
	"context"
	"time"
)

type cleanupService struct {
	cleanup func() error
}

func (c *cleanupService) Start(ctx context.Context) error {
	return nil
}

func (c *cleanupService) Shutdown(ctx context.Context) error {
	if c.cleanup != nil {
		return c.cleanup()
	}
	return nil
}

// NewCleanup wraps a close function so it runs during shutdown.
func NewCleanup(fn func() error) Service {
	return &cleanupService{cleanup: fn}
}

type tickerService struct {
	interval time.Duration
	tick     func(ctx context.Context)
	stop     chan struct{}
}

// NewTicker runs fn every interval until shutdown.
func NewTicker(interval time.Duration, fn func(ctx context.Context)) Service {
	return &tickerService{interval: interval, tick: fn, stop: make(chan struct{})}
}

func (t *tickerService) Start(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.stop:
			return nil
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

func (t *tickerService) Shutdown(ctx context.Context) error {
	close(t.stop)
	return nil
}
