package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/booknet/bookgraph/metric"
)

// Pinger is the slice of a store the checker needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker periodically pings the attached stores, publishes the result to
// the monitor and mirrors it onto the store-up gauge.
type Checker struct {
	monitor  *Monitor
	metrics  *metric.Metrics
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
	stores   map[string]Pinger
}

// NewChecker creates a checker. metrics may be nil.
func NewChecker(monitor *Monitor, metrics *metric.Metrics, logger *slog.Logger, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Checker{
		monitor:  monitor,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		timeout:  interval / 2,
		stores:   make(map[string]Pinger),
	}
}

// Watch registers a store under a name ("document", "graph").
func (c *Checker) Watch(name string, store Pinger) {
	c.stores[name] = store
}

// Run checks all stores on the configured interval until ctx is done. The
// first round runs immediately so health is populated at startup.
func (c *Checker) Run(ctx context.Context) {
	c.checkAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAll(ctx)
		}
	}
}

func (c *Checker) checkAll(ctx context.Context) {
	for name, store := range c.stores {
		c.check(ctx, name, store)
	}
}

func (c *Checker) check(ctx context.Context, name string, store Pinger) {
	pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := store.Ping(pingCtx)
	status := FromPingError(name, err)
	c.monitor.Update(name, status)

	if c.metrics != nil {
		c.metrics.SetStoreUp(name, err == nil)
	}
	if err != nil {
		c.logger.Warn("store ping failed", "store", name, "error", status.Message)
	}
}
