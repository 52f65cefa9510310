package cache

import (
	"context"
	"log/slog"
	"time"
)

// Config holds cleaner configuration
type Config struct {
	CleanInterval time.Duration
	KeepDuration  time.Duration
}

// Sweeper forgets ledger records older than a retention window.
type Sweeper interface {
	Clean(ctx context.Context, keepDuration time.Duration) (int64, error)
}

// Cleaner sweeps the processed-message ledger on a fixed interval so the
// dedup table only spans the window Telegram may redeliver in.
type Cleaner struct {
	ledger Sweeper
	config Config
	logger *slog.Logger
}

// NewCleaner creates a ledger cleaner
func NewCleaner(ledger Sweeper, config Config, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		ledger: ledger,
		config: config,
		logger: logger.With("component", "dedup_cleaner"),
	}
}

// Start sweeps once, then every CleanInterval until ctx ends. A
// non-positive interval leaves only the first sweep.
func (c *Cleaner) Start(ctx context.Context) error {
	c.logger.Info("dedup cleaner started", "interval", c.config.CleanInterval, "keep", c.config.KeepDuration)

	var total int64
	sweep := func() {
		n, err := c.Sweep(ctx)
		if err != nil {
			c.logger.Error("dedup sweep failed", "error", err)
			return
		}
		total += n
	}

	sweep()

	var tick <-chan time.Time
	if c.config.CleanInterval > 0 {
		ticker := time.NewTicker(c.config.CleanInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("dedup cleaner stopped", "forgotten", total)
			return ctx.Err()
		case <-tick:
			sweep()
		}
	}
}

// Sweep forgets records older than KeepDuration and reports how many went.
func (c *Cleaner) Sweep(ctx context.Context) (int64, error) {
	n, err := c.ledger.Clean(ctx, c.config.KeepDuration)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.logger.Info("dedup records forgotten", "count", n)
	} else {
		c.logger.Debug("dedup sweep found nothing to forget")
	}
	return n, nil
}
