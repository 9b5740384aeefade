package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/cache"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/logger"
)

const defaultSchedule = "@hourly"

// Cleaner coordinates background maintenance tasks: purging consumed or expired
// password reset codes, expired database cache rows, and expired in-memory
// cache entries.
type Cleaner struct {
	db       *gorm.DB
	memory   *cache.MemoryStore
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	enabled  bool
	schedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSchedule overrides the cron expression for the cleanup job.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil memory store
// simply skips the in-memory purge.
func NewCleaner(db *gorm.DB, memory *cache.MemoryStore, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:       db,
		memory:   memory,
		now:      time.Now,
		schedule: defaultSchedule,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.db != nil || cleaner.memory != nil

	return cleaner
}

// Start registers the cleanup job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("maintenance cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily used
// in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.db != nil {
		if _, err := CleanupResetCodes(ctx, c.db, c.now()); err != nil {
			errs = multierr.Append(errs, err)
		}
		if _, err := CleanupCacheEntries(ctx, c.db, c.now()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.memory != nil {
		c.memory.PurgeExpired()
	}

	return errs
}

// CleanupResetCodes removes password reset codes that have expired or were
// already consumed.
func CleanupResetCodes(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup reset codes: db is required")
	}

	result := db.WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&models.PasswordResetCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup reset codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CleanupCacheEntries removes expired rows from the database-backed cache.
// Entries with a zero expiry never expire and are left alone.
func CleanupCacheEntries(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup cache entries: db is required")
	}

	result := db.WithContext(ctx).
		Where("expires_at > ? AND expires_at < ?", time.Time{}, now).
		Delete(&models.CacheEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup cache entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}
