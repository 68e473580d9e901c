// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"go.uber.org/zap"
)

// SessionCloser closes sessions that have been idle too long.
type SessionCloser interface {
	CloseInactiveSessions(ctx context.Context, threshold time.Duration) (int64, error)
}

// InactiveSessionCleanupJob closes sessions idle for longer than threshold.
// Expired records are removed by the TTL index on expires_at.
func InactiveSessionCleanupJob(sessions SessionCloser, logger *zap.Logger, threshold time.Duration) Job {
	return Job{
		Name:     "inactive-session-cleanup",
		Interval: 15 * time.Minute,
		Delay:    time.Minute,
		Run: func(ctx context.Context) error {
			ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), logger, "inactive session cleanup")
			defer cancel()
			closed, err := sessions.CloseInactiveSessions(ctx, threshold)
			if err != nil {
				return err
			}
			if closed > 0 {
				logger.Info("closed inactive sessions",
					zap.Int64("closed", closed),
					zap.Duration("threshold", threshold))
			}
			return nil
		},
	}
}

// PageWarmer reloads pages into a cache.
type PageWarmer interface {
	Warm(ctx context.Context, names ...content.PageName) (int, error)
}

// PageCacheWarmJob reloads every page into the cache so entries are
// replaced before their TTL lapses.
func PageCacheWarmJob(cache PageWarmer, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "page-cache-warm",
		Interval: interval,
		Run: func(ctx context.Context) error {
			ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), logger, "page cache warm")
			defer cancel()
			warmed, err := cache.Warm(ctx, content.AllPageNames()...)
			logger.Debug("page cache warmed", zap.Int("pages", warmed))
			return err
		},
	}
}
