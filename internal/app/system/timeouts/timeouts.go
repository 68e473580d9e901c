// Package timeouts holds the deadlines applied to database work started by
// handlers and background jobs.
//
// Values are set once from configuration in Startup. Zero fields in Config
// keep the current value.
package timeouts

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
)

// Config carries configured deadlines.
type Config struct {
	Ping   time.Duration // health and readiness probes
	Short  time.Duration // single lookups (session user fetch)
	Medium time.Duration // multi-document work (cache warm, cleanup jobs)
}

var (
	mu  sync.RWMutex
	cur = Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium}
)

// Configure applies the non-zero fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		cur.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		cur.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		cur.Medium = cfg.Medium
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	cur = Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium}
	mu.Unlock()
}

// Current returns the deadlines in effect.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

func Ping() time.Duration   { return Current().Ping }
func Short() time.Duration  { return Current().Short }
func Medium() time.Duration { return Current().Medium }

// WithTimeout derives a context bounded by d. The returned cancel logs a
// warning naming op when the deadline was hit.
func WithTimeout(parent context.Context, d time.Duration, logger *zap.Logger, op string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		if logger != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Warn("operation timed out", zap.String("operation", op), zap.Duration("timeout", d))
		}
		cancel()
	}
}
