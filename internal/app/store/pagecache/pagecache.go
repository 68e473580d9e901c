// Package pagecache is a Redis read-through cache in front of a
// content.Repository. Reads are served from Redis when present; every write
// goes to the wrapped repository first and then drops the cached copy.
//
// Redis is never authoritative: any Redis failure is logged and the call
// falls through to the wrapped repository. Each page has a generation
// counter bumped on every write; a read-through fill is dropped when the
// generation moved while the page was loading, so a slow reader cannot put
// back a copy older than the last write.
package pagecache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix prefixes every cached page key.
const KeyPrefix = "stratasite:page:"

// DefaultTTL is used when New is given a non-positive ttl.
const DefaultTTL = 5 * time.Minute

// Store decorates a repository with a Redis cache.
type Store struct {
	next   content.Repository
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

var _ content.Repository = (*Store)(nil)

// New wraps next. A nil rdb disables caching.
func New(next content.Repository, rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Key returns the Redis key for a page.
func Key(name content.PageName) string { return KeyPrefix + string(name) }

// GenKey returns the key of a page's write generation.
func GenKey(name content.PageName) string { return KeyPrefix + "gen:" + string(name) }

var errStaleFill = errors.New("page changed while loading")

func (s *Store) Get(ctx context.Context, name content.PageName) (content.PageContent, error) {
	if s.rdb == nil {
		return s.next.Get(ctx, name)
	}

	raw, err := s.rdb.Get(ctx, Key(name)).Bytes()
	switch {
	case err == nil:
		var p content.PageContent
		jerr := json.Unmarshal(raw, &p)
		if jerr == nil {
			metrics.PageCache.WithLabelValues("hit").Inc()
			if p.Sections == nil {
				p.Sections = []content.Section{}
			}
			return p, nil
		}
		metrics.PageCache.WithLabelValues("error").Inc()
		s.logger.Warn("page cache entry unreadable", zap.String("page", string(name)), zap.Error(jerr))
	case errors.Is(err, redis.Nil):
		metrics.PageCache.WithLabelValues("miss").Inc()
	default:
		metrics.PageCache.WithLabelValues("error").Inc()
		s.logger.Warn("page cache get failed", zap.String("page", string(name)), zap.Error(err))
	}

	return s.load(ctx, name)
}

// load reads name from the wrapped repository and fills the cache unless a
// write happened in between.
func (s *Store) load(ctx context.Context, name content.PageName) (content.PageContent, error) {
	gen, genErr := s.generation(ctx, name)
	p, err := s.next.Get(ctx, name)
	if err != nil {
		return content.PageContent{}, err
	}
	if genErr != nil {
		s.logger.Warn("page cache generation read failed", zap.String("page", string(name)), zap.Error(genErr))
		return p, nil
	}
	s.fill(ctx, p, gen)
	return p, nil
}

// Warm reloads each named page from the wrapped repository and caches it
// with a fresh TTL, whether or not it is already cached. Missing pages are
// dropped from the cache and skipped. It returns how many pages were loaded.
func (s *Store) Warm(ctx context.Context, names ...content.PageName) (int, error) {
	if s.rdb == nil {
		return 0, nil
	}
	var errs []error
	warmed := 0
	for _, name := range names {
		_, err := s.load(ctx, name)
		switch {
		case err == nil:
			warmed++
		case errors.Is(err, content.ErrNotFound):
			s.invalidate(ctx, name)
		default:
			errs = append(errs, err)
		}
	}
	return warmed, errors.Join(errs...)
}

// Uncached returns a view of s for read-modify-write callers. Reads go
// straight to the wrapped repository; writes still invalidate the cache.
func (s *Store) Uncached() content.Repository { return uncached{s} }

type uncached struct{ *Store }

func (u uncached) Get(ctx context.Context, name content.PageName) (content.PageContent, error) {
	return u.next.Get(ctx, name)
}

func (s *Store) Create(ctx context.Context, page content.PageContent) (content.PageContent, error) {
	out, err := s.next.Create(ctx, page)
	if err != nil {
		return content.PageContent{}, err
	}
	s.invalidate(ctx, page.PageName)
	return out, nil
}

func (s *Store) Put(ctx context.Context, page content.PageContent) (content.PageContent, error) {
	out, err := s.next.Put(ctx, page)
	if err != nil {
		return content.PageContent{}, err
	}
	s.invalidate(ctx, page.PageName)
	return out, nil
}

func (s *Store) Delete(ctx context.Context, name content.PageName) error {
	if err := s.next.Delete(ctx, name); err != nil {
		return err
	}
	s.invalidate(ctx, name)
	return nil
}

// List is not cached; it is only used by the back office.
func (s *Store) List(ctx context.Context) ([]content.PageContent, error) {
	return s.next.List(ctx)
}

// Ping reports whether Redis is reachable. It returns nil when caching is off.
func (s *Store) Ping(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) generation(ctx context.Context, name content.PageName) (int64, error) {
	gen, err := s.rdb.Get(ctx, GenKey(name)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// fill caches p if the page's generation is still gen.
func (s *Store) fill(ctx context.Context, p content.PageContent, gen int64) {
	raw, err := json.Marshal(p)
	if err != nil {
		s.logger.Warn("page cache encode failed", zap.String("page", string(p.PageName)), zap.Error(err))
		return
	}
	genKey := GenKey(p.PageName)
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, Key(p.PageName), raw, s.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		s.logger.Debug("page cache fill skipped", zap.String("page", string(p.PageName)))
	default:
		s.logger.Warn("page cache set failed", zap.String("page", string(p.PageName)), zap.Error(err))
	}
}

// invalidate bumps the page's generation and drops the cached copy.
func (s *Store) invalidate(ctx context.Context, name content.PageName) {
	if s.rdb == nil {
		return
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenKey(name))
		pipe.Del(ctx, Key(name))
		return nil
	})
	if err != nil {
		s.logger.Warn("page cache invalidate failed", zap.String("page", string(name)), zap.Error(err))
	}
}
