// Package pagefile is a content.Repository stored in a single buntdb file.
// It backs the sitectl operator tool, which edits pages without a running
// MongoDB. Each page is one JSON value under the key "page:<name>".
package pagefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/tidwall/buntdb"
)

const keyPrefix = "page:"

// Store wraps an open buntdb database.
type Store struct {
	db  *buntdb.DB
	now func() time.Time
}

var _ content.Repository = (*Store)(nil)

// Open opens (or creates) the database file at path. ":memory:" gives an
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close flushes and closes the file.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(name content.PageName) string { return keyPrefix + string(name) }

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, content.ErrRepositoryUnavailable, err)
}

func (s *Store) Get(_ context.Context, name content.PageName) (content.PageContent, error) {
	var raw string
	err := s.db.View(func(tx *buntdb.Tx) error {
		var err error
		raw, err = tx.Get(key(name))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return content.PageContent{}, fmt.Errorf("page %q: %w", name, content.ErrNotFound)
	}
	if err != nil {
		return content.PageContent{}, unavailable("get page", err)
	}
	return decode(raw)
}

func (s *Store) Create(_ context.Context, page content.PageContent) (content.PageContent, error) {
	now := s.now().UTC()
	page.CreatedAt, page.UpdatedAt = now, now
	raw, err := json.Marshal(page)
	if err != nil {
		return content.PageContent{}, fmt.Errorf("encode page: %w", err)
	}
	err = s.db.Update(func(tx *buntdb.Tx) error {
		if _, err := tx.Get(key(page.PageName)); err == nil {
			return content.ErrDuplicatePage
		}
		_, _, err := tx.Set(key(page.PageName), string(raw), nil)
		return err
	})
	if errors.Is(err, content.ErrDuplicatePage) {
		return content.PageContent{}, fmt.Errorf("page %q: %w", page.PageName, err)
	}
	if err != nil {
		return content.PageContent{}, unavailable("create page", err)
	}
	return page, nil
}

func (s *Store) Put(_ context.Context, page content.PageContent) (content.PageContent, error) {
	now := s.now().UTC()
	if page.CreatedAt.IsZero() {
		page.CreatedAt = now
	}
	page.UpdatedAt = now
	raw, err := json.Marshal(page)
	if err != nil {
		return content.PageContent{}, fmt.Errorf("encode page: %w", err)
	}
	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(page.PageName), string(raw), nil)
		return err
	})
	if err != nil {
		return content.PageContent{}, unavailable("put page", err)
	}
	return page, nil
}

func (s *Store) Delete(_ context.Context, name content.PageName) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key(name))
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return fmt.Errorf("page %q: %w", name, content.ErrNotFound)
	}
	if err != nil {
		return unavailable("delete page", err)
	}
	return nil
}

func (s *Store) List(_ context.Context) ([]content.PageContent, error) {
	var raws []string
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(keyPrefix+"*", func(_, val string) bool {
			raws = append(raws, val)
			return true
		})
	})
	if err != nil {
		return nil, unavailable("list pages", err)
	}
	out := make([]content.PageContent, 0, len(raws))
	for _, raw := range raws {
		p, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageName < out[j].PageName })
	return out, nil
}

func decode(raw string) (content.PageContent, error) {
	var p content.PageContent
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return content.PageContent{}, fmt.Errorf("decode page: %w", err)
	}
	if p.Sections == nil {
		p.Sections = []content.Section{}
	}
	return p, nil
}
