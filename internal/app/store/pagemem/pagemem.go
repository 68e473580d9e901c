// Package pagemem is an in-memory content.Repository for tests. Failures can
// be injected per operation to exercise repository-unavailable paths.
package pagemem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/content"
)

// Op names an operation for failure injection.
type Op string

const (
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpPut    Op = "put"
	OpDelete Op = "delete"
	OpList   Op = "list"
)

// Store holds deep copies of pages; callers never share memory with it.
type Store struct {
	mu    sync.Mutex
	pages map[content.PageName]content.PageContent
	fail  map[Op]error
	calls map[Op]int
	now   func() time.Time
}

var _ content.Repository = (*Store)(nil)

// New returns a store seeded with pages.
func New(pages ...content.PageContent) *Store {
	s := &Store{
		pages: make(map[content.PageName]content.PageContent),
		fail:  make(map[Op]error),
		calls: make(map[Op]int),
		now:   time.Now,
	}
	for _, p := range pages {
		s.pages[p.PageName] = p.Clone()
	}
	return s
}

// Fail makes every later call to op fail with an error wrapping
// content.ErrRepositoryUnavailable and cause, until Recover is called.
func (s *Store) Fail(op Op, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = cause
}

// Recover clears all injected failures.
func (s *Store) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = make(map[Op]error)
}

// Calls reports how many times op was invoked.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Store) enter(op Op) error {
	s.calls[op]++
	if cause, ok := s.fail[op]; ok {
		return fmt.Errorf("%s page: %w: %v", op, content.ErrRepositoryUnavailable, cause)
	}
	return nil
}

func (s *Store) Get(_ context.Context, name content.PageName) (content.PageContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGet); err != nil {
		return content.PageContent{}, err
	}
	p, ok := s.pages[name]
	if !ok {
		return content.PageContent{}, fmt.Errorf("page %q: %w", name, content.ErrNotFound)
	}
	return p.Clone(), nil
}

func (s *Store) Create(_ context.Context, page content.PageContent) (content.PageContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreate); err != nil {
		return content.PageContent{}, err
	}
	if _, ok := s.pages[page.PageName]; ok {
		return content.PageContent{}, fmt.Errorf("page %q: %w", page.PageName, content.ErrDuplicatePage)
	}
	now := s.now().UTC()
	page.CreatedAt, page.UpdatedAt = now, now
	s.pages[page.PageName] = page.Clone()
	return page.Clone(), nil
}

func (s *Store) Put(_ context.Context, page content.PageContent) (content.PageContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPut); err != nil {
		return content.PageContent{}, err
	}
	now := s.now().UTC()
	if page.CreatedAt.IsZero() {
		page.CreatedAt = now
	}
	page.UpdatedAt = now
	s.pages[page.PageName] = page.Clone()
	return page.Clone(), nil
}

func (s *Store) Delete(_ context.Context, name content.PageName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDelete); err != nil {
		return err
	}
	if _, ok := s.pages[name]; !ok {
		return fmt.Errorf("page %q: %w", name, content.ErrNotFound)
	}
	delete(s.pages, name)
	return nil
}

func (s *Store) List(_ context.Context) ([]content.PageContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpList); err != nil {
		return nil, err
	}
	out := make([]content.PageContent, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageName < out[j].PageName })
	return out, nil
}
