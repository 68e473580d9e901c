// Package sectioneditor applies admin edits to pages. Every edit loads the
// stored page, runs one reducer action on it, and writes the result back in a
// single Put. A failed validation or write leaves the stored page as it was.
package sectioneditor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/authz"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrForbidden is returned when the actor's role lacks the permission an
// operation needs.
var ErrForbidden = errors.New("forbidden")

// Actor is the signed-in user performing an edit.
type Actor struct {
	ID   string
	Name string
	Role string
}

// System is the actor used by the CLI and startup seeding.
var System = Actor{ID: "", Name: "system", Role: "admin"}

// Editor performs page and section edits against a repository.
type Editor struct {
	repo   content.Repository
	logger *zap.Logger
	newID  func(content.SectionType) string
}

func New(repo content.Repository, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{repo: repo, logger: logger, newID: newSectionID}
}

// newSectionID returns "<type>-<8 hex>", short enough for URLs.
func newSectionID(t content.SectionType) string {
	return fmt.Sprintf("%s-%s", t, uuid.NewString()[:8])
}

func (e *Editor) allow(a Actor, perm authz.Permission) error {
	if !authz.Can(a.Role, perm) {
		return fmt.Errorf("%w: role %q lacks %s", ErrForbidden, a.Role, perm)
	}
	return nil
}

/* --------------------------------- reads --------------------------------- */

func (e *Editor) Get(ctx context.Context, a Actor, name content.PageName) (content.PageContent, error) {
	if err := e.allow(a, authz.ContentRead); err != nil {
		return content.PageContent{}, err
	}
	return e.repo.Get(ctx, name)
}

func (e *Editor) List(ctx context.Context, a Actor) ([]content.PageContent, error) {
	if err := e.allow(a, authz.ContentRead); err != nil {
		return nil, err
	}
	return e.repo.List(ctx)
}

// Form describes the edit form of one stored section.
func (e *Editor) Form(ctx context.Context, a Actor, name content.PageName, sectionID string) (Form, error) {
	p, err := e.Get(ctx, a, name)
	if err != nil {
		return Form{}, err
	}
	s, ok := p.Section(sectionID)
	if !ok {
		return Form{}, fmt.Errorf("section %q: %w", sectionID, content.ErrNotFound)
	}
	return FormFor(s), nil
}

/* ------------------------------ page lifecycle ----------------------------- */

// CreatePage stores a new empty page. It fails with content.ErrDuplicatePage
// when the name is taken.
func (e *Editor) CreatePage(ctx context.Context, a Actor, name content.PageName, title, metaDescription string, keywords []string) (content.PageContent, error) {
	if err := e.allow(a, authz.ContentWrite); err != nil {
		return content.PageContent{}, err
	}
	p, err := content.NewPage(name, title, metaDescription, keywords)
	if err == nil {
		stamp(&p, a)
		p, err = e.repo.Create(ctx, p)
	}
	e.observe("create_page", name, "", err)
	return p, err
}

func (e *Editor) DeletePage(ctx context.Context, a Actor, name content.PageName) error {
	if err := e.allow(a, authz.ContentDelete); err != nil {
		return err
	}
	err := e.repo.Delete(ctx, name)
	e.observe("delete_page", name, "", err)
	return err
}

/* --------------------------------- edits --------------------------------- */

func (e *Editor) UpdateMeta(ctx context.Context, a Actor, name content.PageName, meta content.UpdateMeta) (content.PageContent, error) {
	return e.apply(ctx, a, name, "update_meta", "", meta)
}

// AddSection appends a new section with a generated id and returns the saved
// page together with the new section.
func (e *Editor) AddSection(ctx context.Context, a Actor, name content.PageName, t content.SectionType, fields content.Fields) (content.PageContent, content.Section, error) {
	id := e.newID(t)
	p, err := e.apply(ctx, a, name, "add_section", id, content.AddSection{ID: id, Type: t, Fields: fields})
	if err != nil {
		return content.PageContent{}, content.Section{}, err
	}
	s, _ := p.Section(id)
	return p, s, nil
}

// UpdateFields merges patch into a section. Every unknown, invalid or
// missing-required field is reported together.
func (e *Editor) UpdateFields(ctx context.Context, a Actor, name content.PageName, sectionID string, patch content.Fields) (content.PageContent, error) {
	return e.apply(ctx, a, name, "update_fields", sectionID, content.UpdateSectionFields{SectionID: sectionID, Patch: patch})
}

// Move puts a section at position order (1-based, clamped).
func (e *Editor) Move(ctx context.Context, a Actor, name content.PageName, sectionID string, order int) (content.PageContent, error) {
	return e.apply(ctx, a, name, "move_section", sectionID, content.ReorderSection{SectionID: sectionID, NewOrder: order})
}

func (e *Editor) Remove(ctx context.Context, a Actor, name content.PageName, sectionID string) (content.PageContent, error) {
	return e.apply(ctx, a, name, "remove_section", sectionID, content.RemoveSection{SectionID: sectionID})
}

// AddItem inserts item into an itemList field at position at; a negative at
// appends.
func (e *Editor) AddItem(ctx context.Context, a Actor, name content.PageName, sectionID, field string, item content.Item, at int) (content.PageContent, error) {
	return e.apply(ctx, a, name, "add_item", sectionID, content.AddItem{SectionID: sectionID, Field: field, Item: item, At: at})
}

func (e *Editor) RemoveItem(ctx context.Context, a Actor, name content.PageName, sectionID, field string, index int) (content.PageContent, error) {
	return e.apply(ctx, a, name, "remove_item", sectionID, content.RemoveItem{SectionID: sectionID, Field: field, Index: index})
}

func (e *Editor) MoveItem(ctx context.Context, a Actor, name content.PageName, sectionID, field string, from, to int) (content.PageContent, error) {
	return e.apply(ctx, a, name, "move_item", sectionID, content.MoveItem{SectionID: sectionID, Field: field, From: from, To: to})
}

// apply is the single write path: read, reduce, stamp, put.
func (e *Editor) apply(ctx context.Context, a Actor, name content.PageName, op, sectionID string, action content.Action) (content.PageContent, error) {
	if err := e.allow(a, authz.ContentWrite); err != nil {
		return content.PageContent{}, err
	}
	cur, err := e.repo.Get(ctx, name)
	if err != nil {
		e.observe(op, name, sectionID, err)
		return content.PageContent{}, err
	}
	next, err := content.Reduce(cur, action)
	if err != nil {
		e.observe(op, name, sectionID, err)
		return content.PageContent{}, err
	}
	stamp(&next, a)
	saved, err := e.repo.Put(ctx, next)
	e.observe(op, name, sectionID, err)
	if err != nil {
		return content.PageContent{}, err
	}
	return saved, nil
}

func stamp(p *content.PageContent, a Actor) {
	p.UpdatedByID = a.ID
	p.UpdatedByName = a.Name
	p.UpdatedAt = time.Now().UTC()
}

func (e *Editor) observe(op string, name content.PageName, sectionID string, err error) {
	metrics.ContentEdits.WithLabelValues(op, metrics.Result(err)).Inc()
	if err == nil {
		e.logger.Debug("content edited",
			zap.String("op", op),
			zap.String("page", string(name)),
			zap.String("section_id", sectionID))
		return
	}
	if errors.Is(err, content.ErrRepositoryUnavailable) {
		e.logger.Warn("content edit not saved",
			zap.String("op", op),
			zap.String("page", string(name)),
			zap.Error(err))
	}
}
