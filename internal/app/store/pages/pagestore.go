// internal/app/store/pages/pagestore.go
package pagestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/dalemusser/stratasite/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the MongoDB content.Repository, backed by the pages collection.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates a new page store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pages"), now: time.Now}
}

var _ content.Repository = (*Store)(nil)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, content.ErrRepositoryUnavailable, err)
}

// Get returns a page by name.
func (s *Store) Get(ctx context.Context, name content.PageName) (content.PageContent, error) {
	var doc models.PageDocument
	err := s.c.FindOne(ctx, bson.M{"page_name": string(name)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return content.PageContent{}, fmt.Errorf("page %q: %w", name, content.ErrNotFound)
	}
	if err != nil {
		return content.PageContent{}, unavailable("get page", err)
	}
	return fromDoc(doc)
}

// Create inserts a new page. The unique index on page_name turns a second
// insert into content.ErrDuplicatePage.
func (s *Store) Create(ctx context.Context, page content.PageContent) (content.PageContent, error) {
	now := s.now().UTC()
	page.CreatedAt = now
	page.UpdatedAt = now

	doc := toDoc(page)
	doc.ID = primitive.NewObjectID()
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return content.PageContent{}, fmt.Errorf("page %q: %w", page.PageName, content.ErrDuplicatePage)
		}
		return content.PageContent{}, unavailable("create page", err)
	}
	return page, nil
}

// Put replaces the stored page, creating it when missing. Last write wins.
func (s *Store) Put(ctx context.Context, page content.PageContent) (content.PageContent, error) {
	now := s.now().UTC()
	if page.CreatedAt.IsZero() {
		page.CreatedAt = now
	}
	page.UpdatedAt = now

	doc := toDoc(page)
	opts := options.Replace().SetUpsert(true)
	if _, err := s.c.ReplaceOne(ctx, bson.M{"page_name": doc.PageName}, doc, opts); err != nil {
		return content.PageContent{}, unavailable("put page", err)
	}
	return page, nil
}

// Delete removes a page by name.
func (s *Store) Delete(ctx context.Context, name content.PageName) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"page_name": string(name)})
	if err != nil {
		return unavailable("delete page", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("page %q: %w", name, content.ErrNotFound)
	}
	return nil
}

// List returns every stored page sorted by name.
func (s *Store) List(ctx context.Context) ([]content.PageContent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "page_name", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, unavailable("list pages", err)
	}
	defer cur.Close(ctx)

	var docs []models.PageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, unavailable("list pages", err)
	}
	out := make([]content.PageContent, 0, len(docs))
	for _, d := range docs {
		p, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Exists checks if a page with the given name exists.
func (s *Store) Exists(ctx context.Context, name content.PageName) (bool, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{"page_name": string(name)})
	if err != nil {
		return false, unavailable("count pages", err)
	}
	return count > 0, nil
}

/* ------------------------------- conversion ------------------------------- */

func toDoc(p content.PageContent) models.PageDocument {
	doc := models.PageDocument{
		PageName:        string(p.PageName),
		PageTitle:       p.Title,
		MetaDescription: p.MetaDescription,
		MetaKeywords:    append([]string{}, p.MetaKeywords...),
		Sections:        make([]models.SectionDocument, 0, len(p.Sections)),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		UpdatedByName:   p.UpdatedByName,
	}
	if oid, err := primitive.ObjectIDFromHex(p.UpdatedByID); err == nil {
		doc.UpdatedByID = &oid
	}
	for _, sec := range p.Sections {
		doc.Sections = append(doc.Sections, models.SectionDocument{
			ID:     sec.ID,
			Type:   string(sec.Type),
			Order:  sec.Order,
			Fields: bson.M(sec.Fields.Native()),
		})
	}
	return doc
}

func fromDoc(d models.PageDocument) (content.PageContent, error) {
	p := content.PageContent{
		PageName:        content.PageName(d.PageName),
		Title:           d.PageTitle,
		MetaDescription: d.MetaDescription,
		MetaKeywords:    append([]string{}, d.MetaKeywords...),
		Sections:        make([]content.Section, 0, len(d.Sections)),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		UpdatedByName:   d.UpdatedByName,
	}
	if d.UpdatedByID != nil {
		p.UpdatedByID = d.UpdatedByID.Hex()
	}
	for _, sd := range d.Sections {
		native, _ := plain(map[string]any(sd.Fields)).(map[string]any)
		fields, err := content.FieldsFromNative(native)
		if err != nil {
			return content.PageContent{}, fmt.Errorf("page %q section %q: %w", d.PageName, sd.ID, err)
		}
		p.Sections = append(p.Sections, content.Section{
			ID:     sd.ID,
			Type:   content.SectionType(sd.Type),
			Order:  sd.Order,
			Fields: fields,
		})
	}
	return p, nil
}

// plain converts decoded BSON containers (A, D, M) into []any and
// map[string]any so content.FromNative can read them.
func plain(x any) any {
	switch t := x.(type) {
	case primitive.A:
		return plainSlice(t)
	case []any:
		return plainSlice(t)
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case primitive.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	default:
		return x
	}
}

func plainSlice(xs []any) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = plain(x)
	}
	return out
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}
