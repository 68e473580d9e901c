package pagestore

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func pricingPage(t *testing.T) content.PageContent {
	t.Helper()
	p, err := content.NewPage(content.PageServices, "Hizmetler", "Fiyatlar", []string{"web"})
	if err != nil {
		t.Fatalf("NewPage() error = %v", err)
	}
	p, err = content.Reduce(p, content.AddSection{ID: "pricing", Type: content.TypePricing, Fields: content.Fields{
		"title": content.Text("Paketler"),
		"plans": content.Items(content.Item{
			"title":    content.Text("Başlangıç"),
			"price":    content.Text("2999"),
			"features": content.List("5 sayfa", "Mobil uyum"),
			"featured": content.Bool(true),
		}),
	}})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	p.UpdatedByID = primitive.NewObjectID().Hex()
	p.UpdatedByName = "Admin"
	return p
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	page := pricingPage(t)
	created, err := store.Create(ctx, page)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.Get(ctx, content.PageServices)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Hizmetler" {
		t.Errorf("Title = %q, want %q", got.Title, "Hizmetler")
	}
	if got.UpdatedByID != page.UpdatedByID {
		t.Errorf("UpdatedByID = %q, want %q", got.UpdatedByID, page.UpdatedByID)
	}
	if len(got.Sections) != 1 {
		t.Fatalf("len(Sections) = %d, want 1", len(got.Sections))
	}
	want, _ := page.Section("pricing")
	if !got.Sections[0].Fields.Equal(want.Fields) {
		t.Errorf("Fields = %v, want %v", got.Sections[0].Fields.Native(), want.Fields.Native())
	}
}

func TestStore_Create_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, pricingPage(t)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := store.Create(ctx, pricingPage(t))
	if !errors.Is(err, content.ErrDuplicatePage) {
		t.Errorf("second Create() error = %v, want ErrDuplicatePage", err)
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Get(ctx, content.PageAbout)
	if !errors.Is(err, content.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Put_LastWriteWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	page := pricingPage(t)
	if _, err := store.Put(ctx, page); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	title := "Hizmetlerimiz"
	next, err := content.Reduce(page, content.UpdateMeta{Title: &title})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if _, err := store.Put(ctx, next); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("List() returned %d pages, want 1", len(all))
	}
	if all[0].Title != title {
		t.Errorf("Title = %q, want %q", all[0].Title, title)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, pricingPage(t)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Delete(ctx, content.PageServices); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	exists, err := store.Exists(ctx, content.PageServices)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("page should not exist after Delete")
	}
	if err := store.Delete(ctx, content.PageServices); !errors.Is(err, content.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestPlain(t *testing.T) {
	in := bson.M{
		"plans": primitive.A{
			primitive.D{{Key: "title", Value: "x"}, {Key: "features", Value: primitive.A{"a", "b"}}},
		},
		"count": int32(3),
	}
	out, ok := plain(map[string]any(in)).(map[string]any)
	if !ok {
		t.Fatalf("plain() returned %T", out)
	}
	fields, err := content.FieldsFromNative(out)
	if err != nil {
		t.Fatalf("FieldsFromNative() error = %v", err)
	}
	if fields["count"].String() != "3" {
		t.Errorf("count = %q, want 3", fields["count"].String())
	}
	items := fields["plans"].ItemList()
	if len(items) != 1 || items[0]["features"].Len() != 2 {
		t.Errorf("plans = %v, want one item with two features", fields["plans"].Native())
	}
}
