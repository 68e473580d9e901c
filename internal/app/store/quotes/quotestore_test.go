package quotes

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratasite/internal/domain/quote"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func accepted(t *testing.T) quote.Accepted {
	t.Helper()
	in := quote.NewIntake(quote.DefaultCatalog())
	a, err := in.Accept(quote.Submission{
		Customer: quote.Customer{
			Name:  "Ayşe Yılmaz",
			Email: "ayse@example.com",
			Phone: "+90 555 000 0000",
		},
		PlanOrServiceID: "starter",
		SelectedOptions: quote.Selection{"teamSize": "medium", "hasDesigner": "true"},
	})
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	return a
}

func TestStore_NextNumber_Monotonic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var last int64
	for i := 0; i < 3; i++ {
		n, err := store.NextNumber(ctx)
		if err != nil {
			t.Fatalf("NextNumber() error = %v", err)
		}
		if n != last+1 {
			t.Errorf("NextNumber() = %d, want %d", n, last+1)
		}
		last = n
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	q, err := store.Insert(ctx, accepted(t), nil)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if q.Number != 1 {
		t.Errorf("Number = %d, want 1", q.Number)
	}
	if q.Status != string(quote.StatusPending) {
		t.Errorf("Status = %q, want pending", q.Status)
	}

	got, err := store.GetByID(ctx, q.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ComputedPrice != 4799 {
		t.Errorf("ComputedPrice = %d, want 4799", got.ComputedPrice)
	}
	if got.BasePrice != 2999 {
		t.Errorf("BasePrice = %d, want 2999", got.BasePrice)
	}
	if len(got.Lines) != 2 {
		t.Errorf("len(Lines) = %d, want 2", len(got.Lines))
	}
	if got.PlanOrServiceName == "" {
		t.Error("PlanOrServiceName should be set")
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, quote.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestStore_UpdateStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	q, err := store.Insert(ctx, accepted(t), nil)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	admin := Actor{ID: primitive.NewObjectID().Hex(), Name: "Admin"}

	got, err := store.UpdateStatus(ctx, q.ID, quote.StatusReviewing, admin, "arandı")
	if err != nil {
		t.Fatalf("UpdateStatus(reviewing) error = %v", err)
	}
	if got.Status != string(quote.StatusReviewing) {
		t.Errorf("Status = %q, want reviewing", got.Status)
	}
	if len(got.StatusHistory) != 1 {
		t.Fatalf("len(StatusHistory) = %d, want 1", len(got.StatusHistory))
	}
	h := got.StatusHistory[0]
	if h.From != "pending" || h.To != "reviewing" || h.Note != "arandı" || h.ByName != "Admin" {
		t.Errorf("StatusHistory[0] = %+v", h)
	}

	if _, err := store.UpdateStatus(ctx, q.ID, quote.StatusArchived, admin, ""); err != nil {
		t.Fatalf("UpdateStatus(archived) error = %v", err)
	}

	_, err = store.UpdateStatus(ctx, q.ID, quote.StatusPending, admin, "")
	if !errors.Is(err, quote.ErrInvalidStatusTransition) {
		t.Errorf("UpdateStatus(archived->pending) error = %v, want ErrInvalidStatusTransition", err)
	}
	stored, err := store.GetByID(ctx, q.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != string(quote.StatusArchived) {
		t.Errorf("stored Status = %q, want archived", stored.Status)
	}
	if len(stored.StatusHistory) != 2 {
		t.Errorf("len(StatusHistory) = %d, want 2", len(stored.StatusHistory))
	}
}

func TestStore_ListAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		q, err := store.Insert(ctx, accepted(t), nil)
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		ids = append(ids, q.ID)
	}
	if _, err := store.UpdateStatus(ctx, ids[0], quote.StatusReviewing, Actor{}, ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	all, total, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("List() = %d items (total %d), want 3", len(all), total)
	}

	pending, total, err := store.List(ctx, ListFilter{Status: quote.StatusPending, Limit: 1})
	if err != nil {
		t.Fatalf("List(pending) error = %v", err)
	}
	if total != 2 {
		t.Errorf("pending total = %d, want 2", total)
	}
	if len(pending) != 1 {
		t.Errorf("len(pending) = %d, want 1 (limit)", len(pending))
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if counts[quote.StatusPending] != 2 || counts[quote.StatusReviewing] != 1 || counts[quote.StatusArchived] != 0 {
		t.Errorf("CountByStatus() = %v", counts)
	}
}
