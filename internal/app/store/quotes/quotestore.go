// internal/app/store/quotes/quotestore.go
package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/quote"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const counterID = "quotes"

// Store provides access to the quotes collection and its number counter.
type Store struct {
	c        *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

// New creates a new quote store.
func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("quotes"),
		counters: db.Collection("counters"),
		now:      time.Now,
	}
}

// NextNumber atomically increments the quote counter and returns the new
// value. The counter document is created on first use.
func (s *Store) NextNumber(ctx context.Context) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": counterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next quote number: %w", err)
	}
	return doc.Seq, nil
}

// Insert stores an accepted submission as a new pending quote.
func (s *Store) Insert(ctx context.Context, a quote.Accepted, submittedBy *primitive.ObjectID) (*models.QuoteRequest, error) {
	num, err := s.NextNumber(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	lines := make([]models.QuoteLine, 0, len(a.Price.Lines))
	for _, l := range a.Price.Lines {
		lines = append(lines, models.QuoteLine{Option: l.Option, Choice: l.Choice, Amount: l.Amount})
	}
	opts := make(map[string]string, len(a.Options))
	for k, v := range a.Options {
		opts[k] = v
	}

	q := models.QuoteRequest{
		ID:     primitive.NewObjectID(),
		Number: num,
		Kind:   string(a.Kind),
		Customer: models.QuoteCustomer{
			Name:    a.Customer.Name,
			Email:   a.Customer.Email,
			Phone:   a.Customer.Phone,
			Company: a.Customer.Company,
		},
		PlanOrServiceID:   a.Entry.ID,
		PlanOrServiceName: a.Entry.Name,
		Categories:        a.Categories,
		SelectedOptions:   opts,
		Lines:             lines,
		BasePrice:         a.Price.Base,
		ComputedPrice:     a.Price.Total,
		Currency:          a.Price.Currency,
		Message:           a.Message,
		Status:            string(quote.StatusPending),
		StatusHistory:     []models.StatusChange{},
		SubmittedByID:     submittedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := s.c.InsertOne(ctx, q); err != nil {
		return nil, fmt.Errorf("insert quote: %w", err)
	}
	return &q, nil
}

// GetByID returns a quote, or quote.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.QuoteRequest, error) {
	var q models.QuoteRequest
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, quote.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListFilter narrows List. A zero Status lists every status.
type ListFilter struct {
	Status quote.Status
	Limit  int64
	Offset int64
}

// List returns quotes newest first, plus the total matching the filter.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.QuoteRequest, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "number", Value: -1}}).
		SetLimit(limit)
	if f.Offset > 0 {
		opts.SetSkip(f.Offset)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := []models.QuoteRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountByStatus returns the number of quotes in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[quote.Status]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		N      int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[quote.Status]int64, len(quote.AllStatuses()))
	for _, st := range quote.AllStatuses() {
		out[st] = 0
	}
	for _, r := range rows {
		out[quote.Status(r.Status)] = r.N
	}
	return out, nil
}

// Actor identifies who changed a quote's status.
type Actor struct {
	ID   string
	Name string
}

// UpdateStatus moves a quote to status to. The transition is checked against
// the stored status and applied only if the stored status is still the one
// that was checked, so a concurrent change can never slip an illegal
// transition through. On any failure the stored quote is unchanged.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, to quote.Status, by Actor, note string) (*models.QuoteRequest, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := quote.Status(cur.Status)
	if _, err := quote.Transition(from, to); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	change := models.StatusChange{
		From:   string(from),
		To:     string(to),
		At:     now,
		ByID:   by.ID,
		ByName: by.Name,
		Note:   note,
	}
	var out models.QuoteRequest
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{
			"$set":  bson.M{"status": string(to), "updated_at": now},
			"$push": bson.M{"status_history": change},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: quote %s changed concurrently", quote.ErrInvalidStatusTransition, id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
