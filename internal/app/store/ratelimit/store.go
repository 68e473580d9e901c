// internal/app/store/ratelimit/store.go
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Scopes keep separate counters for the same identifier.
const (
	ScopeLogin  = "login"  // failed logins, keyed by email
	ScopeIntake = "intake" // public quote and contact submissions, keyed by client IP
)

// Attempt is the counter document for one scope:identifier key.
type Attempt struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Key          string             `bson:"key"`
	AttemptCount int                `bson:"attempt_count"`
	WindowStart  time.Time          `bson:"window_start"`
	LockedUntil  *time.Time         `bson:"locked_until"`
	LastAttempt  time.Time          `bson:"last_attempt"` // TTL index
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// Limits configures one scope: MaxAttempts within Window lock the key for
// Lockout.
type Limits struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// Store counts attempts in the rate_limits collection. It fails open: a
// database error never blocks a request.
type Store struct {
	c      *mongo.Collection
	scope  string
	limits Limits
	now    func() time.Time
}

func New(db *mongo.Database, scope string, limits Limits) *Store {
	return &Store{
		c:      db.Collection("rate_limits"),
		scope:  scope,
		limits: limits,
		now:    time.Now,
	}
}

// key folds case and surrounding space so "Ayse@X.com " and "ayse@x.com"
// share a counter.
func (s *Store) key(id string) string {
	return s.scope + ":" + strings.ToLower(strings.TrimSpace(id))
}

func (s *Store) get(ctx context.Context, id string) (*Attempt, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"key": s.key(id)}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CheckAllowed reports whether id may make another attempt. remaining is
// the number of attempts left in the window, -1 while locked. lockedUntil is
// set while locked.
func (s *Store) CheckAllowed(ctx context.Context, id string) (allowed bool, remaining int, lockedUntil *time.Time) {
	a, err := s.get(ctx, id)
	if err != nil || a == nil {
		return true, s.limits.MaxAttempts, nil
	}
	now := s.now()
	if a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return false, -1, a.LockedUntil
	}
	if now.After(a.WindowStart.Add(s.limits.Window)) {
		return true, s.limits.MaxAttempts, nil
	}
	remaining = s.limits.MaxAttempts - a.AttemptCount
	if remaining <= 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}

// Record counts one attempt for id in a single atomic upsert. A window that
// has run out starts over at one. Reaching MaxAttempts sets the lockout,
// which is reported back.
func (s *Store) Record(ctx context.Context, id string) (lockedOut bool, lockedUntil *time.Time) {
	now := s.now()
	windowOpenedAfter := now.Add(-s.limits.Window)

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"_fresh": bson.M{"$or": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$type": "$window_start"}, "missing"}},
				bson.M{"$lt": bson.A{"$window_start", windowOpenedAfter}},
			}},
		}}},
		{{Key: "$set", Value: bson.M{
			"attempt_count": bson.M{"$cond": bson.A{"$_fresh", 1, bson.M{"$add": bson.A{"$attempt_count", 1}}}},
			"window_start":  bson.M{"$cond": bson.A{"$_fresh", now, "$window_start"}},
			"locked_until":  bson.M{"$cond": bson.A{"$_fresh", nil, "$locked_until"}},
			"created_at":    bson.M{"$ifNull": bson.A{"$created_at", now}},
			"last_attempt":  now,
			"updated_at":    now,
		}}},
		{{Key: "$set", Value: bson.M{
			"locked_until": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$attempt_count", s.limits.MaxAttempts}},
				now.Add(s.limits.Lockout),
				"$locked_until",
			}},
		}}},
		{{Key: "$unset", Value: "_fresh"}},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var a Attempt
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"key": s.key(id)}, pipeline, opts).Decode(&a); err != nil {
		return false, nil
	}
	if a.AttemptCount >= s.limits.MaxAttempts {
		return true, a.LockedUntil
	}
	return false, nil
}

// Clear removes the counter for id, e.g. after a successful login.
func (s *Store) Clear(ctx context.Context, id string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"key": s.key(id)})
	return err
}
