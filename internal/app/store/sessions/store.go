// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Why a session ended.
const (
	EndReasonLogout          = "logout"
	EndReasonInactive        = "inactive"
	EndReasonPasswordChanged = "password_changed" // the user's other sessions
	EndReasonAccountChanged  = "account_changed"  // role change, disable or delete
)

// TouchInterval is the minimum gap between two last_activity writes for one
// session.
const TouchInterval = time.Minute

// Session is the server-side record behind a signed-in cookie. The cookie
// carries Token; closing the record signs that cookie out. Closed records
// are kept until expires_at for the audit trail.
type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Token     string             `bson:"token"`
	UserID    primitive.ObjectID `bson:"user_id"`
	IPAddress string             `bson:"ip_address,omitempty"`
	UserAgent string             `bson:"user_agent,omitempty"`

	LoginAt      time.Time  `bson:"login_at"`
	LastActivity time.Time  `bson:"last_activity"`
	LogoutAt     *time.Time `bson:"logout_at,omitempty"`
	EndReason    string     `bson:"end_reason,omitempty"`
	DurationSecs int64      `bson:"duration_secs,omitempty"`

	ExpiresAt time.Time `bson:"expires_at"` // TTL index
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store keeps sessions in the "sessions" collection.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions"), now: time.Now}
}

// open matches sessions that are neither closed nor expired.
func (s *Store) open(extra bson.M) bson.M {
	f := bson.M{"logout_at": nil, "expires_at": bson.M{"$gt": s.now()}}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

// Create inserts an open session, filling ID and timestamps left zero.
func (s *Store) Create(ctx context.Context, sess Session) error {
	now := s.now()
	if sess.ID.IsZero() {
		sess.ID = primitive.NewObjectID()
	}
	if sess.LoginAt.IsZero() {
		sess.LoginAt = now
	}
	if sess.LastActivity.IsZero() {
		sess.LastActivity = now
	}
	sess.CreatedAt, sess.UpdatedAt = now, now
	_, err := s.c.InsertOne(ctx, sess)
	return err
}

// Get returns the open session for token, or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	var sess Session
	if err := s.c.FindOne(ctx, s.open(bson.M{"token": token})).Decode(&sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SessionActive reports whether token names an open session and records the
// activity. Lookup errors count as closed.
func (s *Store) SessionActive(ctx context.Context, token string) bool {
	if s.Touch(ctx, token) == nil {
		return true
	}
	_, err := s.Get(ctx, token)
	return err == nil
}

// Touch moves last_activity to now on an open session whose last write is
// older than TouchInterval. It returns mongo.ErrNoDocuments when nothing was
// written, either because the session is closed or because it was touched
// recently.
func (s *Store) Touch(ctx context.Context, token string) error {
	now := s.now()
	res, err := s.c.UpdateOne(ctx,
		s.open(bson.M{"token": token, "last_activity": bson.M{"$lt": now.Add(-TouchInterval)}}),
		bson.M{"$set": bson.M{"last_activity": now, "updated_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Close ends the session for token. It returns mongo.ErrNoDocuments when no
// session has that token; closing an already closed session is a no-op.
func (s *Store) Close(ctx context.Context, token, reason string) error {
	n, err := s.closeWhere(ctx, bson.M{"token": token}, reason)
	if err != nil || n > 0 {
		return err
	}
	err = s.c.FindOne(ctx, bson.M{"token": token}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return mongo.ErrNoDocuments
	}
	return err
}

// CloseByUser ends every open session of userID.
func (s *Store) CloseByUser(ctx context.Context, userID primitive.ObjectID, reason string) (int64, error) {
	return s.closeWhere(ctx, bson.M{"user_id": userID}, reason)
}

// CloseByUserExcept ends every open session of userID but the one holding
// keepToken.
func (s *Store) CloseByUserExcept(ctx context.Context, userID primitive.ObjectID, keepToken, reason string) (int64, error) {
	return s.closeWhere(ctx, bson.M{"user_id": userID, "token": bson.M{"$ne": keepToken}}, reason)
}

// CloseInactiveSessions ends sessions idle for longer than threshold.
func (s *Store) CloseInactiveSessions(ctx context.Context, threshold time.Duration) (int64, error) {
	return s.closeWhere(ctx, bson.M{"last_activity": bson.M{"$lt": s.now().Add(-threshold)}}, EndReasonInactive)
}

// closeWhere closes matching sessions that are still open and records how
// long each lasted. The duration is computed by the server from login_at.
func (s *Store) closeWhere(ctx context.Context, filter bson.M, reason string) (int64, error) {
	filter["logout_at"] = nil
	now := s.now()
	pipeline := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"logout_at":  now,
		"end_reason": reason,
		"updated_at": now,
		"duration_secs": bson.M{"$toLong": bson.M{
			"$divide": bson.A{bson.M{"$subtract": bson.A{now, "$login_at"}}, 1000},
		}},
	}}}}
	res, err := s.c.UpdateMany(ctx, filter, pipeline)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountActive counts open sessions across all users.
func (s *Store) CountActive(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, s.open(nil))
}
