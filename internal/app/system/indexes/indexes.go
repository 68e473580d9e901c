// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Index describes one index the site depends on. Expire makes it a TTL
// index removing documents TTL seconds after the keyed date.
type Index struct {
	Name   string
	Keys   bson.D
	Unique bool
	Sparse bool
	Expire bool
	TTL    int32
}

func asc(fields ...string) bson.D {
	d := make(bson.D, len(fields))
	for i, f := range fields {
		d[i] = bson.E{Key: f, Value: 1}
	}
	return d
}

// newestFirst keys on prefix fields ascending, then created_at descending.
func newestFirst(prefix ...string) bson.D {
	return append(asc(prefix...), bson.E{Key: "created_at", Value: -1})
}

// Collections lists the indexes of every collection, in the order they are
// ensured.
var Collections = []struct {
	Name    string
	Indexes []Index
}{
	{"users", []Index{
		{Name: "uniq_users_loginidci", Keys: asc("login_id_ci"), Unique: true, Sparse: true},
		{Name: "idx_users_role_status_fullnameci_id", Keys: asc("role", "status", "full_name_ci", "_id")},
	}},
	{"pages", []Index{
		{Name: "uniq_pages_page_name", Keys: asc("page_name"), Unique: true},
	}},
	{"quotes", []Index{
		{Name: "uniq_quotes_number", Keys: asc("number"), Unique: true},
		{Name: "idx_quotes_status_created", Keys: newestFirst("status")},
		{Name: "idx_quotes_created", Keys: newestFirst()},
	}},
	{"messages", []Index{
		{Name: "idx_messages_read_created", Keys: newestFirst("read")},
		{Name: "idx_messages_created", Keys: newestFirst()},
	}},
	{"audit_logs", []Index{
		{Name: "idx_audit_created", Keys: newestFirst()},
		{Name: "idx_audit_category_created", Keys: newestFirst("category")},
		{Name: "idx_audit_user_created", Keys: newestFirst("user_id")},
		{Name: "idx_audit_actor_created", Keys: newestFirst("actor_id")},
	}},
	{"sessions", []Index{
		{Name: "idx_session_token", Keys: asc("token"), Unique: true},
		{Name: "idx_session_user", Keys: asc("user_id")},
		{Name: "idx_session_ttl", Keys: asc("expires_at"), Expire: true},
		{Name: "idx_session_active", Keys: bson.D{{Key: "logout_at", Value: 1}, {Key: "last_activity", Value: -1}}},
	}},
	{"rate_limits", []Index{
		{Name: "uniq_ratelimit_key", Keys: asc("key"), Unique: true},
		{Name: "idx_ratelimit_ttl", Keys: asc("last_attempt"), Expire: true, TTL: 86400},
	}},
}

// EnsureAll reconciles every collection's indexes. It is idempotent. Every
// failure is collected so one bad index does not hide the rest.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var errs []error
	for _, c := range Collections {
		if err := Ensure(ctx, db.Collection(c.Name), c.Indexes, logger); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	return errors.Join(errs...)
}

// existing is the subset of listIndexes output compared against an Index.
type existing struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique"`
	Sparse bool   `bson:"sparse"`
	TTL    *int32 `bson:"expireAfterSeconds"`
}

func (e existing) matches(want Index) bool {
	if e.Unique != want.Unique || e.Sparse != want.Sparse {
		return false
	}
	if e.TTL == nil {
		return !want.Expire
	}
	return want.Expire && *e.TTL == want.TTL
}

// signature identifies an index by its key pattern; names are ignored.
func signature(keys bson.D) string {
	var b strings.Builder
	for i, kv := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s:%v", kv.Key, kv.Value)
	}
	return b.String()
}

// Ensure makes coll carry want. An index with the same keys but different
// options is dropped and recreated; one with the same keys and options is
// kept under whatever name it has.
func Ensure(ctx context.Context, coll *mongo.Collection, want []Index, logger *zap.Logger) error {
	have, err := list(ctx, coll)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}

	var errs []error
	for _, ix := range want {
		log := logger.With(
			zap.String("collection", coll.Name()),
			zap.String("index", ix.Name),
			zap.String("keys", signature(ix.Keys)))

		if ex, ok := have[signature(ix.Keys)]; ok {
			if ex.matches(ix) {
				log.Debug("index present", zap.String("existing_name", ex.Name))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Errorf("%s: drop %s: %w", ix.Name, ex.Name, err))
				continue
			}
			log.Info("dropped index with outdated options", zap.String("existing_name", ex.Name))
		}

		if _, err := coll.Indexes().CreateOne(ctx, model(ix)); err != nil {
			if ix.Unique && mongo.IsDuplicateKeyError(err) {
				err = fmt.Errorf("duplicate values prevent a unique index: %w", err)
			}
			log.Warn("index create failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", ix.Name, err))
			continue
		}
		log.Info("index created", zap.Bool("unique", ix.Unique), zap.Bool("ttl", ix.Expire))
	}
	return errors.Join(errs...)
}

const namespaceNotFound = 26

func model(ix Index) mongo.IndexModel {
	opts := options.Index().SetName(ix.Name)
	if ix.Unique {
		opts.SetUnique(true)
	}
	if ix.Sparse {
		opts.SetSparse(true)
	}
	if ix.Expire {
		opts.SetExpireAfterSeconds(ix.TTL)
	}
	return mongo.IndexModel{Keys: ix.Keys, Options: opts}
}

func list(ctx context.Context, coll *mongo.Collection) (map[string]existing, error) {
	out := make(map[string]existing)
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// The collection does not exist yet.
		var ce mongo.CommandError
		if errors.As(err, &ce) && ce.Code == namespaceNotFound {
			return out, nil
		}
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var ex existing
		if err := cur.Decode(&ex); err != nil {
			return nil, err
		}
		out[signature(ex.Key)] = ex
	}
	return out, cur.Err()
}
