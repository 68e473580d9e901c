// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratasite/internal/app/system/status"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/quote"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes handled during schema setup.
const (
	codeNamespaceExists = 48
	codeCommandNotFound = 59
	codeNotImplemented  = 115
)

// Collection is one collection the site stores data in. A nil Schema means
// no server-side validation.
type Collection struct {
	Name   string
	Schema func() bson.M
}

// Collections lists every collection, created in this order.
var Collections = []Collection{
	{"users", usersSchema},
	{"pages", pagesSchema},
	{"quotes", quotesSchema},
	{"messages", nil},
	{"counters", nil},
	{"audit_logs", nil},
	{"sessions", nil},
	{"rate_limits", nil},
}

// EnsureAll creates missing collections and attaches their JSON-Schema
// validators. Servers without collMod support (some DocumentDB versions)
// keep working without validation.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}

	var errs []error
	for _, c := range Collections {
		log := logger.With(zap.String("collection", c.Name))
		if !have[c.Name] {
			if err := db.CreateCollection(ctx, c.Name); err != nil && !hasCode(err, codeNamespaceExists) {
				errs = append(errs, fmt.Errorf("%s: create: %w", c.Name, err))
				continue
			}
			log.Info("created collection")
		}
		if c.Schema == nil {
			continue
		}
		switch err := setValidator(ctx, db, c.Name, c.Schema()); {
		case err == nil:
			log.Debug("validator attached")
		case hasCode(err, codeCommandNotFound, codeNotImplemented):
			log.Info("validator skipped, server does not support collMod")
		default:
			errs = append(errs, fmt.Errorf("%s: validator: %w", c.Name, err))
		}
	}
	return errors.Join(errs...)
}

func setValidator(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

func hasCode(err error, codes ...int32) bool {
	var ce mongo.CommandError
	if !errors.As(err, &ce) {
		return false
	}
	for _, c := range codes {
		if ce.Code == c {
			return true
		}
	}
	return false
}

func jsonSchema(required []string, props bson.M) bson.M {
	return bson.M{"$jsonSchema": bson.M{
		"bsonType":   "object",
		"required":   toA(required),
		"properties": props,
	}}
}

var (
	nonBlank    = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	nullableStr = bson.M{"bsonType": bson.A{"string", "null"}}
	integer     = bson.A{"int", "long"}
	nonNegInt   = bson.M{"bsonType": integer, "minimum": 0}
	positiveInt = bson.M{"bsonType": integer, "minimum": 1}
)

func usersSchema() bson.M {
	return jsonSchema([]string{"full_name", "role", "status"}, bson.M{
		"full_name":    nonBlank,
		"full_name_ci": nonBlank,
		"login_id":     nullableStr,
		"login_id_ci":  nullableStr,
		"email":        nullableStr,
		"role":         bson.M{"enum": toA(models.AllRoles())},
		"status":       bson.M{"enum": toA(status.All())},
	})
}

func pagesSchema() bson.M {
	var names []string
	for _, n := range content.AllPageNames() {
		names = append(names, string(n))
	}
	section := bson.M{
		"bsonType": "object",
		"required": bson.A{"id", "type", "order"},
		"properties": bson.M{
			"id":     bson.M{"bsonType": "string", "minLength": 1},
			"type":   bson.M{"bsonType": "string", "minLength": 1},
			"order":  bson.M{"bsonType": integer},
			"fields": bson.M{"bsonType": "object"},
		},
	}
	return jsonSchema([]string{"page_name", "sections"}, bson.M{
		"page_name":  bson.M{"enum": toA(names)},
		"page_title": bson.M{"bsonType": "string"},
		"sections":   bson.M{"bsonType": "array", "items": section},
	})
}

func quotesSchema() bson.M {
	return jsonSchema([]string{"number", "kind", "customer", "plan_or_service_id", "computed_price", "status"}, bson.M{
		"number":         positiveInt,
		"kind":           bson.M{"enum": bson.A{string(quote.KindPlan), string(quote.KindService)}},
		"computed_price": nonNegInt,
		"status":         bson.M{"enum": toA(quote.AllStatusValues())},
		"customer": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "phone"},
		},
	})
}

func toA(in []string) bson.A {
	out := make(bson.A, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
