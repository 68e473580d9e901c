package validators

import (
	"testing"

	"github.com/dalemusser/stratasite/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestEnsureAll_CreatesEveryCollection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	require.NoError(t, EnsureAll(ctx, db, zap.NewNop()))
	require.NoError(t, EnsureAll(ctx, db, zap.NewNop()), "second run must be a no-op")

	names, err := db.ListCollectionNames(ctx, bson.M{})
	require.NoError(t, err)
	for _, c := range Collections {
		assert.Contains(t, names, c.Name)
	}
}

func validQuote() bson.M {
	return bson.M{
		"number":             int64(1),
		"kind":               "plan",
		"customer":           bson.M{"name": "Ayşe", "email": "ayse@example.com", "phone": "5551234567"},
		"plan_or_service_id": "basic",
		"computed_price":     int64(2999),
		"status":             "pending",
	}
}

func TestEnsureAll_QuoteValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	require.NoError(t, EnsureAll(ctx, db, zap.NewNop()))
	quotes := db.Collection("quotes")

	_, err := quotes.InsertOne(ctx, validQuote())
	require.NoError(t, err)

	for field, bad := range map[string]any{
		"status":         "lost",
		"kind":           "retainer",
		"computed_price": int64(-1),
		"number":         int64(0),
	} {
		doc := validQuote()
		doc[field] = bad
		_, err := quotes.InsertOne(ctx, doc)
		assert.Error(t, err, "%s=%v should be rejected", field, bad)
	}
}

func TestEnsureAll_PageValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	require.NoError(t, EnsureAll(ctx, db, zap.NewNop()))
	pages := db.Collection("pages")

	_, err := pages.InsertOne(ctx, bson.M{"page_name": "about", "sections": bson.A{
		bson.M{"id": "s1", "type": "hero", "order": int32(0), "fields": bson.M{"title": "Biz kimiz"}},
	}})
	require.NoError(t, err)

	_, err = pages.InsertOne(ctx, bson.M{"page_name": "blog", "sections": bson.A{}})
	assert.Error(t, err, "unknown page name")

	_, err = pages.InsertOne(ctx, bson.M{"page_name": "home", "sections": bson.A{bson.M{"type": "hero", "order": int32(0)}}})
	assert.Error(t, err, "section without id")
}

func TestPagesSchema_NamesEveryPage(t *testing.T) {
	props := pagesSchema()["$jsonSchema"].(bson.M)["properties"].(bson.M)
	enum := props["page_name"].(bson.M)["enum"].(bson.A)
	assert.ElementsMatch(t, bson.A{"home", "about", "services", "contact"}, enum)
}

func TestHasCode(t *testing.T) {
	err := mongo.CommandError{Code: codeCommandNotFound, Message: "no such command: collMod"}
	assert.True(t, hasCode(err, codeCommandNotFound, codeNotImplemented))
	assert.False(t, hasCode(err, codeNamespaceExists))
	assert.False(t, hasCode(assert.AnError, codeNamespaceExists))
}
