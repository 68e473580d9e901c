// Package testutil holds the MongoDB, request and recorder helpers shared by
// package tests.
package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap/zaptest"
)

// DefaultMongoURI is used unless STRATASITE_TEST_MONGO_URI is set.
const DefaultMongoURI = "mongodb://localhost:27017"

var shared struct {
	once   sync.Once
	client *mongo.Client
	err    error
}

func mongoURI() string {
	if uri := os.Getenv("STRATASITE_TEST_MONGO_URI"); uri != "" {
		return uri
	}
	return DefaultMongoURI
}

// client connects once per test binary.
func client() (*mongo.Client, error) {
	shared.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		opts := options.Client().
			ApplyURI(mongoURI()).
			SetMaxPoolSize(200).
			SetServerSelectionTimeout(3 * time.Second)
		shared.client, shared.err = mongo.Connect(ctx, opts)
		if shared.err == nil {
			shared.err = shared.client.Ping(ctx, nil)
		}
	})
	return shared.client, shared.err
}

// SetupTestDB returns an empty database with the production indexes, private
// to the calling test and dropped when it ends. The test is skipped when
// MongoDB is not reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	c, err := client()
	if err != nil {
		t.Skipf("MongoDB not reachable at %s: %v", mongoURI(), err)
	}
	db := c.Database(DatabaseName(t.Name()))

	ctx, cancel := TestContext()
	defer cancel()
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop test database: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop test database on cleanup: %v", err)
		}
	})
	return db
}

// DatabaseName derives a valid, unique database name from a test name.
// MongoDB caps names at 63 bytes, so long names keep a prefix and a hash.
func DatabaseName(testName string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, testName)

	const prefix = "sst_"
	h := fnv.New32a()
	h.Write([]byte(testName))
	sum := fmt.Sprintf("%08x", h.Sum32())

	if limit := 63 - len(prefix) - len(sum) - 1; len(clean) > limit {
		clean = clean[:limit]
	}
	return prefix + clean + "_" + sum
}

// TestContext bounds a test's database calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
