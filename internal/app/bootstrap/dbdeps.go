// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler and Shutdown. Optional backends are nil when not configured.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis backs the page read cache. Nil when redis_addr is blank.
	Redis *redis.Client

	// Mailer sends notifications and welcome mail. Nil when SMTP is not configured.
	Mailer *mailer.Mailer
}

// mailSender returns the mailer as a mailer.Sender, or nil when mail is off.
// A nil pointer must not be stored in the interface.
func (d DBDeps) mailSender() mailer.Sender {
	if d.Mailer == nil {
		return nil
	}
	return d.Mailer
}

// cacheClient returns Redis as a UniversalClient, or nil when the cache is off.
func (d DBDeps) cacheClient() redis.UniversalClient {
	if d.Redis == nil {
		return nil
	}
	return d.Redis
}
