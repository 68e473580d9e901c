// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks is the stratasite lifecycle as app.Run drives it: config, database,
// schema and seed data, background jobs, the router, then shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "stratasite",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,    // MongoDB, optional Redis page cache, mailer
	EnsureSchema:   EnsureSchema, // validators, indexes, starter pages, admin
	Startup:        Startup,      // timeouts, session cleanup, cache warming
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}
