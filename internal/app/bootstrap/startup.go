// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/pagecache"
	pagestore "github.com/dalemusser/stratasite/internal/app/store/pages"
	"github.com/dalemusser/stratasite/internal/app/store/sessions"
	"github.com/dalemusser/stratasite/internal/app/system/tasks"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It applies the configured handler timeouts and starts the background task
// runner. Returning a non-nil error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
	})

	startTaskRunner(appCfg, deps, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner registers the background jobs and starts them.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	taskRunner.Register(tasks.InactiveSessionCleanupJob(sessions.New(deps.MongoDatabase), logger, appCfg.SessionIdle))

	// Warming only matters when there is a cache to fill.
	if deps.Redis != nil {
		repo := pagecache.New(pagestore.New(deps.MongoDatabase), deps.cacheClient(), appCfg.PageCacheTTL, logger)
		interval := appCfg.PageCacheTTL - appCfg.PageCacheTTL/5
		if interval < time.Minute {
			interval = time.Minute
		}
		taskRunner.Register(tasks.PageCacheWarmJob(repo, logger, interval))
	}

	taskRunner.Start()
}
