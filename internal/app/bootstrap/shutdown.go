// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown runs once the HTTP server has drained. Background jobs stop
// first so none of them is left holding a closed client; Redis and MongoDB
// close after. Every step runs even if an earlier one fails, and all
// failures are returned joined.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	var errs []error
	step := func(name string, fn func() error) {
		logger.Info("shutdown: " + name)
		if err := fn(); err != nil {
			logger.Warn("shutdown step failed", zap.String("step", name), zap.Error(err))
			errs = append(errs, err)
		}
	}

	if taskRunner != nil {
		step("stop task runner", func() error { return taskRunner.Stop(ctx) })
		for _, s := range taskRunner.Status() {
			logger.Info("task summary",
				zap.String("job", s.Name),
				zap.Int("runs", s.Runs),
				zap.Int("failures", s.Failures),
				zap.Time("last_run", s.LastRun))
		}
	}
	if deps.Redis != nil {
		step("close redis", deps.Redis.Close)
	}
	if deps.MongoClient != nil {
		step("disconnect mongodb", func() error { return deps.MongoClient.Disconnect(ctx) })
	}
	return errors.Join(errs...)
}
