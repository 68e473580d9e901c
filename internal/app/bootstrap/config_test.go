package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:                "mongodb://localhost:27017",
		MongoDatabase:           "stratasite",
		SessionMaxAge:           24 * time.Hour,
		RateLimitEnabled:        true,
		RateLimitLoginAttempts:  5,
		RateLimitLoginWindow:    15 * time.Minute,
		RateLimitLoginLockout:   15 * time.Minute,
		RateLimitIntakeAttempts: 10,
		RateLimitIntakeWindow:   time.Hour,
		AuditLogAuth:            "all",
		AuditLogAdmin:           "db",
	}
}

func TestValidateConfig_Accepts(t *testing.T) {
	require.NoError(t, ValidateConfig(nil, validAppConfig(), zap.NewNop()))
}

func TestValidateConfig_Rejects(t *testing.T) {
	cases := map[string]func(*AppConfig){
		"zero cache ttl":        func(c *AppConfig) { c.RedisAddr = "localhost:6379"; c.PageCacheTTL = 0 },
		"zero login window":     func(c *AppConfig) { c.RateLimitLoginWindow = 0 },
		"zero intake attempts":  func(c *AppConfig) { c.RateLimitIntakeAttempts = 0 },
		"admin without pass":    func(c *AppConfig) { c.SeedAdminEmail = "admin@example.com" },
		"zero session age":      func(c *AppConfig) { c.SessionMaxAge = 0 },
		"unknown audit setting": func(c *AppConfig) { c.AuditLogAuth = "syslog" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validAppConfig()
			mutate(&cfg)
			assert.Error(t, ValidateConfig(nil, cfg, zap.NewNop()))
		})
	}
}

func TestValidateConfig_RateLimitOff(t *testing.T) {
	cfg := validAppConfig()
	cfg.RateLimitEnabled = false
	cfg.RateLimitLoginAttempts = 0
	assert.NoError(t, ValidateConfig(nil, cfg, zap.NewNop()))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"https://ajans.example", "http://localhost:3000"}, splitList(" https://ajans.example,, http://localhost:3000 "))
	assert.Nil(t, splitList(""))
}
