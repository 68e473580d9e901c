// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATASITE"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: STRATASITE_MONGO_URI, STRATASITE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratasite", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "stratasite-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session max age (e.g., 24h, 720h, 30m)"},
	{Name: "session_idle", Default: "30m", Desc: "Close sessions idle for this long"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// Page cache
	{Name: "redis_addr", Default: "", Desc: "Redis address for the page cache (blank disables it)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "page_cache_ttl", Default: "5m", Desc: "How long a cached page stays valid"},

	{Name: "public_api_origins", Default: "", Desc: "Comma-separated origins allowed to call the public API (blank allows any)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables mail)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "StrataSite", Desc: "From display name"},
	{Name: "notify_email", Default: "", Desc: "Address notified of new quote requests and messages"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Base URL for email links"},

	// Rate limiting configuration
	{Name: "rate_limit_enabled", Default: true, Desc: "Enable rate limiting for logins and public forms"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Max failed login attempts before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Time window for counting failed attempts"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration after exceeding limit"},
	{Name: "rate_limit_intake_attempts", Default: 10, Desc: "Max quote/contact submissions per client IP per window"},
	{Name: "rate_limit_intake_window", Default: "1h", Desc: "Time window for public form submissions"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Back-office event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Seeding configuration
	{Name: "seed_admin_email", Default: "", Desc: "Email of admin user to create on startup"},
	{Name: "seed_admin_name", Default: "Admin", Desc: "Name of admin user to create on startup"},
	{Name: "seed_admin_password", Default: "", Desc: "Initial password of the seeded admin user"},
	{Name: "seed_default_content", Default: true, Desc: "Seed starter content for pages that do not exist yet"},

	{Name: "metrics_enabled", Default: true, Desc: "Serve Prometheus metrics on /metrics"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for simple database operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for multi-step database operations"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, STRATASITE_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),
		SessionIdle:      appValues.Duration("session_idle", 30*time.Minute),

		CSRFKey: appValues.String("csrf_key"),

		// Page cache
		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		PageCacheTTL:  appValues.Duration("page_cache_ttl", 5*time.Minute),

		PublicAPIOrigins: splitList(appValues.String("public_api_origins")),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),
		NotifyEmail:  appValues.String("notify_email"),

		BaseURL: appValues.String("base_url"),

		// Rate limiting
		RateLimitEnabled:        appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts:  appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:    appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:   appValues.Duration("rate_limit_login_lockout", 15*time.Minute),
		RateLimitIntakeAttempts: appValues.Int("rate_limit_intake_attempts"),
		RateLimitIntakeWindow:   appValues.Duration("rate_limit_intake_window", time.Hour),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		// Seeding
		SeedAdminEmail:     appValues.String("seed_admin_email"),
		SeedAdminName:      appValues.String("seed_admin_name"),
		SeedAdminPassword:  appValues.String("seed_admin_password"),
		SeedDefaultContent: appValues.Bool("seed_default_content"),

		MetricsEnabled: appValues.Bool("metrics_enabled"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	var errs []error
	if appCfg.RedisAddr != "" && appCfg.PageCacheTTL <= 0 {
		errs = append(errs, errors.New("page_cache_ttl must be positive when redis_addr is set"))
	}
	if appCfg.RateLimitEnabled {
		if appCfg.RateLimitLoginAttempts <= 0 || appCfg.RateLimitLoginWindow <= 0 || appCfg.RateLimitLoginLockout <= 0 {
			errs = append(errs, errors.New("login rate limit attempts, window and lockout must be positive"))
		}
		if appCfg.RateLimitIntakeAttempts <= 0 || appCfg.RateLimitIntakeWindow <= 0 {
			errs = append(errs, errors.New("intake rate limit attempts and window must be positive"))
		}
	}
	if appCfg.SeedAdminEmail != "" && appCfg.SeedAdminPassword == "" {
		errs = append(errs, errors.New("seed_admin_password is required when seed_admin_email is set"))
	}
	if _, err := auditlog.ParseDestination(appCfg.AuditLogAuth); err != nil {
		errs = append(errs, fmt.Errorf("audit_log_auth: %w", err))
	}
	if _, err := auditlog.ParseDestination(appCfg.AuditLogAdmin); err != nil {
		errs = append(errs, fmt.Errorf("audit_log_admin: %w", err))
	}
	if appCfg.SessionMaxAge <= 0 {
		errs = append(errs, errors.New("session_max_age must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		logger.Error("invalid app configuration", zap.Error(err))
		return err
	}
	return nil
}
